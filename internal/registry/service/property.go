package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"tasjeel/internal/authz"
	"tasjeel/internal/registry/audit"
	"tasjeel/internal/registry/models"
	dErrors "tasjeel/pkg/domain-errors"
	"tasjeel/pkg/platform/sentinel"
)

// RegisterPropertyInput carries a new property transaction and its parties.
type RegisterPropertyInput struct {
	DocumentNo        string
	District          string
	PlotNo            string
	AreaSqm           int64
	PriceAfs          int64
	TransactionTypeID int64
	Sellers           []PartyInput
	Buyers            []PartyInput
}

func (in RegisterPropertyInput) validate() error {
	if strings.TrimSpace(in.DocumentNo) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "document number is required")
	}
	if strings.TrimSpace(in.District) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "district is required")
	}
	if strings.TrimSpace(in.PlotNo) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "plot number is required")
	}
	if in.AreaSqm <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "area must be positive")
	}
	if in.PriceAfs <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "price must be positive")
	}
	return nil
}

// UpdatePropertyInput carries the editable fields of a property transaction.
// Ownership fields are never part of the payload; they are restored from the
// stored record.
type UpdatePropertyInput struct {
	DocumentNo        string
	District          string
	PlotNo            string
	AreaSqm           int64
	PriceAfs          int64
	TransactionTypeID int64
}

// PropertyDetails is a property with its parties and cancellation state.
type PropertyDetails struct {
	Property     *models.Property
	Sellers      []models.Party
	Buyers       []models.Party
	Cancellation *models.Cancellation
}

// RegisterProperty validates, runs the duplicate check under the identity
// locks, and persists the transaction with its parties. Creation emits no
// audit rows; the trail records changes, not existence.
func (s *Service) RegisterProperty(ctx context.Context, caller authz.Caller, in RegisterPropertyInput) (*models.Property, error) {
	started := time.Now()
	if err := s.requireAccess(ctx, caller, authz.ModuleProperty, "register"); err != nil {
		return nil, err
	}
	if !authz.CanCreate(caller.Roles, authz.ModuleProperty) {
		return nil, s.denyOperation(ctx, caller, authz.ModuleProperty, "register")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.resolveTransactionType(ctx, models.DomainProperty, in.TransactionTypeID); err != nil {
		return nil, err
	}

	now := s.now(ctx)
	property := &models.Property{
		ID:                uuid.New(),
		DocumentNo:        strings.TrimSpace(in.DocumentNo),
		District:          strings.TrimSpace(in.District),
		PlotNo:            strings.TrimSpace(in.PlotNo),
		AreaSqm:           in.AreaSqm,
		PriceAfs:          in.PriceAfs,
		TransactionTypeID: in.TransactionTypeID,
		CreatedBy:         caller.ID,
		CreatedAt:         now,
	}
	parties, err := buildParties(models.DomainProperty, property.ID, in.Sellers, in.Buyers, caller.ID, now)
	if err != nil {
		return nil, err
	}

	err = s.guard.WithLocks(ctx, lockKeys(models.DomainProperty, parties), func(ctx context.Context) error {
		if err := s.checkParties(ctx, models.DomainProperty, in.TransactionTypeID, parties); err != nil {
			return err
		}
		if err := s.store.CreateProperty(ctx, property, parties); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist property transaction")
		}
		return nil
	})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeConcurrencyConflict) {
			s.metrics.IncConcurrencyConflict()
		}
		return nil, err
	}

	s.metrics.IncRegistration(string(models.DomainProperty))
	s.metrics.ObserveRegisterLatency(string(models.DomainProperty), time.Since(started))
	s.logger.InfoContext(ctx, "property transaction registered",
		"property_id", property.ID,
		"transaction_type_id", property.TransactionTypeID,
		"created_by", caller.ID,
	)
	return property, nil
}

// GetProperty returns one property with parties and cancellation state. A
// record outside the caller's ownership scope reads as not found.
func (s *Service) GetProperty(ctx context.Context, caller authz.Caller, id uuid.UUID) (*PropertyDetails, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleProperty, "get"); err != nil {
		return nil, err
	}
	property, err := s.loadScopedProperty(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return s.propertyDetails(ctx, property)
}

// ListProperties returns the caller's visible slice of the register, newest
// first.
func (s *Service) ListProperties(ctx context.Context, caller authz.Caller) ([]*models.Property, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleProperty, "list"); err != nil {
		return nil, err
	}
	scope := authz.ScopeQuery(caller.Roles, authz.ModuleProperty, caller.ID)
	properties, err := s.store.ListProperties(ctx, scope)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list properties")
	}
	sort.Slice(properties, func(i, j int) bool { return properties[i].CreatedAt.After(properties[j].CreatedAt) })
	return properties, nil
}

// UpdateProperty applies edits to the parent record and emits the audit
// change-set. The persisted entity write and the audit write are ordered so
// an audit failure surfaces as a fatal error instead of a silent gap.
func (s *Service) UpdateProperty(ctx context.Context, caller authz.Caller, id uuid.UUID, in UpdatePropertyInput) (*models.Property, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleProperty, "update"); err != nil {
		return nil, err
	}
	existing, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, "property")
	}
	if !authz.CanEdit(caller.Roles, authz.ModuleProperty, existing.CreatedBy, caller.ID) {
		return nil, s.denyOperation(ctx, caller, authz.ModuleProperty, "update")
	}
	if _, err := s.resolveTransactionType(ctx, models.DomainProperty, in.TransactionTypeID); err != nil {
		return nil, err
	}

	updated := *existing
	updated.DocumentNo = strings.TrimSpace(in.DocumentNo)
	updated.District = strings.TrimSpace(in.District)
	updated.PlotNo = strings.TrimSpace(in.PlotNo)
	updated.AreaSqm = in.AreaSqm
	updated.PriceAfs = in.PriceAfs
	updated.TransactionTypeID = in.TransactionTypeID
	// Ownership is immutable: whatever the payload claimed, the stored
	// values win.
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt

	err = s.guardedUpdate(ctx, models.DomainProperty, updated.ID, existing.TransactionTypeID, updated.TransactionTypeID, func(ctx context.Context) error {
		if err := s.store.UpdateProperty(ctx, &updated); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update property")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, audit.KindProperty, updated.ID, existing.Snapshot(), updated.Snapshot(), caller.ID, s.now(ctx)); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProperty removes the record and its parties. Hard rule: admin only.
func (s *Service) DeleteProperty(ctx context.Context, caller authz.Caller, id uuid.UUID) error {
	if err := s.requireAccess(ctx, caller, authz.ModuleProperty, "delete"); err != nil {
		return err
	}
	if !authz.CanDelete(caller.Roles, authz.ModuleProperty) {
		return s.denyOperation(ctx, caller, authz.ModuleProperty, "delete")
	}
	if err := s.store.DeleteProperty(ctx, id); err != nil {
		return mapLoadError(err, "property")
	}
	s.logger.InfoContext(ctx, "property transaction deleted", "property_id", id, "deleted_by", caller.ID)
	return nil
}

// CancelProperty records the cancellation sidecar. The original rows stay
// untouched; the identity becomes free for new restricted transactions the
// moment the sidecar row exists.
func (s *Service) CancelProperty(ctx context.Context, caller authz.Caller, id uuid.UUID, reason string) (*models.Cancellation, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleProperty, "cancel"); err != nil {
		return nil, err
	}
	existing, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, "property")
	}
	if !authz.CanEdit(caller.Roles, authz.ModuleProperty, existing.CreatedBy, caller.ID) {
		return nil, s.denyOperation(ctx, caller, authz.ModuleProperty, "cancel")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cancellation reason is required")
	}

	cancellation := &models.Cancellation{
		ID:          uuid.New(),
		Domain:      models.DomainProperty,
		ParentID:    id,
		Reason:      strings.TrimSpace(reason),
		CancelledBy: caller.ID,
		CancelledAt: s.now(ctx),
	}
	if err := s.store.CreateCancellation(ctx, cancellation); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "transaction is already cancelled")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record cancellation")
	}
	s.metrics.IncCancellation(string(models.DomainProperty))
	s.logger.InfoContext(ctx, "property transaction cancelled",
		"property_id", id,
		"cancelled_by", caller.ID,
	)
	return cancellation, nil
}

// PropertyHistory returns the audit trail of the parent record.
func (s *Service) PropertyHistory(ctx context.Context, caller authz.Caller, id uuid.UUID) ([]audit.Entry, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleProperty, "history"); err != nil {
		return nil, err
	}
	if s.auditReader == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "audit trail reader is not configured")
	}
	if _, err := s.loadScopedProperty(ctx, caller, id); err != nil {
		return nil, err
	}
	entries, err := s.auditReader.ListByEntity(ctx, audit.KindProperty, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit trail")
	}
	return entries, nil
}

func (s *Service) loadScopedProperty(ctx context.Context, caller authz.Caller, id uuid.UUID) (*models.Property, error) {
	property, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, "property")
	}
	scope := authz.ScopeQuery(caller.Roles, authz.ModuleProperty, caller.ID)
	if !scope.Matches(property.CreatedBy) {
		// Indistinguishable from absence so record ids cannot be probed.
		return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
	}
	return property, nil
}

func (s *Service) propertyDetails(ctx context.Context, property *models.Property) (*PropertyDetails, error) {
	parties, err := s.store.PartiesByParent(ctx, models.DomainProperty, property.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load parties")
	}
	details := &PropertyDetails{Property: property}
	for _, p := range parties {
		if p.Side == models.SideSeller {
			details.Sellers = append(details.Sellers, p)
		} else {
			details.Buyers = append(details.Buyers, p)
		}
	}
	cancellation, err := s.store.CancellationByParent(ctx, models.DomainProperty, property.ID)
	switch {
	case err == nil:
		details.Cancellation = cancellation
	case errors.Is(err, sentinel.ErrNotFound):
		// Live transaction.
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load cancellation state")
	}
	return details, nil
}

func mapLoadError(err error, entity string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "%s not found", entity)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+entity)
}
