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

// RegisterVehicleInput carries a new vehicle transaction and its parties.
type RegisterVehicleInput struct {
	PlateNo           string
	ChassisNo         string
	EngineNo          string
	Model             string
	PriceAfs          int64
	TransactionTypeID int64
	Sellers           []PartyInput
	Buyers            []PartyInput
}

func (in RegisterVehicleInput) validate() error {
	if strings.TrimSpace(in.PlateNo) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "plate number is required")
	}
	if strings.TrimSpace(in.ChassisNo) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "chassis number is required")
	}
	if strings.TrimSpace(in.Model) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "vehicle model is required")
	}
	if in.PriceAfs <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "price must be positive")
	}
	return nil
}

// UpdateVehicleInput carries the editable fields of a vehicle transaction.
type UpdateVehicleInput struct {
	PlateNo           string
	ChassisNo         string
	EngineNo          string
	Model             string
	PriceAfs          int64
	TransactionTypeID int64
}

// VehicleDetails is a vehicle with its parties and cancellation state.
type VehicleDetails struct {
	Vehicle      *models.Vehicle
	Sellers      []models.Party
	Buyers       []models.Party
	Cancellation *models.Cancellation
}

// RegisterVehicle mirrors RegisterProperty for the vehicle domain.
func (s *Service) RegisterVehicle(ctx context.Context, caller authz.Caller, in RegisterVehicleInput) (*models.Vehicle, error) {
	started := time.Now()
	if err := s.requireAccess(ctx, caller, authz.ModuleVehicle, "register"); err != nil {
		return nil, err
	}
	if !authz.CanCreate(caller.Roles, authz.ModuleVehicle) {
		return nil, s.denyOperation(ctx, caller, authz.ModuleVehicle, "register")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.resolveTransactionType(ctx, models.DomainVehicle, in.TransactionTypeID); err != nil {
		return nil, err
	}

	now := s.now(ctx)
	vehicle := &models.Vehicle{
		ID:                uuid.New(),
		PlateNo:           strings.TrimSpace(in.PlateNo),
		ChassisNo:         strings.TrimSpace(in.ChassisNo),
		EngineNo:          strings.TrimSpace(in.EngineNo),
		Model:             strings.TrimSpace(in.Model),
		PriceAfs:          in.PriceAfs,
		TransactionTypeID: in.TransactionTypeID,
		CreatedBy:         caller.ID,
		CreatedAt:         now,
	}
	parties, err := buildParties(models.DomainVehicle, vehicle.ID, in.Sellers, in.Buyers, caller.ID, now)
	if err != nil {
		return nil, err
	}

	err = s.guard.WithLocks(ctx, lockKeys(models.DomainVehicle, parties), func(ctx context.Context) error {
		if err := s.checkParties(ctx, models.DomainVehicle, in.TransactionTypeID, parties); err != nil {
			return err
		}
		if err := s.store.CreateVehicle(ctx, vehicle, parties); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist vehicle transaction")
		}
		return nil
	})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeConcurrencyConflict) {
			s.metrics.IncConcurrencyConflict()
		}
		return nil, err
	}

	s.metrics.IncRegistration(string(models.DomainVehicle))
	s.metrics.ObserveRegisterLatency(string(models.DomainVehicle), time.Since(started))
	s.logger.InfoContext(ctx, "vehicle transaction registered",
		"vehicle_id", vehicle.ID,
		"transaction_type_id", vehicle.TransactionTypeID,
		"created_by", caller.ID,
	)
	return vehicle, nil
}

// GetVehicle returns one vehicle with parties and cancellation state.
func (s *Service) GetVehicle(ctx context.Context, caller authz.Caller, id uuid.UUID) (*VehicleDetails, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleVehicle, "get"); err != nil {
		return nil, err
	}
	vehicle, err := s.loadScopedVehicle(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return s.vehicleDetails(ctx, vehicle)
}

// ListVehicles returns the caller's visible slice of the register, newest
// first.
func (s *Service) ListVehicles(ctx context.Context, caller authz.Caller) ([]*models.Vehicle, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleVehicle, "list"); err != nil {
		return nil, err
	}
	scope := authz.ScopeQuery(caller.Roles, authz.ModuleVehicle, caller.ID)
	vehicles, err := s.store.ListVehicles(ctx, scope)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list vehicles")
	}
	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].CreatedAt.After(vehicles[j].CreatedAt) })
	return vehicles, nil
}

// UpdateVehicle applies edits to the parent record and emits the audit
// change-set.
func (s *Service) UpdateVehicle(ctx context.Context, caller authz.Caller, id uuid.UUID, in UpdateVehicleInput) (*models.Vehicle, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleVehicle, "update"); err != nil {
		return nil, err
	}
	existing, err := s.store.GetVehicle(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, "vehicle")
	}
	if !authz.CanEdit(caller.Roles, authz.ModuleVehicle, existing.CreatedBy, caller.ID) {
		return nil, s.denyOperation(ctx, caller, authz.ModuleVehicle, "update")
	}
	if _, err := s.resolveTransactionType(ctx, models.DomainVehicle, in.TransactionTypeID); err != nil {
		return nil, err
	}

	updated := *existing
	updated.PlateNo = strings.TrimSpace(in.PlateNo)
	updated.ChassisNo = strings.TrimSpace(in.ChassisNo)
	updated.EngineNo = strings.TrimSpace(in.EngineNo)
	updated.Model = strings.TrimSpace(in.Model)
	updated.PriceAfs = in.PriceAfs
	updated.TransactionTypeID = in.TransactionTypeID
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt

	err = s.guardedUpdate(ctx, models.DomainVehicle, updated.ID, existing.TransactionTypeID, updated.TransactionTypeID, func(ctx context.Context) error {
		if err := s.store.UpdateVehicle(ctx, &updated); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update vehicle")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, audit.KindVehicle, updated.ID, existing.Snapshot(), updated.Snapshot(), caller.ID, s.now(ctx)); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteVehicle removes the record and its parties. Admin only.
func (s *Service) DeleteVehicle(ctx context.Context, caller authz.Caller, id uuid.UUID) error {
	if err := s.requireAccess(ctx, caller, authz.ModuleVehicle, "delete"); err != nil {
		return err
	}
	if !authz.CanDelete(caller.Roles, authz.ModuleVehicle) {
		return s.denyOperation(ctx, caller, authz.ModuleVehicle, "delete")
	}
	if err := s.store.DeleteVehicle(ctx, id); err != nil {
		return mapLoadError(err, "vehicle")
	}
	s.logger.InfoContext(ctx, "vehicle transaction deleted", "vehicle_id", id, "deleted_by", caller.ID)
	return nil
}

// CancelVehicle records the cancellation sidecar for a vehicle transaction.
func (s *Service) CancelVehicle(ctx context.Context, caller authz.Caller, id uuid.UUID, reason string) (*models.Cancellation, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleVehicle, "cancel"); err != nil {
		return nil, err
	}
	existing, err := s.store.GetVehicle(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, "vehicle")
	}
	if !authz.CanEdit(caller.Roles, authz.ModuleVehicle, existing.CreatedBy, caller.ID) {
		return nil, s.denyOperation(ctx, caller, authz.ModuleVehicle, "cancel")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cancellation reason is required")
	}

	cancellation := &models.Cancellation{
		ID:          uuid.New(),
		Domain:      models.DomainVehicle,
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
	s.metrics.IncCancellation(string(models.DomainVehicle))
	s.logger.InfoContext(ctx, "vehicle transaction cancelled",
		"vehicle_id", id,
		"cancelled_by", caller.ID,
	)
	return cancellation, nil
}

// VehicleHistory returns the audit trail of the parent record.
func (s *Service) VehicleHistory(ctx context.Context, caller authz.Caller, id uuid.UUID) ([]audit.Entry, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleVehicle, "history"); err != nil {
		return nil, err
	}
	if s.auditReader == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "audit trail reader is not configured")
	}
	if _, err := s.loadScopedVehicle(ctx, caller, id); err != nil {
		return nil, err
	}
	entries, err := s.auditReader.ListByEntity(ctx, audit.KindVehicle, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit trail")
	}
	return entries, nil
}

func (s *Service) loadScopedVehicle(ctx context.Context, caller authz.Caller, id uuid.UUID) (*models.Vehicle, error) {
	vehicle, err := s.store.GetVehicle(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, "vehicle")
	}
	scope := authz.ScopeQuery(caller.Roles, authz.ModuleVehicle, caller.ID)
	if !scope.Matches(vehicle.CreatedBy) {
		return nil, dErrors.New(dErrors.CodeNotFound, "vehicle not found")
	}
	return vehicle, nil
}

func (s *Service) vehicleDetails(ctx context.Context, vehicle *models.Vehicle) (*VehicleDetails, error) {
	parties, err := s.store.PartiesByParent(ctx, models.DomainVehicle, vehicle.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load parties")
	}
	details := &VehicleDetails{Vehicle: vehicle}
	for _, p := range parties {
		if p.Side == models.SideSeller {
			details.Sellers = append(details.Sellers, p)
		} else {
			details.Buyers = append(details.Buyers, p)
		}
	}
	cancellation, err := s.store.CancellationByParent(ctx, models.DomainVehicle, vehicle.ID)
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
