// Package service orchestrates the registry's write and read paths: every
// operation gates on the authorization engine, restricted writes run under the
// identity advisory locks, and updates emit audit change-sets.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"tasjeel/internal/authz"
	"tasjeel/internal/registry/audit"
	"tasjeel/internal/registry/guard"
	"tasjeel/internal/registry/metrics"
	"tasjeel/internal/registry/models"
	dErrors "tasjeel/pkg/domain-errors"
	"tasjeel/pkg/platform/sentinel"
	"tasjeel/pkg/requestcontext"
)

// Store is the persistence surface the service depends on. Both the in-memory
// and the PostgreSQL store satisfy it.
type Store interface {
	TransactionType(ctx context.Context, id int64) (models.TransactionType, error)
	TransactionTypes(ctx context.Context, domain models.Domain) ([]models.TransactionType, error)

	CreateProperty(ctx context.Context, p *models.Property, parties []models.Party) error
	GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
	ListProperties(ctx context.Context, scope authz.Scope) ([]*models.Property, error)
	UpdateProperty(ctx context.Context, p *models.Property) error
	DeleteProperty(ctx context.Context, id uuid.UUID) error

	CreateVehicle(ctx context.Context, v *models.Vehicle, parties []models.Party) error
	GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	ListVehicles(ctx context.Context, scope authz.Scope) ([]*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, v *models.Vehicle) error
	DeleteVehicle(ctx context.Context, id uuid.UUID) error

	CreateCompany(ctx context.Context, c *models.Company) error
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	ListCompanies(ctx context.Context, scope authz.Scope) ([]*models.Company, error)
	UpdateCompany(ctx context.Context, c *models.Company) error
	DeleteCompany(ctx context.Context, id uuid.UUID) error

	PartiesByParent(ctx context.Context, domain models.Domain, parentID uuid.UUID) ([]models.Party, error)
	GetParty(ctx context.Context, id uuid.UUID) (*models.Party, error)
	UpdateParty(ctx context.Context, p *models.Party) error

	CreateCancellation(ctx context.Context, c *models.Cancellation) error
	CancellationByParent(ctx context.Context, domain models.Domain, parentID uuid.UUID) (*models.Cancellation, error)

	Summary(ctx context.Context, scope authz.Scope) (models.Summary, error)
	ListActors(ctx context.Context) ([]models.ActorActivity, error)
}

// AuditReader exposes the persisted audit trail for the history endpoints.
type AuditReader interface {
	ListByEntity(ctx context.Context, kind audit.Kind, entityID uuid.UUID) ([]audit.Entry, error)
}

// Service orchestrates registration, updates, cancellation and reporting.
type Service struct {
	store       Store
	guard       *guard.Guard
	auditor     *audit.Auditor
	auditReader AuditReader
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditReader(r AuditReader) Option {
	return func(s *Service) {
		s.auditReader = r
	}
}

// New constructs a Service. Store, guard and auditor are mandatory: the write
// path is not allowed to exist without duplicate checking and change auditing.
func New(store Store, g *guard.Guard, auditor *audit.Auditor, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if g == nil {
		return nil, errors.New("guard is required")
	}
	if auditor == nil {
		return nil, errors.New("auditor is required")
	}
	s := &Service{store: store, guard: g, auditor: auditor, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// PartyInput is one seller or buyer on a registration or party update.
type PartyInput struct {
	FirstName   string
	FatherName  string
	GrandFather string
	Phone       *string
	Address     *string
}

func (in PartyInput) identity() guard.Identity {
	return guard.Identity{
		FirstName:   in.FirstName,
		FatherName:  in.FatherName,
		GrandFather: in.GrandFather,
	}
}

func (in PartyInput) validate() error {
	if strings.TrimSpace(in.FirstName) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "party first name is required")
	}
	if strings.TrimSpace(in.FatherName) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "party father name is required")
	}
	return nil
}

// requireAccess gates module entry. Denials are uniform so a caller cannot
// probe which modules exist.
func (s *Service) requireAccess(ctx context.Context, caller authz.Caller, module authz.Module, operation string) error {
	if authz.CanAccessModule(caller.Roles, caller.LicenseType, module) {
		return nil
	}
	s.metrics.IncAuthzDenied(string(module), operation)
	s.logger.InfoContext(ctx, "module access denied",
		"module", module,
		"operation", operation,
		"user_id", caller.ID,
	)
	return dErrors.New(dErrors.CodeForbidden, "access to this module is not permitted")
}

func (s *Service) denyOperation(ctx context.Context, caller authz.Caller, module authz.Module, operation string) error {
	s.metrics.IncAuthzDenied(string(module), operation)
	s.logger.InfoContext(ctx, "operation denied",
		"module", module,
		"operation", operation,
		"user_id", caller.ID,
	)
	return dErrors.New(dErrors.CodeForbidden, "this operation is not permitted for your role")
}

// now prefers the request-scoped clock so a whole change-set shares one
// timestamp.
func (s *Service) now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC()
}

// checkParties runs the duplicate check for every proposed party. The caller
// must already hold the identity locks. Each party excludes its own stored
// row, so a record being re-checked never conflicts with itself.
func (s *Service) checkParties(ctx context.Context, domain models.Domain, typeID int64, parties []models.Party) error {
	for _, p := range parties {
		res, err := s.guard.Check(ctx, guard.CheckRequest{
			Domain:            domain,
			Side:              p.Side,
			Identity:          guard.Identity{FirstName: p.FirstName, FatherName: p.FatherName, GrandFather: p.GrandFather},
			TransactionTypeID: typeID,
			ExcludePartyID:    p.ID,
		})
		if err != nil {
			return err
		}
		if res.Duplicate {
			s.metrics.IncDuplicateRejected(string(domain), string(p.Side))
			return dErrors.Newf(dErrors.CodeDuplicateTransaction,
				"%s %s %s already has an active %s transaction",
				p.FirstName, p.FatherName, p.GrandFather, res.MatchedTypeName)
		}
	}
	return nil
}

// guardedUpdate persists a parent-record update. Moving the record onto a
// different restricted transaction type re-opens the duplicate question for
// every party already on the record, so that case re-runs the check under the
// same identity locks the registration path holds.
func (s *Service) guardedUpdate(ctx context.Context, domain models.Domain, parentID uuid.UUID, oldTypeID, newTypeID int64, persist func(ctx context.Context) error) error {
	if newTypeID == oldTypeID || !s.guard.Restricted(domain, newTypeID) {
		return persist(ctx)
	}
	parties, err := s.store.PartiesByParent(ctx, domain, parentID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transaction parties")
	}
	err = s.guard.WithLocks(ctx, lockKeys(domain, parties), func(ctx context.Context) error {
		if err := s.checkParties(ctx, domain, newTypeID, parties); err != nil {
			return err
		}
		return persist(ctx)
	})
	if err != nil && dErrors.Is(err, dErrors.CodeConcurrencyConflict) {
		s.metrics.IncConcurrencyConflict()
	}
	return err
}

// lockKeys derives the advisory-lock keys for a set of proposed parties.
func lockKeys(domain models.Domain, parties []models.Party) []string {
	keys := make([]string, 0, len(parties))
	for _, p := range parties {
		keys = append(keys, guard.LockKey(domain, p.Side, guard.Identity{
			FirstName:   p.FirstName,
			FatherName:  p.FatherName,
			GrandFather: p.GrandFather,
		}))
	}
	return keys
}

// buildParties materializes the seller and buyer inputs for a new parent.
func buildParties(domain models.Domain, parentID uuid.UUID, sellers, buyers []PartyInput, createdBy string, createdAt time.Time) ([]models.Party, error) {
	build := func(side models.Side, inputs []PartyInput) ([]models.Party, error) {
		out := make([]models.Party, 0, len(inputs))
		for _, in := range inputs {
			if err := in.validate(); err != nil {
				return nil, err
			}
			out = append(out, models.Party{
				ID:          uuid.New(),
				Domain:      domain,
				Side:        side,
				ParentID:    parentID,
				FirstName:   strings.TrimSpace(in.FirstName),
				FatherName:  strings.TrimSpace(in.FatherName),
				GrandFather: strings.TrimSpace(in.GrandFather),
				Phone:       in.Phone,
				Address:     in.Address,
				CreatedBy:   createdBy,
				CreatedAt:   createdAt,
			})
		}
		return out, nil
	}

	if len(sellers) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "at least one seller is required")
	}
	if len(buyers) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "at least one buyer is required")
	}
	sellerRows, err := build(models.SideSeller, sellers)
	if err != nil {
		return nil, err
	}
	buyerRows, err := build(models.SideBuyer, buyers)
	if err != nil {
		return nil, err
	}
	return append(sellerRows, buyerRows...), nil
}

// resolveTransactionType loads the type and verifies it belongs to the domain.
func (s *Service) resolveTransactionType(ctx context.Context, domain models.Domain, typeID int64) (models.TransactionType, error) {
	tt, err := s.store.TransactionType(ctx, typeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.TransactionType{}, dErrors.New(dErrors.CodeBadRequest, "unknown transaction type")
		}
		return models.TransactionType{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transaction type")
	}
	if tt.Domain != domain {
		return models.TransactionType{}, dErrors.Newf(dErrors.CodeBadRequest, "transaction type %q does not belong to the %s domain", tt.Name, domain)
	}
	return tt, nil
}

// recordAudit persists a change-set and maps the outcome onto metrics. An
// audit failure is fatal for the request even though the entity write already
// committed.
func (s *Service) recordAudit(ctx context.Context, kind audit.Kind, entityID uuid.UUID, old, updated audit.Snapshot, actor string, at time.Time) error {
	n, err := s.auditor.Record(ctx, kind, entityID, old, updated, actor, at)
	if err != nil {
		s.metrics.IncAuditFailure(string(kind))
		return err
	}
	s.metrics.AddAuditEntries(string(kind), n)
	return nil
}

// TransactionTypes lists the domain's lookup table for form population.
func (s *Service) TransactionTypes(ctx context.Context, caller authz.Caller, domain models.Domain) ([]models.TransactionType, error) {
	module := authz.ModuleProperty
	if domain == models.DomainVehicle {
		module = authz.ModuleVehicle
	}
	if err := s.requireAccess(ctx, caller, module, "list_transaction_types"); err != nil {
		return nil, err
	}
	types, err := s.store.TransactionTypes(ctx, domain)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list transaction types")
	}
	sort.Slice(types, func(i, j int) bool { return types[i].ID < types[j].ID })
	return types, nil
}
