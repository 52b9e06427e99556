package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"tasjeel/internal/authz"
	"tasjeel/internal/registry/guard"
	"tasjeel/internal/registry/models"
	dErrors "tasjeel/pkg/domain-errors"
)

// UpdateParty edits one seller or buyer row. The duplicate check runs with
// the row itself excluded, so renaming a party back to its own identity never
// self-conflicts, while renaming onto another live restricted identity is
// rejected.
func (s *Service) UpdateParty(ctx context.Context, caller authz.Caller, id uuid.UUID, in PartyInput) (*models.Party, error) {
	party, err := s.store.GetParty(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, "party")
	}

	module := authz.ModuleProperty
	if party.Domain == models.DomainVehicle {
		module = authz.ModuleVehicle
	}
	if err := s.requireAccess(ctx, caller, module, "update_party"); err != nil {
		return nil, err
	}

	owner, typeID, err := s.parentOwnership(ctx, party.Domain, party.ParentID)
	if err != nil {
		return nil, err
	}
	if !authz.CanEdit(caller.Roles, module, owner, caller.ID) {
		return nil, s.denyOperation(ctx, caller, module, "update_party")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	updated := *party
	updated.FirstName = strings.TrimSpace(in.FirstName)
	updated.FatherName = strings.TrimSpace(in.FatherName)
	updated.GrandFather = strings.TrimSpace(in.GrandFather)
	updated.Phone = in.Phone
	updated.Address = in.Address
	updated.CreatedBy = party.CreatedBy
	updated.CreatedAt = party.CreatedAt

	identity := in.identity()
	key := guard.LockKey(party.Domain, party.Side, identity)
	err = s.guard.WithLocks(ctx, []string{key}, func(ctx context.Context) error {
		res, err := s.guard.Check(ctx, guard.CheckRequest{
			Domain:            party.Domain,
			Side:              party.Side,
			Identity:          identity,
			TransactionTypeID: typeID,
			ExcludePartyID:    party.ID,
		})
		if err != nil {
			return err
		}
		if res.Duplicate {
			s.metrics.IncDuplicateRejected(string(party.Domain), string(party.Side))
			return dErrors.Newf(dErrors.CodeDuplicateTransaction,
				"%s %s %s already has an active %s transaction",
				updated.FirstName, updated.FatherName, updated.GrandFather, res.MatchedTypeName)
		}
		if err := s.store.UpdateParty(ctx, &updated); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update party")
		}
		return nil
	})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeConcurrencyConflict) {
			s.metrics.IncConcurrencyConflict()
		}
		return nil, err
	}

	if err := s.recordAudit(ctx, party.AuditKind(), party.ID, party.Snapshot(), updated.Snapshot(), caller.ID, s.now(ctx)); err != nil {
		return nil, err
	}
	return &updated, nil
}

// parentOwnership resolves the parent record's owner and transaction type.
func (s *Service) parentOwnership(ctx context.Context, domain models.Domain, parentID uuid.UUID) (string, int64, error) {
	switch domain {
	case models.DomainProperty:
		p, err := s.store.GetProperty(ctx, parentID)
		if err != nil {
			return "", 0, mapLoadError(err, "property")
		}
		return p.CreatedBy, p.TransactionTypeID, nil
	case models.DomainVehicle:
		v, err := s.store.GetVehicle(ctx, parentID)
		if err != nil {
			return "", 0, mapLoadError(err, "vehicle")
		}
		return v.CreatedBy, v.TransactionTypeID, nil
	default:
		return "", 0, dErrors.Newf(dErrors.CodeInternal, "unknown party domain %q", domain)
	}
}
