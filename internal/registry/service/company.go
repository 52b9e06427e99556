package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"tasjeel/internal/authz"
	"tasjeel/internal/registry/audit"
	"tasjeel/internal/registry/models"
	dErrors "tasjeel/pkg/domain-errors"
	"tasjeel/pkg/platform/sentinel"
)

// CompanyInput carries the editable fields of a company registration.
type CompanyInput struct {
	Name        string
	LicenseNo   string
	LicenseType authz.LicenseType
	Address     *string
}

func (in CompanyInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "company name is required")
	}
	if strings.TrimSpace(in.LicenseNo) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "license number is required")
	}
	switch in.LicenseType {
	case authz.LicenseRealEstate, authz.LicenseCarSale:
		return nil
	default:
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown license type %q", in.LicenseType)
	}
}

// RegisterCompany registers a licensed company. The license number is unique
// across the register.
func (s *Service) RegisterCompany(ctx context.Context, caller authz.Caller, in CompanyInput) (*models.Company, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleCompany, "register"); err != nil {
		return nil, err
	}
	if !authz.CanCreate(caller.Roles, authz.ModuleCompany) {
		return nil, s.denyOperation(ctx, caller, authz.ModuleCompany, "register")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	company := &models.Company{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		LicenseNo:   strings.TrimSpace(in.LicenseNo),
		LicenseType: in.LicenseType,
		Address:     in.Address,
		CreatedBy:   caller.ID,
		CreatedAt:   s.now(ctx),
	}
	if err := s.store.CreateCompany(ctx, company); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a company with this license number already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register company")
	}

	s.metrics.IncRegistration("company")
	s.logger.InfoContext(ctx, "company registered",
		"company_id", company.ID,
		"license_type", company.LicenseType,
		"created_by", caller.ID,
	)
	return company, nil
}

// GetCompany returns one company. Outside the caller's scope it reads as not
// found.
func (s *Service) GetCompany(ctx context.Context, caller authz.Caller, id uuid.UUID) (*models.Company, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleCompany, "get"); err != nil {
		return nil, err
	}
	return s.loadScopedCompany(ctx, caller, id)
}

// ListCompanies returns the caller's visible slice of the register.
func (s *Service) ListCompanies(ctx context.Context, caller authz.Caller) ([]*models.Company, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleCompany, "list"); err != nil {
		return nil, err
	}
	scope := authz.ScopeQuery(caller.Roles, authz.ModuleCompany, caller.ID)
	companies, err := s.store.ListCompanies(ctx, scope)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list companies")
	}
	sort.Slice(companies, func(i, j int) bool { return companies[i].CreatedAt.After(companies[j].CreatedAt) })
	return companies, nil
}

// UpdateCompany applies edits and emits the audit change-set.
func (s *Service) UpdateCompany(ctx context.Context, caller authz.Caller, id uuid.UUID, in CompanyInput) (*models.Company, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleCompany, "update"); err != nil {
		return nil, err
	}
	existing, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, "company")
	}
	if !authz.CanEdit(caller.Roles, authz.ModuleCompany, existing.CreatedBy, caller.ID) {
		return nil, s.denyOperation(ctx, caller, authz.ModuleCompany, "update")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	updated := *existing
	updated.Name = strings.TrimSpace(in.Name)
	updated.LicenseNo = strings.TrimSpace(in.LicenseNo)
	updated.LicenseType = in.LicenseType
	updated.Address = in.Address
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateCompany(ctx, &updated); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a company with this license number already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update company")
	}
	if err := s.recordAudit(ctx, audit.KindCompany, updated.ID, existing.Snapshot(), updated.Snapshot(), caller.ID, s.now(ctx)); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCompany removes the record. Admin only.
func (s *Service) DeleteCompany(ctx context.Context, caller authz.Caller, id uuid.UUID) error {
	if err := s.requireAccess(ctx, caller, authz.ModuleCompany, "delete"); err != nil {
		return err
	}
	if !authz.CanDelete(caller.Roles, authz.ModuleCompany) {
		return s.denyOperation(ctx, caller, authz.ModuleCompany, "delete")
	}
	if err := s.store.DeleteCompany(ctx, id); err != nil {
		return mapLoadError(err, "company")
	}
	s.logger.InfoContext(ctx, "company deleted", "company_id", id, "deleted_by", caller.ID)
	return nil
}

// CompanyHistory returns the audit trail of the company record.
func (s *Service) CompanyHistory(ctx context.Context, caller authz.Caller, id uuid.UUID) ([]audit.Entry, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleCompany, "history"); err != nil {
		return nil, err
	}
	if s.auditReader == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "audit trail reader is not configured")
	}
	if _, err := s.loadScopedCompany(ctx, caller, id); err != nil {
		return nil, err
	}
	entries, err := s.auditReader.ListByEntity(ctx, audit.KindCompany, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit trail")
	}
	return entries, nil
}

func (s *Service) loadScopedCompany(ctx context.Context, caller authz.Caller, id uuid.UUID) (*models.Company, error) {
	company, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, "company")
	}
	scope := authz.ScopeQuery(caller.Roles, authz.ModuleCompany, caller.ID)
	if !scope.Matches(company.CreatedBy) {
		return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
	}
	return company, nil
}
