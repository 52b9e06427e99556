package service

import (
	"context"
	"sort"

	"tasjeel/internal/authz"
	"tasjeel/internal/registry/models"
	dErrors "tasjeel/pkg/domain-errors"
)

// ReportSummary aggregates registration counts through the caller's ownership
// scope: operators report on their own work, oversight roles on everything.
func (s *Service) ReportSummary(ctx context.Context, caller authz.Caller) (models.Summary, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleReports, "summary"); err != nil {
		return models.Summary{}, err
	}
	scope := authz.ScopeQuery(caller.Roles, authz.ModuleReports, caller.ID)
	summary, err := s.store.Summary(ctx, scope)
	if err != nil {
		return models.Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build report summary")
	}
	return summary, nil
}

// DashboardSummary is the same aggregate behind the dashboard module's gate.
func (s *Service) DashboardSummary(ctx context.Context, caller authz.Caller) (models.Summary, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleDashboard, "summary"); err != nil {
		return models.Summary{}, err
	}
	scope := authz.ScopeQuery(caller.Roles, authz.ModuleDashboard, caller.ID)
	summary, err := s.store.Summary(ctx, scope)
	if err != nil {
		return models.Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build dashboard summary")
	}
	return summary, nil
}

// ListActors reports per-user registration activity. Part of the user
// administration surface, so admin only.
func (s *Service) ListActors(ctx context.Context, caller authz.Caller) ([]models.ActorActivity, error) {
	if err := s.requireAccess(ctx, caller, authz.ModuleUsers, "list_actors"); err != nil {
		return nil, err
	}
	actors, err := s.store.ListActors(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list actor activity")
	}
	sort.Slice(actors, func(i, j int) bool { return actors[i].LastCreatedAt.After(actors[j].LastCreatedAt) })
	return actors, nil
}
