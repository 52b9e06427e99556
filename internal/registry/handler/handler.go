// Package handler exposes the registry over HTTP. Handlers translate between
// the wire and the service; every decision about who may do what lives below
// this layer.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tasjeel/internal/authz"
	"tasjeel/internal/registry/audit"
	"tasjeel/internal/registry/models"
	"tasjeel/internal/registry/service"
	dErrors "tasjeel/pkg/domain-errors"
	"tasjeel/pkg/platform/httputil"
	"tasjeel/pkg/requestcontext"
)

// Service defines the registry operations the HTTP layer needs.
type Service interface {
	TransactionTypes(ctx context.Context, caller authz.Caller, domain models.Domain) ([]models.TransactionType, error)

	RegisterProperty(ctx context.Context, caller authz.Caller, in service.RegisterPropertyInput) (*models.Property, error)
	GetProperty(ctx context.Context, caller authz.Caller, id uuid.UUID) (*service.PropertyDetails, error)
	ListProperties(ctx context.Context, caller authz.Caller) ([]*models.Property, error)
	UpdateProperty(ctx context.Context, caller authz.Caller, id uuid.UUID, in service.UpdatePropertyInput) (*models.Property, error)
	DeleteProperty(ctx context.Context, caller authz.Caller, id uuid.UUID) error
	CancelProperty(ctx context.Context, caller authz.Caller, id uuid.UUID, reason string) (*models.Cancellation, error)
	PropertyHistory(ctx context.Context, caller authz.Caller, id uuid.UUID) ([]audit.Entry, error)

	RegisterVehicle(ctx context.Context, caller authz.Caller, in service.RegisterVehicleInput) (*models.Vehicle, error)
	GetVehicle(ctx context.Context, caller authz.Caller, id uuid.UUID) (*service.VehicleDetails, error)
	ListVehicles(ctx context.Context, caller authz.Caller) ([]*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, caller authz.Caller, id uuid.UUID, in service.UpdateVehicleInput) (*models.Vehicle, error)
	DeleteVehicle(ctx context.Context, caller authz.Caller, id uuid.UUID) error
	CancelVehicle(ctx context.Context, caller authz.Caller, id uuid.UUID, reason string) (*models.Cancellation, error)
	VehicleHistory(ctx context.Context, caller authz.Caller, id uuid.UUID) ([]audit.Entry, error)

	RegisterCompany(ctx context.Context, caller authz.Caller, in service.CompanyInput) (*models.Company, error)
	GetCompany(ctx context.Context, caller authz.Caller, id uuid.UUID) (*models.Company, error)
	ListCompanies(ctx context.Context, caller authz.Caller) ([]*models.Company, error)
	UpdateCompany(ctx context.Context, caller authz.Caller, id uuid.UUID, in service.CompanyInput) (*models.Company, error)
	DeleteCompany(ctx context.Context, caller authz.Caller, id uuid.UUID) error
	CompanyHistory(ctx context.Context, caller authz.Caller, id uuid.UUID) ([]audit.Entry, error)

	UpdateParty(ctx context.Context, caller authz.Caller, id uuid.UUID, in service.PartyInput) (*models.Party, error)

	ReportSummary(ctx context.Context, caller authz.Caller) (models.Summary, error)
	DashboardSummary(ctx context.Context, caller authz.Caller) (models.Summary, error)
	ListActors(ctx context.Context, caller authz.Caller) ([]models.ActorActivity, error)
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registry handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts all registry endpoints on the router. Authentication
// middleware must already have populated the request context.
func (h *Handler) Register(r chi.Router) {
	r.Get("/transaction-types/{domain}", h.HandleListTransactionTypes)

	r.Route("/properties", func(r chi.Router) {
		r.Post("/", h.HandleRegisterProperty)
		r.Get("/", h.HandleListProperties)
		r.Get("/{id}", h.HandleGetProperty)
		r.Put("/{id}", h.HandleUpdateProperty)
		r.Delete("/{id}", h.HandleDeleteProperty)
		r.Post("/{id}/cancel", h.HandleCancelProperty)
		r.Get("/{id}/history", h.HandlePropertyHistory)
	})

	r.Route("/vehicles", func(r chi.Router) {
		r.Post("/", h.HandleRegisterVehicle)
		r.Get("/", h.HandleListVehicles)
		r.Get("/{id}", h.HandleGetVehicle)
		r.Put("/{id}", h.HandleUpdateVehicle)
		r.Delete("/{id}", h.HandleDeleteVehicle)
		r.Post("/{id}/cancel", h.HandleCancelVehicle)
		r.Get("/{id}/history", h.HandleVehicleHistory)
	})

	r.Route("/companies", func(r chi.Router) {
		r.Post("/", h.HandleRegisterCompany)
		r.Get("/", h.HandleListCompanies)
		r.Get("/{id}", h.HandleGetCompany)
		r.Put("/{id}", h.HandleUpdateCompany)
		r.Delete("/{id}", h.HandleDeleteCompany)
		r.Get("/{id}/history", h.HandleCompanyHistory)
	})

	r.Put("/parties/{id}", h.HandleUpdateParty)

	r.Get("/reports/summary", h.HandleReportSummary)
	r.Get("/dashboard/summary", h.HandleDashboardSummary)
	r.Get("/users/activity", h.HandleListActors)
}

// caller extracts the authenticated identity from the request context. The
// second result is false when no authenticated user is present.
func caller(ctx context.Context) (authz.Caller, bool) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return authz.Caller{}, false
	}
	raw := requestcontext.Roles(ctx)
	roles := make([]authz.Role, 0, len(raw))
	for _, r := range raw {
		roles = append(roles, authz.Role(r))
	}
	return authz.Caller{
		ID:          userID,
		Roles:       roles,
		LicenseType: authz.LicenseType(requestcontext.LicenseType(ctx)),
	}, true
}

func requireCaller(w http.ResponseWriter, r *http.Request) (authz.Caller, bool) {
	c, ok := caller(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
	}
	return c, ok
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record id"))
		return uuid.Nil, false
	}
	return id, true
}

// HandleListTransactionTypes handles GET /transaction-types/{domain}.
func (h *Handler) HandleListTransactionTypes(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	domain := models.Domain(chi.URLParam(r, "domain"))
	if domain != models.DomainProperty && domain != models.DomainVehicle {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown domain"))
		return
	}
	types, err := h.service.TransactionTypes(r.Context(), c, domain)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromTransactionTypes(types))
}

// HandleReportSummary handles GET /reports/summary.
func (h *Handler) HandleReportSummary(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	summary, err := h.service.ReportSummary(r.Context(), c)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromSummary(summary))
}

// HandleDashboardSummary handles GET /dashboard/summary.
func (h *Handler) HandleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	summary, err := h.service.DashboardSummary(r.Context(), c)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromSummary(summary))
}

// HandleListActors handles GET /users/activity.
func (h *Handler) HandleListActors(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	actors, err := h.service.ListActors(r.Context(), c)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromActors(actors))
}

// HandleUpdateParty handles PUT /parties/{id}.
func (h *Handler) HandleUpdateParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdatePartyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	party, err := h.service.UpdateParty(ctx, c, id, req.toInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromParty(*party))
}
