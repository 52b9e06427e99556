package handler

import (
	"net/http"

	"tasjeel/pkg/platform/httputil"
	"tasjeel/pkg/requestcontext"
)

// HandleRegisterCompany handles POST /companies.
func (h *Handler) HandleRegisterCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CompanyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	company, err := h.service.RegisterCompany(ctx, c, req.toInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromCompany(company))
}

// HandleListCompanies handles GET /companies.
func (h *Handler) HandleListCompanies(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	companies, err := h.service.ListCompanies(r.Context(), c)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromCompanies(companies))
}

// HandleGetCompany handles GET /companies/{id}.
func (h *Handler) HandleGetCompany(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	company, err := h.service.GetCompany(r.Context(), c, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromCompany(company))
}

// HandleUpdateCompany handles PUT /companies/{id}.
func (h *Handler) HandleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CompanyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	company, err := h.service.UpdateCompany(ctx, c, id, req.toInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromCompany(company))
}

// HandleDeleteCompany handles DELETE /companies/{id}.
func (h *Handler) HandleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCompany(r.Context(), c, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// HandleCompanyHistory handles GET /companies/{id}/history.
func (h *Handler) HandleCompanyHistory(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entries, err := h.service.CompanyHistory(r.Context(), c, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromAuditEntries(entries))
}
