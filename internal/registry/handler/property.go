package handler

import (
	"net/http"

	"tasjeel/pkg/platform/httputil"
	"tasjeel/pkg/requestcontext"
)

// HandleRegisterProperty handles POST /properties.
func (h *Handler) HandleRegisterProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterPropertyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	property, err := h.service.RegisterProperty(ctx, c, req.toInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromProperty(property))
}

// HandleListProperties handles GET /properties.
func (h *Handler) HandleListProperties(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	properties, err := h.service.ListProperties(r.Context(), c)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromProperties(properties))
}

// HandleGetProperty handles GET /properties/{id}.
func (h *Handler) HandleGetProperty(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	details, err := h.service.GetProperty(r.Context(), c, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromPropertyDetails(details))
}

// HandleUpdateProperty handles PUT /properties/{id}.
func (h *Handler) HandleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdatePropertyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	property, err := h.service.UpdateProperty(ctx, c, id, req.toInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromProperty(property))
}

// HandleDeleteProperty handles DELETE /properties/{id}.
func (h *Handler) HandleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteProperty(r.Context(), c, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// HandleCancelProperty handles POST /properties/{id}/cancel.
func (h *Handler) HandleCancelProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CancelRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	cancellation, err := h.service.CancelProperty(ctx, c, id, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromCancellation(cancellation))
}

// HandlePropertyHistory handles GET /properties/{id}/history.
func (h *Handler) HandlePropertyHistory(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entries, err := h.service.PropertyHistory(r.Context(), c, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromAuditEntries(entries))
}
