package handler

import (
	"net/http"

	"tasjeel/pkg/platform/httputil"
	"tasjeel/pkg/requestcontext"
)

// HandleRegisterVehicle handles POST /vehicles.
func (h *Handler) HandleRegisterVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterVehicleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	vehicle, err := h.service.RegisterVehicle(ctx, c, req.toInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromVehicle(vehicle))
}

// HandleListVehicles handles GET /vehicles.
func (h *Handler) HandleListVehicles(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	vehicles, err := h.service.ListVehicles(r.Context(), c)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromVehicles(vehicles))
}

// HandleGetVehicle handles GET /vehicles/{id}.
func (h *Handler) HandleGetVehicle(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	details, err := h.service.GetVehicle(r.Context(), c, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromVehicleDetails(details))
}

// HandleUpdateVehicle handles PUT /vehicles/{id}.
func (h *Handler) HandleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateVehicleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	vehicle, err := h.service.UpdateVehicle(ctx, c, id, req.toInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromVehicle(vehicle))
}

// HandleDeleteVehicle handles DELETE /vehicles/{id}.
func (h *Handler) HandleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteVehicle(r.Context(), c, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// HandleCancelVehicle handles POST /vehicles/{id}/cancel.
func (h *Handler) HandleCancelVehicle(w http.ResponseWriter, r *http.Request) {
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
	cancellation, err := h.service.CancelVehicle(ctx, c, id, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromCancellation(cancellation))
}

// HandleVehicleHistory handles GET /vehicles/{id}/history.
func (h *Handler) HandleVehicleHistory(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entries, err := h.service.VehicleHistory(r.Context(), c, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromAuditEntries(entries))
}
