package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ridesync/internal/domain/ride"
	"ridesync/internal/general/jwt"
	"ridesync/internal/ports"
)

// --- Request DTO (HTTP boundary) ---

type updateStatusRequest struct {
	NewStatus string         `json:"new_status"` // pending|confirmed|driver_arrived|in_progress|completed|cancelled|no_show
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ----- Handler: POST /rides/{ride_id}/status -----

func (handler *LifecycleHTTPHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	rideID := strings.TrimSpace(r.PathValue("ride_id"))
	if rideID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "ride_id is required", errors.New("missing ride_id"))
		return
	}
	ctx = handler.logger.WithRideID(ctx, rideID)

	var req updateStatusRequest
	if !handler.decodeStrict(ctx, w, r, 256<<10, &req) {
		return
	}

	newStatus, err := ride.ParseStatus(req.NewStatus)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "new_status must be one of: pending, confirmed, driver_arrived, in_progress, completed, cancelled, no_show", err)
		return
	}

	// the authenticated role decides which actor this request asserts
	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	in := ports.TransitionInput{
		RideID:    rideID,
		NewStatus: newStatus,
		Actor:     claims.Role.Actor(),
		ActorID:   strings.TrimSpace(claims.Subject),
		Metadata:  req.Metadata,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.ApplyTransition(ctxWithTimeout, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
