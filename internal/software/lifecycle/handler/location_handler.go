package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ridesync/internal/general/jwt"
	"ridesync/internal/ports"
)

// --- Request DTO (HTTP boundary) ---

type driverLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ----- Handler: POST /drivers/{driver_id}/location -----

func (handler *LifecycleHTTPHandler) handleDriverLocation(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	driverID := strings.TrimSpace(r.PathValue("driver_id"))
	if driverID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "driver_id is required", errors.New("missing driver_id"))
		return
	}

	// a driver may only report their own position
	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}
	if driverID != strings.TrimSpace(claims.Subject) {
		handler.httpError(ctx, w, http.StatusForbidden, "driver_id does not match token subject", errors.New("driver/token mismatch"))
		return
	}

	var req driverLocationRequest
	if !handler.decodeStrict(ctx, w, r, 64<<10, &req) {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := handler.svc.UpdateDriverLocation(ctxWithTimeout, ports.UpdateDriverLocationInput{
		DriverID:  driverID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]any{"status": "ok"})
}
