package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// ----- Handler: GET /rides/{ride_id}/sync?last_check=<RFC3339> -----

func (handler *LifecycleHTTPHandler) handleSync(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	rideID := strings.TrimSpace(r.PathValue("ride_id"))
	if rideID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "ride_id is required", errors.New("missing ride_id"))
		return
	}
	ctx = handler.logger.WithRideID(ctx, rideID)

	// absent last_check means "send me everything"
	var lastCheck time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("last_check")); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			handler.httpError(ctx, w, http.StatusBadRequest, "last_check must be an RFC 3339 timestamp", err)
			return
		}
		lastCheck = parsed.UTC()
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.SyncPoll(ctxWithTimeout, rideID, lastCheck)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
