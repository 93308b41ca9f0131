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

type registerDeviceRequest struct {
	PushAddress string `json:"push_address"`
	DeviceKind  string `json:"device_kind"` // e.g. "fcm", "apns", "webhook"
}

// identityFromRequest validates the {identity} path segment against the token
// subject; users manage only their own device registration.
func (handler *LifecycleHTTPHandler) identityFromRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	identity := strings.TrimSpace(r.PathValue("identity"))
	if identity == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "identity is required", errors.New("missing identity"))
		return "", false
	}

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return "", false
	}
	if identity != strings.TrimSpace(claims.Subject) {
		handler.httpError(ctx, w, http.StatusForbidden, "identity does not match token subject", errors.New("identity/token mismatch"))
		return "", false
	}

	return identity, true
}

// ----- Handler: PUT /devices/{identity} -----

func (handler *LifecycleHTTPHandler) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	identity, ok := handler.identityFromRequest(ctx, w, r)
	if !ok {
		return
	}

	var req registerDeviceRequest
	if !handler.decodeStrict(ctx, w, r, 64<<10, &req) {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := handler.svc.RegisterDevice(ctxWithTimeout, identity, ports.PushDevice{
		PushAddress: strings.TrimSpace(req.PushAddress),
		DeviceKind:  strings.ToLower(strings.TrimSpace(req.DeviceKind)),
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]any{"status": "registered"})
}

// ----- Handler: DELETE /devices/{identity} -----

func (handler *LifecycleHTTPHandler) handleRemoveDevice(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	identity, ok := handler.identityFromRequest(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := handler.svc.RemoveDevice(ctxWithTimeout, identity); err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]any{"status": "removed"})
}
