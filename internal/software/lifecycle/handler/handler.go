package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"ridesync/internal/domain/ride"
	"ridesync/internal/domain/user"
	"ridesync/internal/general/jwt"
	"ridesync/internal/general/logger"
	"ridesync/internal/ports"
)

// LifecycleHTTPHandler adapts HTTP requests to the LifecycleService.
type LifecycleHTTPHandler struct {
	svc    ports.LifecycleService
	logger *logger.Logger
	auth   *jwt.Manager
}

// NewLifecycleHTTPHandler wires an HTTP handler around the LifecycleService.
func NewLifecycleHTTPHandler(svc ports.LifecycleService, logger *logger.Logger, auth *jwt.Manager) *LifecycleHTTPHandler {
	return &LifecycleHTTPHandler{svc: svc, logger: logger, auth: auth}
}

// RegisterRoutes mounts lifecycle endpoints on the provided mux.
func (handler *LifecycleHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rides",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger)(handler.handleBookRide),
	)
	mux.HandleFunc("POST /rides/{ride_id}/status",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger, user.RoleDriver, user.RoleAdmin)(handler.handleUpdateStatus),
	)
	mux.HandleFunc("GET /rides/{ride_id}/sync",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger, user.RoleDriver, user.RoleAdmin)(handler.handleSync),
	)
	mux.HandleFunc("POST /drivers/{driver_id}/location",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleDriverLocation),
	)
	mux.HandleFunc("PUT /devices/{identity}",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger, user.RoleDriver)(handler.handleRegisterDevice),
	)
	mux.HandleFunc("DELETE /devices/{identity}",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger, user.RoleDriver)(handler.handleRemoveDevice),
	)

	mux.HandleFunc("GET /rides/health", handler.handleHealth)
	mux.HandleFunc("POST /tokens", handler.handleCreateToken)
}

// ----- general helpers -----

func (handler *LifecycleHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *LifecycleHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	} else if status == http.StatusConflict {
		action = "transition_rejected"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// serviceError maps service/domain errors onto HTTP status codes.
func (handler *LifecycleHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, ride.ErrNotFound):
		handler.httpError(ctx, w, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, ride.ErrInvalidTransition), errors.Is(err, ride.ErrConflictRace):
		handler.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	case errors.As(err, &pgErr):
		handler.httpError(ctx, w, http.StatusInternalServerError, "database error", err)
	default:
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	}
}

// decodeStrict parses a JSON body rejecting unknown fields and oversized payloads.
func (handler *LifecycleHTTPHandler) decodeStrict(ctx context.Context, w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return false
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return false
	}

	return true
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *LifecycleHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// ----- dev token endpoint -----

type TokenRequest struct {
	UserID string    `json:"user_id"`
	Role   user.Role `json:"role"`
}

// TokenResponse represents the response for token generation.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Role      user.Role `json:"role"`
}

func (handler *LifecycleHTTPHandler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req TokenRequest
	if !handler.decodeStrict(ctx, w, r, 64<<10, &req) {
		return
	}

	if strings.TrimSpace(req.UserID) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	tokenString, claims, err := handler.auth.IssueUserToken(req.UserID, req.Role)
	if err != nil {
		handler.httpError(ctx, w, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	handler.logger.Info(ctx, "token_generated", "JWT token generated successfully",
		map[string]any{"user_id": req.UserID, "role": req.Role.String()})

	handler.jsonResponse(ctx, w, http.StatusCreated, TokenResponse{
		Token:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
		UserID:    req.UserID,
		Role:      req.Role,
	})
}
