package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ridesync/internal/domain/user"
	"ridesync/internal/general/jwt"
	"ridesync/internal/general/logger"
	"ridesync/internal/ports"
)

// AutopilotHTTPHandler exposes manual scan/advance controls for operators.
type AutopilotHTTPHandler struct {
	svc    ports.AutopilotService
	logger *logger.Logger
	auth   *jwt.Manager
}

// NewAutopilotHTTPHandler wires an HTTP handler around the AutopilotService.
func NewAutopilotHTTPHandler(svc ports.AutopilotService, logger *logger.Logger, auth *jwt.Manager) *AutopilotHTTPHandler {
	return &AutopilotHTTPHandler{svc: svc, logger: logger, auth: auth}
}

// RegisterRoutes mounts autopilot endpoints on the provided mux.
func (handler *AutopilotHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /autopilot/scan",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleAdmin)(handler.handleScan),
	)
	mux.HandleFunc("POST /autopilot/advance",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleAdmin)(handler.handleAdvance),
	)
	mux.HandleFunc("GET /autopilot/health", handler.handleHealth)
}

// ----- Handler: POST /autopilot/scan -----

func (handler *AutopilotHTTPHandler) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := handler.svc.ScanDue(ctxWithTimeout, time.Now().UTC())
	if err != nil {
		handler.httpError(ctxWithTimeout, w, http.StatusInternalServerError, "scan failed", err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}

// ----- Handler: POST /autopilot/advance -----

func (handler *AutopilotHTTPHandler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	report, err := handler.svc.AdvanceDue(ctxWithTimeout, time.Now().UTC())
	if err != nil {
		handler.httpError(ctxWithTimeout, w, http.StatusInternalServerError, "advance failed", err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, report)
}

// ----- Handler: GET /autopilot/health -----

func (handler *AutopilotHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	type resp struct {
		Status string `json:"status"`
	}
	_ = json.NewEncoder(w).Encode(resp{Status: "ok"})
}

// ----- helpers -----

func (handler *AutopilotHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	buf, err := json.Marshal(data)
	if err != nil {
		handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

func (handler *AutopilotHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	handler.logger.Error(ctx, "request_failed", msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

func (handler *AutopilotHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		var b [12]byte
		_, _ = rand.Read(b[:])
		reqID = hex.EncodeToString(b[:])
	}
	return handler.logger.WithRequestID(ctx, reqID)
}
