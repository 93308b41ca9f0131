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

type bookRideRequest struct {
	UserID               string  `json:"user_id"`
	PickupLatitude       float64 `json:"pickup_latitude"`
	PickupLongitude      float64 `json:"pickup_longitude"`
	PickupAddress        string  `json:"pickup_address"`
	DestinationLatitude  float64 `json:"destination_latitude"`
	DestinationLongitude float64 `json:"destination_longitude"`
	DestinationAddress   string  `json:"destination_address"`
}

// ----- Handler: POST /rides -----

func (handler *LifecycleHTTPHandler) handleBookRide(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req bookRideRequest
	if !handler.decodeStrict(ctx, w, r, 1<<20, &req) {
		return
	}

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	// fill or verify user_id against the token subject
	sub := strings.TrimSpace(claims.Subject)
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = sub
	} else if req.UserID != sub {
		handler.httpError(ctx, w, http.StatusForbidden, "user_id does not match token subject", errors.New("user/token mismatch"))
		return
	}

	in := ports.BookRideInput{
		UserID:               strings.TrimSpace(req.UserID),
		PickupLatitude:       req.PickupLatitude,
		PickupLongitude:      req.PickupLongitude,
		PickupAddress:        strings.TrimSpace(req.PickupAddress),
		DestinationLatitude:  req.DestinationLatitude,
		DestinationLongitude: req.DestinationLongitude,
		DestinationAddress:   strings.TrimSpace(req.DestinationAddress),
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.BookRide(ctxWithTimeout, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	ctxWithTimeout = handler.logger.WithRideID(ctxWithTimeout, res.RideID)

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, res)
}
