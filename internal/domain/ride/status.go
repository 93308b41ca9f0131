package ride

import (
	"errors"
	"strings"
)

// Status is a ride status as stored in the `rides.ride_status` column.
type Status string

const (
	StatusPending       Status = "pending"
	StatusConfirmed     Status = "confirmed"
	StatusDriverArrived Status = "driver_arrived"
	StatusInProgress    Status = "in_progress"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
	StatusNoShow        Status = "no_show"
)

var ErrInvalidStatus = errors.New("invalid ride status")

// ParseStatus normalizes (lowercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed ride status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusDriverArrived, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// CanTransitionTo specifies if the status can transition to the next status.
// Unknown statuses transition nowhere (fail closed). Same-status requests are
// handled one layer up as an idempotent no-op and never reach this check.
func (status Status) CanTransitionTo(next Status) bool {
	switch status {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled

	case StatusConfirmed:
		return next == StatusDriverArrived || next == StatusCancelled

	case StatusDriverArrived:
		return next == StatusInProgress || next == StatusCancelled || next == StatusNoShow

	case StatusInProgress:
		return next == StatusCompleted || next == StatusCancelled

	case StatusCompleted, StatusCancelled, StatusNoShow:
		return false

	default:
		return false
	}
}

// Terminal indicates if the status is a permanent end point of the lifecycle.
func (status Status) Terminal() bool {
	return status == StatusCompleted || status == StatusCancelled || status == StatusNoShow
}

// Active reports whether a driver is (or should be) on the road for this
// status; the sync endpoint only attaches driver locations for active rides.
func (status Status) Active() bool {
	return status == StatusConfirmed || status == StatusDriverArrived || status == StatusInProgress
}
