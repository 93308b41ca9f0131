package ride

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"ridesync/internal/domain/geo"
)

// Ride is the domain entity corresponding to the `rides` table.
type Ride struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time

	// Parties
	UserID   string  // passenger identity
	DriverID *string // nil until a driver takes the ride

	// Core state
	Status           Status
	StatusUpdatedBy  Actor
	LastStatusUpdate time.Time
	CancelledAt      *time.Time

	// Trip payload (opaque to the lifecycle core except for the estimated
	// duration, which drives time-based auto-advancement)
	PickupAddress            string
	DestinationAddress       string
	Pickup                   geo.Coordinate
	Destination              geo.Coordinate
	EstimatedDurationMinutes int
}

// Dwell times measured from ride creation after which the system actor
// force-advances a stalled ride.
const (
	DwellToDriverArrived = 1 * time.Minute
	DwellToInProgress    = 2 * time.Minute
)

var (
	ErrUserRequired   = errors.New("user id is required")
	ErrRideIDRequired = errors.New("ride id is required")
	ErrNotFound       = errors.New("ride not found")
)

// NewRide creates a new ride in pending state. The estimated trip duration is
// derived from the straight-line pickup/destination distance and drives the
// in_progress -> completed auto-advance deadline.
func NewRide(userID string, pickup, destination geo.Coordinate, pickupAddress, destinationAddress string) (*Ride, error) {
	if userID = strings.TrimSpace(userID); userID == "" {
		return nil, ErrUserRequired
	}
	if err := pickup.Validate(); err != nil {
		return nil, err
	}
	if err := destination.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Ride{
		ID:                       uuid.NewString(),
		CreatedAt:                now,
		UserID:                   userID,
		Status:                   StatusPending,
		StatusUpdatedBy:          ActorPassenger,
		LastStatusUpdate:         now,
		PickupAddress:            strings.TrimSpace(pickupAddress),
		DestinationAddress:       strings.TrimSpace(destinationAddress),
		Pickup:                   pickup,
		Destination:              destination,
		EstimatedDurationMinutes: geo.EstimateDurationMinutes(geo.HaversineKM(pickup, destination)),
	}, nil
}

// Assigned reports whether a driver is attached to the ride.
func (ride *Ride) Assigned() bool {
	return ride.DriverID != nil && *ride.DriverID != ""
}

// NextAutoStatus returns the status the system actor should advance this ride
// to at the given instant. The deadlines are measured from CreatedAt, not from
// the last transition; each is inclusive (deadline <= now means due).
func (ride *Ride) NextAutoStatus(now time.Time) (Status, bool) {
	switch ride.Status {
	case StatusConfirmed:
		if !now.Before(ride.CreatedAt.Add(DwellToDriverArrived)) {
			return StatusDriverArrived, true
		}
	case StatusDriverArrived:
		if !now.Before(ride.CreatedAt.Add(DwellToInProgress)) {
			return StatusInProgress, true
		}
	case StatusInProgress:
		due := ride.CreatedAt.Add(DwellToInProgress + time.Duration(ride.EstimatedDurationMinutes)*time.Minute)
		if !now.Before(due) {
			return StatusCompleted, true
		}
	}
	return "", false
}
