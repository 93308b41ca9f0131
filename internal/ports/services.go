package ports

import (
	"context"
	"time"

	"ridesync/internal/domain/ride"
)

// ----- DTOs for the Lifecycle Service -----

// TransitionInput is the validated unit of work submitted to ApplyTransition.
type TransitionInput struct {
	RideID    string
	NewStatus ride.Status
	Actor     ride.Actor
	ActorID   string
	Metadata  map[string]any
}

// TransitionResult is returned by LifecycleService.ApplyTransition().
type TransitionResult struct {
	RideID           string    `json:"ride_id"`
	OldStatus        string    `json:"old_status"`
	NewStatus        string    `json:"new_status"`
	LastStatusUpdate time.Time `json:"last_status_update"`
	NotificationSent bool      `json:"notification_sent"`
}

// BookRideInput is the validated input required to book a ride.
type BookRideInput struct {
	UserID               string
	PickupLatitude       float64
	PickupLongitude      float64
	PickupAddress        string
	DestinationLatitude  float64
	DestinationLongitude float64
	DestinationAddress   string
}

// BookRideResult is returned by LifecycleService.BookRide().
type BookRideResult struct {
	RideID                   string    `json:"ride_id"`
	Status                   string    `json:"status"`
	CreatedAt                time.Time `json:"created_at"`
	EstimatedDurationMinutes int       `json:"estimated_duration_minutes"`
}

// StatusEventView is the wire shape of one audit event in a sync response.
type StatusEventView struct {
	OldStatus   string         `json:"old_status"`
	NewStatus   string         `json:"new_status"`
	ChangedBy   string         `json:"changed_by"`
	ChangedByID string         `json:"changed_by_id,omitempty"`
	EventType   string         `json:"event_type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// DriverLocationView is the driver's last known position in a sync response.
type DriverLocationView struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SyncResult is the delta payload answering "what changed since my last checkpoint?".
type SyncResult struct {
	RideID           string              `json:"ride_id"`
	CurrentStatus    string              `json:"current_status"`
	LastStatusUpdate time.Time           `json:"last_status_update"`
	StatusUpdatedBy  string              `json:"status_updated_by"`
	HasUpdates       bool                `json:"has_updates"`
	Events           []StatusEventView   `json:"events"`
	DriverLocation   *DriverLocationView `json:"driver_location,omitempty"`
}

// UpdateDriverLocationInput is the validated input for POST /drivers/{driver_id}/location.
type UpdateDriverLocationInput struct {
	DriverID  string
	Latitude  float64
	Longitude float64
}

// ----- Lifecycle Service Interface -----

// LifecycleService is the single authorized writer of ride status plus the
// read side consumed by sync pollers.
type LifecycleService interface {
	BookRide(ctx context.Context, in BookRideInput) (BookRideResult, error)
	ApplyTransition(ctx context.Context, in TransitionInput) (TransitionResult, error)
	SyncPoll(ctx context.Context, rideID string, lastCheck time.Time) (SyncResult, error)
	UpdateDriverLocation(ctx context.Context, in UpdateDriverLocationInput) error
	RegisterDevice(ctx context.Context, identity string, device PushDevice) error
	RemoveDevice(ctx context.Context, identity string) error
}

// ----- DTOs for the Autopilot Service -----

// DueRideRow is one ride selected by the auto-advance scan.
type DueRideRow struct {
	RideID    string    `json:"ride_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ScanResult groups due rides by the transition the system actor owes them.
type ScanResult struct {
	ToDriverArrived []DueRideRow `json:"to_driver_arrived"`
	ToInProgress    []DueRideRow `json:"to_in_progress"`
	ToCompleted     []DueRideRow `json:"to_completed"`
}

// AdvanceReport summarizes one apply pass over a scan result.
type AdvanceReport struct {
	Scanned  int `json:"scanned"`
	Advanced int `json:"advanced"`
	Failed   int `json:"failed"`
}

// ----- Autopilot Service Interface -----

// AutopilotService promotes rides stuck past their dwell deadlines, acting as
// the system actor.
type AutopilotService interface {
	ScanDue(ctx context.Context, now time.Time) (ScanResult, error)
	AdvanceDue(ctx context.Context, now time.Time) (AdvanceReport, error)
	Run(ctx context.Context)
}
