package ports

import (
	"context"
	"time"

	"ridesync/internal/domain/geo"
	"ridesync/internal/domain/ride"
)

// UnitOfWork manages transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RideRepository is the durable store of ride rows. The lifecycle service is
// the only status-mutating caller; booking performs the initial insert.
type RideRepository interface {
	Create(ctx context.Context, r *ride.Ride) error
	GetByID(ctx context.Context, id string) (*ride.Ride, error)

	// GetByIDForUpdate reads the ride while holding its row lock; must be
	// called inside UnitOfWork.WithinTx.
	GetByIDForUpdate(ctx context.Context, id string) (*ride.Ride, error)

	// UpdateStatusFrom is the single-row conditional write guarding all
	// transitions: it succeeds only when the row still carries `from`.
	// driverID, when non-nil, is attached to a previously unassigned ride.
	// Returns false when a concurrent writer won the race.
	UpdateStatusFrom(ctx context.Context, id string, from, to ride.Status, actor ride.Actor, driverID *string, at time.Time) (bool, error)

	// ListByStatus returns rides currently in the given status, oldest first;
	// the auto-advancer filters them by dwell deadlines.
	ListByStatus(ctx context.Context, status ride.Status, limit int) ([]*ride.Ride, error)
}

// RideEventRepository is the append-only audit log of status transitions.
type RideEventRepository interface {
	Append(ctx context.Context, e *ride.Event) error
	ListByRide(ctx context.Context, rideID string) ([]ride.Event, error)

	// ListSince returns the delta for a sync checkpoint: events strictly after
	// `after`, in insertion order.
	ListSince(ctx context.Context, rideID string, after time.Time) ([]ride.Event, error)
}

// PushDevice is one registered push address for a passenger or driver identity.
type PushDevice struct {
	PushAddress string
	DeviceKind  string // e.g. "ios", "android"
}

// DeviceRegistry stores push addresses keyed by passenger/driver identity.
// Lookup returns (nil, nil) when the identity has no registered device.
type DeviceRegistry interface {
	Register(ctx context.Context, identity string, device PushDevice) error
	Lookup(ctx context.Context, identity string) (*PushDevice, error)
	Remove(ctx context.Context, identity string) error
}

// DriverLocationRepository keeps each driver's last known position.
// Last returns (nil, nil) when the driver has never reported a position.
type DriverLocationRepository interface {
	Save(ctx context.Context, driverID string, position geo.Position) error
	Last(ctx context.Context, driverID string) (*geo.Position, error)
}

// Publisher sends a raw message to the message broker.
type Publisher interface {
	Publish(exchange, routingKey string, body []byte) error
}
