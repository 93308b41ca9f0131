package ride

import (
	"encoding/json"
	"errors"
	"maps"
	"strings"
	"time"
)

// EventType corresponds to the values accepted by `ride_status_events.event_type`.
type EventType string

const (
	// EventStatusChange is written for every successful status transition.
	EventStatusChange EventType = "status_change"
)

// Event is one immutable audit record of a successful status transition,
// corresponding to the `ride_status_events` table. Events are append-only and
// ordered by (created_at, id); replaying old/new pairs in that order
// reconstructs the ride's status history exactly.
type Event struct {
	// Identity & audit. ID is a monotonic sequence per insertion order and
	// breaks created_at ties for delta reads.
	ID        int64
	CreatedAt time.Time

	// Foreign keys
	RideID string

	// Core payload
	OldStatus   Status
	NewStatus   Status
	ChangedBy   Actor
	ChangedByID string
	Type        EventType
	Metadata    map[string]any
}

var ErrEventRideRequired = errors.New("event ride id is required")

// NewStatusChangeEvent constructs the audit event for one applied transition.
// Metadata is copied defensively and stored opaquely.
func NewStatusChangeEvent(rideID string, oldStatus, newStatus Status, actor Actor, actorID string, metadata map[string]any) (*Event, error) {
	if rideID = strings.TrimSpace(rideID); rideID == "" {
		return nil, ErrEventRideRequired
	}
	if !oldStatus.Valid() || !newStatus.Valid() {
		return nil, ErrInvalidStatus
	}
	if !actor.Valid() {
		return nil, ErrInvalidActor
	}

	return &Event{
		RideID:      rideID,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		ChangedBy:   actor,
		ChangedByID: strings.TrimSpace(actorID),
		Type:        EventStatusChange,
		Metadata:    cloneMetadata(metadata),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Validate performs basic invariant checks mirroring DB constraints.
func (event *Event) Validate() error {
	if event.RideID == "" {
		return ErrEventRideRequired
	}
	if !event.OldStatus.Valid() || !event.NewStatus.Valid() {
		return ErrInvalidStatus
	}
	if !event.ChangedBy.Valid() {
		return ErrInvalidActor
	}
	return nil
}

// MetadataJSON returns event.Metadata encoded as JSON; nil metadata encodes
// as an empty object so the jsonb column never holds SQL NULL.
func (event *Event) MetadataJSON() ([]byte, error) {
	if event.Metadata == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(event.Metadata)
}

// cloneMetadata makes a shallow defensive copy of a map[string]any.
func cloneMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	maps.Copy(dst, src)
	return dst
}
