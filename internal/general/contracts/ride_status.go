package contracts

import "time"

// RideStatusMessage is published by the lifecycle service on every status change.
// Routing key: "ride.status.{status}" on ExchangeRideTopic.
type RideStatusMessage struct {
	RideID    string    `json:"ride_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"` // pending|confirmed|driver_arrived|in_progress|completed|cancelled|no_show
	ChangedBy string    `json:"changed_by"` // driver|passenger|system
	Timestamp time.Time `json:"timestamp"`
	DriverID  string    `json:"driver_id,omitempty"`
	Envelope
}
