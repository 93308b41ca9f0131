package contracts

import "time"

// PushMessage is published to the push gateway queue for counterparty delivery.
// Routing key: "push.{device_kind}" on ExchangeNotifications.
type PushMessage struct {
	RideID      string    `json:"ride_id"`
	RecipientID string    `json:"recipient_id"` // user or driver identity
	PushAddress string    `json:"push_address"` // device token or endpoint of the recipient
	DeviceKind  string    `json:"device_kind"`  // e.g. "fcm", "apns", "webhook"
	NewStatus   string    `json:"new_status"`
	ChangedBy   string    `json:"changed_by"`
	Timestamp   time.Time `json:"timestamp"`
	Envelope
}
