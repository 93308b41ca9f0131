package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"ridesync/internal/domain/ride"
	"ridesync/internal/general/contracts"
)

// notifyCounterparty resolves who should hear about a transition, looks up
// their registered device, and publishes a push message. Every failure is
// logged and reported as "not sent"; none of them fails the transition.
func (service *lifecycleService) notifyCounterparty(ctx context.Context, r *ride.Ride, oldStatus string, actor ride.Actor, correlationID string) bool {
	counterparty := actor.Counterparty()

	var recipientID string
	switch counterparty {
	case ride.ActorPassenger:
		recipientID = r.UserID
	case ride.ActorDriver:
		if !r.Assigned() {
			service.logger.Debug(ctx, "notify_skipped", "No driver assigned yet, nobody to notify", nil)
			return false
		}
		recipientID = *r.DriverID
	}

	device, err := service.devices.Lookup(ctx, recipientID)
	if err != nil {
		service.logger.Error(ctx, "device_lookup_failed", "Failed to look up push device", err, map[string]any{
			"recipient_id": recipientID,
		})
		return false
	}
	if device == nil {
		service.logger.Debug(ctx, "notify_skipped", "Recipient has no registered device", map[string]any{
			"recipient_id": recipientID,
		})
		return false
	}

	msg := contracts.PushMessage{
		RideID:      r.ID,
		RecipientID: recipientID,
		PushAddress: device.PushAddress,
		DeviceKind:  device.DeviceKind,
		NewStatus:   r.Status.String(),
		ChangedBy:   actor.String(),
		Timestamp:   time.Now().UTC(),
		Envelope: contracts.Envelope{
			CorrelationID: correlationID,
			Producer:      producerName,
			SentAt:        time.Now().UTC(),
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		service.logger.Error(ctx, "push_encode_failed", "Failed to encode push message", err, nil)
		return false
	}

	routingKey := contracts.RoutePushPrefix + strings.ToLower(device.DeviceKind)
	if err := service.pub.Publish(contracts.ExchangeNotifications, routingKey, body); err != nil {
		service.logger.Error(ctx, "push_publish_failed", "Failed to publish push message", err, map[string]any{
			"routing_key":  routingKey,
			"recipient_id": recipientID,
		})
		return false
	}

	service.logger.Info(ctx, "push_published", "Published counterparty push notification", map[string]any{
		"routing_key":  routingKey,
		"recipient_id": recipientID,
		"old_status":   oldStatus,
		"new_status":   r.Status.String(),
	})

	return true
}

// publishRideStatus fans the transition out on the ride topic exchange using
// routing key ride.status.{status}, e.g. ride.status.completed.
func (service *lifecycleService) publishRideStatus(ctx context.Context, r *ride.Ride, oldStatus string, actor ride.Actor, correlationID string) error {
	msg := contracts.RideStatusMessage{
		RideID:    r.ID,
		OldStatus: oldStatus,
		NewStatus: r.Status.String(),
		ChangedBy: actor.String(),
		Timestamp: r.LastStatusUpdate,
		Envelope: contracts.Envelope{
			CorrelationID: correlationID,
			Producer:      producerName,
			SentAt:        time.Now().UTC(),
		},
	}
	if r.Assigned() {
		msg.DriverID = *r.DriverID
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	routingKey := contracts.RouteRideStatusPrefix + r.Status.String()
	if err := service.pub.Publish(contracts.ExchangeRideTopic, routingKey, body); err != nil {
		return err
	}

	service.logger.Info(ctx, "ride_status_published", "Published ride status to RabbitMQ", map[string]any{
		"routing_key": routingKey,
	})

	return nil
}
