package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ridesync/internal/domain/ride"
	"ridesync/internal/ports"
)

// SyncPoll answers "what changed since my last checkpoint?" for one ride.
// A zero lastCheck returns the full status history.
func (service *lifecycleService) SyncPoll(ctx context.Context, rideID string, lastCheck time.Time) (ports.SyncResult, error) {
	rideID = strings.TrimSpace(rideID)
	if rideID == "" {
		return ports.SyncResult{}, fmt.Errorf("%w: ride_id", ride.ErrMissingField)
	}

	ctx = service.logger.WithRideID(ctx, rideID)

	var (
		current *ride.Ride
		events  []ride.Event
	)
	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if current, err = service.rides.GetByID(ctx, rideID); err != nil {
			return err
		}
		events, err = service.events.ListSince(ctx, rideID, lastCheck)
		return err
	})
	if err != nil {
		return ports.SyncResult{}, err
	}

	views := make([]ports.StatusEventView, 0, len(events))
	for _, e := range events {
		views = append(views, ports.StatusEventView{
			OldStatus:   e.OldStatus.String(),
			NewStatus:   e.NewStatus.String(),
			ChangedBy:   e.ChangedBy.String(),
			ChangedByID: e.ChangedByID,
			EventType:   string(e.Type),
			Metadata:    e.Metadata,
			CreatedAt:   e.CreatedAt,
		})
	}

	result := ports.SyncResult{
		RideID:           current.ID,
		CurrentStatus:    current.Status.String(),
		LastStatusUpdate: current.LastStatusUpdate,
		StatusUpdatedBy:  current.StatusUpdatedBy.String(),
		HasUpdates:       len(views) > 0 || current.LastStatusUpdate.After(lastCheck),
		Events:           views,
	}

	// attach the driver's last known position only while a driver is on the road
	if current.Status.Active() && current.Assigned() {
		position, err := service.locations.Last(ctx, *current.DriverID)
		if err != nil {
			service.logger.Error(ctx, "driver_location_read_failed", "Failed to read driver location", err, map[string]any{
				"driver_id": *current.DriverID,
			})
		} else if position != nil {
			result.DriverLocation = &ports.DriverLocationView{
				Latitude:  position.Latitude,
				Longitude: position.Longitude,
				UpdatedAt: position.UpdatedAt,
			}
		}
	}

	return result, nil
}
