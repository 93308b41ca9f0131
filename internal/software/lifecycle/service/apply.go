package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ridesync/internal/domain/ride"
	"ridesync/internal/ports"
)

// ApplyTransition is the single write path for ride status. It validates the
// request, applies the transition under a row lock with a conditional update,
// appends the audit event in the same transaction, and only after commit
// attempts the counterparty push.
func (service *lifecycleService) ApplyTransition(ctx context.Context, in ports.TransitionInput) (ports.TransitionResult, error) {
	// fail closed before touching storage
	rideID := strings.TrimSpace(in.RideID)
	if rideID == "" {
		return ports.TransitionResult{}, fmt.Errorf("%w: ride_id", ride.ErrMissingField)
	}
	if !in.Actor.Valid() {
		return ports.TransitionResult{}, ride.ErrInvalidActor
	}
	if !in.NewStatus.Valid() {
		return ports.TransitionResult{}, ride.ErrInvalidStatus
	}

	ctx = service.logger.WithRideID(ctx, rideID)

	var (
		result  ports.TransitionResult
		applied *ride.Ride
	)

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		// lock the row so concurrent writers serialize here
		current, err := service.rides.GetByIDForUpdate(ctx, rideID)
		if err != nil {
			return err
		}

		// same-status requests are an idempotent no-op: no write, no event
		if current.Status == in.NewStatus {
			result = ports.TransitionResult{
				RideID:           current.ID,
				OldStatus:        current.Status.String(),
				NewStatus:        current.Status.String(),
				LastStatusUpdate: current.LastStatusUpdate,
				NotificationSent: false,
			}
			return nil
		}

		if !current.Status.CanTransitionTo(in.NewStatus) {
			return fmt.Errorf("%w: %s -> %s", ride.ErrInvalidTransition, current.Status, in.NewStatus)
		}

		// a driver acting on an unassigned ride claims it
		var driverID *string
		if in.Actor == ride.ActorDriver && in.ActorID != "" {
			id := in.ActorID
			driverID = &id
		}

		now := time.Now().UTC()
		ok, err := service.rides.UpdateStatusFrom(ctx, current.ID, current.Status, in.NewStatus, in.Actor, driverID, now)
		if err != nil {
			return err
		}
		if !ok {
			// the row moved between the locked read and the conditional write
			return ride.ErrConflictRace
		}

		event, err := ride.NewStatusChangeEvent(current.ID, current.Status, in.NewStatus, in.Actor, in.ActorID, in.Metadata)
		if err != nil {
			return err
		}
		if err := service.events.Append(ctx, event); err != nil {
			return err
		}

		result = ports.TransitionResult{
			RideID:           current.ID,
			OldStatus:        current.Status.String(),
			NewStatus:        in.NewStatus.String(),
			LastStatusUpdate: now,
		}

		snapshot := *current
		snapshot.Status = in.NewStatus
		snapshot.StatusUpdatedBy = in.Actor
		snapshot.LastStatusUpdate = now
		if driverID != nil && !snapshot.Assigned() {
			snapshot.DriverID = driverID
		}
		applied = &snapshot

		return nil
	})
	if err != nil {
		return ports.TransitionResult{}, err
	}

	// no-op short circuit: nothing changed, nobody to notify
	if applied == nil {
		return result, nil
	}

	service.logger.Info(ctx, "transition_applied", "Ride status transition applied", map[string]any{
		"old_status": result.OldStatus,
		"new_status": result.NewStatus,
		"changed_by": in.Actor.String(),
	})

	correlationID := generateCorrelationID()

	// both post-commit deliveries are best effort and never fail the request
	result.NotificationSent = service.notifyCounterparty(ctx, applied, result.OldStatus, in.Actor, correlationID)

	if err := service.publishRideStatus(ctx, applied, result.OldStatus, in.Actor, correlationID); err != nil {
		service.logger.Error(ctx, "ride_status_publish_failed", "Failed to publish ride status fanout", err, map[string]any{
			"new_status": result.NewStatus,
		})
	}

	return result, nil
}
