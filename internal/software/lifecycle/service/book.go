package service

import (
	"context"

	"ridesync/internal/domain/geo"
	"ridesync/internal/domain/ride"
	"ridesync/internal/ports"
)

// BookRide creates a new pending ride for a passenger.
func (service *lifecycleService) BookRide(ctx context.Context, in ports.BookRideInput) (ports.BookRideResult, error) {
	pickup := geo.Coordinate{Latitude: in.PickupLatitude, Longitude: in.PickupLongitude}
	destination := geo.Coordinate{Latitude: in.DestinationLatitude, Longitude: in.DestinationLongitude}

	newRide, err := ride.NewRide(in.UserID, pickup, destination, in.PickupAddress, in.DestinationAddress)
	if err != nil {
		return ports.BookRideResult{}, err
	}

	ctx = service.logger.WithRideID(ctx, newRide.ID)

	if err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		return service.rides.Create(ctx, newRide)
	}); err != nil {
		return ports.BookRideResult{}, err
	}

	service.logger.Info(ctx, "ride_booked", "Ride created in pending state", map[string]any{
		"user_id":                    newRide.UserID,
		"estimated_duration_minutes": newRide.EstimatedDurationMinutes,
	})

	return ports.BookRideResult{
		RideID:                   newRide.ID,
		Status:                   newRide.Status.String(),
		CreatedAt:                newRide.CreatedAt,
		EstimatedDurationMinutes: newRide.EstimatedDurationMinutes,
	}, nil
}
