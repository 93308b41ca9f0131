package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ridesync/internal/domain/geo"
	"ridesync/internal/domain/ride"
	"ridesync/internal/ports"
)

// UpdateDriverLocation records a driver's latest reported position.
func (service *lifecycleService) UpdateDriverLocation(ctx context.Context, in ports.UpdateDriverLocationInput) error {
	driverID := strings.TrimSpace(in.DriverID)
	if driverID == "" {
		return fmt.Errorf("%w: driver_id", ride.ErrMissingField)
	}

	position := geo.Position{
		Coordinate: geo.Coordinate{Latitude: in.Latitude, Longitude: in.Longitude},
		UpdatedAt:  time.Now().UTC(),
	}
	if err := position.Validate(); err != nil {
		return err
	}

	if err := service.locations.Save(ctx, driverID, position); err != nil {
		service.logger.Error(ctx, "driver_location_save_failed", "Failed to save driver location", err, map[string]any{
			"driver_id": driverID,
		})
		return err
	}

	service.logger.Debug(ctx, "driver_location_saved", "Driver location updated", map[string]any{
		"driver_id": driverID,
		"lat":       in.Latitude,
		"lng":       in.Longitude,
	})

	return nil
}

// RegisterDevice stores the push address used to reach an identity.
func (service *lifecycleService) RegisterDevice(ctx context.Context, identity string, device ports.PushDevice) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return fmt.Errorf("%w: identity", ride.ErrMissingField)
	}
	if strings.TrimSpace(device.PushAddress) == "" {
		return fmt.Errorf("%w: push_address", ride.ErrMissingField)
	}
	if strings.TrimSpace(device.DeviceKind) == "" {
		return fmt.Errorf("%w: device_kind", ride.ErrMissingField)
	}

	if err := service.devices.Register(ctx, identity, device); err != nil {
		return err
	}

	service.logger.Info(ctx, "device_registered", "Push device registered", map[string]any{
		"identity":    identity,
		"device_kind": device.DeviceKind,
	})

	return nil
}

// RemoveDevice drops an identity's push registration. Removing an absent
// registration succeeds.
func (service *lifecycleService) RemoveDevice(ctx context.Context, identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return fmt.Errorf("%w: identity", ride.ErrMissingField)
	}

	if err := service.devices.Remove(ctx, identity); err != nil {
		return err
	}

	service.logger.Info(ctx, "device_removed", "Push device removed", map[string]any{
		"identity": identity,
	})

	return nil
}
