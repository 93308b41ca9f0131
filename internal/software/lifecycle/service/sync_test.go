package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ridesync/internal/domain/geo"
	"ridesync/internal/domain/ride"
	"ridesync/internal/ports"
)

func TestSyncPollFullHistory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	rideID := bookTestRide(t, env)

	mustApply(t, env, rideID, ride.StatusConfirmed, ride.ActorDriver, "d1")
	mustApply(t, env, rideID, ride.StatusDriverArrived, ride.ActorDriver, "d1")

	res, err := env.svc.SyncPoll(ctx, rideID, time.Time{})
	if err != nil {
		t.Fatalf("SyncPoll: %v", err)
	}

	if res.CurrentStatus != "driver_arrived" {
		t.Fatalf("current status = %s, want driver_arrived", res.CurrentStatus)
	}
	if res.StatusUpdatedBy != "driver" {
		t.Fatalf("status_updated_by = %s, want driver", res.StatusUpdatedBy)
	}
	if !res.HasUpdates {
		t.Fatal("zero checkpoint must report updates")
	}
	if len(res.Events) != 2 {
		t.Fatalf("event count = %d, want 2", len(res.Events))
	}
	if res.Events[0].NewStatus != "confirmed" || res.Events[1].NewStatus != "driver_arrived" {
		t.Fatalf("events out of order: %s then %s", res.Events[0].NewStatus, res.Events[1].NewStatus)
	}
}

func TestSyncPollDelta(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	rideID := bookTestRide(t, env)

	mustApply(t, env, rideID, ride.StatusConfirmed, ride.ActorDriver, "d1")
	mustApply(t, env, rideID, ride.StatusDriverArrived, ride.ActorDriver, "d1")

	checkpoint := time.Now().UTC()
	time.Sleep(5 * time.Millisecond)

	mustApply(t, env, rideID, ride.StatusInProgress, ride.ActorDriver, "d1")

	res, err := env.svc.SyncPoll(ctx, rideID, checkpoint)
	if err != nil {
		t.Fatalf("SyncPoll: %v", err)
	}

	if !res.HasUpdates {
		t.Fatal("expected has_updates after new transition")
	}
	if len(res.Events) != 1 {
		t.Fatalf("delta event count = %d, want 1", len(res.Events))
	}
	if res.Events[0].NewStatus != "in_progress" {
		t.Fatalf("delta event = %s, want in_progress", res.Events[0].NewStatus)
	}
}

func TestSyncPollNoNews(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	rideID := bookTestRide(t, env)
	mustApply(t, env, rideID, ride.StatusConfirmed, ride.ActorDriver, "d1")

	time.Sleep(5 * time.Millisecond)
	checkpoint := time.Now().UTC()

	res, err := env.svc.SyncPoll(ctx, rideID, checkpoint)
	if err != nil {
		t.Fatalf("SyncPoll: %v", err)
	}
	if res.HasUpdates {
		t.Fatal("nothing changed past the checkpoint, has_updates must be false")
	}
	if len(res.Events) != 0 {
		t.Fatalf("delta event count = %d, want 0", len(res.Events))
	}
}

func TestSyncPollDriverLocation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	rideID := bookTestRide(t, env)
	mustApply(t, env, rideID, ride.StatusConfirmed, ride.ActorDriver, "d1")

	err := env.locations.Save(ctx, "d1", geo.Position{
		Coordinate: geo.Coordinate{Latitude: 51.13, Longitude: 71.44},
		UpdatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Save location: %v", err)
	}

	res, err := env.svc.SyncPoll(ctx, rideID, time.Time{})
	if err != nil {
		t.Fatalf("SyncPoll: %v", err)
	}
	if res.DriverLocation == nil {
		t.Fatal("expected driver_location for an active assigned ride")
	}
	if res.DriverLocation.Latitude != 51.13 {
		t.Fatalf("driver lat = %f, want 51.13", res.DriverLocation.Latitude)
	}

	// terminal ride: no location attached even though one is known
	mustApply(t, env, rideID, ride.StatusCancelled, ride.ActorPassenger, "u1")
	res, err = env.svc.SyncPoll(ctx, rideID, time.Time{})
	if err != nil {
		t.Fatalf("SyncPoll: %v", err)
	}
	if res.DriverLocation != nil {
		t.Fatal("terminal rides must not carry driver_location")
	}
}

func TestSyncPollValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.svc.SyncPoll(ctx, "  ", time.Time{}); !errors.Is(err, ride.ErrMissingField) {
		t.Fatalf("blank ride_id error = %v, want ErrMissingField", err)
	}
	if _, err := env.svc.SyncPoll(ctx, "nope", time.Time{}); !errors.Is(err, ride.ErrNotFound) {
		t.Fatalf("unknown ride error = %v, want ErrNotFound", err)
	}
}

func TestDeviceLifecycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.svc.RegisterDevice(ctx, "u1", ports.PushDevice{PushAddress: "tok", DeviceKind: "fcm"}); err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	if err := env.svc.RegisterDevice(ctx, "u1", ports.PushDevice{}); !errors.Is(err, ride.ErrMissingField) {
		t.Fatalf("missing push_address error = %v, want ErrMissingField", err)
	}

	if err := env.svc.RemoveDevice(ctx, "u1"); err != nil {
		t.Fatalf("RemoveDevice: %v", err)
	}
	// removing twice stays silent
	if err := env.svc.RemoveDevice(ctx, "u1"); err != nil {
		t.Fatalf("second RemoveDevice: %v", err)
	}

	device, err := env.devices.Lookup(ctx, "u1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if device != nil {
		t.Fatal("device should be gone after removal")
	}
}

func TestUpdateDriverLocationValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	err := env.svc.UpdateDriverLocation(ctx, ports.UpdateDriverLocationInput{DriverID: "d1", Latitude: 91, Longitude: 0})
	if !errors.Is(err, geo.ErrInvalidLatitude) {
		t.Fatalf("bad latitude error = %v, want ErrInvalidLatitude", err)
	}

	err = env.svc.UpdateDriverLocation(ctx, ports.UpdateDriverLocationInput{DriverID: "d1", Latitude: 51.1, Longitude: 71.4})
	if err != nil {
		t.Fatalf("UpdateDriverLocation: %v", err)
	}

	pos, err := env.locations.Last(ctx, "d1")
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if pos == nil || pos.Latitude != 51.1 {
		t.Fatalf("stored position = %+v, want lat 51.1", pos)
	}
}
