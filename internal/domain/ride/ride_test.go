package ride

import (
	"errors"
	"testing"
	"time"

	"ridesync/internal/domain/geo"
)

func testRide(t *testing.T) *Ride {
	t.Helper()

	r, err := NewRide("u1",
		geo.Coordinate{Latitude: 51.1, Longitude: 71.4},
		geo.Coordinate{Latitude: 51.2, Longitude: 71.5},
		"Pickup St 1", "Destination Ave 2",
	)
	if err != nil {
		t.Fatalf("NewRide: %v", err)
	}
	return r
}

func TestNewRide(t *testing.T) {
	r := testRide(t)

	if r.ID == "" {
		t.Error("expected a generated ride id")
	}
	if r.Status != StatusPending {
		t.Errorf("new ride status = %s, want pending", r.Status)
	}
	if r.StatusUpdatedBy != ActorPassenger {
		t.Errorf("new ride status_updated_by = %s, want passenger", r.StatusUpdatedBy)
	}
	if r.Assigned() {
		t.Error("new ride should have no driver")
	}
	if r.EstimatedDurationMinutes < 1 {
		t.Errorf("estimated duration = %d, want >= 1", r.EstimatedDurationMinutes)
	}
}

func TestNewRideValidation(t *testing.T) {
	valid := geo.Coordinate{Latitude: 51.1, Longitude: 71.4}

	if _, err := NewRide("  ", valid, valid, "", ""); !errors.Is(err, ErrUserRequired) {
		t.Errorf("blank user error = %v, want ErrUserRequired", err)
	}

	bad := geo.Coordinate{Latitude: 91, Longitude: 0}
	if _, err := NewRide("u1", bad, valid, "", ""); !errors.Is(err, geo.ErrInvalidLatitude) {
		t.Errorf("bad pickup error = %v, want ErrInvalidLatitude", err)
	}
	if _, err := NewRide("u1", valid, geo.Coordinate{Latitude: 0, Longitude: -181}, "", ""); !errors.Is(err, geo.ErrInvalidLongitude) {
		t.Errorf("bad destination error = %v, want ErrInvalidLongitude", err)
	}
}

// TestNextAutoStatus pins the dwell deadlines, including their inclusive
// boundaries.
func TestNextAutoStatus(t *testing.T) {
	created := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		status   Status
		elapsed  time.Duration
		wantNext Status
		wantDue  bool
	}{
		{"confirmed just before 1m", StatusConfirmed, 59 * time.Second, "", false},
		{"confirmed exactly 1m", StatusConfirmed, time.Minute, StatusDriverArrived, true},
		{"confirmed past 1m", StatusConfirmed, 61 * time.Second, StatusDriverArrived, true},
		{"driver_arrived just before 2m", StatusDriverArrived, 2*time.Minute - time.Second, "", false},
		{"driver_arrived exactly 2m", StatusDriverArrived, 2 * time.Minute, StatusInProgress, true},
		{"in_progress before trip end", StatusInProgress, 2*time.Minute + 9*time.Minute, "", false},
		{"in_progress exactly at trip end", StatusInProgress, 2*time.Minute + 10*time.Minute, StatusCompleted, true},
		{"in_progress after trip end", StatusInProgress, time.Hour, StatusCompleted, true},
		{"pending never auto-advances", StatusPending, time.Hour, "", false},
		{"completed never auto-advances", StatusCompleted, time.Hour, "", false},
		{"cancelled never auto-advances", StatusCancelled, time.Hour, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &Ride{
				CreatedAt:                created,
				Status:                   tc.status,
				EstimatedDurationMinutes: 10,
			}

			next, due := r.NextAutoStatus(created.Add(tc.elapsed))
			if due != tc.wantDue {
				t.Fatalf("due = %v, want %v", due, tc.wantDue)
			}
			if due && next != tc.wantNext {
				t.Fatalf("next = %s, want %s", next, tc.wantNext)
			}
		})
	}
}

func TestEventMetadataJSON(t *testing.T) {
	event, err := NewStatusChangeEvent("r1", StatusPending, StatusConfirmed, ActorDriver, "d1", nil)
	if err != nil {
		t.Fatalf("NewStatusChangeEvent: %v", err)
	}

	b, err := event.MetadataJSON()
	if err != nil {
		t.Fatalf("MetadataJSON: %v", err)
	}
	if string(b) != "{}" {
		t.Errorf("nil metadata encoded as %s, want {}", b)
	}
}

func TestNewStatusChangeEventValidation(t *testing.T) {
	if _, err := NewStatusChangeEvent("", StatusPending, StatusConfirmed, ActorDriver, "d1", nil); !errors.Is(err, ErrEventRideRequired) {
		t.Errorf("blank ride id error = %v, want ErrEventRideRequired", err)
	}
	if _, err := NewStatusChangeEvent("r1", Status("bogus"), StatusConfirmed, ActorDriver, "d1", nil); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bogus status error = %v, want ErrInvalidStatus", err)
	}
	if _, err := NewStatusChangeEvent("r1", StatusPending, StatusConfirmed, Actor("bogus"), "d1", nil); !errors.Is(err, ErrInvalidActor) {
		t.Errorf("bogus actor error = %v, want ErrInvalidActor", err)
	}
}

// metadata passed in must not alias the stored map
func TestEventMetadataCopied(t *testing.T) {
	meta := map[string]any{"reason": "pickup"}
	event, err := NewStatusChangeEvent("r1", StatusPending, StatusConfirmed, ActorDriver, "d1", meta)
	if err != nil {
		t.Fatalf("NewStatusChangeEvent: %v", err)
	}

	meta["reason"] = "mutated"
	if event.Metadata["reason"] != "pickup" {
		t.Error("event metadata should be a defensive copy")
	}
}
