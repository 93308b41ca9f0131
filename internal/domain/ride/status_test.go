package ride

import (
	"errors"
	"testing"
)

// TestCanTransitionTo verifies the full transition table.
func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusDriverArrived, true},
		{StatusDriverArrived, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		// cancels from every non-terminal state
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusDriverArrived, StatusCancelled, true},
		{StatusInProgress, StatusCancelled, true},
		// no-show only once the driver has arrived
		{StatusDriverArrived, StatusNoShow, true},
		{StatusPending, StatusNoShow, false},
		{StatusConfirmed, StatusNoShow, false},
		{StatusInProgress, StatusNoShow, false},
		// invalid: skipping states
		{StatusPending, StatusDriverArrived, false},
		{StatusPending, StatusInProgress, false},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusInProgress, false},
		{StatusConfirmed, StatusCompleted, false},
		{StatusDriverArrived, StatusCompleted, false},
		// invalid: going backwards
		{StatusConfirmed, StatusPending, false},
		{StatusDriverArrived, StatusConfirmed, false},
		{StatusInProgress, StatusDriverArrived, false},
		// terminal states have no outgoing transitions
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusPending, false},
		{StatusNoShow, StatusInProgress, false},
		{StatusNoShow, StatusCancelled, false},
		// unknown statuses fail closed on either side
		{Status("teleported"), StatusConfirmed, false},
		{StatusPending, Status("teleported"), false},
	}
	for _, tc := range cases {
		got := tc.from.CanTransitionTo(tc.to)
		if got != tc.want {
			t.Errorf("CanTransitionTo(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusCancelled, StatusNoShow}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	open := []Status{StatusPending, StatusConfirmed, StatusDriverArrived, StatusInProgress}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestActive(t *testing.T) {
	active := []Status{StatusConfirmed, StatusDriverArrived, StatusInProgress}
	for _, s := range active {
		if !s.Active() {
			t.Errorf("%s should be active", s)
		}
	}

	inactive := []Status{StatusPending, StatusCompleted, StatusCancelled, StatusNoShow}
	for _, s := range inactive {
		if s.Active() {
			t.Errorf("%s should not be active", s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"CONFIRMED", StatusConfirmed, false},
		{"  driver_arrived  ", StatusDriverArrived, false},
		{"In_Progress", StatusInProgress, false},
		{"no_show", StatusNoShow, false},
		{"", "", true},
		{"noshow", "", true},
		{"driver arrived", "", true},
	}
	for _, tc := range cases {
		got, err := ParseStatus(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidStatus) {
				t.Errorf("ParseStatus(%q) error = %v, want ErrInvalidStatus", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStatus(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseStatus(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseActor(t *testing.T) {
	for _, in := range []string{"driver", "DRIVER", " Passenger ", "system"} {
		if _, err := ParseActor(in); err != nil {
			t.Errorf("ParseActor(%q) unexpected error: %v", in, err)
		}
	}
	for _, in := range []string{"", "admin", "robot"} {
		if _, err := ParseActor(in); !errors.Is(err, ErrInvalidActor) {
			t.Errorf("ParseActor(%q) should fail with ErrInvalidActor", in)
		}
	}
}

func TestCounterparty(t *testing.T) {
	if got := ActorDriver.Counterparty(); got != ActorPassenger {
		t.Errorf("driver counterparty = %s, want passenger", got)
	}
	if got := ActorPassenger.Counterparty(); got != ActorDriver {
		t.Errorf("passenger counterparty = %s, want driver", got)
	}
	if got := ActorSystem.Counterparty(); got != ActorDriver {
		t.Errorf("system counterparty = %s, want driver", got)
	}
}
