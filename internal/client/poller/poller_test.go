package poller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ridesync/internal/ports"
)

// scriptedSyncer counts polls and replays canned results.
type scriptedSyncer struct {
	mu      sync.Mutex
	calls   int
	results []ports.SyncResult
	err     error
}

func (s *scriptedSyncer) Sync(_ context.Context, rideID string, _ time.Time) (ports.SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return ports.SyncResult{}, s.err
	}
	idx := s.calls - 1
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	res := s.results[idx]
	res.RideID = rideID
	return res, nil
}

func (s *scriptedSyncer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestPollerImmediateFirstPoll(t *testing.T) {
	client := &scriptedSyncer{results: []ports.SyncResult{{CurrentStatus: "confirmed"}}}

	var updates atomic.Int32
	p := NewPoller(client, "r1", time.Hour, func(ports.SyncResult) { updates.Add(1) }, nil)
	defer p.Stop()

	if p.State() != StateIdle {
		t.Fatalf("state before start = %s, want idle", p.State())
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if p.State() != StatePolling {
		t.Fatalf("state after start = %s, want polling", p.State())
	}

	// interval is one hour, so any update must come from the immediate poll
	waitFor(t, time.Second, func() bool { return updates.Load() == 1 })
}

func TestPollerTicks(t *testing.T) {
	client := &scriptedSyncer{results: []ports.SyncResult{{CurrentStatus: "confirmed"}}}

	p := NewPoller(client, "r1", 10*time.Millisecond, func(ports.SyncResult) {}, nil)
	defer p.Stop()

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, time.Second, func() bool { return client.callCount() >= 3 })
}

func TestPollerErrorKeepsPolling(t *testing.T) {
	client := &scriptedSyncer{err: errors.New("server unavailable")}

	var errCount atomic.Int32
	p := NewPoller(client, "r1", 10*time.Millisecond, func(ports.SyncResult) {
		t.Error("onUpdate must not fire for failed polls")
	}, func(error) { errCount.Add(1) })
	defer p.Stop()

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// multiple error callbacks prove the loop survived the failures
	waitFor(t, time.Second, func() bool { return errCount.Load() >= 2 })
	if p.State() != StatePolling {
		t.Fatalf("state = %s, want polling after errors", p.State())
	}
}

func TestPollerNudge(t *testing.T) {
	client := &scriptedSyncer{results: []ports.SyncResult{{CurrentStatus: "confirmed"}}}

	var updates atomic.Int32
	p := NewPoller(client, "r1", time.Hour, func(ports.SyncResult) { updates.Add(1) }, nil)
	defer p.Stop()

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, time.Second, func() bool { return updates.Load() == 1 })

	p.Nudge()
	waitFor(t, time.Second, func() bool { return updates.Load() == 2 })
}

func TestPollerStopIdempotent(t *testing.T) {
	client := &scriptedSyncer{results: []ports.SyncResult{{CurrentStatus: "confirmed"}}}

	p := NewPoller(client, "r1", 10*time.Millisecond, func(ports.SyncResult) {}, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	p.Stop()
	p.Stop() // second stop must not panic
	if p.State() != StateStopped {
		t.Fatalf("state = %s, want stopped", p.State())
	}

	// a stopped poller cannot be restarted
	if err := p.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("restart error = %v, want ErrStopped", err)
	}

	// no further polls after stop
	calls := client.callCount()
	time.Sleep(50 * time.Millisecond)
	if client.callCount() != calls {
		t.Fatal("poller kept polling after Stop")
	}
}

func TestPollerDoubleStart(t *testing.T) {
	client := &scriptedSyncer{results: []ports.SyncResult{{}}}

	p := NewPoller(client, "r1", time.Hour, nil, nil)
	defer p.Stop()

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start error = %v, want ErrAlreadyStarted", err)
	}
}

func TestRegistryLifecycle(t *testing.T) {
	client := &scriptedSyncer{results: []ports.SyncResult{{CurrentStatus: "confirmed"}}}
	registry := NewRegistry(client, time.Hour)
	defer registry.Close()

	p, err := registry.Track(context.Background(), "r1", nil, nil)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if p.State() != StatePolling {
		t.Fatalf("tracked poller state = %s, want polling", p.State())
	}

	if _, err := registry.Track(context.Background(), "r1", nil, nil); !errors.Is(err, ErrPollerExists) {
		t.Fatalf("duplicate Track error = %v, want ErrPollerExists", err)
	}

	registry.Dispose("r1")
	if p.State() != StateStopped {
		t.Fatalf("disposed poller state = %s, want stopped", p.State())
	}
	if _, ok := registry.Get("r1"); ok {
		t.Fatal("registry still knows a disposed ride")
	}

	// disposing an untracked ride is silent
	registry.Dispose("r1")
}

// TestSyncClientAgainstServer exercises the HTTP client end to end.
func TestSyncClientAgainstServer(t *testing.T) {
	var gotLastCheck atomic.Value

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rides/r1/sync" {
			t.Errorf("path = %s, want /rides/r1/sync", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tkn" {
			t.Errorf("authorization = %q, want Bearer tkn", auth)
		}
		gotLastCheck.Store(r.URL.Query().Get("last_check"))

		_ = json.NewEncoder(w).Encode(ports.SyncResult{
			RideID:        "r1",
			CurrentStatus: "in_progress",
			HasUpdates:    true,
			Events: []ports.StatusEventView{
				{OldStatus: "driver_arrived", NewStatus: "in_progress", ChangedBy: "driver"},
			},
		})
	}))
	defer srv.Close()

	client := NewSyncClient(srv.URL, "tkn", time.Second)

	// first call: zero checkpoint, no query parameter
	res, err := client.Sync(context.Background(), "r1", time.Time{})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.CurrentStatus != "in_progress" || len(res.Events) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := gotLastCheck.Load().(string); got != "" {
		t.Fatalf("zero checkpoint sent last_check=%q, want empty", got)
	}

	// second call: checkpoint forwarded in RFC 3339 form
	checkpoint := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	if _, err := client.Sync(context.Background(), "r1", checkpoint); err != nil {
		t.Fatalf("Sync with checkpoint: %v", err)
	}
	if got := gotLastCheck.Load().(string); got == "" {
		t.Fatal("checkpoint not forwarded as last_check")
	}
}

func TestSyncClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"ride not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewSyncClient(srv.URL, "", time.Second)

	if _, err := client.Sync(context.Background(), "ghost", time.Time{}); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}
