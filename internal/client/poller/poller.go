package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"ridesync/internal/ports"
)

// State is the lifecycle of one poller: Idle until Start, Polling while the
// loop runs, Stopped forever after Stop.
type State string

const (
	StateIdle    State = "idle"
	StatePolling State = "polling"
	StateStopped State = "stopped"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 3 * time.Second

var (
	ErrAlreadyStarted = errors.New("poller already started")
	ErrStopped        = errors.New("poller is stopped")
)

// Poller periodically fetches the status delta for a single ride and feeds
// results to the update callback. At most one poll is in flight at any time.
type Poller struct {
	rideID   string
	interval time.Duration
	client   Syncer
	onUpdate func(ports.SyncResult)
	onError  func(error)

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc

	nudge chan struct{}
	done  chan struct{}

	lastCheck time.Time
}

// NewPoller creates an idle poller for one ride. onError may be nil; onUpdate
// receives every successful poll result, including empty deltas.
func NewPoller(client Syncer, rideID string, interval time.Duration, onUpdate func(ports.SyncResult), onError func(error)) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Poller{
		rideID:   rideID,
		interval: interval,
		client:   client,
		onUpdate: onUpdate,
		onError:  onError,
		state:    StateIdle,
		nudge:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// State reports the current poller state.
func (poller *Poller) State() State {
	poller.mu.Lock()
	defer poller.mu.Unlock()
	return poller.state
}

// Start begins polling: one immediate poll, then one per interval. It can be
// called once; a stopped poller cannot be restarted.
func (poller *Poller) Start(ctx context.Context) error {
	poller.mu.Lock()
	switch poller.state {
	case StatePolling:
		poller.mu.Unlock()
		return ErrAlreadyStarted
	case StateStopped:
		poller.mu.Unlock()
		return ErrStopped
	}

	loopCtx, cancel := context.WithCancel(ctx)
	poller.cancel = cancel
	poller.state = StatePolling
	poller.mu.Unlock()

	go poller.loop(loopCtx)

	return nil
}

// Stop halts the loop and aborts any in-flight poll. Idempotent; results
// arriving after Stop are discarded.
func (poller *Poller) Stop() {
	poller.mu.Lock()
	defer poller.mu.Unlock()

	if poller.state == StateStopped {
		return
	}
	poller.state = StateStopped

	close(poller.done)
	if poller.cancel != nil {
		poller.cancel()
	}
}

// Nudge requests an immediate out-of-band poll, collapsing the latency of the
// next tick. No-op unless polling; coalesces when one is already queued.
func (poller *Poller) Nudge() {
	if poller.State() != StatePolling {
		return
	}

	select {
	case poller.nudge <- struct{}{}:
	default:
	}
}

func (poller *Poller) loop(ctx context.Context) {
	ticker := time.NewTicker(poller.interval)
	defer ticker.Stop()

	poller.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-poller.done:
			return
		case <-ticker.C:
			poller.poll(ctx)
		case <-poller.nudge:
			poller.poll(ctx)
		}
	}
}

// poll performs one sync round trip. The loop is the only caller, which keeps
// at most one request in flight.
func (poller *Poller) poll(ctx context.Context) {
	result, err := poller.client.Sync(ctx, poller.rideID, poller.lastCheck)

	// a stop racing the request wins: discard whatever came back
	select {
	case <-poller.done:
		return
	default:
	}

	if err != nil {
		if poller.onError != nil {
			poller.onError(err)
		}
		return
	}

	// advance the checkpoint on server time to sidestep clock skew
	if result.LastStatusUpdate.After(poller.lastCheck) {
		poller.lastCheck = result.LastStatusUpdate
	}

	if poller.onUpdate != nil {
		poller.onUpdate(result)
	}
}
