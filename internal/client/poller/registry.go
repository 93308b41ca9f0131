package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"ridesync/internal/ports"
)

var ErrPollerExists = errors.New("poller already registered for ride")

// Registry owns the pollers of one client process, keyed by ride_id. Pollers
// are created and disposed explicitly; disposing stops them.
type Registry struct {
	client   Syncer
	interval time.Duration

	mu      sync.Mutex
	pollers map[string]*Poller
}

// NewRegistry creates an empty registry whose pollers share one Syncer and
// tick interval.
func NewRegistry(client Syncer, interval time.Duration) *Registry {
	return &Registry{
		client:   client,
		interval: interval,
		pollers:  make(map[string]*Poller),
	}
}

// Track creates and starts a poller for the ride. At most one poller per
// ride_id may exist at a time.
func (registry *Registry) Track(ctx context.Context, rideID string, onUpdate func(ports.SyncResult), onError func(error)) (*Poller, error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, ok := registry.pollers[rideID]; ok {
		return nil, ErrPollerExists
	}

	p := NewPoller(registry.client, rideID, registry.interval, onUpdate, onError)
	if err := p.Start(ctx); err != nil {
		return nil, err
	}
	registry.pollers[rideID] = p

	return p, nil
}

// Get returns the poller tracking the ride, if any.
func (registry *Registry) Get(rideID string) (*Poller, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	p, ok := registry.pollers[rideID]
	return p, ok
}

// Nudge pokes the ride's poller for an immediate poll. No-op for untracked rides.
func (registry *Registry) Nudge(rideID string) {
	if p, ok := registry.Get(rideID); ok {
		p.Nudge()
	}
}

// Dispose stops and forgets the ride's poller. Disposing an untracked ride is
// a no-op.
func (registry *Registry) Dispose(rideID string) {
	registry.mu.Lock()
	p, ok := registry.pollers[rideID]
	delete(registry.pollers, rideID)
	registry.mu.Unlock()

	if ok {
		p.Stop()
	}
}

// Close stops every tracked poller.
func (registry *Registry) Close() {
	registry.mu.Lock()
	pollers := registry.pollers
	registry.pollers = make(map[string]*Poller)
	registry.mu.Unlock()

	for _, p := range pollers {
		p.Stop()
	}
}
