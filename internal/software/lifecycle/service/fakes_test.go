package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"ridesync/internal/domain/geo"
	"ridesync/internal/domain/ride"
	"ridesync/internal/general/logger"
	"ridesync/internal/ports"
)

// memStore is an in-memory stand-in for the pgx unit of work plus both
// repositories. WithinTx takes a single lock, which mirrors the row-lock
// serialization transitions rely on in Postgres.
type memStore struct {
	mu          sync.Mutex
	rides       map[string]*ride.Ride
	events      []ride.Event
	nextEventID int64
}

func newMemStore() *memStore {
	return &memStore{rides: make(map[string]*ride.Ride), nextEventID: 1}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

func (m *memStore) Create(_ context.Context, r *ride.Ride) error {
	cp := *r
	m.rides[r.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*ride.Ride, error) {
	r, ok := m.rides[id]
	if !ok {
		return nil, ride.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) GetByIDForUpdate(ctx context.Context, id string) (*ride.Ride, error) {
	return m.GetByID(ctx, id)
}

func (m *memStore) UpdateStatusFrom(_ context.Context, id string, from, to ride.Status, actor ride.Actor, driverID *string, at time.Time) (bool, error) {
	r, ok := m.rides[id]
	if !ok || r.Status != from {
		return false, nil
	}

	r.Status = to
	r.StatusUpdatedBy = actor
	r.LastStatusUpdate = at
	if r.DriverID == nil && driverID != nil {
		id := *driverID
		r.DriverID = &id
	}
	if to == ride.StatusCancelled {
		cancelled := at
		r.CancelledAt = &cancelled
	}
	return true, nil
}

func (m *memStore) ListByStatus(_ context.Context, status ride.Status, limit int) ([]*ride.Ride, error) {
	var out []*ride.Ride
	for _, r := range m.rides {
		if r.Status == status {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Append(_ context.Context, e *ride.Event) error {
	e.ID = m.nextEventID
	m.nextEventID++
	m.events = append(m.events, *e)
	return nil
}

func (m *memStore) ListByRide(_ context.Context, rideID string) ([]ride.Event, error) {
	return m.listEvents(rideID, time.Time{}), nil
}

func (m *memStore) ListSince(_ context.Context, rideID string, after time.Time) ([]ride.Event, error) {
	return m.listEvents(rideID, after), nil
}

func (m *memStore) listEvents(rideID string, after time.Time) []ride.Event {
	var out []ride.Event
	for _, e := range m.events {
		if e.RideID == rideID && e.CreatedAt.After(after) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// eventCount reads the event log under the store lock.
func (m *memStore) eventCount(rideID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listEvents(rideID, time.Time{}))
}

// fakeDevices is an in-memory device registry with an optional injected
// lookup failure.
type fakeDevices struct {
	mu        sync.Mutex
	devices   map[string]ports.PushDevice
	lookupErr error
}

func newFakeDevices() *fakeDevices {
	return &fakeDevices{devices: make(map[string]ports.PushDevice)}
}

func (f *fakeDevices) Register(_ context.Context, identity string, device ports.PushDevice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices[identity] = device
	return nil
}

func (f *fakeDevices) Lookup(_ context.Context, identity string) (*ports.PushDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	d, ok := f.devices[identity]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (f *fakeDevices) Remove(_ context.Context, identity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.devices, identity)
	return nil
}

// fakeLocations stores last-known driver positions in memory.
type fakeLocations struct {
	mu        sync.Mutex
	positions map[string]geo.Position
}

func newFakeLocations() *fakeLocations {
	return &fakeLocations{positions: make(map[string]geo.Position)}
}

func (f *fakeLocations) Save(_ context.Context, driverID string, position geo.Position) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions[driverID] = position
	return nil
}

func (f *fakeLocations) Last(_ context.Context, driverID string) (*geo.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.positions[driverID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// fakePublisher records publishes and can be told to fail.
type fakePublisher struct {
	mu         sync.Mutex
	published  []publishedMsg
	publishErr error
}

type publishedMsg struct {
	exchange   string
	routingKey string
	body       []byte
}

func (f *fakePublisher) Publish(exchange, routingKey string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, publishedMsg{exchange: exchange, routingKey: routingKey, body: body})
	return nil
}

func (f *fakePublisher) messages() []publishedMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedMsg(nil), f.published...)
}

// testEnv bundles the service with the fakes behind it.
type testEnv struct {
	svc       ports.LifecycleService
	store     *memStore
	devices   *fakeDevices
	locations *fakeLocations
	pub       *fakePublisher
}

func newTestEnv() *testEnv {
	store := newMemStore()
	devices := newFakeDevices()
	locations := newFakeLocations()
	pub := &fakePublisher{}

	svc := NewLifecycleService(logger.New("lifecycle-test"), store, store, store, devices, locations, pub)

	return &testEnv{svc: svc, store: store, devices: devices, locations: locations, pub: pub}
}
