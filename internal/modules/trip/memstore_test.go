// README: In-memory trip repository, user lookup and publisher doubles for service tests.
package trip

import (
	"context"
	"sort"
	"sync"
	"time"

	"rides/internal/logger"
	"rides/internal/modules/user"
	"rides/internal/types"
)

// memStore mirrors the compare-and-set semantics of Store.Apply.
type memStore struct {
	mu     sync.Mutex
	trips  map[types.ID]*Trip
	events []*Event
}

func newMemStore() *memStore {
	return &memStore{trips: make(map[types.ID]*Trip)}
}

func (m *memStore) Create(_ context.Context, t *Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[t.ID] = cloneTrip(t)
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTrip(t), nil
}

func (m *memStore) List(_ context.Context, f Filter) ([]*Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Trip
	for _, t := range m.trips {
		if f.DriverID != nil && (t.DriverID == nil || *t.DriverID != *f.DriverID) {
			continue
		}
		if f.PassengerID != nil && t.PassengerID != *f.PassengerID {
			continue
		}
		out = append(out, cloneTrip(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

func (m *memStore) Apply(_ context.Context, c Change) (*Trip, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[c.ID]
	if !ok || t.Status != c.From || t.StatusVersion != c.Version {
		return nil, false, nil
	}
	if c.To == StatusOngoing && t.DriverID == nil && c.DriverID == nil {
		return nil, false, nil
	}
	t.Status = c.To
	t.StatusVersion++
	if c.DriverID != nil {
		d := *c.DriverID
		t.DriverID = &d
	}
	if c.StartTime != nil {
		st := *c.StartTime
		t.StartTime = &st
	}
	if c.EndTime != nil {
		et := *c.EndTime
		t.EndTime = &et
	}
	return cloneTrip(t), true, nil
}

func (m *memStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memStore) CountActive(_ context.Context) (ActiveCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c ActiveCount
	for _, t := range m.trips {
		switch t.Status {
		case StatusPending:
			c.Pending++
		case StatusOngoing:
			c.Ongoing++
		}
	}
	return c, nil
}

func (m *memStore) ActiveLoad(_ context.Context, driverID *types.ID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.trips {
		if !t.Status.Active() {
			continue
		}
		switch {
		case driverID == nil && t.DriverID == nil:
			n++
		case driverID != nil && t.DriverID != nil && *driverID == *t.DriverID:
			n++
		}
	}
	return n, nil
}

func (m *memStore) clearDriver(id types.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.trips[id]; ok {
		t.DriverID = nil
	}
}

func (m *memStore) eventsFor(id types.ID) []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Event
	for _, e := range m.events {
		if e.TripID == id {
			out = append(out, e)
		}
	}
	return out
}

func cloneTrip(t *Trip) *Trip {
	cp := *t
	if t.DriverID != nil {
		d := *t.DriverID
		cp.DriverID = &d
	}
	return &cp
}

type memUsers struct {
	mu    sync.Mutex
	users map[types.ID]*user.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[types.ID]*user.User)}
}

func (m *memUsers) Get(_ context.Context, id types.ID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) add(name string, driver, passenger, available bool) types.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &user.User{
		ID:          types.NewID(),
		Username:    name,
		IsDriver:    driver,
		IsPassenger: passenger,
		IsAvailable: available,
		JoinedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return u.ID
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, n Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	return p.err
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, n := range p.sent {
		out = append(out, n.Kind)
	}
	return out
}

type fixture struct {
	svc       *Service
	store     *memStore
	users     *memUsers
	pub       *recordingPublisher
	passenger types.ID
	driver    types.ID
}

func newFixture() *fixture {
	store := newMemStore()
	users := newMemUsers()
	pub := &recordingPublisher{}
	f := &fixture{
		svc:   NewService(store, users, pub, logger.Discard()),
		store: store,
		users: users,
		pub:   pub,
	}
	f.passenger = users.add("rider", false, true, true)
	f.driver = users.add("driver", true, false, true)
	return f
}
