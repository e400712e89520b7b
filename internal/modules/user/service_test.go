// README: User service tests against an in-memory repository.
package user

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"rides/internal/apperr"
	"rides/internal/logger"
	"rides/internal/types"
)

type memRepo struct {
	mu    sync.Mutex
	users map[types.ID]*User
	order []types.ID
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[types.ID]*User)}
}

func (m *memRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return ErrUsernameTaken
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	m.order = append(m.order, u.ID)
	return nil
}

func (m *memRepo) Get(_ context.Context, id types.ID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) List(_ context.Context, f Filter) ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*User
	for _, id := range m.order {
		u, ok := m.users[id]
		if !ok || (f.DriversOnly && !u.IsDriver) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memRepo) ToggleAvailability(_ context.Context, id types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || !u.IsDriver {
		return false, ErrDriverNotFound
	}
	u.IsAvailable = !u.IsAvailable
	return u.IsAvailable, nil
}

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate(context.Context) { c.calls.Add(1) }

func newTestService() *Service {
	return NewService(newMemRepo(), nil, logger.Discard())
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  CreateCommand
	}{
		{"empty username", CreateCommand{Username: "  ", Password: "password1"}},
		{"short password", CreateCommand{Username: "bob", Password: "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.cmd)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateDefaultsAndDuplicate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateCommand{Username: "alice", Password: "password1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !u.IsPassenger || u.IsDriver || !u.IsAvailable {
		t.Fatalf("unexpected default flags: %+v", u)
	}
	if u.PasswordHash == "" || u.PasswordHash == "password1" {
		t.Fatalf("password not hashed")
	}

	_, err = svc.Create(ctx, CreateCommand{Username: "alice", Password: "password2"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCommand{Username: "carol", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	u, err := svc.Authenticate(ctx, "carol", "correct-horse")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.ID != created.ID {
		t.Fatalf("authenticated %s, want %s", u.ID, created.ID)
	}

	if _, err := svc.Authenticate(ctx, "carol", "wrong"); err != ErrBadCredentials {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "correct-horse"); err != ErrBadCredentials {
		t.Fatalf("unknown user: got %v", err)
	}
}

func TestListByUsername(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, name := range []string{"dan", "erin"} {
		if _, err := svc.Create(ctx, CreateCommand{Username: name, Password: "password1"}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	all, err := svc.List(ctx, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("list all: %d users, err %v", len(all), err)
	}
	one, err := svc.List(ctx, "erin")
	if err != nil || len(one) != 1 || one[0].Username != "erin" {
		t.Fatalf("list erin: %+v, err %v", one, err)
	}
	none, err := svc.List(ctx, "zed")
	if err != nil || len(none) != 0 {
		t.Fatalf("list zed: %+v, err %v", none, err)
	}
}

func TestToggleAvailability(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	driver, err := svc.Create(ctx, CreateCommand{Username: "drv", Password: "password1", IsDriver: true})
	if err != nil {
		t.Fatalf("create driver: %v", err)
	}
	rider, err := svc.Create(ctx, CreateCommand{Username: "rdr", Password: "password1"})
	if err != nil {
		t.Fatalf("create rider: %v", err)
	}

	got, err := svc.ToggleAvailability(ctx, driver.ID)
	if err != nil || got {
		t.Fatalf("first toggle = %v, err %v; want false", got, err)
	}
	got, err = svc.ToggleAvailability(ctx, driver.ID)
	if err != nil || !got {
		t.Fatalf("second toggle = %v, err %v; want true", got, err)
	}

	if _, err := svc.ToggleAvailability(ctx, rider.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("toggle passenger: expected not found, got %v", err)
	}
}

func TestListDriversSortedByUsername(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	names := []string{"d3", "p1", "d1", "d2"}
	for _, n := range names {
		if _, err := svc.Create(ctx, CreateCommand{Username: n, Password: "password1", IsDriver: n[0] == 'd'}); err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
	}
	drivers, err := svc.ListDrivers(ctx)
	if err != nil {
		t.Fatalf("list drivers: %v", err)
	}
	var got []string
	for _, d := range drivers {
		got = append(got, d.Username)
	}
	if !sort.StringsAreSorted(got) || len(got) != 3 {
		t.Fatalf("drivers = %v", got)
	}
}

func TestDriverChangesInvalidateTrending(t *testing.T) {
	inv := &countingInvalidator{}
	svc := NewService(newMemRepo(), inv, logger.Discard())
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateCommand{Username: "rider", Password: "password1"}); err != nil {
		t.Fatalf("Create passenger: %v", err)
	}
	if got := inv.calls.Load(); got != 0 {
		t.Fatalf("passenger signup invalidated %d times", got)
	}

	d, err := svc.Create(ctx, CreateCommand{Username: "driver", Password: "password1", IsDriver: true})
	if err != nil {
		t.Fatalf("Create driver: %v", err)
	}
	if got := inv.calls.Load(); got != 1 {
		t.Fatalf("after driver signup calls = %d, want 1", got)
	}

	if err := svc.Delete(ctx, d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := inv.calls.Load(); got != 2 {
		t.Fatalf("after delete calls = %d, want 2", got)
	}

	if err := svc.Delete(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete err = %v, want ErrNotFound", err)
	}
	if got := inv.calls.Load(); got != 2 {
		t.Errorf("failed delete invalidated: calls = %d", got)
	}
}
