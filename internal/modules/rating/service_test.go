// README: Rating service tests against in-memory doubles.
package rating

import (
	"context"
	"errors"
	"sync"
	"testing"

	"rides/internal/apperr"
	"rides/internal/logger"
	"rides/internal/modules/trip"
	"rides/internal/types"
)

type memRepo struct {
	mu      sync.Mutex
	ratings map[types.ID]*Rating
}

func newMemRepo() *memRepo {
	return &memRepo{ratings: make(map[types.ID]*Rating)}
}

func (m *memRepo) Create(_ context.Context, r *Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.ratings {
		if existing.TripID == r.TripID {
			return ErrAlreadyRated
		}
	}
	cp := *r
	m.ratings[r.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, id types.ID) (*Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) GetByTrip(_ context.Context, tripID types.ID) (*Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.ratings {
		if r.TripID == tripID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) List(_ context.Context) ([]*Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Rating
	for _, r := range m.ratings {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, id types.ID, score *int, comment *string) (*Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if score != nil {
		r.Score = *score
	}
	if comment != nil {
		r.Comment = *comment
	}
	cp := *r
	return &cp, nil
}

type stubTrips map[types.ID]*trip.Trip

func (s stubTrips) Get(_ context.Context, id types.ID) (*trip.Trip, error) {
	t, ok := s[id]
	if !ok {
		return nil, trip.ErrNotFound
	}
	return t, nil
}

// serialTx runs fn under one lock, standing in for a serializable transaction.
type serialTx struct{ mu sync.Mutex }

func (tx *serialTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return fn(ctx)
}

type countingInvalidator struct {
	mu sync.Mutex
	n  int
}

func (c *countingInvalidator) Invalidate(context.Context) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func newTrip(status trip.Status) *trip.Trip {
	return &trip.Trip{ID: types.NewID(), PassengerID: types.NewID(), Status: status}
}

func TestRate(t *testing.T) {
	ctx := context.Background()
	completed := newTrip(trip.StatusCompleted)
	ongoing := newTrip(trip.StatusOngoing)
	cancelled := newTrip(trip.StatusCancelled)
	trips := stubTrips{completed.ID: completed, ongoing.ID: ongoing, cancelled.ID: cancelled}
	inv := &countingInvalidator{}
	svc := NewService(newMemRepo(), trips, &serialTx{}, inv, logger.Discard())

	cases := []struct {
		name    string
		cmd     RateCommand
		wantErr error
	}{
		{"score too low", RateCommand{TripID: completed.ID, Score: 0}, apperr.ErrValidation},
		{"score too high", RateCommand{TripID: completed.ID, Score: 6}, apperr.ErrValidation},
		{"unknown trip", RateCommand{TripID: types.NewID(), Score: 4}, apperr.ErrNotFound},
		{"ongoing trip", RateCommand{TripID: ongoing.ID, Score: 4}, apperr.ErrInvalidTransition},
		{"cancelled trip", RateCommand{TripID: cancelled.ID, Score: 4}, apperr.ErrInvalidTransition},
		{"completed trip", RateCommand{TripID: completed.ID, Score: 5, Comment: " great "}, nil},
		{"second rating", RateCommand{TripID: completed.ID, Score: 3}, apperr.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := svc.Rate(ctx, tc.cmd)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("got %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("rate: %v", err)
			}
			if r.Score != 5 || r.Comment != "great" || r.TripID != completed.ID {
				t.Fatalf("unexpected rating: %+v", r)
			}
		})
	}
	if inv.n != 1 {
		t.Fatalf("invalidations = %d, want 1", inv.n)
	}
}

func TestConcurrentRateSameTrip(t *testing.T) {
	ctx := context.Background()
	completed := newTrip(trip.StatusCompleted)
	svc := NewService(newMemRepo(), stubTrips{completed.ID: completed}, &serialTx{}, nil, logger.Discard())

	const attempts = 6
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			<-start
			_, err := svc.Rate(ctx, RateCommand{TripID: completed.ID, Score: score})
			errs <- err
		}(i%5 + 1)
	}
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrAlreadyRated) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 rating, got %d", success)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	completed := newTrip(trip.StatusCompleted)
	inv := &countingInvalidator{}
	svc := NewService(newMemRepo(), stubTrips{completed.ID: completed}, &serialTx{}, inv, logger.Discard())

	r, err := svc.Rate(ctx, RateCommand{TripID: completed.ID, Score: 2})
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if _, err := svc.Update(ctx, UpdateCommand{ID: r.ID, Score: intPtr(9)}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("invalid score: got %v", err)
	}
	if _, err := svc.Update(ctx, UpdateCommand{ID: types.NewID(), Score: intPtr(3)}); err != ErrNotFound {
		t.Fatalf("unknown rating: got %v", err)
	}

	comment := "  changed my mind "
	got, err := svc.Update(ctx, UpdateCommand{ID: r.ID, Comment: &comment})
	if err != nil {
		t.Fatalf("comment-only update: %v", err)
	}
	if got.Score != 2 || got.Comment != "changed my mind" {
		t.Fatalf("comment-only update changed score: %+v", got)
	}

	got, err = svc.Update(ctx, UpdateCommand{ID: r.ID, Score: intPtr(4)})
	if err != nil {
		t.Fatalf("score-only update: %v", err)
	}
	if got.Score != 4 || got.Comment != "changed my mind" {
		t.Fatalf("score-only update lost comment: %+v", got)
	}
	if inv.n != 3 {
		t.Fatalf("invalidations = %d, want 3", inv.n)
	}
}

func intPtr(n int) *int { return &n }
