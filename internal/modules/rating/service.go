// README: Rating service: one rating per completed trip; writes invalidate the trending cache.
package rating

import (
	"context"
	"errors"
	"strings"
	"time"

	"rides/internal/infra"
	"rides/internal/logger"
	"rides/internal/modules/trip"
	"rides/internal/types"
)

type Repository interface {
	Create(ctx context.Context, r *Rating) error
	Get(ctx context.Context, id types.ID) (*Rating, error)
	GetByTrip(ctx context.Context, tripID types.ID) (*Rating, error)
	List(ctx context.Context) ([]*Rating, error)
	Update(ctx context.Context, id types.ID, score *int, comment *string) (*Rating, error)
}

type Trips interface {
	Get(ctx context.Context, id types.ID) (*trip.Trip, error)
}

// Invalidator drops derived data that depends on ratings.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Service struct {
	store   Repository
	trips   Trips
	tx      infra.TxManager
	ranking Invalidator
	log     logger.Logger
	now     func() time.Time
}

// NewService builds the service. ranking may be nil.
func NewService(store Repository, trips Trips, tx infra.TxManager, ranking Invalidator, log logger.Logger) *Service {
	return &Service{store: store, trips: trips, tx: tx, ranking: ranking, log: log, now: time.Now}
}

type RateCommand struct {
	TripID  types.ID
	Score   int
	Comment string
}

// UpdateCommand changes only the fields that are set.
type UpdateCommand struct {
	ID      types.ID
	Score   *int
	Comment *string
}

// Rate records the single rating of a COMPLETED trip. The trip check and the
// insert share one transaction; the unique index on trip_id settles races.
func (s *Service) Rate(ctx context.Context, cmd RateCommand) (*Rating, error) {
	if !validScore(cmd.Score) {
		return nil, ErrScoreOutRange
	}

	r := &Rating{
		ID:        types.NewID(),
		TripID:    cmd.TripID,
		Score:     cmd.Score,
		Comment:   strings.TrimSpace(cmd.Comment),
		CreatedAt: s.now().UTC(),
	}
	ctx = logger.WithAction(logger.WithTripID(ctx, cmd.TripID.String()), "rate_trip")
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		t, err := s.trips.Get(ctx, cmd.TripID)
		if err != nil {
			return err
		}
		if t.Status != trip.StatusCompleted {
			return ErrTripNotRated
		}
		if _, err := s.store.GetByTrip(ctx, cmd.TripID); err == nil {
			return ErrAlreadyRated
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		return s.store.Create(ctx, r)
	})
	if err != nil {
		return nil, logger.WrapError(ctx, err)
	}

	s.invalidate(ctx)
	s.log.Info(ctx, "trip rated", "score", r.Score)
	return r, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Rating, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Rating, error) {
	return s.store.List(ctx)
}

// Update rewrites score and/or comment of an existing rating.
func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Rating, error) {
	if cmd.Score != nil && !validScore(*cmd.Score) {
		return nil, ErrScoreOutRange
	}
	var comment *string
	if cmd.Comment != nil {
		c := strings.TrimSpace(*cmd.Comment)
		comment = &c
	}
	r, err := s.store.Update(ctx, cmd.ID, cmd.Score, comment)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return r, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.ranking != nil {
		s.ranking.Invalidate(ctx)
	}
}
