// README: Trip service implements the lifecycle state machine on top of compare-and-set updates.
package trip

import (
	"context"
	"errors"
	"time"

	"rides/internal/apperr"
	"rides/internal/logger"
	"rides/internal/metrics"
	"rides/internal/modules/user"
	"rides/internal/types"
)

type Repository interface {
	Create(ctx context.Context, t *Trip) error
	Get(ctx context.Context, id types.ID) (*Trip, error)
	List(ctx context.Context, f Filter) ([]*Trip, error)
	Apply(ctx context.Context, c Change) (*Trip, bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	CountActive(ctx context.Context) (ActiveCount, error)
	ActiveLoad(ctx context.Context, driverID *types.ID) (int, error)
}

// Users resolves passengers and drivers.
type Users interface {
	Get(ctx context.Context, id types.ID) (*user.User, error)
}

type Service struct {
	store  Repository
	users  Users
	events Publisher
	log    logger.Logger
	now    func() time.Time
}

// NewService wires the engine. A nil publisher disables notifications.
func NewService(store Repository, users Users, events Publisher, log logger.Logger) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{store: store, users: users, events: events, log: log, now: time.Now}
}

type CreateCommand struct {
	PassengerID types.ID
}

type AssignCommand struct {
	TripID   types.ID
	DriverID types.ID
}

type StartCommand struct {
	TripID types.ID
}

type CompleteCommand struct {
	TripID types.ID
}

type CancelCommand struct {
	TripID types.ID
	// ActorID is the caller, when known.
	ActorID *types.ID
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Trip, error) {
	passenger, err := s.users.Get(ctx, cmd.PassengerID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrPassengerNotFound
	}
	if err != nil {
		return nil, err
	}
	if !passenger.IsPassenger {
		return nil, ErrNotPassenger
	}

	now := s.now().UTC()
	t := &Trip{
		ID:            types.NewID(),
		PassengerID:   passenger.ID,
		Status:        StatusPending,
		StatusVersion: 0,
		RequestedAt:   now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, logger.WrapError(tripCtx(ctx, t.ID, "trip_created"), err)
	}
	_ = s.store.AppendEvent(ctx, &Event{
		TripID:    t.ID,
		From:      StatusNone,
		To:        StatusPending,
		ActorType: ActorPassenger,
		ActorID:   &t.PassengerID,
		CreatedAt: now,
	})
	s.notify(ctx, KindCreated, StatusNone, t)
	s.log.Info(tripCtx(ctx, t.ID, "trip_created"), "trip requested", "passenger_id", t.PassengerID)
	return t, nil
}

// AssignDriver attaches an available driver to a PENDING trip without a
// driver. The driver's availability is left untouched.
func (s *Service) AssignDriver(ctx context.Context, cmd AssignCommand) (*Trip, error) {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusPending {
		return nil, s.reject(ctx, t, StatusPending, ErrInvalidState)
	}
	if t.DriverID != nil {
		return nil, s.reject(ctx, t, StatusPending, ErrAlreadyAssigned)
	}

	driver, err := s.users.Get(ctx, cmd.DriverID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrDriverNotFound
	}
	if err != nil {
		return nil, err
	}
	if !driver.IsDriver {
		return nil, ErrNotDriver
	}
	if !driver.IsAvailable {
		return nil, s.reject(ctx, t, StatusPending, ErrDriverUnavailable)
	}

	return s.apply(ctx, t, Change{
		ID:       t.ID,
		From:     StatusPending,
		To:       StatusPending,
		Version:  t.StatusVersion,
		DriverID: &driver.ID,
	}, ActorDriver, &driver.ID)
}

func (s *Service) Start(ctx context.Context, cmd StartCommand) (*Trip, error) {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, StatusOngoing) {
		return nil, s.reject(ctx, t, StatusOngoing, ErrInvalidState)
	}
	if t.DriverID == nil {
		return nil, s.reject(ctx, t, StatusOngoing, ErrNoDriver)
	}

	start := s.now().UTC()
	return s.apply(ctx, t, Change{
		ID:        t.ID,
		From:      t.Status,
		To:        StatusOngoing,
		Version:   t.StatusVersion,
		StartTime: &start,
	}, ActorDriver, t.DriverID)
}

func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Trip, error) {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, StatusCompleted) {
		return nil, s.reject(ctx, t, StatusCompleted, ErrInvalidState)
	}
	end, err := s.endTime(t)
	if err != nil {
		return nil, s.reject(ctx, t, StatusCompleted, err)
	}

	return s.apply(ctx, t, Change{
		ID:      t.ID,
		From:    t.Status,
		To:      StatusCompleted,
		Version: t.StatusVersion,
		EndTime: &end,
	}, ActorDriver, t.DriverID)
}

// Cancel ends a PENDING or ONGOING trip. Cancelling twice is an error, not a no-op.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Trip, error) {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, StatusCancelled) {
		return nil, s.reject(ctx, t, StatusCancelled, ErrInvalidState)
	}
	end, err := s.endTime(t)
	if err != nil {
		return nil, s.reject(ctx, t, StatusCancelled, err)
	}

	actorType := ActorSystem
	switch {
	case cmd.ActorID == nil:
	case *cmd.ActorID == t.PassengerID:
		actorType = ActorPassenger
	case t.DriverID != nil && *cmd.ActorID == *t.DriverID:
		actorType = ActorDriver
	}
	return s.apply(ctx, t, Change{
		ID:      t.ID,
		From:    t.Status,
		To:      StatusCancelled,
		Version: t.StatusVersion,
		EndTime: &end,
	}, actorType, cmd.ActorID)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Trip, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Trip, error) {
	return s.store.List(ctx, f)
}

func (s *Service) CountActive(ctx context.Context) (ActiveCount, error) {
	return s.store.CountActive(ctx)
}

// ActiveLoad is the number of PENDING and ONGOING trips held by driverID,
// computed from current rows on every call.
func (s *Service) ActiveLoad(ctx context.Context, driverID *types.ID) (int, error) {
	return s.store.ActiveLoad(ctx, driverID)
}

// endTime must not precede a recorded start time.
func (s *Service) endTime(t *Trip) (time.Time, error) {
	end := s.now().UTC()
	if t.StartTime != nil && end.Before(*t.StartTime) {
		return time.Time{}, ErrEndBeforeStart
	}
	return end, nil
}

func (s *Service) apply(ctx context.Context, t *Trip, c Change, actorType string, actorID *types.ID) (*Trip, error) {
	ctx = tripCtx(ctx, t.ID, "trip_transition")

	updated, ok, err := s.store.Apply(ctx, c)
	if err != nil {
		metrics.RecordTransition(string(c.To), err)
		return nil, logger.WrapError(ctx, err)
	}
	if !ok {
		return nil, s.reject(ctx, t, c.To, ErrConflict)
	}
	metrics.RecordTransition(string(c.To), nil)

	if err := s.store.AppendEvent(ctx, &Event{
		TripID:    t.ID,
		From:      c.From,
		To:        c.To,
		ActorType: actorType,
		ActorID:   actorID,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		s.log.Warn(ctx, "failed to append trip event", "error", err.Error())
	}

	kind := KindStatusChanged
	if c.From == c.To {
		kind = KindDriverAssigned
	}
	s.notify(ctx, kind, c.From, updated)
	s.log.Info(ctx, "trip updated", "from", c.From, "to", c.To, "version", updated.StatusVersion)
	return updated, nil
}

func (s *Service) reject(ctx context.Context, t *Trip, to Status, err error) error {
	metrics.RecordTransition(string(to), err)
	s.log.Debug(tripCtx(ctx, t.ID, "trip_transition"), "transition rejected",
		"from", t.Status, "to", to, "reason", err.Error())
	return err
}

// notify never fails the caller; the database is the source of truth.
// Publishers that talk to a broker must not block, see QueuedPublisher.
func (s *Service) notify(ctx context.Context, kind string, from Status, t *Trip) {
	err := s.events.Publish(ctx, Notification{
		Kind:        kind,
		TripID:      t.ID,
		PassengerID: t.PassengerID,
		DriverID:    t.DriverID,
		From:        from,
		To:          t.Status,
		Version:     t.StatusVersion,
		At:          s.now().UTC(),
	})
	if err != nil {
		s.log.Error(ctx, "failed to publish trip notification", err, "kind", kind)
	}
}

func tripCtx(ctx context.Context, id types.ID, action string) context.Context {
	return logger.WithAction(logger.WithTripID(ctx, id.String()), action)
}
