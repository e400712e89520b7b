// README: User service: registration, lookup, driver availability and password authentication.
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rides/internal/apperr"
	"rides/internal/logger"
	"rides/internal/types"
)

const (
	maxUsernameLen = 150
	minPasswordLen = 8
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id types.ID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, f Filter) ([]*User, error)
	Delete(ctx context.Context, id types.ID) error
	ToggleAvailability(ctx context.Context, id types.ID) (bool, error)
}

// Invalidator drops derived data listing drivers, such as the trending cache.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Service struct {
	store   Repository
	ranking Invalidator
	log     logger.Logger
	now     func() time.Time
}

// NewService builds the service. ranking may be nil.
func NewService(store Repository, ranking Invalidator, log logger.Logger) *Service {
	return &Service{store: store, ranking: ranking, log: log, now: time.Now}
}

type CreateCommand struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	IsDriver  bool
	// Nil keeps the default (true).
	IsPassenger *bool
	IsAvailable *bool
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*User, error) {
	username := strings.TrimSpace(cmd.Username)
	if username == "" {
		return nil, apperr.Validation("username is required")
	}
	if len(username) > maxUsernameLen {
		return nil, apperr.Validation("username must be at most %d characters", maxUsernameLen)
	}
	if len(cmd.Password) < minPasswordLen {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           types.NewID(),
		Username:     username,
		Email:        strings.TrimSpace(cmd.Email),
		FirstName:    strings.TrimSpace(cmd.FirstName),
		LastName:     strings.TrimSpace(cmd.LastName),
		IsDriver:     cmd.IsDriver,
		IsPassenger:  boolOr(cmd.IsPassenger, true),
		IsAvailable:  boolOr(cmd.IsAvailable, true),
		JoinedAt:     s.now().UTC(),
		PasswordHash: string(hash),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	if u.IsDriver {
		s.invalidate(ctx)
	}
	s.log.Info(logger.WithUserID(ctx, u.ID.String()), "user registered", "is_driver", u.IsDriver)
	return u, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*User, error) {
	return s.store.Get(ctx, id)
}

// List returns every user, or only the one named username when it is set.
func (s *Service) List(ctx context.Context, username string) ([]*User, error) {
	if username == "" {
		return s.store.List(ctx, Filter{})
	}
	u, err := s.store.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return []*User{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []*User{u}, nil
}

func (s *Service) ListDrivers(ctx context.Context) ([]*User, error) {
	return s.store.List(ctx, Filter{DriversOnly: true})
}

func (s *Service) Delete(ctx context.Context, id types.ID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.log.Info(logger.WithUserID(ctx, id.String()), "user deleted")
	return nil
}

// ToggleAvailability flips a driver's availability and returns the new value.
func (s *Service) ToggleAvailability(ctx context.Context, id types.ID) (bool, error) {
	available, err := s.store.ToggleAvailability(ctx, id)
	if err != nil {
		return false, err
	}
	s.log.Info(logger.WithUserID(ctx, id.String()), "driver availability toggled", "is_available", available)
	return available, nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.store.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (s *Service) invalidate(ctx context.Context) {
	if s.ranking != nil {
		s.ranking.Invalidate(ctx)
	}
}
