// README: Vehicle service validates ownership and fields before hitting the store.
package vehicle

import (
	"context"
	"errors"
	"strings"

	"rides/internal/apperr"
	"rides/internal/logger"
	"rides/internal/modules/user"
	"rides/internal/types"
)

type Repository interface {
	Create(ctx context.Context, v *Vehicle) error
	Get(ctx context.Context, id types.ID) (*Vehicle, error)
	List(ctx context.Context) ([]*Vehicle, error)
	Update(ctx context.Context, v *Vehicle) error
	Delete(ctx context.Context, id types.ID) error
	ModelsSummary(ctx context.Context) ([]ModelCount, error)
}

type Users interface {
	Get(ctx context.Context, id types.ID) (*user.User, error)
}

type Service struct {
	store Repository
	users Users
	log   logger.Logger
}

func NewService(store Repository, users Users, log logger.Logger) *Service {
	return &Service{store: store, users: users, log: log}
}

type CreateCommand struct {
	DriverID     types.ID
	LicensePlate string
	Model        string
	// Zero means DefaultCapacity.
	Capacity int
}

type UpdateCommand struct {
	ID           types.ID
	LicensePlate string
	Model        string
	Capacity     int
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Vehicle, error) {
	if cmd.Capacity == 0 {
		cmd.Capacity = DefaultCapacity
	}
	v := &Vehicle{
		ID:           types.NewID(),
		DriverID:     cmd.DriverID,
		LicensePlate: normalizePlate(cmd.LicensePlate),
		Model:        strings.TrimSpace(cmd.Model),
		Capacity:     cmd.Capacity,
	}
	if err := validate(v); err != nil {
		return nil, err
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

	if err := s.store.Create(ctx, v); err != nil {
		return nil, err
	}
	s.log.Info(logger.WithUserID(ctx, v.DriverID.String()), "vehicle registered", "plate", v.LicensePlate)
	return v, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Vehicle, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Vehicle, error) {
	return s.store.List(ctx)
}

// Update replaces plate, model and capacity. The owning driver never changes.
func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Vehicle, error) {
	v, err := s.store.Get(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	v.LicensePlate = normalizePlate(cmd.LicensePlate)
	v.Model = strings.TrimSpace(cmd.Model)
	if cmd.Capacity != 0 {
		v.Capacity = cmd.Capacity
	}
	if err := validate(v); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Delete(ctx context.Context, id types.ID) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) ModelsSummary(ctx context.Context) ([]ModelCount, error) {
	return s.store.ModelsSummary(ctx)
}

func validate(v *Vehicle) error {
	switch {
	case v.LicensePlate == "":
		return ErrMissingPlate
	case v.Model == "":
		return ErrMissingModel
	case v.Capacity <= 0:
		return ErrInvalidCapacity
	}
	return nil
}

func normalizePlate(p string) string {
	return strings.ToUpper(strings.TrimSpace(p))
}
