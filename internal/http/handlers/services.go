// README: Service contracts the handlers depend on.
package handlers

import (
	"context"
	"time"

	"rides/internal/modules/pricing"
	"rides/internal/modules/ranking"
	"rides/internal/modules/rating"
	"rides/internal/modules/trip"
	"rides/internal/modules/user"
	"rides/internal/modules/vehicle"
	"rides/internal/types"
)

type UserService interface {
	Create(ctx context.Context, cmd user.CreateCommand) (*user.User, error)
	Get(ctx context.Context, id types.ID) (*user.User, error)
	List(ctx context.Context, username string) ([]*user.User, error)
	ListDrivers(ctx context.Context) ([]*user.User, error)
	Delete(ctx context.Context, id types.ID) error
	ToggleAvailability(ctx context.Context, id types.ID) (bool, error)
	Authenticate(ctx context.Context, username, password string) (*user.User, error)
}

type TripService interface {
	Create(ctx context.Context, cmd trip.CreateCommand) (*trip.Trip, error)
	AssignDriver(ctx context.Context, cmd trip.AssignCommand) (*trip.Trip, error)
	Start(ctx context.Context, cmd trip.StartCommand) (*trip.Trip, error)
	Complete(ctx context.Context, cmd trip.CompleteCommand) (*trip.Trip, error)
	Cancel(ctx context.Context, cmd trip.CancelCommand) (*trip.Trip, error)
	Get(ctx context.Context, id types.ID) (*trip.Trip, error)
	List(ctx context.Context, f trip.Filter) ([]*trip.Trip, error)
	CountActive(ctx context.Context) (trip.ActiveCount, error)
}

type FareQuoter interface {
	Quote(ctx context.Context, tripID types.ID) (pricing.Quote, error)
}

type RatingService interface {
	Rate(ctx context.Context, cmd rating.RateCommand) (*rating.Rating, error)
	Get(ctx context.Context, id types.ID) (*rating.Rating, error)
	List(ctx context.Context) ([]*rating.Rating, error)
	Update(ctx context.Context, cmd rating.UpdateCommand) (*rating.Rating, error)
}

type TrendingService interface {
	Trending(ctx context.Context) ([]ranking.Driver, error)
}

type VehicleService interface {
	Create(ctx context.Context, cmd vehicle.CreateCommand) (*vehicle.Vehicle, error)
	Get(ctx context.Context, id types.ID) (*vehicle.Vehicle, error)
	List(ctx context.Context) ([]*vehicle.Vehicle, error)
	Update(ctx context.Context, cmd vehicle.UpdateCommand) (*vehicle.Vehicle, error)
	Delete(ctx context.Context, id types.ID) error
	ModelsSummary(ctx context.Context) ([]vehicle.ModelCount, error)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(uid, role string) (string, time.Time, error)
}
