// README: Pricing service computes surge fares from the assigned driver's current load.
package pricing

import (
	"context"

	"rides/internal/logger"
	"rides/internal/metrics"
	"rides/internal/modules/trip"
	"rides/internal/types"
)

const DefaultBaseFare int64 = 1000

// Trips is what the pricing service reads from the trip engine.
type Trips interface {
	Get(ctx context.Context, id types.ID) (*trip.Trip, error)
	ActiveLoad(ctx context.Context, driverID *types.ID) (int, error)
}

type Service struct {
	trips    Trips
	baseFare int64
	log      logger.Logger
}

func NewService(trips Trips, baseFare int64, log logger.Logger) *Service {
	if baseFare <= 0 {
		baseFare = DefaultBaseFare
	}
	return &Service{trips: trips, baseFare: baseFare, log: log}
}

// SurgeFare is floor(base * (1 + active/10)). Growth is unbounded.
func SurgeFare(base int64, active int) int64 {
	if active < 0 {
		active = 0
	}
	return base * (10 + int64(active)) / 10
}

// Multiplier returns 1 + active/10.
func Multiplier(active int) float64 {
	if active < 0 {
		active = 0
	}
	return 1 + float64(active)/10
}

// Quote prices a trip using the active load of its driver at call time. An
// unassigned trip is priced against the unassigned bucket.
func (s *Service) Quote(ctx context.Context, tripID types.ID) (Quote, error) {
	ctx = logger.WithAction(logger.WithTripID(ctx, tripID.String()), "quote_fare")
	t, err := s.trips.Get(ctx, tripID)
	if err != nil {
		return Quote{}, logger.WrapError(ctx, err)
	}
	active, err := s.trips.ActiveLoad(ctx, t.DriverID)
	if err != nil {
		return Quote{}, logger.WrapError(ctx, err)
	}

	fare := SurgeFare(s.baseFare, active)
	q := Quote{
		TripID:      t.ID,
		DriverID:    t.DriverID,
		ActiveTrips: active,
		Multiplier:  Multiplier(active),
		Fare:        types.Units(fare),
		Breakdown:   Breakdown{Base: s.baseFare, Surge: fare - s.baseFare},
	}

	metrics.FareQuotesTotal.Inc()
	metrics.SurgeMultiplier.Observe(q.Multiplier)
	s.log.Debug(ctx, "fare quoted", "active", active, "fare", fare)
	return q, nil
}
