// README: Ranking service serves the trending drivers list, optionally through a cache.
package ranking

import (
	"context"
	"time"

	"rides/internal/logger"
	"rides/internal/metrics"
)

type Source interface {
	Totals(ctx context.Context) ([]Totals, error)
}

type Cache interface {
	Get(ctx context.Context) ([]Driver, bool, error)
	Set(ctx context.Context, drivers []Driver, ttl time.Duration) error
	Delete(ctx context.Context) error
}

type Service struct {
	source Source
	cache  Cache
	ttl    time.Duration
	log    logger.Logger
}

// NewService builds the service. A nil cache or a non-positive ttl disables caching.
func NewService(source Source, cache Cache, ttl time.Duration, log logger.Logger) *Service {
	if ttl <= 0 {
		cache = nil
	}
	return &Service{source: source, cache: cache, ttl: ttl, log: log}
}

// Trending returns at most TopN drivers ordered by mean rating.
func (s *Service) Trending(ctx context.Context) ([]Driver, error) {
	ctx = logger.WithAction(ctx, "trending_drivers")

	if s.cache != nil {
		drivers, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			metrics.RankingCacheTotal.WithLabelValues("error").Inc()
			s.log.Warn(ctx, "trending cache read failed", "error", err.Error())
		case ok:
			metrics.RankingCacheTotal.WithLabelValues("hit").Inc()
			return drivers, nil
		default:
			metrics.RankingCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	totals, err := s.source.Totals(ctx)
	if err != nil {
		return nil, logger.WrapError(ctx, err)
	}
	drivers := Rank(totals, TopN)

	if s.cache != nil {
		if err := s.cache.Set(ctx, drivers, s.ttl); err != nil {
			s.log.Warn(ctx, "trending cache write failed", "error", err.Error())
		}
	}
	return drivers, nil
}

// Invalidate drops the cached list so the next read recomputes it.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx); err != nil {
		s.log.Warn(logger.WithAction(ctx, "trending_invalidate"), "trending cache delete failed", "error", err.Error())
	}
}
