// README: Entry point; loads config, wires stores and services, serves HTTP until SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"rides/internal/config"
	httptransport "rides/internal/http"
	"rides/internal/infra"
	"rides/internal/logger"
	"rides/internal/modules/pricing"
	"rides/internal/modules/ranking"
	"rides/internal/modules/rating"
	"rides/internal/modules/trip"
	"rides/internal/modules/user"
	"rides/internal/modules/vehicle"
	"rides/migrations"
)

const (
	serviceName     = "rides-api"
	shutdownTimeout = 10 * time.Second

	publishQueueSize = 1024
	publishTimeout   = 3 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(serviceName, logger.LevelError).Error(context.Background(), "invalid configuration", err)
		os.Exit(1)
	}
	log := logger.New(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(logger.ErrorCtx(ctx, err), "service stopped with error", err)
		os.Exit(1)
	}
	log.Info(ctx, "service stopped")
}

func run(ctx context.Context, cfg config.Config, log logger.Logger) error {
	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return logger.WrapError(logger.WithAction(ctx, "db_connect"), err)
	}
	defer dbPool.Close()

	if cfg.DB.Migrate {
		if err := infra.Migrate(ctx, dbPool, migrations.FS); err != nil {
			return logger.WrapError(logger.WithAction(ctx, "migrate"), err)
		}
		log.Info(logger.WithAction(ctx, "migrate"), "migrations applied")
	}

	var trendingCache ranking.Cache
	if cfg.Redis.Addr != "" {
		redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			return logger.WrapError(logger.WithAction(ctx, "redis_connect"), err)
		}
		defer redisClient.Close()
		trendingCache = ranking.NewRedisCache(redisClient)
	} else {
		log.Warn(ctx, "RIDES_REDIS_ADDR not set; trending cache disabled")
	}

	var publisher trip.Publisher = trip.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := infra.NewRabbitMQ(ctx, cfg.RabbitMQ.URL, log)
		if err != nil {
			return logger.WrapError(logger.WithAction(ctx, "rabbitmq_connect"), err)
		}
		defer rabbit.Close(context.WithoutCancel(ctx))
		if err := rabbit.DeclareTopic(ctx, trip.Exchange); err != nil {
			return err
		}
		queued := trip.NewQueuedPublisher(trip.NewRabbitPublisher(rabbit), publishQueueSize, publishTimeout, log)
		defer queued.Close()
		publisher = queued
	} else {
		log.Warn(ctx, "RIDES_RABBITMQ_URL not set; trip events are not published")
	}

	verifier, issuer, err := buildAuth(ctx, cfg)
	if err != nil {
		return err
	}

	txManager := infra.NewTxManager(dbPool)

	rankingSvc := ranking.NewService(ranking.NewStore(dbPool), trendingCache, cfg.Ranking.CacheTTL, log)
	userSvc := user.NewService(user.NewStore(dbPool), rankingSvc, log)
	tripStore := trip.NewStore(dbPool)
	tripSvc := trip.NewService(tripStore, userSvc, publisher, log)
	pricingSvc := pricing.NewService(tripSvc, cfg.Pricing.BaseFare, log)
	ratingSvc := rating.NewService(rating.NewStore(dbPool), tripStore, txManager, rankingSvc, log)
	vehicleSvc := vehicle.NewService(vehicle.NewStore(dbPool), userSvc, log)

	if cfg.LogLevel != logger.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	deps := httptransport.ServerDeps{
		Users:    userSvc,
		Trips:    tripSvc,
		Pricing:  pricingSvc,
		Ratings:  ratingSvc,
		Ranking:  rankingSvc,
		Vehicles: vehicleSvc,
		Verifier: verifier,
		Log:      log,
	}
	// A typed nil would make the token route panic.
	if issuer != nil {
		deps.Issuer = issuer
	}
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httptransport.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(logger.WithAction(ctx, "http_listen"), "http server listening", "addr", cfg.HTTP.Addr, "auth_mode", cfg.Auth.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		log.Info(logger.WithAction(ctx, "http_shutdown"), "shutting down http server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildAuth returns the verifier for protected routes and, in jwt mode, the
// issuer behind POST /api/auth/token.
func buildAuth(ctx context.Context, cfg config.Config) (infra.TokenVerifier, *infra.JWTIssuer, error) {
	switch cfg.Auth.Mode {
	case config.AuthJWT:
		issuer := infra.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
		return issuer, issuer, nil
	case config.AuthFirebase:
		verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return verifier, nil, nil
	default:
		return nil, nil, nil
	}
}
