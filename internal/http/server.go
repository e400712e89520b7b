// README: API gateway; builds the gin engine, registers routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rides/internal/http/handlers"
	"rides/internal/http/middleware"
	"rides/internal/infra"
	"rides/internal/logger"
)

type ServerDeps struct {
	Users    handlers.UserService
	Trips    handlers.TripService
	Pricing  handlers.FareQuoter
	Ratings  handlers.RatingService
	Ranking  handlers.TrendingService
	Vehicles handlers.VehicleService
	// Verifier nil disables authentication.
	Verifier infra.TokenVerifier
	// Issuer nil disables POST /api/auth/token.
	Issuer handlers.TokenIssuer
	Log    logger.Logger
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(deps ServerDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(deps.Log),
		middleware.RequestID(),
		middleware.Metrics(),
		middleware.Logging(deps.Log),
	)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	userHandler := handlers.NewUserHandler(deps.Users, deps.Trips)
	driverHandler := handlers.NewDriverHandler(deps.Users, deps.Ranking)
	tripHandler := handlers.NewTripHandler(deps.Trips, deps.Pricing, deps.Ratings)
	ratingHandler := handlers.NewRatingHandler(deps.Ratings)
	vehicleHandler := handlers.NewVehicleHandler(deps.Vehicles)

	public := r.Group("/api")
	public.POST("/users", userHandler.Register)
	if deps.Issuer != nil {
		authHandler := handlers.NewAuthHandler(deps.Users, deps.Issuer)
		public.POST("/auth/token", authHandler.Token)
	}

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	api.GET("/users", userHandler.List)
	api.GET("/users/:id", userHandler.Get)
	api.DELETE("/users/:id", userHandler.Delete)
	api.GET("/users/:id/trips", userHandler.Trips)

	api.GET("/drivers", driverHandler.List)
	api.GET("/drivers/trending", driverHandler.Trending)
	api.POST("/drivers/:id/toggle-availability", driverHandler.ToggleAvailability)

	api.POST("/trips", tripHandler.Create)
	api.GET("/trips", tripHandler.List)
	api.GET("/trips/active-count", tripHandler.ActiveCount)
	api.GET("/trips/:id", tripHandler.Get)
	api.POST("/trips/:id/assign", tripHandler.Assign)
	api.POST("/trips/:id/start", tripHandler.Start)
	api.POST("/trips/:id/complete", tripHandler.Complete)
	api.POST("/trips/:id/cancel", tripHandler.Cancel)
	api.GET("/trips/:id/fare", tripHandler.Fare)
	api.POST("/trips/:id/rating", tripHandler.Rate)

	api.GET("/ratings", ratingHandler.List)
	api.GET("/ratings/:id", ratingHandler.Get)
	api.PATCH("/ratings/:id", ratingHandler.Update)

	api.POST("/vehicles", vehicleHandler.Create)
	api.GET("/vehicles", vehicleHandler.List)
	api.GET("/vehicles/models-summary", vehicleHandler.ModelsSummary)
	api.GET("/vehicles/:id", vehicleHandler.Get)
	api.PUT("/vehicles/:id", vehicleHandler.Update)
	api.DELETE("/vehicles/:id", vehicleHandler.Delete)

	return r
}
