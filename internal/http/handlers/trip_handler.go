// README: Trip handlers: create, queries, lifecycle transitions, fare and rating.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rides/internal/http/middleware"
	"rides/internal/modules/rating"
	"rides/internal/modules/trip"
	"rides/internal/types"
)

type TripHandler struct {
	trips   TripService
	pricing FareQuoter
	ratings RatingService
}

func NewTripHandler(trips TripService, pricing FareQuoter, ratings RatingService) *TripHandler {
	return &TripHandler{trips: trips, pricing: pricing, ratings: ratings}
}

type createTripReq struct {
	PassengerID string `json:"passenger_id"`
}

type assignDriverReq struct {
	DriverID string `json:"driver_id"`
}

type rateTripReq struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

func (h *TripHandler) Create(c *gin.Context) {
	var req createTripReq
	if !bindJSON(c, &req) {
		return
	}
	passengerID, ok := bodyID(c, "passenger_id", req.PassengerID)
	if !ok {
		return
	}
	t, err := h.trips.Create(c.Request.Context(), trip.CreateCommand{PassengerID: passengerID})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, t)
}

// List accepts optional driver and passenger filters.
func (h *TripHandler) List(c *gin.Context) {
	driverID, ok := queryID(c, "driver")
	if !ok {
		return
	}
	passengerID, ok := queryID(c, "passenger")
	if !ok {
		return
	}
	trips, err := h.trips.List(c.Request.Context(), trip.Filter{DriverID: driverID, PassengerID: passengerID})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(trips))
}

func (h *TripHandler) ActiveCount(c *gin.Context) {
	count, err := h.trips.CountActive(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, count)
}

func (h *TripHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.trips.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

func (h *TripHandler) Assign(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assignDriverReq
	if !bindJSON(c, &req) {
		return
	}
	driverID, ok := bodyID(c, "driver_id", req.DriverID)
	if !ok {
		return
	}
	t, err := h.trips.AssignDriver(c.Request.Context(), trip.AssignCommand{TripID: id, DriverID: driverID})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

func (h *TripHandler) Start(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.trips.Start(c.Request.Context(), trip.StartCommand{TripID: id})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

func (h *TripHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.trips.Complete(c.Request.Context(), trip.CompleteCommand{TripID: id})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

func (h *TripHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cmd := trip.CancelCommand{TripID: id}
	if caller, err := types.ParseID(middleware.CallerUID(c)); err == nil {
		cmd.ActorID = &caller
	}
	t, err := h.trips.Cancel(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

func (h *TripHandler) Fare(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	q, err := h.pricing.Quote(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}

func (h *TripHandler) Rate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req rateTripReq
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.ratings.Rate(c.Request.Context(), rating.RateCommand{TripID: id, Score: req.Score, Comment: req.Comment})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, r)
}

// nonNil keeps empty lists as [] in JSON.
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
