// README: User handlers: registration, lookup, deletion and a passenger's trips.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rides/internal/modules/trip"
	"rides/internal/modules/user"
)

type UserHandler struct {
	users UserService
	trips TripService
}

func NewUserHandler(users UserService, trips TripService) *UserHandler {
	return &UserHandler{users: users, trips: trips}
}

type registerReq struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Password    string `json:"password"`
	IsDriver    bool   `json:"is_driver"`
	IsPassenger *bool  `json:"is_passenger"`
	IsAvailable *bool  `json:"is_available"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerReq
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.Create(c.Request.Context(), user.CreateCommand{
		Username:    req.Username,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Password:    req.Password,
		IsDriver:    req.IsDriver,
		IsPassenger: req.IsPassenger,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, u)
}

// List supports ?username= for an exact match.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), c.Query("username"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(users))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, u)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Trips lists the trips requested by one passenger.
func (h *UserHandler) Trips(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.users.Get(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	trips, err := h.trips.List(c.Request.Context(), trip.Filter{PassengerID: &id})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(trips))
}
