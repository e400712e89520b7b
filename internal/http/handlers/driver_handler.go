// README: Driver handlers for listing, trending and availability.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type DriverHandler struct {
	users    UserService
	trending TrendingService
}

func NewDriverHandler(users UserService, trending TrendingService) *DriverHandler {
	return &DriverHandler{users: users, trending: trending}
}

func (h *DriverHandler) List(c *gin.Context) {
	drivers, err := h.users.ListDrivers(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(drivers))
}

func (h *DriverHandler) Trending(c *gin.Context) {
	drivers, err := h.trending.Trending(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(drivers))
}

func (h *DriverHandler) ToggleAvailability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	available, err := h.users.ToggleAvailability(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"id": id, "is_available": available})
}
