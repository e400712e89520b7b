// README: Rating handlers: list, get and update.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rides/internal/modules/rating"
)

// updateRatingReq leaves absent fields unchanged.
type updateRatingReq struct {
	Score   *int    `json:"score"`
	Comment *string `json:"comment"`
}

type RatingHandler struct {
	ratings RatingService
}

func NewRatingHandler(ratings RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

func (h *RatingHandler) List(c *gin.Context) {
	ratings, err := h.ratings.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(ratings))
}

func (h *RatingHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.ratings.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *RatingHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateRatingReq
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.ratings.Update(c.Request.Context(), rating.UpdateCommand{ID: id, Score: req.Score, Comment: req.Comment})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}
