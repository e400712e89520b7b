// README: Rating of a completed trip; at most one per trip.
package rating

import (
	"time"

	"rides/internal/apperr"
	"rides/internal/types"
)

const (
	MinScore = 1
	MaxScore = 5
)

var (
	ErrNotFound      = apperr.New(apperr.ErrNotFound, "rating not found")
	ErrAlreadyRated  = apperr.New(apperr.ErrConflict, "trip already rated")
	ErrTripNotRated  = apperr.New(apperr.ErrInvalidTransition, "only completed trips can be rated")
	ErrScoreOutRange = apperr.Validation("score must be between %d and %d", MinScore, MaxScore)
)

type Rating struct {
	ID        types.ID  `json:"id"`
	TripID    types.ID  `json:"trip_id"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func validScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}
