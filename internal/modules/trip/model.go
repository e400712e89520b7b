// README: Trip aggregate, status flow and lifecycle events.
package trip

import (
	"time"

	"rides/internal/apperr"
	"rides/internal/types"
)

type Status string

const (
	// StatusNone is only used as the from-status of the creation event.
	StatusNone      Status = "NONE"
	StatusPending   Status = "PENDING"
	StatusOngoing   Status = "ONGOING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

const (
	ActorPassenger = "passenger"
	ActorDriver    = "driver"
	ActorSystem    = "system"
)

var (
	ErrNotFound          = apperr.New(apperr.ErrNotFound, "trip not found")
	ErrInvalidState      = apperr.New(apperr.ErrInvalidTransition, "invalid state transition")
	ErrConflict          = apperr.New(apperr.ErrConflict, "trip state conflict")
	ErrAlreadyAssigned   = apperr.New(apperr.ErrConflict, "trip already has a driver")
	ErrNoDriver          = apperr.New(apperr.ErrInvalidTransition, "trip has no driver assigned")
	ErrDriverUnavailable = apperr.New(apperr.ErrInvalidTransition, "driver is not available")
	ErrEndBeforeStart    = apperr.New(apperr.ErrInvalidTransition, "end time precedes start time")
	ErrPassengerNotFound = apperr.New(apperr.ErrNotFound, "passenger not found")
	ErrDriverNotFound    = apperr.New(apperr.ErrNotFound, "driver not found")
	ErrNotPassenger      = apperr.New(apperr.ErrValidation, "user is not a passenger")
	ErrNotDriver         = apperr.New(apperr.ErrValidation, "user is not a driver")
)

type Trip struct {
	ID            types.ID   `json:"id"`
	PassengerID   types.ID   `json:"passenger_id"`
	DriverID      *types.ID  `json:"driver_id"`
	Status        Status     `json:"status"`
	StatusVersion int        `json:"status_version"`
	RequestedAt   time.Time  `json:"requested_at"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
}

type Event struct {
	ID        int64
	TripID    types.ID
	From      Status
	To        Status
	ActorType string
	ActorID   *types.ID
	CreatedAt time.Time
}

// Change is a compare-and-set on (ID, From, Version). Non-nil fields are
// written alongside the new status.
type Change struct {
	ID        types.ID
	From      Status
	To        Status
	Version   int
	DriverID  *types.ID
	StartTime *time.Time
	EndTime   *time.Time
}

// Filter narrows List. Nil fields are ignored.
type Filter struct {
	DriverID    *types.ID
	PassengerID *types.ID
}

type ActiveCount struct {
	Pending int `json:"pending"`
	Ongoing int `json:"ongoing"`
}

// AllowedTransitions represents the trip state flow as code. COMPLETED and
// CANCELLED are terminal.
var AllowedTransitions = map[Status][]Status{
	StatusPending: {StatusOngoing, StatusCancelled},
	StatusOngoing: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Active statuses count toward a driver's load.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusOngoing
}
