// README: Fare quote returned for a trip.
package pricing

import "rides/internal/types"

// Quote is the surge fare for one trip. Multiplier is informational; Fare is
// computed in integer units.
type Quote struct {
	TripID      types.ID    `json:"trip_id"`
	DriverID    *types.ID   `json:"driver_id"`
	ActiveTrips int         `json:"active_trips"`
	Multiplier  float64     `json:"multiplier"`
	Fare        types.Money `json:"fare"`
	Breakdown   Breakdown   `json:"breakdown"`
}

type Breakdown struct {
	Base  int64 `json:"base"`
	Surge int64 `json:"surge"`
}
