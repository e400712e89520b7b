// README: Trending driver entries and the per-driver rating totals they are ranked from.
package ranking

import "rides/internal/types"

// TopN is the length of the trending list.
const TopN = 5

// Driver is one entry of the trending list.
type Driver struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	AvgScore float64  `json:"avg_score"`
	Ratings  int      `json:"ratings"`
}

// Totals are the rating sums of one driver. Drivers without ratings have
// Count 0.
type Totals struct {
	DriverID  types.ID
	Username  string
	FirstName string
	LastName  string
	Sum       int
	Count     int
}
