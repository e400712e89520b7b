// README: Ranking of drivers by mean rating with half-up rounding.
package ranking

import (
	"sort"
	"strings"
)

// Rank orders drivers by mean score, highest first, and keeps the first limit.
// Drivers without ratings average 0. Equal means keep the input order.
func Rank(totals []Totals, limit int) []Driver {
	sorted := make([]Totals, len(totals))
	copy(sorted, totals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return higherMean(sorted[i], sorted[j])
	})

	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]Driver, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, Driver{
			ID:       t.DriverID,
			Name:     displayName(t),
			AvgScore: RoundMean(t.Sum, t.Count),
			Ratings:  t.Count,
		})
	}
	return out
}

// higherMean compares a.Sum/a.Count with b.Sum/b.Count without division.
func higherMean(a, b Totals) bool {
	switch {
	case a.Count == 0:
		return false
	case b.Count == 0:
		return a.Sum > 0
	}
	return a.Sum*b.Count > b.Sum*a.Count
}

// RoundMean returns sum/count rounded half-up to two decimals; 0 when count is 0.
func RoundMean(sum, count int) float64 {
	if count <= 0 {
		return 0
	}
	hundredths := (200*sum + count) / (2 * count)
	return float64(hundredths) / 100
}

func displayName(t Totals) string {
	if n := strings.TrimSpace(t.FirstName + " " + t.LastName); n != "" {
		return n
	}
	return t.Username
}
