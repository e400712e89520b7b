// README: Aggregates per-driver rating totals from PostgreSQL.
package ranking

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"rides/internal/infra"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Totals returns one row per driver, in registration order.
func (s *Store) Totals(ctx context.Context) ([]Totals, error) {
	rows, err := infra.Conn(ctx, s.db).Query(ctx, `
		SELECT u.id, u.username, u.first_name, u.last_name,
		       COALESCE(SUM(r.score), 0)::int, COUNT(r.id)::int
		FROM users u
		LEFT JOIN trips t ON t.driver_id = u.id
		LEFT JOIN ratings r ON r.trip_id = t.id
		WHERE u.is_driver
		GROUP BY u.id, u.seq
		ORDER BY u.seq`)
	if err != nil {
		return nil, fmt.Errorf("driver rating totals: %w", err)
	}
	defer rows.Close()

	var out []Totals
	for rows.Next() {
		var t Totals
		if err := rows.Scan(&t.DriverID, &t.Username, &t.FirstName, &t.LastName, &t.Sum, &t.Count); err != nil {
			return nil, fmt.Errorf("scan driver totals: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
