// README: Trip store backed by PostgreSQL; status changes are compare-and-set on status_version.
package trip

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rides/internal/infra"
	"rides/internal/types"
)

const tripColumns = `id, passenger_id, driver_id, status, status_version, requested_at, start_time, end_time`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, t *Trip) error {
	_, err := infra.Conn(ctx, s.db).Exec(ctx, `
		INSERT INTO trips (
			id, passenger_id, driver_id, status, status_version, requested_at, start_time, end_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(t.ID),
		string(t.PassengerID),
		toStringPtr(t.DriverID),
		string(t.Status),
		t.StatusVersion,
		t.RequestedAt,
		t.StartTime,
		t.EndTime,
	)
	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Trip, error) {
	row := infra.Conn(ctx, s.db).QueryRow(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE id = $1`, string(id))
	return scanTrip(row)
}

// List returns trips newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*Trip, error) {
	rows, err := infra.Conn(ctx, s.db).Query(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE ($1::uuid IS NULL OR driver_id = $1)
		  AND ($2::uuid IS NULL OR passenger_id = $2)
		ORDER BY requested_at DESC, id`,
		toStringPtr(f.DriverID), toStringPtr(f.PassengerID),
	)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	var out []*Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Apply performs the change only if the row still has the expected status and
// version. ok is false when another writer got there first. A move to ONGOING
// also needs a driver on the row, since deleting a driver nulls driver_id
// without bumping the version.
func (s *Store) Apply(ctx context.Context, c Change) (*Trip, bool, error) {
	row := infra.Conn(ctx, s.db).QueryRow(ctx, `
		UPDATE trips
		SET status = $1,
		    status_version = status_version + 1,
		    driver_id = COALESCE($2, driver_id),
		    start_time = COALESCE($3, start_time),
		    end_time = COALESCE($4, end_time)
		WHERE id = $5 AND status = $6 AND status_version = $7
		  AND ($1 <> 'ONGOING' OR COALESCE($2, driver_id) IS NOT NULL)
		RETURNING `+tripColumns,
		string(c.To),
		toStringPtr(c.DriverID),
		c.StartTime,
		c.EndTime,
		string(c.ID),
		string(c.From),
		c.Version,
	)
	t, err := scanTrip(row)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := infra.Conn(ctx, s.db).Exec(ctx, `
		INSERT INTO trip_events (
			trip_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.TripID),
		string(e.From),
		string(e.To),
		e.ActorType,
		toStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

// Events returns the audit trail of one trip, oldest first.
func (s *Store) Events(ctx context.Context, tripID types.ID) ([]*Event, error) {
	rows, err := infra.Conn(ctx, s.db).Query(ctx, `
		SELECT id, trip_id, from_status, to_status, actor_type, actor_id, created_at
		FROM trip_events
		WHERE trip_id = $1
		ORDER BY id`, string(tripID),
	)
	if err != nil {
		return nil, fmt.Errorf("list trip events: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var e Event
		var actorID *string
		if err := rows.Scan(&e.ID, &e.TripID, &e.From, &e.To, &e.ActorType, &actorID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trip event: %w", err)
		}
		e.ActorID = toIDPtr(actorID)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *Store) CountActive(ctx context.Context) (ActiveCount, error) {
	var c ActiveCount
	err := infra.Conn(ctx, s.db).QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'PENDING'),
		       COUNT(*) FILTER (WHERE status = 'ONGOING')
		FROM trips`,
	).Scan(&c.Pending, &c.Ongoing)
	if err != nil {
		return ActiveCount{}, fmt.Errorf("count active trips: %w", err)
	}
	return c, nil
}

// ActiveLoad counts PENDING and ONGOING trips whose driver equals driverID.
// A nil driverID counts the unassigned trips.
func (s *Store) ActiveLoad(ctx context.Context, driverID *types.ID) (int, error) {
	var n int
	err := infra.Conn(ctx, s.db).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM trips
		WHERE driver_id IS NOT DISTINCT FROM $1::uuid
		  AND status IN ('PENDING', 'ONGOING')`,
		toStringPtr(driverID),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count driver load: %w", err)
	}
	return n, nil
}

func scanTrip(row pgx.Row) (*Trip, error) {
	var t Trip
	var driverID *string
	err := row.Scan(
		&t.ID, &t.PassengerID, &driverID, &t.Status, &t.StatusVersion,
		&t.RequestedAt, &t.StartTime, &t.EndTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan trip: %w", err)
	}
	t.DriverID = toIDPtr(driverID)
	return &t, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toIDPtr(v *string) *types.ID {
	if v == nil {
		return nil
	}
	id := types.ID(*v)
	return &id
}
