// README: Vehicle store backed by PostgreSQL.
package vehicle

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rides/internal/infra"
	"rides/internal/types"
)

const (
	vehicleColumns = `id, driver_id, license_plate, model, capacity`

	plateConstraint  = "vehicles_license_plate_key"
	driverConstraint = "vehicles_driver_id_key"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, v *Vehicle) error {
	_, err := infra.Conn(ctx, s.db).Exec(ctx, `
		INSERT INTO vehicles (id, driver_id, license_plate, model, capacity)
		VALUES ($1, $2, $3, $4, $5)`,
		string(v.ID), string(v.DriverID), v.LicensePlate, v.Model, v.Capacity,
	)
	if err := uniqueErr(err); err != nil {
		return err
	}
	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Vehicle, error) {
	row := infra.Conn(ctx, s.db).QueryRow(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, string(id))
	return scanVehicle(row)
}

// List returns vehicles ordered by license plate.
func (s *Store) List(ctx context.Context) ([]*Vehicle, error) {
	rows, err := infra.Conn(ctx, s.db).Query(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles ORDER BY license_plate`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var out []*Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, v *Vehicle) error {
	tag, err := infra.Conn(ctx, s.db).Exec(ctx, `
		UPDATE vehicles SET license_plate = $1, model = $2, capacity = $3
		WHERE id = $4`,
		v.LicensePlate, v.Model, v.Capacity, string(v.ID),
	)
	if err := uniqueErr(err); err != nil {
		return err
	}
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id types.ID) error {
	tag, err := infra.Conn(ctx, s.db).Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ModelsSummary counts vehicles per model, most common first.
func (s *Store) ModelsSummary(ctx context.Context) ([]ModelCount, error) {
	rows, err := infra.Conn(ctx, s.db).Query(ctx, `
		SELECT model, COUNT(*)::int
		FROM vehicles
		GROUP BY model
		ORDER BY COUNT(*) DESC, model`)
	if err != nil {
		return nil, fmt.Errorf("vehicle models summary: %w", err)
	}
	defer rows.Close()

	out := []ModelCount{}
	for rows.Next() {
		var mc ModelCount
		if err := rows.Scan(&mc.Model, &mc.Count); err != nil {
			return nil, fmt.Errorf("scan model count: %w", err)
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

func uniqueErr(err error) error {
	constraint, ok := infra.UniqueViolation(err)
	if !ok {
		return nil
	}
	switch constraint {
	case driverConstraint:
		return ErrDriverHasVehicle
	default:
		return ErrPlateTaken
	}
}

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	var v Vehicle
	err := row.Scan(&v.ID, &v.DriverID, &v.LicensePlate, &v.Model, &v.Capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan vehicle: %w", err)
	}
	return &v, nil
}
