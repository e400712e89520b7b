// README: Rating store backed by PostgreSQL; trip_id is unique.
package rating

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rides/internal/infra"
	"rides/internal/types"
)

const ratingColumns = `id, trip_id, score, comment, created_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Create maps the trip_id unique violation to ErrAlreadyRated.
func (s *Store) Create(ctx context.Context, r *Rating) error {
	_, err := infra.Conn(ctx, s.db).Exec(ctx, `
		INSERT INTO ratings (id, trip_id, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		string(r.ID), string(r.TripID), r.Score, r.Comment, r.CreatedAt,
	)
	if _, ok := infra.UniqueViolation(err); ok {
		return ErrAlreadyRated
	}
	if err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Rating, error) {
	row := infra.Conn(ctx, s.db).QueryRow(ctx,
		`SELECT `+ratingColumns+` FROM ratings WHERE id = $1`, string(id))
	return scanRating(row)
}

func (s *Store) GetByTrip(ctx context.Context, tripID types.ID) (*Rating, error) {
	row := infra.Conn(ctx, s.db).QueryRow(ctx,
		`SELECT `+ratingColumns+` FROM ratings WHERE trip_id = $1`, string(tripID))
	return scanRating(row)
}

func (s *Store) List(ctx context.Context) ([]*Rating, error) {
	rows, err := infra.Conn(ctx, s.db).Query(ctx,
		`SELECT `+ratingColumns+` FROM ratings ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var out []*Rating
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Update overwrites the fields that are non-nil.
func (s *Store) Update(ctx context.Context, id types.ID, score *int, comment *string) (*Rating, error) {
	row := infra.Conn(ctx, s.db).QueryRow(ctx, `
		UPDATE ratings
		SET score = COALESCE($1::smallint, score),
		    comment = COALESCE($2::text, comment)
		WHERE id = $3
		RETURNING `+ratingColumns, score, comment, string(id))
	return scanRating(row)
}

func scanRating(row pgx.Row) (*Rating, error) {
	var r Rating
	err := row.Scan(&r.ID, &r.TripID, &r.Score, &r.Comment, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan rating: %w", err)
	}
	return &r, nil
}
