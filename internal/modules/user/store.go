// README: User store backed by PostgreSQL.
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rides/internal/infra"
	"rides/internal/types"
)

const userColumns = `id, username, email, first_name, last_name, password_hash,
	is_driver, is_passenger, is_available, joined_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, u *User) error {
	_, err := infra.Conn(ctx, s.db).Exec(ctx, `
		INSERT INTO users (
			id, username, email, first_name, last_name, password_hash,
			is_driver, is_passenger, is_available, joined_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(u.ID), u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash,
		u.IsDriver, u.IsPassenger, u.IsAvailable, u.JoinedAt,
	)
	if _, ok := infra.UniqueViolation(err); ok {
		return ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*User, error) {
	row := infra.Conn(ctx, s.db).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, string(id))
	return scanUser(row)
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := infra.Conn(ctx, s.db).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// List returns users ordered by username.
func (s *Store) List(ctx context.Context, f Filter) ([]*User, error) {
	rows, err := infra.Conn(ctx, s.db).Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE ($1 = FALSE OR is_driver)
		ORDER BY username`, f.DriversOnly)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Delete cascades to the user's passenger trips and vehicle; driven trips
// lose their driver reference.
func (s *Store) Delete(ctx context.Context, id types.ID) error {
	tag, err := infra.Conn(ctx, s.db).Exec(ctx, `DELETE FROM users WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleAvailability flips is_available in a single statement so concurrent
// toggles never lose an update.
func (s *Store) ToggleAvailability(ctx context.Context, id types.ID) (bool, error) {
	var available bool
	err := infra.Conn(ctx, s.db).QueryRow(ctx, `
		UPDATE users
		SET is_available = NOT is_available
		WHERE id = $1 AND is_driver
		RETURNING is_available`, string(id),
	).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrDriverNotFound
	}
	if err != nil {
		return false, fmt.Errorf("toggle availability: %w", err)
	}
	return available, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.IsDriver, &u.IsPassenger, &u.IsAvailable, &u.JoinedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
