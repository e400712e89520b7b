// README: Shared helpers for DB-backed tests; skipped unless RIDES_TEST_DSN is set.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"rides/internal/infra"
	"rides/migrations"
)

// DB connects to RIDES_TEST_DSN, applies migrations and empties every table.
func DB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("RIDES_TEST_DSN")
	if dsn == "" {
		t.Skip("RIDES_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if err := infra.Migrate(ctx, db, migrations.FS); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE ratings, trip_events, trips, vehicles, users"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return db
}

// InsertUser writes a bare user row and returns its id.
func InsertUser(t *testing.T, db *pgxpool.Pool, username string, driver bool) string {
	t.Helper()
	var id string
	err := db.QueryRow(context.Background(), `
		INSERT INTO users (id, username, first_name, last_name, is_driver)
		VALUES (gen_random_uuid(), $1, '', '', $2)
		RETURNING id::text`, username, driver,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert user %s: %v", username, err)
	}
	return id
}
