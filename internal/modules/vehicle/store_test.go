// README: DB-backed vehicle store tests (need RIDES_TEST_DSN).
package vehicle

import (
	"context"
	"testing"

	"rides/internal/testutil"
	"rides/internal/types"
)

func TestStoreUniqueConstraints(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	store := NewStore(db)

	d1 := types.ID(testutil.InsertUser(t, db, "veh_d1", true))
	d2 := types.ID(testutil.InsertUser(t, db, "veh_d2", true))

	v := &Vehicle{ID: types.NewID(), DriverID: d1, LicensePlate: "XYZ-1", Model: "Prius", Capacity: 4}
	if err := store.Create(ctx, v); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, &Vehicle{ID: types.NewID(), DriverID: d2, LicensePlate: "XYZ-1", Model: "Golf", Capacity: 4}); err != ErrPlateTaken {
		t.Fatalf("duplicate plate: got %v", err)
	}
	if err := store.Create(ctx, &Vehicle{ID: types.NewID(), DriverID: d1, LicensePlate: "XYZ-2", Model: "Golf", Capacity: 4}); err != ErrDriverHasVehicle {
		t.Fatalf("second vehicle: got %v", err)
	}

	summary, err := store.ModelsSummary(ctx)
	if err != nil || len(summary) != 1 || summary[0] != (ModelCount{"Prius", 1}) {
		t.Fatalf("summary = %+v, err %v", summary, err)
	}

	// vehicle goes with its driver
	if _, err := db.Exec(ctx, `DELETE FROM users WHERE id = $1`, string(d1)); err != nil {
		t.Fatalf("delete driver: %v", err)
	}
	if _, err := store.Get(ctx, v.ID); err != ErrNotFound {
		t.Fatalf("vehicle should cascade, got %v", err)
	}
}
