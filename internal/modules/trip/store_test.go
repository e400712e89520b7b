// README: DB-backed trip store tests (need RIDES_TEST_DSN).
package trip

import (
	"context"
	"testing"
	"time"

	"rides/internal/logger"
	"rides/internal/modules/user"
	"rides/internal/testutil"
	"rides/internal/types"
)

func userRow(id types.ID, driver bool) *user.User {
	return &user.User{ID: id, IsDriver: driver, IsPassenger: !driver, IsAvailable: true}
}

func TestStoreLifecycleAndLoad(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()

	users := newMemUsers()
	passenger := types.ID(testutil.InsertUser(t, db, "p_store", false))
	driver := types.ID(testutil.InsertUser(t, db, "d_store", true))
	users.users[passenger] = userRow(passenger, false)
	users.users[driver] = userRow(driver, true)

	store := NewStore(db)
	svc := NewService(store, users, nil, logger.Discard())

	a, err := svc.Create(ctx, CreateCommand{PassengerID: passenger})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, _ := svc.Create(ctx, CreateCommand{PassengerID: passenger})

	if _, err := svc.AssignDriver(ctx, AssignCommand{TripID: a.ID, DriverID: driver}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	started, err := svc.Start(ctx, StartCommand{TripID: a.ID})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.StartTime == nil || started.StatusVersion != 2 {
		t.Fatalf("unexpected started trip: %+v", started)
	}

	load, err := store.ActiveLoad(ctx, &driver)
	if err != nil || load != 1 {
		t.Fatalf("driver load = %d, err %v", load, err)
	}
	unassigned, err := store.ActiveLoad(ctx, nil)
	if err != nil || unassigned != 1 {
		t.Fatalf("unassigned load = %d, err %v", unassigned, err)
	}

	count, err := store.CountActive(ctx)
	if err != nil || count != (ActiveCount{Pending: 1, Ongoing: 1}) {
		t.Fatalf("count active = %+v, err %v", count, err)
	}

	if _, err := svc.Cancel(ctx, CancelCommand{TripID: b.ID, ActorID: &passenger}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Complete(ctx, CompleteCommand{TripID: a.ID}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	events, err := store.Events(ctx, a.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 4 || events[3].To != StatusCompleted {
		t.Fatalf("unexpected events: %d", len(events))
	}

	byDriver, err := store.List(ctx, Filter{DriverID: &driver})
	if err != nil || len(byDriver) != 1 {
		t.Fatalf("list by driver = %d, err %v", len(byDriver), err)
	}
}

func TestStoreApplyStaleVersion(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	store := NewStore(db)

	passenger := types.ID(testutil.InsertUser(t, db, "p_stale", false))
	tr := &Trip{ID: types.NewID(), PassengerID: passenger, Status: StatusPending, RequestedAt: time.Now()}
	if err := store.Create(ctx, tr); err != nil {
		t.Fatalf("create: %v", err)
	}

	end := time.Now()
	if _, ok, err := store.Apply(ctx, Change{ID: tr.ID, From: StatusPending, To: StatusCancelled, Version: 0, EndTime: &end}); err != nil || !ok {
		t.Fatalf("first apply ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.Apply(ctx, Change{ID: tr.ID, From: StatusPending, To: StatusCancelled, Version: 0, EndTime: &end}); err != nil || ok {
		t.Fatalf("stale apply ok=%v err=%v", ok, err)
	}
}

func TestStoreDriverDeleteNullsTrip(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	store := NewStore(db)

	passenger := types.ID(testutil.InsertUser(t, db, "p_cascade", false))
	driver := types.ID(testutil.InsertUser(t, db, "d_cascade", true))
	tr := &Trip{ID: types.NewID(), PassengerID: passenger, DriverID: &driver, Status: StatusPending, RequestedAt: time.Now()}
	if err := store.Create(ctx, tr); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := db.Exec(ctx, `DELETE FROM users WHERE id = $1`, string(driver)); err != nil {
		t.Fatalf("delete driver: %v", err)
	}
	got, err := store.Get(ctx, tr.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DriverID != nil {
		t.Fatalf("driver reference not cleared: %v", *got.DriverID)
	}

	if _, err := db.Exec(ctx, `DELETE FROM users WHERE id = $1`, string(passenger)); err != nil {
		t.Fatalf("delete passenger: %v", err)
	}
	if _, err := store.Get(ctx, tr.ID); err != ErrNotFound {
		t.Fatalf("trip should cascade with passenger, got %v", err)
	}
}

func TestStoreStartRejectedAfterDriverDeleted(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	store := NewStore(db)

	passenger := types.ID(testutil.InsertUser(t, db, "p_gone", false))
	driver := types.ID(testutil.InsertUser(t, db, "d_gone", true))
	tr := &Trip{ID: types.NewID(), PassengerID: passenger, DriverID: &driver, Status: StatusPending, RequestedAt: time.Now()}
	if err := store.Create(ctx, tr); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Read before the delete, as a concurrent Start would.
	seen, err := store.Get(ctx, tr.ID)
	if err != nil || seen.DriverID == nil {
		t.Fatalf("get: %+v err %v", seen, err)
	}

	if _, err := db.Exec(ctx, `DELETE FROM users WHERE id = $1`, string(driver)); err != nil {
		t.Fatalf("delete driver: %v", err)
	}

	start := time.Now()
	_, ok, err := store.Apply(ctx, Change{ID: tr.ID, From: StatusPending, To: StatusOngoing, Version: seen.StatusVersion, StartTime: &start})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ok {
		t.Fatal("trip started without a driver")
	}
	got, _ := store.Get(ctx, tr.ID)
	if got.Status != StatusPending || got.StartTime != nil {
		t.Fatalf("trip changed: %+v", got)
	}
}
