package booking

import (
	"context"
	"testing"
	"time"

	"vahan/internal/types"
)

func TestPendingForDriver(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addDriver("d1", types.ClassSedan, 4, 1500)

	match := env.createImmediate(t, "r1", types.ClassSedan)

	// too many passengers for the driver's sedan
	if _, err := env.svc.Create(ctx, CreateCommand{
		RiderID: "r2", Class: types.ClassSedan,
		Pickup: testPickup, Drop: testDrop, Passengers: 6,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	// wrong class
	if _, err := env.svc.Create(ctx, CreateCommand{
		RiderID: "r3", Class: types.ClassAuto,
		Pickup: testPickup, Drop: testDrop, Passengers: 1,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	pending, err := env.svc.PendingForDriver(ctx, "d1")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != match.ID {
		t.Fatalf("pending = %d bookings", len(pending))
	}

	// an accepted booking leaves the offer list
	if _, err := env.svc.Accept(ctx, AcceptCommand{BookingID: match.ID, DriverID: "d1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	pending, err = env.svc.PendingForDriver(ctx, "d1")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after accept = %d, want 0", len(pending))
	}
}

func TestTasksOrdering(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addDriver("d1", types.ClassSedan, 4, 1500)

	b, err := env.svc.Create(ctx, CreateCommand{
		RiderID: "r1", Class: types.ClassSedan,
		Pickup: testPickup, PickupLabel: "MG Road",
		Drop: testDrop, DropLabel: "Koramangala",
		Stops: []Stop{
			{Location: "Trinity Circle", Position: types.Point{Lat: 12.9732, Lng: 77.6194}, Seq: 1},
		},
		Passengers: 1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.Accept(ctx, AcceptCommand{BookingID: b.ID, DriverID: "d1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	tasks, err := env.svc.Tasks(ctx, "d1")
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("tasks = %d, want 3", len(tasks))
	}
	wantKinds := []TaskKind{TaskPickup, TaskStop, TaskDrop}
	wantLabels := []string{"MG Road", "Trinity Circle", "Koramangala"}
	for i, task := range tasks {
		if task.Kind != wantKinds[i] || task.Location != wantLabels[i] || task.Seq != i {
			t.Fatalf("task[%d] = %+v", i, task)
		}
	}
}

func TestEarnings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d1 := types.ID("d1")
	env.addDriver(d1, types.ClassSedan, 4, 1500)

	b := env.createImmediate(t, "r1", types.ClassSedan)
	if _, err := env.svc.Accept(ctx, AcceptCommand{BookingID: b.ID, DriverID: d1}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := env.svc.Start(ctx, StartCommand{BookingID: b.ID, RiderID: "r1", OTP: b.RideOTP}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.svc.Complete(ctx, b.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// a ride settled yesterday counts for the month but not today
	yesterday := env.now.Add(-24 * time.Hour)
	old := &Booking{
		ID: "old", RiderID: "r0", DriverID: &d1,
		Class: types.ClassSedan, Status: StatusCompleted,
		RemainingAmount: 5000, CreatedAt: yesterday,
	}
	if err := env.store.Create(ctx, old); err != nil {
		t.Fatal(err)
	}

	env.now = env.now.Add(time.Minute)
	sum, err := env.svc.Earnings(ctx, d1)
	if err != nil {
		t.Fatalf("earnings: %v", err)
	}
	// the settled net is the full fare 96.45; the commission was taken
	// from the wallet, not the booking
	if sum.Daily != 9645 {
		t.Fatalf("daily = %d, want 9645", sum.Daily)
	}
	if sum.Monthly != 9645+5000 {
		t.Fatalf("monthly = %d, want %d", sum.Monthly, 9645+5000)
	}
	// wallet seeded at 10,000.00 minus the 14.47 commission debit
	if sum.WalletBalance != 1_000_000-1447 {
		t.Fatalf("wallet = %d, want %d", sum.WalletBalance, 1_000_000-1447)
	}
}
