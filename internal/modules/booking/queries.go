// README: Read-side booking operations for rider and driver views.
package booking

import (
	"context"
	"time"

	"vahan/internal/types"
)

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) SubBookings(ctx context.Context, parentID types.ID) ([]*Booking, error) {
	return s.store.ListByParent(ctx, parentID)
}

func (s *Service) Verifications(ctx context.Context, bookingID types.ID) ([]*PassengerVerification, error) {
	return s.verifs.ListByBooking(ctx, bookingID)
}

func (s *Service) ActiveForRider(ctx context.Context, riderID types.ID) ([]*Booking, error) {
	return s.store.ActiveByRider(ctx, riderID)
}

func (s *Service) ActiveForDriver(ctx context.Context, driverID types.ID) ([]*Booking, error) {
	return s.store.ActiveByDriver(ctx, driverID)
}

// PendingForDriver lists open offers the driver could accept with one of
// their vehicles: PENDING, unassigned, class match, enough seats.
func (s *Service) PendingForDriver(ctx context.Context, driverID types.ID) ([]*Booking, error) {
	owned, err := s.vehicles.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	capacityByClass := make(map[types.VehicleClass]int)
	for _, v := range owned {
		if !v.Available {
			continue
		}
		if v.Capacity > capacityByClass[v.Class] {
			capacityByClass[v.Class] = v.Capacity
		}
	}

	seen := make(map[types.ID]bool)
	var out []*Booking
	for class, capacity := range capacityByClass {
		bookings, err := s.store.PendingByClass(ctx, class, capacity)
		if err != nil {
			return nil, err
		}
		for _, b := range bookings {
			if !seen[b.ID] {
				seen[b.ID] = true
				out = append(out, b)
			}
		}
	}
	return out, nil
}

type TaskKind string

const (
	TaskPickup TaskKind = "PICKUP"
	TaskStop   TaskKind = "STOP"
	TaskDrop   TaskKind = "DROP"
)

type Task struct {
	BookingID types.ID
	Kind      TaskKind
	Location  string
	Position  types.Point
	Seq       int
}

// Tasks flattens the driver's active bookings into the ordered
// pickup/stops/drop worklist their app renders.
func (s *Service) Tasks(ctx context.Context, driverID types.ID) ([]Task, error) {
	active, err := s.store.ActiveByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	var out []Task
	for _, b := range active {
		seq := 0
		out = append(out, Task{BookingID: b.ID, Kind: TaskPickup, Location: b.PickupLabel, Position: b.Pickup, Seq: seq})
		for _, stop := range b.Stops {
			seq++
			out = append(out, Task{BookingID: b.ID, Kind: TaskStop, Location: stop.Location, Position: stop.Position, Seq: seq})
		}
		seq++
		out = append(out, Task{BookingID: b.ID, Kind: TaskDrop, Location: b.DropLabel, Position: b.Drop, Seq: seq})
	}
	return out, nil
}

type EarningsSummary struct {
	Daily         types.Money
	Monthly       types.Money
	WalletBalance types.Money
}

// Earnings sums the driver's settled net over today and the current
// month alongside the live wallet balance.
func (s *Service) Earnings(ctx context.Context, driverID types.ID) (EarningsSummary, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	daily, err := s.store.SumCompletedRemaining(ctx, driverID, dayStart, now)
	if err != nil {
		return EarningsSummary{}, err
	}
	monthly, err := s.store.SumCompletedRemaining(ctx, driverID, monthStart, now)
	if err != nil {
		return EarningsSummary{}, err
	}

	var balance types.Money
	if s.wallets != nil {
		if bal, err := s.wallets.Balance(ctx, driverID); err == nil {
			balance = bal
		}
	}
	return EarningsSummary{Daily: daily, Monthly: monthly, WalletBalance: balance}, nil
}
