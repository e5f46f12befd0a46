package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"vahan/internal/modules/location"
	"vahan/internal/modules/pricing"
	"vahan/internal/modules/vehicle"
	"vahan/internal/notify"
	"vahan/internal/types"
)

// memStore is an in-memory Store with the same compare-and-swap
// semantics as the PostgreSQL implementation.
type memStore struct {
	mu       sync.Mutex
	bookings map[types.ID]*Booking
}

func newMemStore() *memStore {
	return &memStore{bookings: make(map[types.ID]*Booking)}
}

func cloneBooking(b *Booking) *Booking {
	c := *b
	if b.VehicleID != nil {
		v := *b.VehicleID
		c.VehicleID = &v
	}
	if b.DriverID != nil {
		d := *b.DriverID
		c.DriverID = &d
	}
	if b.ParentID != nil {
		p := *b.ParentID
		c.ParentID = &p
	}
	if b.StartAt != nil {
		s := *b.StartAt
		c.StartAt = &s
	}
	if b.EndAt != nil {
		e := *b.EndAt
		c.EndAt = &e
	}
	c.Stops = append([]Stop(nil), b.Stops...)
	return &c
}

func (s *memStore) Create(_ context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (s *memStore) Get(_ context.Context, id types.ID) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBooking(b), nil
}

func (s *memStore) Save(_ context.Context, b *Booking) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.bookings[b.ID]
	if !ok {
		return false, ErrNotFound
	}
	if cur.StatusVersion != b.StatusVersion {
		return false, nil
	}
	b.StatusVersion++
	s.bookings[b.ID] = cloneBooking(b)
	return true, nil
}

func (s *memStore) ListByParent(_ context.Context, parentID types.ID) ([]*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Booking
	for _, b := range s.bookings {
		if b.ParentID != nil && *b.ParentID == parentID {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

func (s *memStore) HasActiveByDriver(_ context.Context, driverID types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.DriverID != nil && *b.DriverID == driverID && b.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ActiveByRider(_ context.Context, riderID types.ID) ([]*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Booking
	for _, b := range s.bookings {
		if b.RiderID == riderID && b.Active() {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

func (s *memStore) ActiveByDriver(_ context.Context, driverID types.ID) ([]*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Booking
	for _, b := range s.bookings {
		if b.DriverID != nil && *b.DriverID == driverID && b.Active() {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

func (s *memStore) PendingByClass(_ context.Context, class types.VehicleClass, capacity int) ([]*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Booking
	for _, b := range s.bookings {
		if b.Status == StatusPending && b.VehicleID == nil && b.Class == class && b.Passengers <= capacity {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

func (s *memStore) HasOverlap(_ context.Context, vehicleID types.ID, start, end time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.VehicleID == nil || *b.VehicleID != vehicleID {
			continue
		}
		if b.Status != StatusPending && b.Status != StatusAccepted {
			continue
		}
		if b.StartAt == nil || b.EndAt == nil {
			continue
		}
		if b.StartAt.Before(end) && b.EndAt.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) SumCompletedRemaining(_ context.Context, driverID types.ID, from, to time.Time) (types.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum types.Money
	for _, b := range s.bookings {
		if b.DriverID == nil || *b.DriverID != driverID || b.Status != StatusCompleted {
			continue
		}
		if b.CreatedAt.Before(from) || !b.CreatedAt.Before(to) {
			continue
		}
		sum += b.RemainingAmount
	}
	return sum, nil
}

type memVerifs struct {
	mu   sync.Mutex
	rows map[types.ID]*PassengerVerification
}

func newMemVerifs() *memVerifs {
	return &memVerifs{rows: make(map[types.ID]*PassengerVerification)}
}

func (s *memVerifs) Create(_ context.Context, v *PassengerVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *v
	s.rows[v.ID] = &c
	return nil
}

func (s *memVerifs) ListByBooking(_ context.Context, bookingID types.ID) ([]*PassengerVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*PassengerVerification
	for _, v := range s.rows {
		if v.BookingID == bookingID {
			c := *v
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *memVerifs) GetByBookingAndPassenger(_ context.Context, bookingID, passengerID types.ID) (*PassengerVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.rows {
		if v.BookingID == bookingID && v.PassengerID == passengerID {
			c := *v
			return &c, nil
		}
	}
	return nil, ErrVerificationNotFound
}

func (s *memVerifs) Update(_ context.Context, v *PassengerVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *v
	s.rows[v.ID] = &c
	return nil
}

type memVehicles struct {
	mu   sync.Mutex
	list []*vehicle.Vehicle
}

func (s *memVehicles) add(v *vehicle.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, v)
}

func (s *memVehicles) Get(_ context.Context, id types.ID) (*vehicle.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.list {
		if v.ID == id {
			c := *v
			return &c, nil
		}
	}
	return nil, vehicle.ErrNotFound
}

func (s *memVehicles) ListAvailableByClass(_ context.Context, class types.VehicleClass) ([]*vehicle.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*vehicle.Vehicle
	for _, v := range s.list {
		if v.Class == class && v.Available {
			c := *v
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *memVehicles) ListByDriver(_ context.Context, driverID types.ID) ([]*vehicle.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*vehicle.Vehicle
	for _, v := range s.list {
		if v.DriverID() == driverID {
			c := *v
			out = append(out, &c)
		}
	}
	return out, nil
}

type walletDebit struct {
	DriverID  types.ID
	Amount    types.Money
	BookingID types.ID
}

type memWallet struct {
	mu       sync.Mutex
	balances map[types.ID]types.Money
	debits   []walletDebit
}

func newMemWallet() *memWallet {
	return &memWallet{balances: make(map[types.ID]types.Money)}
}

func (w *memWallet) set(driverID types.ID, balance types.Money) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[driverID] = balance
}

func (w *memWallet) HasBalance(_ context.Context, driverID types.ID, amount types.Money) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[driverID] >= amount, nil
}

func (w *memWallet) Debit(_ context.Context, driverID types.ID, amount types.Money, bookingID types.ID, _ string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[driverID] -= amount
	w.debits = append(w.debits, walletDebit{DriverID: driverID, Amount: amount, BookingID: bookingID})
	return nil
}

func (w *memWallet) Balance(_ context.Context, driverID types.ID) (types.Money, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[driverID], nil
}

func (w *memWallet) debitLog() []walletDebit {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]walletDebit(nil), w.debits...)
}

type memLocations struct {
	mu   sync.Mutex
	locs map[types.ID]location.DriverLocation
}

func newMemLocations() *memLocations {
	return &memLocations{locs: make(map[types.ID]location.DriverLocation)}
}

func (s *memLocations) set(loc location.DriverLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locs[loc.DriverID] = loc
}

func (s *memLocations) Get(_ context.Context, driverID types.ID) (location.DriverLocation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.locs[driverID]
	return loc, ok, nil
}

type testEnv struct {
	store    *memStore
	verifs   *memVerifs
	vehicles *memVehicles
	wallets  *memWallet
	locs     *memLocations
	rec      *notify.Recorder
	svc      *Service
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    newMemStore(),
		verifs:   newMemVerifs(),
		vehicles: &memVehicles{},
		wallets:  newMemWallet(),
		locs:     newMemLocations(),
		rec:      notify.NewRecorder(),
		now:      time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}
	pricingSvc := pricing.NewService(pricing.NewConfig(nil))
	dispatcher := NewDispatcher(env.vehicles, env.store, env.locs)
	env.svc = NewService(env.store, env.verifs, env.vehicles, pricingSvc, env.wallets, dispatcher, env.rec, nil)
	env.svc.now = func() time.Time { return env.now }
	return env
}

// addDriver registers a driver with one available vehicle and a healthy
// wallet, returning the vehicle.
func (env *testEnv) addDriver(driverID types.ID, class types.VehicleClass, capacity int, perKm types.Money) *vehicle.Vehicle {
	v := &vehicle.Vehicle{
		ID:         types.ID("veh_" + string(driverID)),
		OwnerID:    driverID,
		Class:      class,
		Capacity:   capacity,
		PricePerKm: perKm,
		Available:  true,
	}
	env.vehicles.add(v)
	env.wallets.set(driverID, 1_000_000)
	return v
}

// pinned route used across tests: RoadKm = 6.43.
var (
	testPickup = types.Point{Lat: 12.9716, Lng: 77.5946}
	testDrop   = types.Point{Lat: 12.9352, Lng: 77.6146}
)

func (env *testEnv) createImmediate(t *testing.T, rider types.ID, class types.VehicleClass) *Booking {
	t.Helper()
	b, err := env.svc.Create(context.Background(), CreateCommand{
		RiderID:    rider,
		Class:      class,
		Pickup:     testPickup,
		Drop:       testDrop,
		Passengers: 1,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}
