package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"vahan/internal/modules/booking"
	"vahan/internal/types"
)

type memStore struct {
	mu       sync.Mutex
	byOrder  map[string]*Payment
	sequence int
}

func newMemStore() *memStore {
	return &memStore{byOrder: make(map[string]*Payment)}
}

func (s *memStore) Create(_ context.Context, p *Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.byOrder[p.OrderID] = &c
	return nil
}

func (s *memStore) GetByOrderID(_ context.Context, orderID string) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byOrder[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *p
	return &c, nil
}

func (s *memStore) Update(_ context.Context, p *Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.byOrder[p.OrderID] = &c
	return nil
}

func (s *memStore) LatestByBooking(_ context.Context, bookingID types.ID) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byOrder {
		if p.BookingID != nil && *p.BookingID == bookingID {
			c := *p
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

type fakeGateway struct {
	mu      sync.Mutex
	orders  []types.Money
	badSigs bool
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount types.Money, receipt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders = append(g.orders, amount)
	return fmt.Sprintf("order_%d", len(g.orders)), nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.badSigs
}

type fakeBookings struct {
	mu       sync.Mutex
	bookings map[types.ID]*booking.Booking
	paid     []types.ID
}

func (f *fakeBookings) Get(_ context.Context, id types.ID) (*booking.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return b, nil
}

func (f *fakeBookings) MarkPaid(_ context.Context, id types.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paid = append(f.paid, id)
	return nil
}

type fakeWallets struct {
	mu      sync.Mutex
	credits map[types.ID]types.Money
}

func (f *fakeWallets) Credit(_ context.Context, driverID types.ID, amount types.Money, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.credits == nil {
		f.credits = make(map[types.ID]types.Money)
	}
	f.credits[driverID] += amount
	return nil
}

type paymentEnv struct {
	store    *memStore
	gateway  *fakeGateway
	bookings *fakeBookings
	wallets  *fakeWallets
	svc      *Service
}

func newPaymentEnv() *paymentEnv {
	env := &paymentEnv{
		store:    newMemStore(),
		gateway:  &fakeGateway{},
		bookings: &fakeBookings{bookings: make(map[types.ID]*booking.Booking)},
		wallets:  &fakeWallets{},
	}
	env.svc = NewService(env.store, env.gateway, env.bookings, env.wallets)
	return env
}

func (env *paymentEnv) addBooking(id types.ID, maxEstimate types.Money, required, completed bool) {
	env.bookings.bookings[id] = &booking.Booking{
		ID:               id,
		RiderID:          "r1",
		MaxEstimate:      maxEstimate,
		PaymentRequired:  required,
		PaymentCompleted: completed,
	}
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	env := newPaymentEnv()
	env.addBooking("b1", 12422, true, false)

	p, err := env.svc.CreateOrder(ctx, "b1")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if p.Amount != 12422 {
		t.Fatalf("amount = %d, want the max estimate 12422", p.Amount)
	}
	if p.Status != StatusCreated {
		t.Fatalf("status = %s, want CREATED", p.Status)
	}
	if p.BookingID == nil || *p.BookingID != "b1" {
		t.Fatal("payment must reference the booking")
	}
	if len(env.gateway.orders) != 1 || env.gateway.orders[0] != 12422 {
		t.Fatalf("gateway orders = %v", env.gateway.orders)
	}
}

func TestCreateOrderGuards(t *testing.T) {
	ctx := context.Background()
	env := newPaymentEnv()
	env.addBooking("free", 12422, false, false)
	env.addBooking("paid", 12422, true, true)

	if _, err := env.svc.CreateOrder(ctx, "free"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("non-gated booking: err = %v, want ErrBadRequest", err)
	}
	if _, err := env.svc.CreateOrder(ctx, "paid"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("already paid: err = %v, want ErrBadRequest", err)
	}
	if _, err := env.svc.CreateOrder(ctx, "missing"); !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("missing booking: err = %v, want booking.ErrNotFound", err)
	}
}

func TestHandleSuccessMarksBookingPaid(t *testing.T) {
	ctx := context.Background()
	env := newPaymentEnv()
	env.addBooking("b1", 12422, true, false)

	p, err := env.svc.CreateOrder(ctx, "b1")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	cmd := SuccessCommand{OrderID: p.OrderID, PaymentID: "pay_1", Signature: "sig"}
	if err := env.svc.HandleSuccess(ctx, cmd); err != nil {
		t.Fatalf("handle success: %v", err)
	}

	cur, _ := env.store.GetByOrderID(ctx, p.OrderID)
	if cur.Status != StatusPaid || cur.PaymentID != "pay_1" {
		t.Fatalf("payment = %s/%s", cur.Status, cur.PaymentID)
	}
	if len(env.bookings.paid) != 1 || env.bookings.paid[0] != "b1" {
		t.Fatalf("marked paid = %v", env.bookings.paid)
	}

	// replayed callbacks are no-ops
	if err := env.svc.HandleSuccess(ctx, cmd); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(env.bookings.paid) != 1 {
		t.Fatalf("replay marked paid again: %v", env.bookings.paid)
	}
}

func TestHandleSuccessBadSignature(t *testing.T) {
	ctx := context.Background()
	env := newPaymentEnv()
	env.gateway.badSigs = true
	env.addBooking("b1", 12422, true, false)

	p, err := env.svc.CreateOrder(ctx, "b1")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	err = env.svc.HandleSuccess(ctx, SuccessCommand{OrderID: p.OrderID, PaymentID: "pay_1", Signature: "forged"})
	if !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("err = %v, want ErrSignatureMismatch", err)
	}

	cur, _ := env.store.GetByOrderID(ctx, p.OrderID)
	if cur.Status != StatusFailed || cur.Reason != "signature mismatch" {
		t.Fatalf("payment = %s/%q", cur.Status, cur.Reason)
	}
	if len(env.bookings.paid) != 0 {
		t.Fatal("forged callback must not mark the booking paid")
	}
}

func TestHandleSuccessTopUpCreditsWallet(t *testing.T) {
	ctx := context.Background()
	env := newPaymentEnv()

	p, err := env.svc.CreateTopUpOrder(ctx, "d1", 50000)
	if err != nil {
		t.Fatalf("create top-up: %v", err)
	}
	if p.DriverID == nil || *p.DriverID != "d1" || p.BookingID != nil {
		t.Fatalf("payment = %+v", p)
	}

	if err := env.svc.HandleSuccess(ctx, SuccessCommand{OrderID: p.OrderID, PaymentID: "pay_1", Signature: "sig"}); err != nil {
		t.Fatalf("handle success: %v", err)
	}
	if env.wallets.credits["d1"] != 50000 {
		t.Fatalf("credits = %v", env.wallets.credits)
	}
	if len(env.bookings.paid) != 0 {
		t.Fatal("top-up must not touch bookings")
	}
}

func TestCreateTopUpOrderGuards(t *testing.T) {
	ctx := context.Background()
	env := newPaymentEnv()

	if _, err := env.svc.CreateTopUpOrder(ctx, "", 1000); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
	if _, err := env.svc.CreateTopUpOrder(ctx, "d1", 0); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
}

func TestHandleFailure(t *testing.T) {
	ctx := context.Background()
	env := newPaymentEnv()
	env.addBooking("b1", 12422, true, false)

	p, err := env.svc.CreateOrder(ctx, "b1")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := env.svc.HandleFailure(ctx, FailureCommand{OrderID: p.OrderID, Reason: "card declined"}); err != nil {
		t.Fatalf("handle failure: %v", err)
	}

	cur, _ := env.store.GetByOrderID(ctx, p.OrderID)
	if cur.Status != StatusFailed || cur.Reason != "card declined" {
		t.Fatalf("payment = %s/%q", cur.Status, cur.Reason)
	}
	if len(env.bookings.paid) != 0 {
		t.Fatal("failure must not mark the booking paid")
	}
}
