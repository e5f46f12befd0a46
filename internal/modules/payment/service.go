// README: Payment service bridges the gateway and the booking lifecycle.
package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"vahan/internal/modules/booking"
	"vahan/internal/types"
)

// GatewayAPI is what the service needs from the payment provider.
type GatewayAPI interface {
	CreateOrder(ctx context.Context, amount types.Money, receipt string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// Bookings is the payment-facing slice of the orchestrator.
type Bookings interface {
	Get(ctx context.Context, id types.ID) (*booking.Booking, error)
	MarkPaid(ctx context.Context, id types.ID) error
}

type Wallets interface {
	Credit(ctx context.Context, driverID types.ID, amount types.Money, note string) error
}

type Service struct {
	store    Store
	gateway  GatewayAPI
	bookings Bookings
	wallets  Wallets
	now      func() time.Time
}

func NewService(store Store, gateway GatewayAPI, bookings Bookings, wallets Wallets) *Service {
	return &Service{store: store, gateway: gateway, bookings: bookings, wallets: wallets, now: time.Now}
}

// CreateOrder opens a gateway order for a payment-gated booking. The
// rider is charged the max estimate; settlement trues it up later.
func (s *Service) CreateOrder(ctx context.Context, bookingID types.ID) (*Payment, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.PaymentRequired || b.PaymentCompleted {
		return nil, ErrBadRequest
	}

	orderID, err := s.gateway.CreateOrder(ctx, b.MaxEstimate, "booking_"+string(b.ID))
	if err != nil {
		return nil, err
	}

	bid := b.ID
	p := &Payment{
		ID:        newID(),
		BookingID: &bid,
		OrderID:   orderID,
		Amount:    b.MaxEstimate,
		Status:    StatusCreated,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateTopUpOrder opens a gateway order that credits a driver's wallet
// once paid.
func (s *Service) CreateTopUpOrder(ctx context.Context, driverID types.ID, amount types.Money) (*Payment, error) {
	if driverID == "" || amount <= 0 {
		return nil, ErrBadRequest
	}
	orderID, err := s.gateway.CreateOrder(ctx, amount, "topup_"+string(driverID))
	if err != nil {
		return nil, err
	}

	did := driverID
	p := &Payment{
		ID:        newID(),
		DriverID:  &did,
		OrderID:   orderID,
		Amount:    amount,
		Status:    StatusCreated,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

type SuccessCommand struct {
	OrderID   string
	PaymentID string
	Signature string
}

// HandleSuccess verifies the callback signature and applies the payment:
// bookings leave PENDING_PAYMENT and dispatch, top-ups credit the
// wallet. A bad signature records a FAILED attempt and changes nothing
// else.
func (s *Service) HandleSuccess(ctx context.Context, cmd SuccessCommand) error {
	p, err := s.store.GetByOrderID(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if p.Status == StatusPaid {
		return nil
	}

	if !s.gateway.VerifySignature(cmd.OrderID, cmd.PaymentID, cmd.Signature) {
		p.PaymentID = cmd.PaymentID
		p.Signature = cmd.Signature
		p.Status = StatusFailed
		p.Reason = "signature mismatch"
		p.UpdatedAt = s.now()
		if err := s.store.Update(ctx, p); err != nil {
			return err
		}
		return ErrSignatureMismatch
	}

	p.PaymentID = cmd.PaymentID
	p.Signature = cmd.Signature
	p.Status = StatusPaid
	p.Reason = ""
	p.UpdatedAt = s.now()
	if err := s.store.Update(ctx, p); err != nil {
		return err
	}

	switch {
	case p.BookingID != nil:
		return s.bookings.MarkPaid(ctx, *p.BookingID)
	case p.DriverID != nil:
		return s.wallets.Credit(ctx, *p.DriverID, p.Amount, "wallet top-up")
	}
	return nil
}

type FailureCommand struct {
	OrderID string
	Reason  string
}

// HandleFailure records the failed attempt; the booking stays in
// PENDING_PAYMENT for a retry.
func (s *Service) HandleFailure(ctx context.Context, cmd FailureCommand) error {
	p, err := s.store.GetByOrderID(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	p.Status = StatusFailed
	p.Reason = cmd.Reason
	p.UpdatedAt = s.now()
	return s.store.Update(ctx, p)
}

func (s *Service) LatestForBooking(ctx context.Context, bookingID types.ID) (*Payment, error) {
	return s.store.LatestByBooking(ctx, bookingID)
}

func newID() types.ID {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return types.ID(hex.EncodeToString(buf[:]))
}
