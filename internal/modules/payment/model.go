// README: Payment attempts against the gateway, one row per attempt.
package payment

import (
	"context"
	"errors"
	"time"

	"vahan/internal/types"
)

var (
	ErrNotFound          = errors.New("payment not found")
	ErrBadRequest        = errors.New("bad request")
	ErrSignatureMismatch = errors.New("payment signature mismatch")
)

type Status string

const (
	StatusCreated Status = "CREATED"
	StatusPaid    Status = "PAID"
	StatusFailed  Status = "FAILED"
)

// Payment links a gateway order to either a booking (prepaid ride) or a
// driver (wallet top-up), never both.
type Payment struct {
	ID        types.ID
	BookingID *types.ID
	DriverID  *types.ID
	OrderID   string
	PaymentID string
	Signature string
	Amount    types.Money
	Status    Status
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Store interface {
	Create(ctx context.Context, p *Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	LatestByBooking(ctx context.Context, bookingID types.ID) (*Payment, error)
}
