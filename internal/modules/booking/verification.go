// README: Per-passenger pickup/drop OTP tracking for shared rides.
package booking

import (
	"context"
	"time"

	"vahan/internal/types"
)

type PassengerVerification struct {
	ID          types.ID
	BookingID   types.ID
	PassengerID types.ID
	PickupOTP   string
	DropOTP     string

	PickupVerified   bool
	PickupVerifiedAt *time.Time
	DropVerified     bool
	DropVerifiedAt   *time.Time
}

type VerificationStore interface {
	Create(ctx context.Context, v *PassengerVerification) error
	ListByBooking(ctx context.Context, bookingID types.ID) ([]*PassengerVerification, error)
	GetByBookingAndPassenger(ctx context.Context, bookingID, passengerID types.ID) (*PassengerVerification, error)
	// Update persists the verified flags; verification never regresses.
	Update(ctx context.Context, v *PassengerVerification) error
}

func allPickupVerified(rows []*PassengerVerification) bool {
	if len(rows) == 0 {
		return false
	}
	for _, r := range rows {
		if !r.PickupVerified {
			return false
		}
	}
	return true
}

func allDropVerified(rows []*PassengerVerification) bool {
	if len(rows) == 0 {
		return false
	}
	for _, r := range rows {
		if !r.DropVerified {
			return false
		}
	}
	return true
}
