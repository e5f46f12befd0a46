// README: Booking aggregate, stops, and status definitions.
package booking

import (
	"time"

	"vahan/internal/types"
)

type Status string

const (
	StatusPending        Status = "PENDING"
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusAccepted       Status = "ACCEPTED"
	StatusRideStarted    Status = "RIDE_STARTED"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

type Stop struct {
	Location string
	Position types.Point
	Seq      int
}

type Booking struct {
	ID          types.ID
	RiderID     types.ID
	VehicleID   *types.ID
	DriverID    *types.ID
	Class       types.VehicleClass // empty for a wedding parent
	Pickup      types.Point
	PickupLabel string
	Drop        types.Point
	DropLabel   string
	Stops       []Stop
	TripType    types.TripType
	Passengers  int
	Quantity    int
	StartAt     *time.Time
	EndAt       *time.Time

	EstimatedKm     float64
	MinEstimate     types.Money
	MaxEstimate     types.Money
	ActualPrice     types.Money
	PlatformCharge  types.Money
	RemainingAmount types.Money
	TotalAmount     types.Money

	PaymentRequired  bool
	PaymentCompleted bool
	Wedding          bool
	Shared           bool

	RideOTP       string
	Status        Status
	StatusVersion int
	ParentID      *types.ID
	CreatedAt     time.Time
}

// AllowedTransitions represents the booking state flow as code. Rejection
// bypasses this table (a driver may decline from any pre-terminal state);
// ACCEPTED back to PENDING is a driver backing out after acceptance.
var AllowedTransitions = map[Status][]Status{
	StatusPendingPayment: {StatusPending, StatusCancelled},
	StatusPending:        {StatusAccepted, StatusCancelled},
	StatusAccepted:       {StatusRideStarted, StatusPending, StatusCancelled},
	StatusRideStarted:    {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (b *Booking) Terminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled
}

// Active means the booking occupies its driver: at most one such booking
// per driver at a time.
func (b *Booking) Active() bool {
	return b.Status == StatusAccepted || b.Status == StatusRideStarted
}
