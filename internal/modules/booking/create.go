// README: Booking creation: estimate bands, prebook gating, fleet expansion.
package booking

import (
	"context"
	"time"

	"vahan/internal/notify"
	"vahan/internal/types"
)

// A start more than this far out makes the booking a prebook: forced
// round trip, payment up front, dispatch deferred.
const prebookLeadTime = time.Hour

const weddingDurationHours = 8

type CreateCommand struct {
	RiderID     types.ID
	VehicleID   *types.ID
	Class       types.VehicleClass
	Pickup      types.Point
	PickupLabel string
	Drop        types.Point
	DropLabel   string
	Stops       []Stop
	TripType    types.TripType
	Passengers  int
	StartAt     *time.Time
	EndAt       *time.Time
	Shared      bool
	Wedding     bool
	Fleet       []FleetRequest
}

type FleetRequest struct {
	Class    types.VehicleClass
	Quantity int
}

// Create prices and persists a booking. Wedding requests return the
// fleet parent; members are reachable through SubBookings. Immediate
// bookings dispatch before this returns.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if cmd.RiderID == "" {
		return nil, ErrBadRequest
	}
	if cmd.Passengers <= 0 {
		cmd.Passengers = 1
	}
	if cmd.Wedding {
		return s.createWedding(ctx, cmd)
	}
	if cmd.Class == "" && cmd.VehicleID == nil {
		return nil, ErrBadRequest
	}

	// A named vehicle is validated here but reserved only at acceptance.
	if cmd.VehicleID != nil {
		v, err := s.vehicles.Get(ctx, *cmd.VehicleID)
		if err != nil {
			return nil, ErrVehicleUnavailable
		}
		if !v.Available {
			return nil, ErrVehicleUnavailable
		}
		if cmd.StartAt != nil && cmd.EndAt != nil {
			overlap, err := s.store.HasOverlap(ctx, v.ID, *cmd.StartAt, *cmd.EndAt)
			if err != nil {
				return nil, err
			}
			if overlap {
				return nil, ErrOverlap
			}
		}
		cmd.Class = v.Class
	}

	now := s.now()
	prebook := cmd.StartAt != nil && cmd.StartAt.After(now.Add(prebookLeadTime))

	tripType := cmd.TripType
	if tripType == "" {
		tripType = types.TripOneWay
	}
	if prebook {
		tripType = types.TripRoundTrip
	}

	var durationHours int64
	if cmd.StartAt != nil && cmd.EndAt != nil {
		durationHours = int64(cmd.EndAt.Sub(*cmd.StartAt).Hours())
	}

	distance := s.roadKm(ctx, cmd.Pickup, cmd.Drop)
	base := s.pricing.Fare(ctx, distance, cmd.Passengers, cmd.Class, tripType, durationHours, len(cmd.Stops))
	if cmd.Class == types.ClassEV {
		base = s.pricing.FareWithSharing(ctx, distance, cmd.Passengers, cmd.Class, tripType, cmd.Shared, len(cmd.Stops))
	}
	minEst, maxEst := s.creationBand(ctx, base, cmd.Class)

	b := &Booking{
		ID:          newID(),
		RiderID:     cmd.RiderID,
		Class:       cmd.Class,
		Pickup:      cmd.Pickup,
		PickupLabel: cmd.PickupLabel,
		Drop:        cmd.Drop,
		DropLabel:   cmd.DropLabel,
		Stops:       cmd.Stops,
		TripType:    tripType,
		Passengers:  cmd.Passengers,
		Quantity:    1,
		StartAt:     cmd.StartAt,
		EndAt:       cmd.EndAt,
		EstimatedKm: distance,
		MinEstimate: minEst,
		MaxEstimate: maxEst,
		Shared:      cmd.Shared,
		RideOTP:     newOTP(),
		Status:      StatusPending,
		CreatedAt:   now,
	}

	if prebook {
		b.PaymentRequired = true
		b.Status = StatusPendingPayment
		b.PlatformCharge = s.pricing.PlatformCharge(ctx, maxEst)
	}

	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}

	if !prebook {
		if err := s.dispatchBooking(ctx, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// createWedding expands the per-class fleet request into one
// PENDING_PAYMENT sub-booking per vehicle plus a parent that aggregates
// their estimates and charges. Nothing dispatches until payment.
func (s *Service) createWedding(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if len(cmd.Fleet) == 0 {
		return nil, ErrBadRequest
	}

	now := s.now()
	distance := s.roadKm(ctx, cmd.Pickup, cmd.Drop)

	parent := &Booking{
		ID:              newID(),
		RiderID:         cmd.RiderID,
		Pickup:          cmd.Pickup,
		PickupLabel:     cmd.PickupLabel,
		Drop:            cmd.Drop,
		DropLabel:       cmd.DropLabel,
		TripType:        types.TripRoundTrip,
		Passengers:      cmd.Passengers,
		StartAt:         cmd.StartAt,
		EndAt:           cmd.EndAt,
		EstimatedKm:     distance,
		PaymentRequired: true,
		Wedding:         true,
		RideOTP:         newOTP(),
		Status:          StatusPendingPayment,
		CreatedAt:       now,
	}

	var subs []*Booking
	for _, req := range cmd.Fleet {
		if req.Quantity <= 0 || req.Class == "" {
			return nil, ErrBadRequest
		}
		parent.Quantity += req.Quantity
		for i := 0; i < req.Quantity; i++ {
			base := s.pricing.Fare(ctx, distance, cmd.Passengers, req.Class, types.TripRoundTrip, weddingDurationHours, 0)
			minEst, maxEst := s.weddingBand(ctx, base)
			parentID := parent.ID
			sub := &Booking{
				ID:              newID(),
				RiderID:         cmd.RiderID,
				Class:           req.Class,
				Pickup:          cmd.Pickup,
				PickupLabel:     cmd.PickupLabel,
				Drop:            cmd.Drop,
				DropLabel:       cmd.DropLabel,
				TripType:        types.TripRoundTrip,
				Passengers:      cmd.Passengers,
				Quantity:        1,
				StartAt:         cmd.StartAt,
				EndAt:           cmd.EndAt,
				EstimatedKm:     distance,
				MinEstimate:     minEst,
				MaxEstimate:     maxEst,
				PlatformCharge:  s.pricing.PlatformCharge(ctx, base),
				PaymentRequired: true,
				Wedding:         true,
				RideOTP:         newOTP(),
				Status:          StatusPendingPayment,
				ParentID:        &parentID,
				CreatedAt:       now,
			}
			parent.MinEstimate = parent.MinEstimate.Add(minEst)
			parent.MaxEstimate = parent.MaxEstimate.Add(maxEst)
			parent.PlatformCharge = parent.PlatformCharge.Add(sub.PlatformCharge)
			subs = append(subs, sub)
		}
	}

	if err := s.store.Create(ctx, parent); err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if err := s.store.Create(ctx, sub); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, []notify.Event{
		riderEvent(parent, "FLEET_CREATED", "Wedding fleet booking created, awaiting payment"),
	})
	return parent, nil
}

// creationBand is the rider-facing quote: an asymmetric overestimate
// buffer on top of the engine's base fare, with a hard floor per class,
// plus the platform charge on each side. This is deliberately not the
// engine's generic EstimateRange.
func (s *Service) creationBand(ctx context.Context, base types.Money, class types.VehicleClass) (types.Money, types.Money) {
	floor := types.MoneyFromRupees(50)
	if class == types.ClassAuto {
		floor = types.MoneyFromRupees(30)
	}

	min := base.MulFloat(0.8)
	if min < floor {
		min = floor
	}
	max := base.MulFloat(1.4)

	min = min.Add(s.pricing.PlatformCharge(ctx, min))
	max = max.Add(s.pricing.PlatformCharge(ctx, max))
	return min, max
}

// weddingBand uses a symmetric ±20% spread; fleet rides are rental-priced
// so the creation floor does not apply.
func (s *Service) weddingBand(ctx context.Context, base types.Money) (types.Money, types.Money) {
	min := base.MulFloat(0.8)
	max := base.MulFloat(1.2)
	min = min.Add(s.pricing.PlatformCharge(ctx, min))
	max = max.Add(s.pricing.PlatformCharge(ctx, max))
	return min, max
}
