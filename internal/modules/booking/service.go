// README: Booking orchestrator: state transitions, verification, settlement.
package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"vahan/internal/geo"
	"vahan/internal/modules/pricing"
	"vahan/internal/modules/vehicle"
	"vahan/internal/notify"
	"vahan/internal/types"
)

// Drivers must hold 15% of the max estimate in their wallet to accept.
// The hold rate is fixed; it does not follow the configured commission
// percentage.
const acceptHoldRate = 0.15

var (
	ErrNotFound             = errors.New("booking not found")
	ErrVerificationNotFound = errors.New("verification not found")
	ErrInvalidState         = errors.New("invalid state transition")
	ErrConflict             = errors.New("booking state conflict")
	ErrBadRequest           = errors.New("bad request")
	ErrVehicleUnavailable   = errors.New("no suitable vehicle available")
	ErrOverlap              = errors.New("vehicle already reserved for that window")
	ErrDriverBusy           = errors.New("driver already has an active ride")
	ErrOTPMismatch          = errors.New("otp mismatch")
	ErrInsufficientBalance  = errors.New("insufficient wallet balance")
)

// WalletLedger is the settlement contract: acceptance checks balance,
// completion debits commission.
type WalletLedger interface {
	HasBalance(ctx context.Context, driverID types.ID, amount types.Money) (bool, error)
	Debit(ctx context.Context, driverID types.ID, amount types.Money, bookingID types.ID, note string) error
	Balance(ctx context.Context, driverID types.ID) (types.Money, error)
}

// RoadDistance is an optional live road-distance source (Google Maps).
// Failures fall back to the haversine road estimate and never block a
// transition.
type RoadDistance interface {
	RoadKm(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (float64, error)
}

type Service struct {
	store      Store
	verifs     VerificationStore
	vehicles   vehicle.Store
	pricing    *pricing.Service
	wallets    WalletLedger
	dispatcher *Dispatcher
	publisher  notify.Publisher
	roads      RoadDistance
	locks      *lockTable
	now        func() time.Time
}

func NewService(store Store, verifs VerificationStore, vehicles vehicle.Store, pricing *pricing.Service, wallets WalletLedger, dispatcher *Dispatcher, publisher notify.Publisher, roads RoadDistance) *Service {
	return &Service{
		store:      store,
		verifs:     verifs,
		vehicles:   vehicles,
		pricing:    pricing,
		wallets:    wallets,
		dispatcher: dispatcher,
		publisher:  publisher,
		roads:      roads,
		locks:      newLockTable(),
		now:        time.Now,
	}
}

type AcceptCommand struct {
	BookingID types.ID
	DriverID  types.ID
}

type StartCommand struct {
	BookingID types.ID
	RiderID   types.ID
	OTP       string
}

type VerifyCommand struct {
	BookingID   types.ID
	PassengerID types.ID
	OTP         string
}

// Accept assigns the booking to the driver's matching vehicle and fixes
// the driver-facing price. Exactly one concurrent accept can win: the
// transition runs under the booking lock and commits through the
// version-guarded save.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*Booking, error) {
	b, unlock, err := s.lockBooking(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	unlockDriver := s.locks.Lock("driver/" + string(cmd.DriverID))
	defer unlockDriver()

	if b.Status == StatusAccepted || b.Status == StatusRideStarted {
		return nil, ErrConflict
	}
	if !CanTransition(b.Status, StatusAccepted) {
		return nil, ErrInvalidState
	}

	busy, err := s.store.HasActiveByDriver(ctx, cmd.DriverID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, ErrDriverBusy
	}

	v, err := s.availableVehicleFor(ctx, cmd.DriverID, b)
	if err != nil {
		return nil, err
	}

	if !b.Wedding {
		required := b.MaxEstimate.MulFloat(acceptHoldRate)
		ok, err := s.wallets.HasBalance(ctx, cmd.DriverID, required)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInsufficientBalance
		}
	}

	actual := s.pricing.ActualPrice(ctx, b.EstimatedKm, b.Passengers, v.PricePerKm, b.TripType, b.Class, b.Shared)
	commission := s.pricing.PlatformCharge(ctx, actual)

	// The rider pays the fare plus the platform markup; the driver keeps
	// the full fare and the commission is recovered from the wallet.
	vehicleID, driverID := v.ID, cmd.DriverID
	b.VehicleID = &vehicleID
	b.DriverID = &driverID
	b.ActualPrice = actual
	b.PlatformCharge = commission
	b.RemainingAmount = actual
	b.TotalAmount = actual.Add(commission)
	b.Status = StatusAccepted

	ok, err := s.store.Save(ctx, b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	if err := s.ensureVerification(ctx, b); err != nil {
		slog.Warn("passenger verification create failed", "booking_id", b.ID, "err", err)
	}

	events := []notify.Event{
		riderEvent(b, "BOOKING_ACCEPTED", "Your booking has been accepted"),
		driverEvent(driverID, b, "BOOKING_ASSIGNED", "Booking assigned to you"),
		{Topic: notify.BroadcastTopic, Msg: notify.Message{
			Type: "BOOKING_TAKEN", BookingID: b.ID,
			Message: "Booking no longer available", ExcludeDriverID: driverID,
		}},
	}
	if b.ParentID != nil {
		if ev, err := s.promoteParentIfReady(ctx, *b.ParentID); err != nil {
			slog.Warn("fleet parent promote failed", "parent_id", *b.ParentID, "err", err)
		} else {
			events = append(events, ev...)
		}
		events = append(events, notify.Event{
			Topic: notify.BookingTopic(*b.ParentID),
			Msg: notify.Message{Type: "FLEET_BOOKING_ACCEPTED", BookingID: b.ID,
				Message: "A fleet vehicle has been accepted"},
		})
	}
	s.publish(ctx, events)
	return b, nil
}

// CancelAccepted is a driver backing out after acceptance: the booking
// reverts to PENDING and is re-offered to everyone but that driver.
func (s *Service) CancelAccepted(ctx context.Context, cmd AcceptCommand) error {
	b, unlock, err := s.lockBooking(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	defer unlock()

	if b.Status != StatusAccepted {
		return ErrInvalidState
	}
	if b.DriverID == nil || *b.DriverID != cmd.DriverID {
		return ErrBadRequest
	}

	excluded := cmd.DriverID
	b.VehicleID = nil
	b.DriverID = nil
	b.ActualPrice = 0
	b.RemainingAmount = 0
	b.TotalAmount = 0
	if b.PaymentRequired {
		b.PlatformCharge = s.pricing.PlatformCharge(ctx, b.MaxEstimate)
	} else {
		b.PlatformCharge = 0
	}
	b.Status = StatusPending

	ok, err := s.store.Save(ctx, b)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	events := []notify.Event{
		riderEvent(b, "DRIVER_CANCELLED", "Driver cancelled, finding you a new one"),
		{Topic: notify.BroadcastTopic, Msg: notify.Message{
			Type: "BOOKING_REOPENED", BookingID: b.ID,
			Message: "Booking available again", ExcludeDriverID: excluded,
		}},
	}
	if b.ParentID != nil {
		if ev, err := s.demoteParent(ctx, *b.ParentID); err != nil {
			slog.Warn("fleet parent demote failed", "parent_id", *b.ParentID, "err", err)
		} else {
			events = append(events, ev...)
		}
	}

	offers, err := s.dispatcher.Offers(ctx, b)
	if err != nil {
		slog.Warn("re-dispatch failed", "booking_id", b.ID, "err", err)
	}
	skip := notify.DriverBookingsTopic(excluded)
	for _, ev := range offers {
		if ev.Topic != skip {
			events = append(events, ev)
		}
	}
	s.publish(ctx, events)
	return nil
}

// Start moves an accepted booking into the ride. Bookings with passenger
// verification rows go through the per-passenger pickup flow; the legacy
// single-passenger path compares the ride OTP directly.
func (s *Service) Start(ctx context.Context, cmd StartCommand) error {
	b, unlock, err := s.lockBooking(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	defer unlock()

	if b.Status != StatusAccepted {
		return ErrInvalidState
	}

	rows, err := s.verifs.ListByBooking(ctx, b.ID)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		events, err := s.verifyPickupLocked(ctx, b, cmd.RiderID, cmd.OTP)
		if err != nil {
			return err
		}
		s.publish(ctx, events)
		return nil
	}

	if cmd.OTP != b.RideOTP {
		return ErrOTPMismatch
	}
	b.Status = StatusRideStarted
	ok, err := s.store.Save(ctx, b)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.publish(ctx, []notify.Event{
		riderEvent(b, "RIDE_STARTED", "Your ride has started"),
		driverNotice(b, "RIDE_STARTED", "Ride started"),
	})
	return nil
}

func (s *Service) VerifyPickup(ctx context.Context, cmd VerifyCommand) error {
	b, unlock, err := s.lockBooking(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	defer unlock()

	events, err := s.verifyPickupLocked(ctx, b, cmd.PassengerID, cmd.OTP)
	if err != nil {
		return err
	}
	s.publish(ctx, events)
	return nil
}

func (s *Service) VerifyDrop(ctx context.Context, cmd VerifyCommand) error {
	b, unlock, err := s.lockBooking(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	defer unlock()

	events, err := s.verifyDropLocked(ctx, b, cmd.PassengerID, cmd.OTP)
	if err != nil {
		return err
	}
	s.publish(ctx, events)
	return nil
}

func (s *Service) verifyPickupLocked(ctx context.Context, b *Booking, passengerID types.ID, otp string) ([]notify.Event, error) {
	v, err := s.verifs.GetByBookingAndPassenger(ctx, b.ID, passengerID)
	if err != nil {
		return nil, err
	}
	if otp != v.PickupOTP {
		return nil, ErrOTPMismatch
	}
	if !v.PickupVerified {
		now := s.now()
		v.PickupVerified = true
		v.PickupVerifiedAt = &now
		if err := s.verifs.Update(ctx, v); err != nil {
			return nil, err
		}
	}

	related, err := s.relatedBookings(ctx, b)
	if err != nil {
		return nil, err
	}
	done, err := s.allRelatedVerified(ctx, related, pickupSide)
	if err != nil || !done {
		return nil, err
	}

	var events []notify.Event
	for _, rb := range related {
		if rb.Status != StatusAccepted {
			continue
		}
		rb.Status = StatusRideStarted
		ok, err := s.store.Save(ctx, rb)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrConflict
		}
		events = append(events, riderEvent(rb, "RIDE_STARTED", "Your ride has started"))
	}
	if len(events) > 0 {
		events = append(events, driverNotice(b, "RIDE_STARTED", "All passengers picked up, ride started"))
	}
	return events, nil
}

func (s *Service) verifyDropLocked(ctx context.Context, b *Booking, passengerID types.ID, otp string) ([]notify.Event, error) {
	v, err := s.verifs.GetByBookingAndPassenger(ctx, b.ID, passengerID)
	if err != nil {
		return nil, err
	}
	if otp != v.DropOTP {
		return nil, ErrOTPMismatch
	}
	if !v.DropVerified {
		now := s.now()
		v.DropVerified = true
		v.DropVerifiedAt = &now
		if err := s.verifs.Update(ctx, v); err != nil {
			return nil, err
		}
	}

	related, err := s.relatedBookings(ctx, b)
	if err != nil {
		return nil, err
	}
	done, err := s.allRelatedVerified(ctx, related, dropSide)
	if err != nil || !done {
		return nil, err
	}

	var events []notify.Event
	for _, rb := range related {
		if rb.Status != StatusRideStarted {
			continue
		}
		ev, err := s.completeLocked(ctx, rb)
		if err != nil {
			return nil, err
		}
		events = append(events, ev...)
	}
	return events, nil
}

// Complete settles a ride: final distance and price, commission debit,
// terminal state.
func (s *Service) Complete(ctx context.Context, bookingID types.ID) (*Booking, error) {
	b, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	events, err := s.completeLocked(ctx, b)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events)
	return b, nil
}

func (s *Service) completeLocked(ctx context.Context, b *Booking) ([]notify.Event, error) {
	if b.Status != StatusRideStarted {
		return nil, ErrInvalidState
	}

	// Recompute from stored coordinates so a stale creation-time estimate
	// cannot leak into settlement.
	b.EstimatedKm = s.roadKm(ctx, b.Pickup, b.Drop)

	var perKm, perDay types.Money
	if b.VehicleID != nil {
		v, err := s.vehicles.Get(ctx, *b.VehicleID)
		if err != nil {
			return nil, err
		}
		perKm, perDay = v.PricePerKm, v.PricePerDay
	}

	charge := s.pricing.ActualPrice(ctx, b.EstimatedKm, b.Passengers, perKm, b.TripType, b.Class, b.Shared)
	if charge.IsZero() {
		charge = perDay
	}
	commission := s.pricing.PlatformCharge(ctx, charge)

	b.ActualPrice = charge
	b.PlatformCharge = commission
	b.RemainingAmount = charge
	b.TotalAmount = charge.Add(commission)
	b.Status = StatusCompleted

	ok, err := s.store.Save(ctx, b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	if b.DriverID != nil {
		if err := s.wallets.Debit(ctx, *b.DriverID, commission, b.ID, "platform commission"); err != nil {
			slog.Warn("commission debit failed", "booking_id", b.ID, "driver_id", *b.DriverID, "err", err)
		}
	}

	return []notify.Event{
		riderEvent(b, "RIDE_COMPLETED", "Your ride is complete"),
		driverNotice(b, "RIDE_COMPLETED", "Ride completed"),
	}, nil
}

// Cancel is the rider-side cancellation. Returns the refund due when
// payment had completed (70% of the platform charge); executing the
// refund is the gateway's job.
func (s *Service) Cancel(ctx context.Context, bookingID types.ID) (types.Money, error) {
	b, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	switch b.Status {
	case StatusPending, StatusPendingPayment, StatusAccepted:
	default:
		return 0, ErrInvalidState
	}

	b.Status = StatusCancelled
	ok, err := s.store.Save(ctx, b)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrConflict
	}

	events := []notify.Event{riderEvent(b, "BOOKING_CANCELLED", "Booking cancelled")}
	if b.DriverID != nil {
		events = append(events, driverNotice(b, "BOOKING_CANCELLED", "Booking was cancelled"))
	}

	if b.Wedding && b.ParentID == nil {
		subs, err := s.store.ListByParent(ctx, b.ID)
		if err != nil {
			return 0, err
		}
		for _, sub := range subs {
			if sub.Terminal() {
				continue
			}
			sub.Status = StatusCancelled
			if _, err := s.store.Save(ctx, sub); err != nil {
				return 0, err
			}
			events = append(events, riderEvent(sub, "BOOKING_CANCELLED", "Booking cancelled"))
			if sub.DriverID != nil {
				events = append(events, driverNotice(sub, "BOOKING_CANCELLED", "Booking was cancelled"))
			}
		}
	}

	var refund types.Money
	if b.PaymentCompleted {
		refund = b.PlatformCharge.MulFloat(0.70)
	}
	s.publish(ctx, events)
	return refund, nil
}

// Reject is a driver declining an offer: an unconditional move to
// CANCELLED regardless of current state.
func (s *Service) Reject(ctx context.Context, bookingID types.ID) error {
	b, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	defer unlock()

	b.Status = StatusCancelled
	ok, err := s.store.Save(ctx, b)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.publish(ctx, []notify.Event{riderEvent(b, "BOOKING_REJECTED", "No driver available for your booking")})
	return nil
}

// MarkPaid is the payment module's success signal: the booking (and any
// fleet members) leaves PENDING_PAYMENT and dispatch finally runs.
func (s *Service) MarkPaid(ctx context.Context, bookingID types.ID) error {
	b, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	defer unlock()

	if b.Status != StatusPendingPayment {
		if b.PaymentCompleted {
			return nil
		}
		return ErrInvalidState
	}

	b.PaymentCompleted = true
	b.Status = StatusPending
	ok, err := s.store.Save(ctx, b)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	if b.Wedding && b.ParentID == nil {
		subs, err := s.store.ListByParent(ctx, b.ID)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if sub.Status != StatusPendingPayment {
				continue
			}
			sub.PaymentCompleted = true
			sub.Status = StatusPending
			if _, err := s.store.Save(ctx, sub); err != nil {
				return err
			}
		}
	}
	return s.dispatchBooking(ctx, b)
}

// dispatchBooking fans a booking out to eligible drivers. A fleet parent
// dispatches each member instead of itself.
func (s *Service) dispatchBooking(ctx context.Context, b *Booking) error {
	if b.Wedding && b.ParentID == nil {
		subs, err := s.store.ListByParent(ctx, b.ID)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if err := s.dispatchBooking(ctx, sub); err != nil {
				return err
			}
		}
		return nil
	}
	events, err := s.dispatcher.Offers(ctx, b)
	if err != nil {
		return err
	}
	s.publish(ctx, events)
	return nil
}

func (s *Service) promoteParentIfReady(ctx context.Context, parentID types.ID) ([]notify.Event, error) {
	parent, err := s.store.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.Status != StatusPending {
		return nil, nil
	}
	subs, err := s.store.ListByParent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if sub.Status != StatusAccepted && sub.Status != StatusCompleted {
			return nil, nil
		}
	}
	parent.Status = StatusAccepted
	if _, err := s.store.Save(ctx, parent); err != nil {
		return nil, err
	}
	return []notify.Event{riderEvent(parent, "FLEET_READY", "All fleet vehicles are booked")}, nil
}

func (s *Service) demoteParent(ctx context.Context, parentID types.ID) ([]notify.Event, error) {
	parent, err := s.store.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.Status != StatusAccepted {
		return nil, nil
	}
	parent.Status = StatusPending
	if _, err := s.store.Save(ctx, parent); err != nil {
		return nil, err
	}
	return []notify.Event{riderEvent(parent, "FLEET_INCOMPLETE", "A fleet vehicle dropped out")}, nil
}

type verificationSide int

const (
	pickupSide verificationSide = iota
	dropSide
)

// relatedBookings resolves the set whose verifications gate a collective
// start or finish: siblings for a fleet member, children plus self for a
// parented share, otherwise just the booking.
func (s *Service) relatedBookings(ctx context.Context, b *Booking) ([]*Booking, error) {
	if b.ParentID != nil {
		return s.store.ListByParent(ctx, *b.ParentID)
	}
	children, err := s.store.ListByParent(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if len(children) > 0 {
		return append(children, b), nil
	}
	return []*Booking{b}, nil
}

func (s *Service) allRelatedVerified(ctx context.Context, related []*Booking, side verificationSide) (bool, error) {
	var all []*PassengerVerification
	for _, rb := range related {
		rows, err := s.verifs.ListByBooking(ctx, rb.ID)
		if err != nil {
			return false, err
		}
		all = append(all, rows...)
	}
	if side == pickupSide {
		return allPickupVerified(all), nil
	}
	return allDropVerified(all), nil
}

func (s *Service) availableVehicleFor(ctx context.Context, driverID types.ID, b *Booking) (*vehicle.Vehicle, error) {
	owned, err := s.vehicles.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	for _, v := range owned {
		if v.Available && v.Class == b.Class && v.Capacity >= b.Passengers {
			return v, nil
		}
	}
	return nil, ErrVehicleUnavailable
}

func (s *Service) ensureVerification(ctx context.Context, b *Booking) error {
	_, err := s.verifs.GetByBookingAndPassenger(ctx, b.ID, b.RiderID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrVerificationNotFound) {
		return err
	}
	// The ride OTP doubles as both pickup and drop OTP for the primary
	// rider; extra passengers on a shared ride get their own rows.
	return s.verifs.Create(ctx, &PassengerVerification{
		ID:          newID(),
		BookingID:   b.ID,
		PassengerID: b.RiderID,
		PickupOTP:   b.RideOTP,
		DropOTP:     b.RideOTP,
	})
}

// lockBooking serializes transitions on the booking's root scope: the
// parent id for a fleet member, the booking's own id otherwise.
func (s *Service) lockBooking(ctx context.Context, id types.ID) (*Booking, func(), error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	key := string(b.ID)
	if b.ParentID != nil {
		key = string(*b.ParentID)
	}
	unlock := s.locks.Lock(key)
	b, err = s.store.Get(ctx, id)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return b, unlock, nil
}

func (s *Service) roadKm(ctx context.Context, from, to types.Point) float64 {
	if s.roads != nil {
		if km, err := s.roads.RoadKm(ctx, from.Lat, from.Lng, to.Lat, to.Lng); err == nil && km > 0 {
			return km
		}
	}
	return geo.RoadKm(from.Lat, from.Lng, to.Lat, to.Lng)
}

func (s *Service) publish(ctx context.Context, events []notify.Event) {
	if s.publisher == nil {
		return
	}
	for _, e := range events {
		if err := s.publisher.Publish(ctx, e.Topic, e.Msg); err != nil {
			slog.Warn("notification publish failed", "topic", e.Topic, "err", err)
		}
	}
}

func riderEvent(b *Booking, typ, msg string) notify.Event {
	return notify.Event{
		Topic: notify.BookingTopic(b.ID),
		Msg: notify.Message{
			Type: typ, BookingID: b.ID, Message: msg,
			Data: map[string]any{
				"status":      string(b.Status),
				"actualPrice": b.ActualPrice.Rupees(),
				"totalAmount": b.TotalAmount.Rupees(),
			},
		},
	}
}

func driverEvent(driverID types.ID, b *Booking, typ, msg string) notify.Event {
	return notify.Event{
		Topic: notify.DriverUpdatesTopic(driverID),
		Msg:   notify.Message{Type: typ, BookingID: b.ID, Message: msg},
	}
}

func driverNotice(b *Booking, typ, msg string) notify.Event {
	var driverID types.ID
	if b.DriverID != nil {
		driverID = *b.DriverID
	}
	return driverEvent(driverID, b, typ, msg)
}

func newID() types.ID {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return types.ID(hex.EncodeToString(buf[:]))
}

func newOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "0000"
	}
	return fmt.Sprintf("%04d", n.Int64())
}
