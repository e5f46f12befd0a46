// README: Dispatch filter: which drivers get offered a new booking.
package booking

import (
	"context"
	"log/slog"

	"vahan/internal/geo"
	"vahan/internal/modules/location"
	"vahan/internal/modules/vehicle"
	"vahan/internal/notify"
	"vahan/internal/types"
)

const (
	// Heading heuristic: a driver close to pickup but pointed away is
	// probably finishing another drop and not worth pinging.
	dispatchNearKm         = 0.5
	dispatchHeadingFloorKm = 0.3
	dispatchMaxHeadingDiff = 150.0
)

type LocationSource interface {
	Get(ctx context.Context, driverID types.ID) (location.DriverLocation, bool, error)
}

type Dispatcher struct {
	vehicles  vehicle.Store
	bookings  Store
	locations LocationSource
}

func NewDispatcher(vehicles vehicle.Store, bookings Store, locations LocationSource) *Dispatcher {
	return &Dispatcher{vehicles: vehicles, bookings: bookings, locations: locations}
}

// Offers computes notification events for every eligible driver. A driver
// is eligible when an available vehicle of the booking's class with enough
// seats resolves to them, they have no active ride, and the heading
// heuristic does not flag them as driving away. Missing location data
// never excludes a driver.
func (d *Dispatcher) Offers(ctx context.Context, b *Booking) ([]notify.Event, error) {
	vehicles, err := d.vehicles.ListAvailableByClass(ctx, b.Class)
	if err != nil {
		return nil, err
	}

	seen := make(map[types.ID]bool)
	var events []notify.Event
	for _, v := range vehicles {
		if v.Capacity < b.Passengers {
			continue
		}
		driverID := v.DriverID()
		if seen[driverID] {
			continue
		}
		seen[driverID] = true

		busy, err := d.bookings.HasActiveByDriver(ctx, driverID)
		if err != nil {
			return nil, err
		}
		if busy {
			continue
		}
		if d.drivingAway(ctx, driverID, b.Pickup) {
			continue
		}

		events = append(events, notify.Event{
			Topic: notify.DriverBookingsTopic(driverID),
			Msg:   offerMessage(b),
		})
	}
	return events, nil
}

func (d *Dispatcher) drivingAway(ctx context.Context, driverID types.ID, pickup types.Point) bool {
	if d.locations == nil {
		return false
	}
	loc, ok, err := d.locations.Get(ctx, driverID)
	if err != nil {
		slog.Warn("driver location lookup failed", "driver_id", driverID, "err", err)
		return false
	}
	if !ok || loc.Heading == nil {
		return false
	}

	distKm := geo.HaversineKm(loc.Position.Lat, loc.Position.Lng, pickup.Lat, pickup.Lng)
	if distKm >= dispatchNearKm || distKm <= dispatchHeadingFloorKm {
		return false
	}
	bearing := geo.BearingDeg(loc.Position.Lat, loc.Position.Lng, pickup.Lat, pickup.Lng)
	return geo.HeadingDiffDeg(*loc.Heading, bearing) > dispatchMaxHeadingDiff
}

func offerMessage(b *Booking) notify.Message {
	return notify.Message{
		Type:      "NEW_BOOKING",
		BookingID: b.ID,
		Message:   "New booking available",
		Data: map[string]any{
			"class":       string(b.Class),
			"pickup":      b.PickupLabel,
			"drop":        b.DropLabel,
			"passengers":  b.Passengers,
			"minEstimate": b.MinEstimate.Rupees(),
			"maxEstimate": b.MaxEstimate.Rupees(),
		},
	}
}
