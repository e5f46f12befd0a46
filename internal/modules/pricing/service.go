// README: Pricing service computes fares, estimate bands, and commission.
package pricing

import (
	"context"

	"vahan/internal/types"
)

type Service struct {
	config *Config
}

func NewService(config *Config) *Service {
	return &Service{config: config}
}

// Fare computes the base fare for a trip. Round trips double the
// distance; durations beyond the rental threshold switch to rental
// pricing (fuel + fixed vehicle and driver costs, not bounded by the
// per-km minimum); everything else is max(distance×rate, minimum fare).
func (s *Service) Fare(ctx context.Context, distanceKm float64, passengerCount int, class types.VehicleClass, tripType types.TripType, durationHours int64, stopCount int) types.Money {
	actualDistance := distanceKm
	if tripType == types.TripRoundTrip {
		actualDistance = distanceKm * 2
	}

	rate := rateFor(class)
	perKm := s.config.Get(ctx, rate.RateKey, rate.RateDef)
	minFare := s.config.Get(ctx, rate.MinFareKey, rate.MinFareDef)

	threshold := int64(s.config.Get(ctx, keyRentalThresholdHrs, defaultRentalThresholdHrs))
	if durationHours > threshold {
		fuelCost := actualDistance * perKm
		vehicleCost := s.config.Get(ctx, keyRentalVehicleCost, defaultRentalVehicleCost)
		driverCost := s.config.Get(ctx, keyRentalDriverCost, defaultRentalDriverCost)
		return types.MoneyFromRupees(fuelCost + vehicleCost + driverCost)
	}

	base := actualDistance * perKm
	if base < minFare {
		base = minFare
	}
	return types.MoneyFromRupees(base)
}

// FareWithSharing is Fare for the shared-mobility class: EV rides price
// off the partner rates when shared and the reserve rates otherwise.
// Other classes use their standard table entry.
func (s *Service) FareWithSharing(ctx context.Context, distanceKm float64, passengerCount int, class types.VehicleClass, tripType types.TripType, isShared bool, stopCount int) types.Money {
	actualDistance := distanceKm
	if tripType == types.TripRoundTrip {
		actualDistance = distanceKm * 2
	}

	perKm, minFare := s.sharingRates(ctx, class, isShared)

	base := actualDistance * perKm
	if base < minFare {
		base = minFare
	}
	return types.MoneyFromRupees(base)
}

func (s *Service) sharingRates(ctx context.Context, class types.VehicleClass, isShared bool) (perKm, minFare float64) {
	if class == types.ClassEV && isShared {
		return s.config.Get(ctx, keyRatePerKmEVPartner, defaultRatePerKmEVPartner),
			s.config.Get(ctx, keyMinFareEVPartner, defaultMinFareEVPartner)
	}
	rate := rateFor(class)
	return s.config.Get(ctx, rate.RateKey, rate.RateDef),
		s.config.Get(ctx, rate.MinFareKey, rate.MinFareDef)
}

// EstimateRange applies the generic ± variance band to a base fare.
// Booking creation layers its own asymmetric buffer on top of this
// engine; the two are deliberately separate policies.
func (s *Service) EstimateRange(ctx context.Context, base types.Money) (min, max types.Money) {
	variation := s.config.Get(ctx, keyPriceVariation, defaultPriceVariation)
	return base.MulFloat(1 - variation), base.MulFloat(1 + variation)
}

// PlatformCharge is the platform's commission on an amount.
func (s *Service) PlatformCharge(ctx context.Context, amount types.Money) types.Money {
	pct := s.config.Get(ctx, keyPlatformChargePct, defaultPlatformChargePct)
	return amount.MulFloat(pct)
}

// ActualPrice is the driver-facing price fixed at acceptance and again at
// completion. EV rides always use the sharing rates off raw distance; any
// other class prefers the vehicle's own per-km price (floored at the
// global minimum fare) and falls back to the standard fare table.
func (s *Service) ActualPrice(ctx context.Context, distanceKm float64, passengerCount int, vehiclePricePerKm types.Money, tripType types.TripType, class types.VehicleClass, isShared bool) types.Money {
	actualDistance := distanceKm
	if tripType == types.TripRoundTrip {
		actualDistance = distanceKm * 2
	}

	if class == types.ClassEV {
		perKm, minFare := s.sharingRates(ctx, class, isShared)
		price := actualDistance * perKm
		if price < minFare {
			price = minFare
		}
		return types.MoneyFromRupees(price)
	}

	if vehiclePricePerKm > 0 {
		price := actualDistance * vehiclePricePerKm.Rupees()
		minFare := s.config.Get(ctx, keyGlobalMinimumFare, defaultGlobalMinimumFare)
		if price < minFare {
			price = minFare
		}
		return types.MoneyFromRupees(price)
	}

	// No vehicle override: standard fare on the already-doubled distance.
	return s.Fare(ctx, actualDistance, passengerCount, class, types.TripOneWay, 0, 0)
}
