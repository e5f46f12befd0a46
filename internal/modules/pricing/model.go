// README: Per-class rate table and config key definitions.
package pricing

import "vahan/internal/types"

// Config keys understood by the pricing engine. Values are decimals in
// the pricing_configs table; the defaults here apply whenever a key is
// missing or the table has not been seeded yet.
const (
	keyPlatformChargePct   = "PLATFORM_CHARGE_PERCENTAGE"
	keyPriceVariation      = "PRICE_VARIATION"
	keyRentalThresholdHrs  = "RENTAL_DURATION_THRESHOLD_HOURS"
	keyRentalVehicleCost   = "RENTAL_VEHICLE_COST"
	keyRentalDriverCost    = "RENTAL_DRIVER_COST"
	keyGlobalMinimumFare   = "MINIMUM_FARE"
	keyRatePerKmEVPartner  = "RATE_PER_KM_EV_PARTNER"
	keyMinFareEVPartner    = "MINIMUM_FARE_EV_PARTNER"
	keyRatePerKmEVReserve  = "RATE_PER_KM_EV_RESERVE"
	keyMinFareEVReserve    = "MINIMUM_FARE_EV_RESERVE"
)

const (
	defaultPlatformChargePct  = 0.15
	defaultPriceVariation     = 0.20
	defaultRentalThresholdHrs = 5.0
	defaultRentalVehicleCost  = 1000.0
	defaultRentalDriverCost   = 600.0
	defaultGlobalMinimumFare  = 50.0
	defaultRatePerKmEVPartner = 3.0
	defaultMinFareEVPartner   = 10.0
)

// classRate binds a vehicle class to its config keys and fallback values.
type classRate struct {
	RateKey    string
	RateDef    float64
	MinFareKey string
	MinFareDef float64
}

// classRates is consulted uniformly by Fare and FareWithSharing; unknown
// classes fall back to the sedan entry. EV reserve pricing lives here too
// (the partner rate is selected separately for shared rides).
var classRates = map[types.VehicleClass]classRate{
	types.ClassBike:   {"RATE_PER_KM_BIKE", 6.0, "MINIMUM_FARE_BIKE", 20.0},
	types.ClassAuto:   {"RATE_PER_KM_AUTO", 8.0, "MINIMUM_FARE_AUTO", 30.0},
	types.ClassSedan:  {"RATE_PER_KM_SEDAN", 12.0, "MINIMUM_FARE_SEDAN", 50.0},
	types.ClassSUV:    {"RATE_PER_KM_SUV", 15.0, "MINIMUM_FARE_SUV", 60.0},
	types.ClassSafari: {"RATE_PER_KM_SAFARI", 18.0, "MINIMUM_FARE_SAFARI", 80.0},
	types.ClassEV:     {keyRatePerKmEVReserve, 15.0, keyMinFareEVReserve, 100.0},
}

func rateFor(class types.VehicleClass) classRate {
	if r, ok := classRates[class]; ok {
		return r
	}
	return classRates[types.ClassSedan]
}
