// README: Vehicle class and trip type enums shared across modules.
package types

type VehicleClass string

const (
	ClassBike   VehicleClass = "BIKE"
	ClassAuto   VehicleClass = "AUTO"
	ClassSedan  VehicleClass = "SEDAN"
	ClassSUV    VehicleClass = "SUV"
	ClassSafari VehicleClass = "SAFARI"
	// ClassEV is the shared-mobility class; its rates depend on whether
	// the ride is a shared ("partner") or reserved booking.
	ClassEV VehicleClass = "EV"
)

type TripType string

const (
	TripOneWay    TripType = "ONE_WAY"
	TripRoundTrip TripType = "ROUND_TRIP"
)
