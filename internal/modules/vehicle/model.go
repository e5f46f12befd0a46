// README: Vehicle read model; CRUD lives outside the booking core.
package vehicle

import (
	"context"
	"errors"

	"vahan/internal/types"
)

var ErrNotFound = errors.New("vehicle not found")

type Vehicle struct {
	ID               types.ID
	OwnerID          types.ID
	AssignedDriverID *types.ID
	Class            types.VehicleClass
	Model            string
	NumberPlate      string
	Capacity         int
	PricePerKm       types.Money
	PricePerHour     types.Money
	PricePerDay      types.Money
	Available        bool
}

// DriverID is who actually drives: the assigned driver when one is set,
// otherwise the owner.
func (v *Vehicle) DriverID() types.ID {
	if v.AssignedDriverID != nil && *v.AssignedDriverID != "" {
		return *v.AssignedDriverID
	}
	return v.OwnerID
}

// Store is the orchestrator's read contract against the vehicle
// subsystem.
type Store interface {
	Get(ctx context.Context, id types.ID) (*Vehicle, error)
	ListAvailableByClass(ctx context.Context, class types.VehicleClass) ([]*Vehicle, error)
	// ListByDriver returns vehicles the driver owns or is assigned to.
	ListByDriver(ctx context.Context, driverID types.ID) ([]*Vehicle, error)
}
