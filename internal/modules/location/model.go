// README: Last-known driver location with optional compass heading.
package location

import (
	"context"
	"time"

	"vahan/internal/types"
)

type DriverLocation struct {
	DriverID  types.ID
	Position  types.Point
	Heading   *float64
	UpdatedAt time.Time
}

// Store is last-write-wins per driver; Get returns ok=false when the
// driver has never reported a position.
type Store interface {
	Set(ctx context.Context, loc DriverLocation) error
	Get(ctx context.Context, driverID types.ID) (DriverLocation, bool, error)
}
