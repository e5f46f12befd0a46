// README: Location service handles high-frequency driver position updates.
package location

import (
	"context"
	"time"

	"vahan/internal/types"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type Update struct {
	DriverID types.ID
	Position types.Point
	Heading  *float64
}

// Update records a driver position, last write wins. Callers treat it as
// fire-and-forget; a dropped update only degrades the dispatch heuristic.
func (s *Service) Update(ctx context.Context, u Update) error {
	return s.store.Set(ctx, DriverLocation{
		DriverID:  u.DriverID,
		Position:  u.Position,
		Heading:   u.Heading,
		UpdatedAt: time.Now(),
	})
}

func (s *Service) Get(ctx context.Context, driverID types.ID) (DriverLocation, bool, error) {
	return s.store.Get(ctx, driverID)
}
