// README: Google Maps road-distance estimates (optional override of the haversine approximation).
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// RouteService handles interactions with the Google Maps Directions API.
type RouteService struct {
	client *maps.Client
}

func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// RoadKm returns the driving distance in kilometres between two
// coordinates. Callers fall back to the haversine approximation when this
// errors; route lookup must never block a booking.
func (s *RouteService) RoadKm(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (float64, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", fromLat, fromLng),
		Destination: fmt.Sprintf("%f,%f", toLat, toLng),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, fmt.Errorf("no route found")
	}

	meters := 0
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
	}
	return float64(meters) / 1000, nil
}
