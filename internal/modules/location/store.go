// README: Driver location store backed by Redis GEO plus a per-driver hash.
package location

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"vahan/internal/types"
)

const (
	driverGeoKey    = "location:drivers"
	driverKeyPrefix = "location:driver:"
)

type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(redis *redis.Client) *RedisStore {
	return &RedisStore{redis: redis}
}

func (s *RedisStore) Set(ctx context.Context, loc DriverLocation) error {
	pipe := s.redis.Pipeline()
	pipe.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      string(loc.DriverID),
		Longitude: loc.Position.Lng,
		Latitude:  loc.Position.Lat,
	})
	fields := map[string]any{
		"lat":        loc.Position.Lat,
		"lng":        loc.Position.Lng,
		"updated_at": loc.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if loc.Heading != nil {
		fields["heading"] = *loc.Heading
	} else {
		pipe.HDel(ctx, driverKey(loc.DriverID), "heading")
	}
	pipe.HSet(ctx, driverKey(loc.DriverID), fields)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Get(ctx context.Context, driverID types.ID) (DriverLocation, bool, error) {
	vals, err := s.redis.HGetAll(ctx, driverKey(driverID)).Result()
	if err != nil {
		return DriverLocation{}, false, err
	}
	if len(vals) == 0 {
		return DriverLocation{}, false, nil
	}

	loc := DriverLocation{DriverID: driverID}
	loc.Position.Lat, _ = strconv.ParseFloat(vals["lat"], 64)
	loc.Position.Lng, _ = strconv.ParseFloat(vals["lng"], 64)
	if h, ok := vals["heading"]; ok {
		if heading, err := strconv.ParseFloat(h, 64); err == nil {
			loc.Heading = &heading
		}
	}
	if t, err := time.Parse(time.RFC3339, vals["updated_at"]); err == nil {
		loc.UpdatedAt = t
	}
	return loc, true, nil
}

func driverKey(driverID types.ID) string {
	return driverKeyPrefix + string(driverID)
}
