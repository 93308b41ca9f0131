package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ridesync/internal/domain/geo"
	"ridesync/internal/ports"
)

// geoSetKey indexes driver positions for proximity queries; the per-driver
// hash additionally carries the observation timestamp the GEO set cannot hold.
const geoSetKey = "drivers:geo"

// DriverLocationRepo keeps each driver's last known position in Redis.
type DriverLocationRepo struct {
	client *redis.Client
}

// NewDriverLocationRepo constructs a DriverLocationRepo on the given client.
func NewDriverLocationRepo(client *redis.Client) ports.DriverLocationRepository {
	return &DriverLocationRepo{client: client}
}

func locationKey(driverID string) string {
	return "driver:location:" + driverID
}

// Save records the driver's position in both the GEO index and the
// last-known hash.
func (repo *DriverLocationRepo) Save(ctx context.Context, driverID string, position geo.Position) error {
	if driverID = strings.TrimSpace(driverID); driverID == "" {
		return errors.New("driver id is required")
	}
	if err := position.Validate(); err != nil {
		return err
	}

	pipe := repo.client.TxPipeline()
	pipe.GeoAdd(ctx, geoSetKey, &redis.GeoLocation{
		Name:      driverID,
		Latitude:  position.Latitude,
		Longitude: position.Longitude,
	})
	pipe.HSet(ctx, locationKey(driverID), map[string]any{
		"lat":        strconv.FormatFloat(position.Latitude, 'f', -1, 64),
		"lng":        strconv.FormatFloat(position.Longitude, 'f', -1, 64),
		"updated_at": position.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save driver location: %w", err)
	}
	return nil
}

// Last returns the driver's last known position, or (nil, nil) when the
// driver has never reported one.
func (repo *DriverLocationRepo) Last(ctx context.Context, driverID string) (*geo.Position, error) {
	fields, err := repo.client.HGetAll(ctx, locationKey(driverID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load driver location: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(fields["lat"], 64)
	if err != nil {
		return nil, fmt.Errorf("decode driver latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(fields["lng"], 64)
	if err != nil {
		return nil, fmt.Errorf("decode driver longitude: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("decode driver location timestamp: %w", err)
	}

	return &geo.Position{
		Coordinate: geo.Coordinate{Latitude: lat, Longitude: lng},
		UpdatedAt:  updatedAt,
	}, nil
}
