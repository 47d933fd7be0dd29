package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mileage-service/internal/currency"

	"github.com/redis/go-redis/v9"
)

// StatusCache caches computed currency statuses in Redis. Entries are keyed
// by (username, vehicle type, calendar day) so a day rollover never serves
// yesterday's answer.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	if ttl <= 0 || ttl > 24*time.Hour {
		ttl = 24 * time.Hour
	}
	return &StatusCache{client: client, ttl: ttl}
}

func statusKey(username string, vehicleType currency.VehicleType, day time.Time) string {
	return fmt.Sprintf("currency:%s:%s:%s", username, vehicleType, day.UTC().Format("2006-01-02"))
}

// Get returns the cached status for the given day, or false when absent.
func (c *StatusCache) Get(ctx context.Context, username string, vehicleType currency.VehicleType, day time.Time) (currency.Status, bool, error) {
	var status currency.Status

	val, err := c.client.Get(ctx, statusKey(username, vehicleType, day)).Result()
	if err != nil {
		if err == redis.Nil {
			return status, false, nil
		}
		return status, false, err
	}

	if err := json.Unmarshal([]byte(val), &status); err != nil {
		return status, false, err
	}
	return status, true, nil
}

// Set stores a computed status under the day bucket it was evaluated in.
func (c *StatusCache) Set(ctx context.Context, status currency.Status) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}

	key := statusKey(status.Username, status.VehicleType, status.EvaluatedAt)
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

// InvalidateUser drops today's cached statuses for a user across all vehicle
// types. Called after a new drive is logged.
func (c *StatusCache) InvalidateUser(ctx context.Context, username string, now time.Time) error {
	keys := make([]string, 0, len(currency.VehicleTypes()))
	for _, vt := range currency.VehicleTypes() {
		keys = append(keys, statusKey(username, vt, now))
	}
	return c.client.Del(ctx, keys...).Err()
}
