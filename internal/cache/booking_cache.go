// Package cache keeps a redis projection of single bookings for the public
// lookup endpoint. The booking store stays authoritative; entries are dropped
// on every status write and expire after a TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cretedrive/rental-booking-backend/internal/config"
	"github.com/cretedrive/rental-booking-backend/internal/models"
)

const keyPrefix = "booking:"

// NewRedisClient builds a client from REDIS_URL or REDIS_ADDR and pings it.
// It returns (nil, nil) when redis is not configured; a bad URL or a failed
// ping is returned so the caller can report why the cache is off.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	case cfg.Addr != "":
		opts = &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	default:
		return nil, nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// BookingCache is a read-through projection of bookings keyed by reference.
// A nil *BookingCache or one built on a nil client is a valid, disabled cache.
type BookingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBookingCache creates a booking cache
func NewBookingCache(client *redis.Client, ttl time.Duration) *BookingCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &BookingCache{client: client, ttl: ttl}
}

func (c *BookingCache) enabled() bool {
	return c != nil && c.client != nil
}

func key(reference string) string {
	return keyPrefix + reference
}

// Get returns the cached booking; a miss returns (nil, nil)
func (c *BookingCache) Get(ctx context.Context, reference string) (*models.Booking, error) {
	if !c.enabled() {
		return nil, nil
	}

	data, err := c.client.Get(ctx, key(reference)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var booking models.Booking
	if err := json.Unmarshal(data, &booking); err != nil {
		// unreadable entry, drop it
		_ = c.client.Del(ctx, key(reference)).Err()
		return nil, nil
	}
	return &booking, nil
}

// Set stores a booking with the cache TTL
func (c *BookingCache) Set(ctx context.Context, booking *models.Booking) error {
	if !c.enabled() || booking == nil {
		return nil
	}

	data, err := json.Marshal(booking)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key(booking.BookingReference), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the entry of reference
func (c *BookingCache) Invalidate(ctx context.Context, reference string) error {
	if !c.enabled() {
		return nil
	}
	if err := c.client.Del(ctx, key(reference)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
