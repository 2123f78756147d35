package repository

import (
	"context"
	"time"
)

type CacheRepository interface {
	Get(ctx context.Context, key string) (string, bool)
	// Set stores value under key; a ttl of 0 keeps it until evicted.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
