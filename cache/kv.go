package cache

import (
	"context"
	"errors"
	"time"
)

// Store is a key/value cache with per-entry TTL semantics.
// Implementations must be safe for concurrent use by multiple goroutines.
type Store interface {
	// Get returns the value stored under key, ErrNotFound when there is
	// none and ErrExpired when the entry outlived its TTL.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous entry.
	// A ttl <= 0 falls back to the store's default TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

var (
	ErrNotFound = errors.New("cache: not found")
	ErrExpired  = errors.New("cache: expired")
)

// IsMiss reports whether err only means the key is absent
func IsMiss(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired)
}
