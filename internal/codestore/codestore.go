// Package codestore defines the transient key-value store backing authorization
// codes and its Redis and in-memory implementations.
package codestore

import (
	"context"
	"errors"
	"time"
)

// ErrMissing is returned when a key is absent, expired or already consumed.
var ErrMissing = errors.New("codestore: missing")

// Store is a key-value store with per-key expiry.
type Store interface {
	// Set stores value under key for ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// GetAndDelete atomically reads and removes key. Among concurrent callers
	// for the same key at most one observes the value; the rest get ErrMissing.
	GetAndDelete(ctx context.Context, key string) (string, error)
}
