package cache

import (
	"context"
	"time"
)

// Store abstracts the key/value backend holding cache entries.
// Implementations own the underlying connection and must be safe for
// concurrent use. Not-found deletes succeed; an unreachable backend is
// reported as a connection error, never a panic.
type Store interface {
	// Get retrieves the entry bytes for key. found=false with a nil error
	// means the key does not exist.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a single key. Deleting an absent key is a success.
	Delete(ctx context.Context, key string) error

	// DeleteByPattern removes every key matching the glob pattern and
	// returns the number of keys deleted.
	DeleteByPattern(ctx context.Context, pattern string) (int, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// Operation names a store operation kind for metrics purposes.
type Operation string

const (
	OpHit           Operation = "hit"
	OpMiss          Operation = "miss"
	OpSet           Operation = "set"
	OpDelete        Operation = "delete"
	OpDeletePattern Operation = "delete_pattern"
	OpPing          Operation = "ping"
)

// OperationRecorder receives one sample per store operation, including
// failed ones. Implementations must be safe for concurrent use; they are
// invoked synchronously on every caller's goroutine.
type OperationRecorder interface {
	RecordOperation(op Operation, class Class, latency time.Duration, success bool)
}

// NopRecorder discards all samples.
type NopRecorder struct{}

// RecordOperation implements OperationRecorder.
func (NopRecorder) RecordOperation(Operation, Class, time.Duration, bool) {}
