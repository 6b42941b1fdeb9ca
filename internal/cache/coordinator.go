package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "argus-backend/internal/errors"
)

// ComputeFunc produces the canonical value for a cache entry from the
// source of truth. It may block arbitrarily; the coordinator never holds
// a lock while it runs. The size hint is a serialized-size estimate used
// for logging only.
type ComputeFunc func(ctx context.Context) (value any, sizeHint int, err error)

// GetRequest identifies one cache entry.
type GetRequest struct {
	Class        Class
	Scope        string            // owner scope; empty means global
	SubDimension string            // e.g. time period or widget type
	Filters      map[string]string // canonicalized before hashing

	// TTLOverride replaces the class default TTL when non-zero.
	TTLOverride time.Duration

	// ForceRefresh bypasses the cached entry and always recomputes.
	ForceRefresh bool
}

// Coordinator implements the cache-aside read/compute path. It owns no
// persistent state: it orchestrates the Store, the key codec, and the
// per-class serialization contract. Caching is best effort: a fully
// unreachable backend degrades performance, never availability.
type Coordinator struct {
	store  Store
	keys   *KeyCodec
	codecs *CodecRegistry
	logger *zap.Logger

	mu           sync.RWMutex
	ttlOverrides map[Class]time.Duration
}

// NewCoordinator creates a coordinator over the given store.
func NewCoordinator(store Store, codecs *CodecRegistry, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if codecs == nil {
		codecs = NewCodecRegistry()
	}
	return &Coordinator{
		store:        store,
		keys:         NewKeyCodec(),
		codecs:       codecs,
		logger:       logger,
		ttlOverrides: make(map[Class]time.Duration),
	}
}

// Keys exposes the key codec so collaborators (invalidation, warming)
// derive keys and patterns identically.
func (c *Coordinator) Keys() *KeyCodec {
	return c.keys
}

// KeyFor renders the cache key for a request.
func (c *Coordinator) KeyFor(req GetRequest) string {
	return c.keys.Encode(req.Class, req.Scope, req.SubDimension, req.Filters)
}

// Get returns the cached value for the request, computing and populating
// it on a miss. Compute errors propagate to the caller untouched; store
// and serialization errors degrade to pass-through and are never surfaced.
// Concurrent misses for the same key may each invoke compute independently.
func (c *Coordinator) Get(ctx context.Context, req GetRequest, compute ComputeFunc) (any, error) {
	key := c.KeyFor(req)
	codec := c.codecs.For(req.Class)

	if !req.ForceRefresh {
		if value, ok := c.lookup(ctx, key, req.Class, codec); ok {
			return value, nil
		}
	}

	// Miss, degraded backend, or forced refresh: compute from the source
	// of truth. Failures are not cached.
	value, sizeHint, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	c.populate(ctx, key, req, codec, value, sizeHint)
	return value, nil
}

// lookup performs the read side of the cache-aside path. Any failure is
// treated as a miss.
func (c *Coordinator) lookup(ctx context.Context, key string, class Class, codec Codec) (any, bool) {
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		if apperrors.IsConnection(err) {
			c.logger.Debug("cache backend unavailable, falling through to compute",
				zap.String("key", key),
				zap.Error(err),
			)
		} else {
			c.logger.Warn("cache read failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return nil, false
	}
	if !found {
		return nil, false
	}

	value, err := codec.Decode(data)
	if err != nil {
		// A payload we can no longer decode is treated as a miss; the
		// stale entry will be overwritten by the following Set.
		c.logger.Warn("cache payload undecodable, treating as miss",
			zap.String("key", key),
			zap.String("class", string(class)),
			zap.Error(err),
		)
		return nil, false
	}
	return value, true
}

// populate writes the freshly computed value back to the store. Failures
// are logged and swallowed: the caller already holds the value.
func (c *Coordinator) populate(ctx context.Context, key string, req GetRequest, codec Codec, value any, sizeHint int) {
	data, err := codec.Encode(value)
	if err != nil {
		c.logger.Warn("cache payload unencodable, skipping populate",
			zap.String("key", key),
			zap.String("class", string(req.Class)),
			zap.Error(err),
		)
		return
	}

	ttl := c.ttlFor(req.Class, req.TTLOverride)
	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		c.logger.Warn("cache populate failed",
			zap.String("key", key),
			zap.Duration("ttl", ttl),
			zap.Int("size_hint", sizeHint),
			zap.Error(err),
		)
	}
}

// ttlFor resolves the effective TTL: explicit override, then runtime
// per-class override, then class default.
func (c *Coordinator) ttlFor(class Class, override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	c.mu.RLock()
	ttl, ok := c.ttlOverrides[class]
	c.mu.RUnlock()
	if ok && ttl > 0 {
		return ttl
	}
	return class.DefaultTTL()
}

// ApplyTTLOverrides replaces the runtime per-class TTL overrides. Called
// by the configuration watcher on hot reload.
func (c *Coordinator) ApplyTTLOverrides(overrides map[Class]time.Duration) {
	copied := make(map[Class]time.Duration, len(overrides))
	for class, ttl := range overrides {
		copied[class] = ttl
	}
	c.mu.Lock()
	c.ttlOverrides = copied
	c.mu.Unlock()

	c.logger.Info("cache TTL overrides applied", zap.Int("count", len(copied)))
}
