// Package redis implements the cache Store contract on top of a Redis
// backend. The store owns the connection pool, wraps every operation in a
// circuit breaker, and forwards one latency sample per operation to the
// metrics collector, including failed operations.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"argus-backend/internal/cache"
	apperrors "argus-backend/internal/errors"
)

// classUnknown labels samples whose key carries no recognizable class
// (digest-collapsed keys, ping).
const classUnknown = cache.Class("unknown")

// Store is a Redis-backed implementation of cache.Store.
type Store struct {
	client   *redis.Client
	breaker  *gobreaker.CircuitBreaker
	recorder cache.OperationRecorder
	keys     *cache.KeyCodec
	logger   *zap.Logger

	scanBatch int
}

// NewStore creates a store over a new Redis client. The backend being
// unreachable at construction time is not fatal: the store starts in
// degraded mode and recovers when the backend returns.
func NewStore(cfg Config, recorder cache.OperationRecorder, logger *zap.Logger) *Store {
	cfg = cfg.withDefaults()

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	return NewStoreFromClient(client, cfg, recorder, logger)
}

// NewStoreFromClient creates a store over an existing Redis client.
func NewStoreFromClient(client *redis.Client, cfg Config, recorder cache.OperationRecorder, logger *zap.Logger) *Store {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = cache.NopRecorder{}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cache-store",
		MaxRequests: 3,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A missing key is a normal outcome, not a backend failure.
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache store circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Store{
		client:    client,
		breaker:   breaker,
		recorder:  recorder,
		keys:      cache.NewKeyCodec(),
		logger:    logger,
		scanBatch: cfg.ScanBatch,
	}
}

// Get retrieves the entry bytes for key. A missing key is (nil, false, nil);
// an unreachable backend is (nil, false, ConnectionError).
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	result, err := s.breaker.Execute(func() (any, error) {
		return s.client.Get(ctx, key).Bytes()
	})

	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.record(cache.OpMiss, key, start, true)
			return nil, false, nil
		}
		s.record(cache.OpMiss, key, start, false)
		return nil, false, s.wrapError("store.get", err)
	}

	s.record(cache.OpHit, key, start, true)
	return result.([]byte), true, nil
}

// Set stores value under key with the given TTL.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.client.Set(ctx, key, value, ttl).Err()
	})

	s.record(cache.OpSet, key, start, err == nil)
	if err != nil {
		return s.wrapError("store.set", err)
	}
	return nil
}

// Delete removes a single key. Deleting an absent key is a success.
func (s *Store) Delete(ctx context.Context, key string) error {
	start := time.Now()
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.client.Del(ctx, key).Err()
	})

	s.record(cache.OpDelete, key, start, err == nil)
	if err != nil {
		return s.wrapError("store.delete", err)
	}
	return nil
}

// DeleteByPattern removes every key matching the glob pattern using SCAN
// so large keyspaces are never blocked, and returns the number deleted.
func (s *Store) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	start := time.Now()
	result, err := s.breaker.Execute(func() (any, error) {
		return s.deleteByPattern(ctx, pattern)
	})

	s.record(cache.OpDeletePattern, pattern, start, err == nil)
	if err != nil {
		return 0, s.wrapError("store.delete_pattern", err).WithResource(pattern)
	}
	return result.(int), nil
}

func (s *Store) deleteByPattern(ctx context.Context, pattern string) (int, error) {
	deleted := 0
	iter := s.client.Scan(ctx, 0, pattern, int64(s.scanBatch)).Iterator()

	keys := make([]string, 0, s.scanBatch)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= s.scanBatch {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}

	if len(keys) > 0 {
		n, err := s.client.Del(ctx, keys...).Result()
		if err != nil {
			return deleted, err
		}
		deleted += int(n)
	}

	return deleted, nil
}

// Ping verifies the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	start := time.Now()
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.client.Ping(ctx).Err()
	})

	s.record(cache.OpPing, "", start, err == nil)
	if err != nil {
		return s.wrapError("store.ping", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// record forwards one sample to the metrics collector. Metrics must see
// every operation, including failures.
func (s *Store) record(op cache.Operation, key string, start time.Time, success bool) {
	class, ok := s.keys.ClassFromKey(key)
	if !ok {
		class = classUnknown
	}
	s.recorder.RecordOperation(op, class, time.Since(start), success)
}

// wrapError maps backend failures onto the cache error taxonomy. Timeouts
// and open-breaker short circuits are connection errors: callers treat
// them identically to a miss.
func (s *Store) wrapError(operation string, err error) *apperrors.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(operation, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewTimeoutError(operation, err)
	}
	return apperrors.NewConnectionError(operation, err)
}

var _ cache.Store = (*Store)(nil)
