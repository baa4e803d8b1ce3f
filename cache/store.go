package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mkarlsen/servicekit/resilience"
)

// Config configures the Store.
type Config struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password authenticates against the server. Empty means no auth.
	Password string

	// DB is the Redis database index.
	DB int

	// DefaultTTL is applied to writes that don't specify a TTL.
	// Default: 5 minutes.
	DefaultTTL time.Duration

	// ConnectMaxAttempts bounds the connection retry budget.
	// Default: 5.
	ConnectMaxAttempts int

	// Logger receives warn-level entries for swallowed operation failures.
	Logger zerolog.Logger
}

// Store is a lifecycle-managed Redis cache client.
//
// Connect must succeed before use; after that every operation is best-effort.
// The underlying connection is shared across all concurrent callers; the only
// atomicity guarantee is single-key atomicity provided by the store itself
// (Increment).
type Store struct {
	client    *redis.Client
	ttl       time.Duration
	log       zerolog.Logger
	retry     *resilience.Retry
	connected atomic.Bool
}

// New creates a Store. No connection is made until Connect.
func New(cfg Config) *Store {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	if cfg.ConnectMaxAttempts <= 0 {
		cfg.ConnectMaxAttempts = 5
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	log := cfg.Logger.With().Str("component", "cache").Logger()

	return &Store{
		client: client,
		ttl:    cfg.DefaultTTL,
		log:    log,
		retry: resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.ConnectMaxAttempts,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     3 * time.Second,
			Jitter:       true,
			OnRetry: func(attempt int, err error, delay time.Duration) {
				log.Warn().
					Err(err).
					Int("attempt", attempt).
					Dur("backoff", delay).
					Msg("cache connection failed, retrying")
			},
		}),
	}
}

// Connect establishes the connection, retrying with bounded exponential
// backoff. It is idempotent. Exhausting the retry budget is fatal and
// returned to the caller: cache absence is structural, not tolerable at
// startup.
func (s *Store) Connect(ctx context.Context) error {
	if s.connected.Load() {
		return nil
	}

	err := s.retry.Do(ctx, func(ctx context.Context) error {
		return s.client.Ping(ctx).Err()
	})
	if err != nil {
		return fmt.Errorf("cache: connect: %w", err)
	}

	s.connected.Store(true)
	s.log.Info().Str("addr", s.client.Options().Addr).Msg("cache connected")
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	s.connected.Store(false)
	return s.client.Close()
}

// DefaultTTL returns the TTL applied to writes that don't specify one.
func (s *Store) DefaultTTL() time.Duration {
	return s.ttl
}

// Get retrieves a value. A stored JSON document is deserialized; anything
// else comes back as a raw string. Every failure, transient or otherwise,
// degrades to a miss; Get never reports an error.
func (s *Store) Get(ctx context.Context, key string) (any, bool) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cacheErrors.WithLabelValues("get").Inc()
			s.log.Warn().Err(err).Str("key", key).Msg("cache get failed, treating as miss")
		}
		cacheMisses.Inc()
		return nil, false
	}

	cacheHits.Inc()

	var v any
	if json.Unmarshal(data, &v) == nil {
		return v, true
	}
	// Not JSON, e.g. written by another client. Hand back the raw value.
	return string(data), true
}

// GetJSON deserializes the value at key into dest. Returns false on miss,
// on decode failure, and on any transient error.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) bool {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cacheErrors.WithLabelValues("get").Inc()
			s.log.Warn().Err(err).Str("key", key).Msg("cache get failed, treating as miss")
		}
		cacheMisses.Inc()
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		s.log.Warn().Err(err).Str("key", key).Msg("cache entry not decodable, treating as miss")
		cacheMisses.Inc()
		return false
	}

	cacheHits.Inc()
	return true
}

// Set serializes value and stores it with the given TTL. A non-positive TTL
// falls back to the configured default. Writes are best-effort: failures are
// logged at warn level and swallowed.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.ttl
	}

	data, err := json.Marshal(value)
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		s.log.Warn().Err(err).Str("key", key).Msg("cache value not serializable, dropping write")
		return
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		s.log.Warn().Err(err).Str("key", key).Msg("cache set failed, dropping write")
	}
}

// Delete removes a key. Best-effort, idempotent.
func (s *Store) Delete(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		s.log.Warn().Err(err).Str("key", key).Msg("cache delete failed")
	}
}

// DeleteMany removes a batch of keys. Best-effort.
func (s *Store) DeleteMany(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		s.log.Warn().Err(err).Int("keys", len(keys)).Msg("cache batch delete failed")
	}
}

// ClearByPattern enumerates keys matching a glob pattern, deletes them, and
// returns the number removed.
//
// Enumeration and deletion are not atomic with respect to concurrent
// writers: a key created after the scan completes survives the clear. This
// is accepted eventual consistency, not a bug: the underlying store has no
// cheap multi-key transaction covering a pattern.
func (s *Store) ClearByPattern(ctx context.Context, pattern string) int {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		cacheErrors.WithLabelValues("clear").Inc()
		s.log.Warn().Err(err).Str("pattern", pattern).Msg("cache scan failed")
		return 0
	}
	if len(keys) == 0 {
		return 0
	}

	deleted, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		cacheErrors.WithLabelValues("clear").Inc()
		s.log.Warn().Err(err).Str("pattern", pattern).Msg("cache clear failed")
		return 0
	}

	s.log.Debug().Str("pattern", pattern).Int64("deleted", deleted).Msg("cache cleared by pattern")
	return int(deleted)
}

// Increment atomically adds n to the integer at key and returns the new
// value. Atomicity is guaranteed by the store regardless of concurrent
// callers.
func (s *Store) Increment(ctx context.Context, key string, n int64) (int64, error) {
	v, err := s.client.IncrBy(ctx, key, n).Result()
	if err != nil {
		cacheErrors.WithLabelValues("incr").Inc()
		return 0, fmt.Errorf("cache: increment %s: %w", key, err)
	}
	return v, nil
}

// Ping reports whether the cache is reachable. Used as a health probe.
func (s *Store) Ping(ctx context.Context) bool {
	return s.client.Ping(ctx).Err() == nil
}
