// Package taskstore implements the Redis-backed key/set store that durably
// holds task records, task-id indexes, and credential records, generalized
// from a plain cache into the Put/Get/Delete/SetAdd/SetRemove/SetMembers
// contract the task manager relies on.
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mmsearch-dev/mmsearch/internal/metrics"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("taskstore: key not found")

// Config holds Redis connection configuration.
type Config struct {
	Host     string
	Port     int
	DB       int
	Password string
}

func (c Config) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Store is a Redis-backed implementation of the task store contract.
type Store struct {
	client *redis.Client
	logger zerolog.Logger
}

// New creates a Store and verifies connectivity with a bounded ping.
func New(cfg Config, logger zerolog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("taskstore: connect: %w", err)
	}

	logger.Info().
		Str("addr", cfg.addr()).
		Int("db", cfg.DB).
		Msg("connected to task store")

	return &Store{client: client, logger: logger}, nil
}

// NewWithClient wraps an existing redis.Client, used by tests to inject a
// miniredis-backed client.
func NewWithClient(client *redis.Client, logger zerolog.Logger) *Store {
	return &Store{client: client, logger: logger}
}

// Put writes value under key with the given TTL. A TTL of zero means no
// expiration.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := s.client.Set(ctx, key, value, ttl).Err()
	metrics.ObserveTaskStoreOp("put", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("taskstore: put %q: %w", key, err)
	}
	return nil
}

// Get reads the value stored under key. Returns ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	val, err := s.client.Get(ctx, key).Bytes()
	metrics.ObserveTaskStoreOp("get", errNilAsNoOp(err), time.Since(start))
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("taskstore: get %q: %w", key, err)
	}
	return val, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.client.Del(ctx, key).Err()
	metrics.ObserveTaskStoreOp("delete", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("taskstore: delete %q: %w", key, err)
	}
	return nil
}

// SetAdd adds member to the set stored under setKey.
func (s *Store) SetAdd(ctx context.Context, setKey, member string) error {
	start := time.Now()
	err := s.client.SAdd(ctx, setKey, member).Err()
	metrics.ObserveTaskStoreOp("set_add", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("taskstore: set_add %q: %w", setKey, err)
	}
	return nil
}

// SetRemove removes member from the set stored under setKey.
func (s *Store) SetRemove(ctx context.Context, setKey, member string) error {
	start := time.Now()
	err := s.client.SRem(ctx, setKey, member).Err()
	metrics.ObserveTaskStoreOp("set_remove", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("taskstore: set_remove %q: %w", setKey, err)
	}
	return nil
}

// SetMembers returns every member of the set stored under setKey.
func (s *Store) SetMembers(ctx context.Context, setKey string) ([]string, error) {
	start := time.Now()
	members, err := s.client.SMembers(ctx, setKey).Result()
	metrics.ObserveTaskStoreOp("set_members", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("taskstore: set_members %q: %w", setKey, err)
	}
	return members, nil
}

// Ping checks store connectivity, used by the health checker.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func errNilAsNoOp(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
