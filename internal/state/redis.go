// Package state keeps the pipeline's shared live values in redis: the latest
// sentiment snapshot, the latest market-buzz payload, and the circuit breaker.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyLatestSentiment = "tradesent:latest_sentiment"
	keyLatestBuzz      = "tradesent:latest_buzz"
	keyCircuitBreaker  = "tradesent:circuit_breaker"

	snapshotTTL = 5 * time.Minute
	breakerTTL  = time.Hour
)

// Store wraps a redis client behind the live-state operations the pipeline
// and dashboard consume. All values carry TTLs; nothing here is durable.
type Store struct {
	client *redis.Client
}

// New connects to redis and verifies the connection with a short ping.
func New(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &Store{client: client}, nil
}

// PublishSentiment stores the latest scored snapshot. The TTL bounds how long
// a stale value can be served after the pipeline goes quiet.
func (s *Store) PublishSentiment(ctx context.Context, payload any) error {
	return s.setJSON(ctx, keyLatestSentiment, payload, snapshotTTL)
}

// PublishBuzz stores the latest market-buzz payload under the same TTL policy.
func (s *Store) PublishBuzz(ctx context.Context, payload any) error {
	return s.setJSON(ctx, keyLatestBuzz, payload, snapshotTTL)
}

// LatestSentiment returns the current snapshot payload, nil once expired.
func (s *Store) LatestSentiment(ctx context.Context) (json.RawMessage, error) {
	return s.getJSON(ctx, keyLatestSentiment)
}

// LatestBuzz returns the current buzz payload, nil once expired.
func (s *Store) LatestBuzz(ctx context.Context) (json.RawMessage, error) {
	return s.getJSON(ctx, keyLatestBuzz)
}

// Tripped reports whether the circuit-breaker flag is currently raised.
func (s *Store) Tripped(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, keyCircuitBreaker).Result()
	if err != nil {
		return false, fmt.Errorf("redis EXISTS %s: %w", keyCircuitBreaker, err)
	}
	return n > 0, nil
}

// Trip raises the breaker flag. It expires on its own after an hour unless
// renewed or cleared first.
func (s *Store) Trip(ctx context.Context) error {
	if err := s.client.Set(ctx, keyCircuitBreaker, "1", breakerTTL).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", keyCircuitBreaker, err)
	}
	return nil
}

// Clear lowers the breaker flag.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, keyCircuitBreaker).Err(); err != nil {
		return fmt.Errorf("redis DEL %s: %w", keyCircuitBreaker, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }

func (s *Store) setJSON(ctx context.Context, key string, payload any, ttl time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, key string) (json.RawMessage, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return data, nil
}
