package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/farelink/service-estimates/internal/domain/estimate"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces continuation keys so the instance can share a Redis
// with other services.
const keyPrefix = "estimates:continuation:"

// RedisContinuationStore is the Redis-backed implementation of
// estimate.ContinuationStore. Continuations are stored as JSON with a
// per-write TTL; eviction is entirely Redis's concern.
type RedisContinuationStore struct {
	client *redis.Client
}

// NewRedisContinuationStore creates a store on top of an existing client.
func NewRedisContinuationStore(client *redis.Client) *RedisContinuationStore {
	return &RedisContinuationStore{client: client}
}

// Set writes the continuation under key with the given TTL.
func (s *RedisContinuationStore) Set(ctx context.Context, key string, c estimate.Continuation, ttl time.Duration) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal continuation: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write continuation: %w", err)
	}
	return nil
}

// Get loads the continuation stored under key. Missing and expired keys both
// come back as a typed not-found error.
func (s *RedisContinuationStore) Get(ctx context.Context, key string) (estimate.Continuation, error) {
	payload, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return estimate.Continuation{}, estimate.NewNotFoundError(key)
		}
		return estimate.Continuation{}, fmt.Errorf("failed to read continuation: %w", err)
	}

	var c estimate.Continuation
	if err := json.Unmarshal(payload, &c); err != nil {
		return estimate.Continuation{}, fmt.Errorf("failed to unmarshal continuation: %w", err)
	}
	return c, nil
}

// Ping verifies the Redis connection, used by readiness checks.
func (s *RedisContinuationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
