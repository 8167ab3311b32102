package estimate

import (
	"context"
	"time"
)

// ContinuationStore is the TTL key-value contract for continuations. Get
// returns a NotFound estimate error for missing or expired keys, never an
// empty continuation.
type ContinuationStore interface {
	Set(ctx context.Context, key string, c Continuation, ttl time.Duration) error
	Get(ctx context.Context, key string) (Continuation, error)
}
