package shared

import (
	"context"
	"time"
)

// DefaultClaimTTL is how long a recorded side effect blocks repeats of itself
const DefaultClaimTTL = 24 * time.Hour

// IdempotencyStore hands out short-lived claims on keys so that an effect
// such as recording a gateway receipt happens once across API instances.
// Claim reports false when another caller already holds key. Release gives a
// claim back after the guarded effect failed.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
