package movements

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/fieldops-logistics/pkg/redis"
)

const claimScope = "movement"

// ClaimManager narrows the window in which two callers insert the same ledger
// key by letting only one of them hold a short Redis claim.
// Keys follow the `lg:idempotency:movement:<key>` pattern.
type ClaimManager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewClaimManager builds a claim manager with the given claim TTL.
func NewClaimManager(store redis.IdempotencyStore, ttl time.Duration) (*ClaimManager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	return &ClaimManager{store: store, ttl: ttl}, nil
}

// Claim returns true when the caller now owns the key.
func (m *ClaimManager) Claim(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("idempotency key is required")
	}
	return m.store.SetNX(ctx, m.store.IdempotencyKey(claimScope, key), "1", m.ttl)
}

// Release drops a claim so another caller may retry the insert.
func (m *ClaimManager) Release(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("idempotency key is required")
	}
	return m.store.Del(ctx, m.store.IdempotencyKey(claimScope, key))
}
