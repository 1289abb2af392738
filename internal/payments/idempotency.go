package payments

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// reservationTTL bounds how long a transaction id reservation lives.
// Retries from payment gateways arrive within minutes; anything later is
// caught by the authoritative scan of the payments collection.
const reservationTTL = 24 * time.Hour

// IdempotencyGuard reserves gateway transaction ids in Redis so duplicate
// deliveries can be spotted before the ledger lock is taken. The guard is
// advisory: the ledger still scans the payments collection under the
// lock, so running without Redis only loses the fast path.
type IdempotencyGuard struct {
	client *redis.Client
}

// NewIdempotencyGuard wraps a Redis client. A nil client yields a nil
// guard, which every method tolerates.
func NewIdempotencyGuard(client *redis.Client) *IdempotencyGuard {
	if client == nil {
		return nil
	}
	return &IdempotencyGuard{client: client}
}

// Reserve claims a transaction id. It returns true when this is the
// first sighting and false when the id was already reserved.
func (g *IdempotencyGuard) Reserve(ctx context.Context, transactionID string) (bool, error) {
	if g == nil || transactionID == "" {
		return true, nil
	}
	return g.client.SetNX(ctx, "payments:txn:"+transactionID, "1", reservationTTL).Result()
}

// Release frees a reservation, used when a reserved record attempt fails
// before anything was written.
func (g *IdempotencyGuard) Release(ctx context.Context, transactionID string) error {
	if g == nil || transactionID == "" {
		return nil
	}
	return g.client.Del(ctx, "payments:txn:"+transactionID).Err()
}
