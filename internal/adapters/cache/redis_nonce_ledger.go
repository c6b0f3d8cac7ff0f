package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gatepass/proof-service/internal/ports"
)

const nonceKeyPrefix = "proof:nonce:"

// RedisNonceLedger stores consumed-proof markers in Redis. SET NX with TTL
// gives the atomic test-and-set the verify path depends on, and native key
// expiry makes the sweep a no-op on this backend.
type RedisNonceLedger struct {
	client *redis.Client
}

// NewRedisNonceLedger creates the durable nonce ledger adapter.
func NewRedisNonceLedger(client *redis.Client) *RedisNonceLedger {
	return &RedisNonceLedger{client: client}
}

func (l *RedisNonceLedger) TryMarkUsed(ctx context.Context, key string, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	ok, err := l.client.SetNX(ctx, nonceKeyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (l *RedisNonceLedger) IsUsed(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, nonceKeyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SweepExpired is a no-op: Redis evicts expired keys natively.
func (l *RedisNonceLedger) SweepExpired(_ context.Context) (int, error) {
	return 0, nil
}

func (l *RedisNonceLedger) Stats(ctx context.Context) (ports.LedgerStats, error) {
	var cursor uint64
	var count int64
	for {
		keys, next, err := l.client.Scan(ctx, cursor, nonceKeyPrefix+"*", 1000).Result()
		if err != nil {
			return ports.LedgerStats{}, err
		}
		count += int64(len(keys))
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return ports.LedgerStats{Count: count, Backend: "redis"}, nil
}
