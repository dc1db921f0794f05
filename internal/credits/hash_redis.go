package credits

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"h2ledger/internal/ledger"
	"h2ledger/pkg/domain"
)

// Redis key prefix for consumed certification hashes.
const consumedHashKeyPrefix = "h2:certhash:"

// RedisHashLedger shares the consumed-hash set across instances. SETNX is the
// atomic test-and-set: exactly one of two concurrent consumers of the same
// hash wins. Keys never expire; a key is removed only when the mint that
// consumed it aborts.
type RedisHashLedger struct {
	client *redis.Client
}

func NewRedisHashLedger(client *redis.Client) *RedisHashLedger {
	return &RedisHashLedger{client: client}
}

func (l *RedisHashLedger) Consume(ctx context.Context, hash domain.CertHash) error {
	set, err := l.client.SetNX(ctx, consumedHashKeyPrefix+hash.String(), "1", 0).Result()
	if err != nil {
		return fmt.Errorf("consume certification hash: %w", err)
	}
	if !set {
		return ledger.ErrHashReused
	}
	return nil
}

func (l *RedisHashLedger) Consumed(ctx context.Context, hash domain.CertHash) (bool, error) {
	n, err := l.client.Exists(ctx, consumedHashKeyPrefix+hash.String()).Result()
	if err != nil {
		return false, fmt.Errorf("check certification hash: %w", err)
	}
	return n > 0, nil
}

func (l *RedisHashLedger) Release(ctx context.Context, hash domain.CertHash) error {
	if err := l.client.Del(ctx, consumedHashKeyPrefix+hash.String()).Err(); err != nil {
		return fmt.Errorf("release certification hash: %w", err)
	}
	return nil
}
