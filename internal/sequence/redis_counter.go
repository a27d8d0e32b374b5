package sequence

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
)

type redisIncrementer interface {
	Incr(ctx context.Context, key string) (int64, error)
	CounterKey(name string) string
}

// RedisCounter advances counters with Redis INCR, which is atomic.
// Counters are not seeded from existing store rows.
type RedisCounter struct {
	client redisIncrementer
}

// NewRedisCounter builds a Redis-backed counter.
func NewRedisCounter(client redisIncrementer) (*RedisCounter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisCounter{client: client}, nil
}

func (c *RedisCounter) Next(ctx context.Context, key string) (int64, error) {
	if err := requireKey(key); err != nil {
		return 0, err
	}
	seq, err := c.client.Incr(ctx, c.client.CounterKey(key))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment logistics job counter")
	}
	return seq, nil
}
