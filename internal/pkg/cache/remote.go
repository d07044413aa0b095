package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Remote is a Cache stored in Redis and shared by every replica pointing at
// the same Redis database. The generation counter lives in Redis too, so a
// Bump on one replica hides values filled by any other.
type Remote[T any] struct {
	client *redis.Client
	key    string
	genKey string
}

var _ Cache[struct{}] = (*Remote[struct{}])(nil)

func NewRemote[T any](client *redis.Client, prefix, key string) *Remote[T] {
	return &Remote[T]{
		client: client,
		key:    prefix + ":" + key,
		genKey: prefix + ":" + key + ":gen",
	}
}

func (c *Remote[T]) valueKey(gen uint64) string {
	return c.key + ":" + strconv.FormatUint(gen, 10)
}

func (c *Remote[T]) Generation(ctx context.Context) (uint64, error) {
	gen, err := c.client.Get(ctx, c.genKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		log.Error().Err(err).Str("key", c.genKey).Msg("failed to get cache generation from redis")
		return 0, err
	}
	return gen, nil
}

func (c *Remote[T]) Get(ctx context.Context, gen uint64, dest *T) error {
	key := c.valueKey(gen)
	resp, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		log.Error().Err(err).Str("key", key).Msg("failed to get value from redis")
		return err
	}
	err = msgpack.Unmarshal(resp, dest)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to unmarshal value from msgpack from redis")
		return err
	}
	return nil
}

func (c *Remote[T]) Set(ctx context.Context, gen uint64, value T, expire time.Duration) error {
	key := c.valueKey(gen)
	if l := log.Trace(); l.Enabled() {
		l.Str("key", key).Msg("setting value to redis")
	}
	b, err := msgpack.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to marshal value with msgpack")
		return err
	}
	err = c.client.Set(ctx, key, b, expire).Err()
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to set value to redis")
		return err
	}
	return nil
}

func (c *Remote[T]) Bump(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.genKey).Err(); err != nil {
		log.Error().Err(err).Str("key", c.genKey).Msg("failed to bump cache generation in redis")
		return err
	}
	return nil
}
