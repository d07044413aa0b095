package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/vmihailenco/msgpack/v5"
)

// Singular is a process-local Cache. Values are kept msgpack-encoded so
// callers never share memory with the cache.
type Singular[T any] struct {
	key string
	c   *cache.Cache

	mu  sync.RWMutex
	gen uint64
}

var _ Cache[struct{}] = (*Singular[struct{}])(nil)

func NewSingular[T any](key string) *Singular[T] {
	return &Singular[T]{
		key: key,
		c:   cache.New(cache.NoExpiration, time.Minute*10),
	}
}

func (c *Singular[T]) valueKey(gen uint64) string {
	return c.key + ":" + strconv.FormatUint(gen, 10)
}

func (c *Singular[T]) Generation(_ context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen, nil
}

func (c *Singular[T]) Get(_ context.Context, gen uint64, dest *T) error {
	result, ok := c.c.Get(c.valueKey(gen))
	if !ok {
		return ErrNotFound
	}
	return msgpack.Unmarshal(result.([]byte), dest)
}

func (c *Singular[T]) Set(_ context.Context, gen uint64, value T, expire time.Duration) error {
	b, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if gen != c.gen {
		// superseded while the value was being loaded
		return nil
	}
	c.c.Set(c.valueKey(gen), b, expire)
	return nil
}

func (c *Singular[T]) Bump(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.c.Delete(c.valueKey(c.gen))
	c.gen++
	return nil
}
