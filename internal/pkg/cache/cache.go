package cache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("cache: key not found")

// Cache holds one value of type T per generation. Bump starts a new
// generation; values stored under an earlier one are never returned again.
//
// A filler reads Generation before loading from the source of truth and
// stores the result under that generation. A load that raced a Bump is
// therefore written where no reader looks.
//
// Get returns ErrNotFound on a miss. Values are copied in and out.
type Cache[T any] interface {
	Generation(ctx context.Context) (uint64, error)
	Get(ctx context.Context, gen uint64, dest *T) error
	Set(ctx context.Context, gen uint64, value T, expire time.Duration) error
	Bump(ctx context.Context) error
}
