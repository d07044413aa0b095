package service

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

var (
	ErrDatabaseNotReachable = errors.New("database not reachable")
	ErrRedisNotReachable    = errors.New("redis not reachable")
	ErrNATSNotReachable     = errors.New("nats not reachable")
)

type HealthDeps struct {
	fx.In

	DB    *bun.DB       `optional:"true"`
	Redis *redis.Client `optional:"true"`
	NATS  *nats.Conn    `optional:"true"`
}

// Health pings every configured backend. Unconfigured backends are skipped.
type Health struct {
	DB    *bun.DB
	Redis *redis.Client
	NATS  *nats.Conn
}

func NewHealth(deps HealthDeps) *Health {
	return &Health{
		DB:    deps.DB,
		Redis: deps.Redis,
		NATS:  deps.NATS,
	}
}

func (s *Health) Ping(ctx context.Context) error {
	if s.NATS != nil {
		// nats pings on its own every 20 seconds (see infra.NATS)
		status := s.NATS.Status()
		if status != nats.CONNECTED && status != nats.DRAINING_PUBS && status != nats.DRAINING_SUBS {
			return errors.Wrap(ErrNATSNotReachable, status.String())
		}
	}

	eg, ctx := errgroup.WithContext(ctx)

	if s.DB != nil {
		eg.Go(func() error {
			if err := s.DB.PingContext(ctx); err != nil {
				return errors.Wrap(ErrDatabaseNotReachable, err.Error())
			}
			return nil
		})
	}

	if s.Redis != nil {
		eg.Go(func() error {
			if err := s.Redis.Ping(ctx).Err(); err != nil {
				return errors.Wrap(ErrRedisNotReachable, err.Error())
			}
			return nil
		})
	}

	return eg.Wait()
}
