package service

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"equipviz.dev/backend/internal/constant"
	"equipviz.dev/backend/internal/model"
	"equipviz.dev/backend/internal/pkg/cache"
	"equipviz.dev/backend/internal/pkg/observability"
)

type HistoryCacheDeps struct {
	fx.In

	Redis *redis.Client `optional:"true"`
}

// NewHistoryCache shares the history listing through Redis when it is
// configured, and keeps it in process otherwise.
func NewHistoryCache(deps HistoryCacheDeps) cache.Cache[[]*model.SummaryRecord] {
	if deps.Redis != nil {
		return cache.NewRemote[[]*model.SummaryRecord](deps.Redis, observability.ServiceName, constant.HistoryCacheKey)
	}
	return cache.NewSingular[[]*model.SummaryRecord](constant.HistoryCacheKey)
}
