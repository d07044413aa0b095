package service

import (
	"go.uber.org/fx"

	"equipviz.dev/backend/internal/app/appconfig"
)

func Module(conf *appconfig.Config) fx.Option {
	opts := []fx.Option{
		fx.Provide(
			NewHistoryCache,
			NewSummary,
			NewHealth,
		),
		fx.Invoke(func(lc fx.Lifecycle, s *Summary) {
			lc.Append(fx.Hook{OnStop: s.Drain})
		}),
	}

	if conf.NatsURL != "" {
		opts = append(opts, fx.Provide(NewEvents))
	}
	if conf.ArchiveS3Bucket != "" {
		opts = append(opts, fx.Provide(NewArchive))
	}

	return fx.Module("service", opts...)
}
