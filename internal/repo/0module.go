package repo

import (
	"context"

	"go.uber.org/fx"

	"equipviz.dev/backend/internal/app/appconfig"
)

// Module provides the RetentionStore selected by conf.StorageBackend.
func Module(conf *appconfig.Config) fx.Option {
	if conf.StorageBackend == appconfig.StorageBackendMemory {
		return fx.Module("repo", fx.Provide(
			fx.Annotate(
				func() *MemoryRetention { return NewMemoryRetention() },
				fx.As(new(RetentionStore)),
			),
		))
	}

	return fx.Module("repo",
		fx.Provide(
			NewSummaryRecord,
			func(r *SummaryRecord) RetentionStore { return r },
		),
		fx.Invoke(func(lc fx.Lifecycle, r *SummaryRecord) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return r.EnsureSchema(ctx)
				},
			})
		}),
	)
}
