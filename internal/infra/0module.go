package infra

import (
	"go.uber.org/fx"

	"equipviz.dev/backend/internal/app/appconfig"
)

// Module provides the infrastructure clients enabled by conf. Optional
// components are left out of the graph entirely when unconfigured, and their
// consumers declare them as optional dependencies.
func Module(conf *appconfig.Config) fx.Option {
	opts := []fx.Option{
		fx.Provide(Tracing),
	}

	if conf.StorageBackend == appconfig.StorageBackendPostgres {
		opts = append(opts, fx.Provide(Postgres))
	}
	if conf.RedisURL != "" {
		opts = append(opts, fx.Provide(Redis, RedSync))
	}
	if conf.NatsURL != "" {
		opts = append(opts, fx.Provide(NATS))
	}
	if conf.ArchiveS3Bucket != "" {
		opts = append(opts, fx.Provide(S3))
	}

	return fx.Module("infra", opts...)
}
