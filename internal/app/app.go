package app

import (
	"time"

	"go.uber.org/fx"

	"equipviz.dev/backend/internal/app/appconfig"
	"equipviz.dev/backend/internal/app/appcontext"
	"equipviz.dev/backend/internal/controller"
	"equipviz.dev/backend/internal/infra"
	"equipviz.dev/backend/internal/pkg/logger"
	"equipviz.dev/backend/internal/repo"
	"equipviz.dev/backend/internal/server"
	"equipviz.dev/backend/internal/service"
)

func Options(ctx appcontext.Ctx, additionalOpts ...fx.Option) []fx.Option {
	conf, err := appconfig.Parse(ctx)
	if err != nil {
		panic(err)
	}

	// logger and configuration are the only two things that are not in the fx graph
	// because some other packages need them to be initialized before fx starts
	logger.Configure(conf)

	baseOpts := []fx.Option{
		// fx meta
		fx.WithLogger(logger.Fx),

		// Misc
		fx.Supply(conf),

		// Infrastructures
		infra.Module(conf),

		// Servers
		server.Module(),

		// Repositories
		repo.Module(conf),

		// Services
		service.Module(conf),

		// Global Singleton Inits: Keep those before controllers to ensure they are initialized
		// before controllers are registered as controllers are also fx#Invoke functions which
		// are called in the order of their registration.
		fx.Invoke(infra.SentryInit),

		// Controllers
		controller.Module(),

		// fx Extra Options
		// infrastructure connections are retried at startup (see InfraConnectAttempts)
		fx.StartTimeout(30 * time.Second),
		// StopTimeout is not typically needed, since we're using fiber's Shutdown(),
		// in which fiber has its own IdleTimeout for controlling the shutdown timeout.
		// It acts as a countermeasure in case the fiber app is not properly shutting down.
		fx.StopTimeout(5 * time.Minute),
	}

	return append(baseOpts, additionalOpts...)
}

func New(ctx appcontext.Ctx, additionalOpts ...fx.Option) *fx.App {
	return fx.New(Options(ctx, additionalOpts...)...)
}
