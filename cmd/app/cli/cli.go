package cli

import (
	"context"

	"go.uber.org/fx"

	"equipviz.dev/backend/internal/app"
	"equipviz.dev/backend/internal/app/appcontext"
)

func Start(module fx.Option) {
	app.New(appcontext.Declare(appcontext.EnvCLI), module).Start(context.Background())
}
