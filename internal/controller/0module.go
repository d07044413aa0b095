package controller

import (
	"go.uber.org/fx"

	controllerapi "equipviz.dev/backend/internal/controller/api"
	controllermeta "equipviz.dev/backend/internal/controller/meta"
)

func Module() fx.Option {
	return fx.Module("controller",
		// Controllers (api)
		controllerapi.Module(),

		// Controllers (meta)
		controllermeta.Module(),
	)
}
