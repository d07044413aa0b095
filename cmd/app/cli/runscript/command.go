package runscript

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	cliapp "equipviz.dev/backend/cmd/app/cli"
	script_ensure_schema "equipviz.dev/backend/cmd/app/cli/runscript/scripts/ensure_schema"
)

func depsFn[T any]() func() T {
	return func() T {
		var deps T
		cliapp.Start(fx.Populate(&deps))
		return deps
	}
}

func Command() *cli.Command {
	return &cli.Command{
		Name:        "run-script",
		Description: "run maintenance go scripts",
		Subcommands: []*cli.Command{
			script_ensure_schema.Command(depsFn[script_ensure_schema.CommandDeps]()),
		},
	}
}
