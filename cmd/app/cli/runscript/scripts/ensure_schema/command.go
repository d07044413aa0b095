package script_ensure_schema

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"equipviz.dev/backend/internal/repo"
)

type CommandDeps struct {
	fx.In

	Records *repo.SummaryRecord `optional:"true"`
}

func Command(depsFn func() CommandDeps) *cli.Command {
	return &cli.Command{
		Name:        "ensure_schema",
		Description: "create the summary_records table and its ordering index when missing",
		Action: func(ctx *cli.Context) error {
			return run(ctx, depsFn())
		},
	}
}
