package script_ensure_schema

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func run(ctx *cli.Context, deps CommandDeps) error {
	if deps.Records == nil {
		return errors.New("ensure_schema requires EQUIPVIZ_STORAGE_BACKEND=postgres")
	}

	log.Info().Msg("running script")

	if err := deps.Records.EnsureSchema(ctx.Context); err != nil {
		return errors.Wrap(err, "failed to ensure summary_records schema")
	}

	log.Info().Msg("script finished")

	return nil
}
