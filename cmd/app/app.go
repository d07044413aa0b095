package app

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"equipviz.dev/backend/cmd/app/cli/history"
	"equipviz.dev/backend/cmd/app/cli/runscript"
	"equipviz.dev/backend/cmd/app/cli/tui"
	"equipviz.dev/backend/cmd/app/cli/upload"
	"equipviz.dev/backend/cmd/app/server"
	"equipviz.dev/backend/internal/pkg/bininfo"
)

func Run() {
	app := &cli.App{
		Name:        "equipviz",
		Usage:       "summarize equipment sensor exports",
		Description: "Equipment Visualizer backend and client. Built with Go, fiber, bun and go.uber.org/fx. Publishes summaries to NATS and archives uploads to S3 when configured.",
		Version:     bininfo.Version,
		Commands: []*cli.Command{
			server.Command(),
			upload.Command(),
			history.Command(),
			tui.Command(),
			runscript.Command(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run app")
	}
}
