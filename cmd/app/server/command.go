package server

import (
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"equipviz.dev/backend/internal/app/appconfig"
)

func envName(field string) string {
	return strings.ToUpper(appconfig.EnvPrefix) + "_" + field
}

func Command() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"start"},
		Usage:   "run the upload and history API",
		Description: "Serves POST /api/upload and GET /api/datasets. Configuration is read from " +
			strings.ToUpper(appconfig.EnvPrefix) + "_* environment variables; the flags below override them.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "address",
				Aliases: []string{"a"},
				Usage:   "listen address, e.g. :8000",
			},
			&cli.BoolFlag{
				Name:  "dev",
				Usage: "development mode: trace logging and immediate shutdown",
			},
		},
		Action: func(c *cli.Context) error {
			if addr := c.String("address"); addr != "" {
				if err := os.Setenv(envName("SERVICE_ADDRESS"), addr); err != nil {
					return err
				}
			}
			if c.Bool("dev") {
				if err := os.Setenv(envName("DEV_MODE"), "true"); err != nil {
					return err
				}
			}
			Run()
			return nil
		},
	}
}
