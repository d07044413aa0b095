// Package client holds what the client-side commands share.
package client

import (
	"time"

	"github.com/urfave/cli/v2"

	"equipviz.dev/backend/internal/client/api"
	"equipviz.dev/backend/internal/client/upload"
	"equipviz.dev/backend/internal/pkg/logger"
)

const (
	flagAPIURL  = "api-url"
	flagTimeout = "timeout"
	flagVerbose = "verbose"
)

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagAPIURL,
			Usage:   "base URL of the backend API",
			EnvVars: []string{"EQUIPVIZ_API_URL"},
			Value:   api.DefaultBaseURL,
		},
		&cli.DurationFlag{
			Name:    flagTimeout,
			Usage:   "give up on an upload after this long",
			EnvVars: []string{"EQUIPVIZ_UPLOAD_TIMEOUT"},
			Value:   upload.DefaultTimeout,
		},
		&cli.BoolFlag{
			Name:    flagVerbose,
			Aliases: []string{"v"},
			Usage:   "log debug output to stderr",
		},
	}
}

// Setup configures logging and returns the API client for c.
func Setup(c *cli.Context) *api.Client {
	logger.ConfigureCLI(c.Bool(flagVerbose))
	return api.New(c.String(flagAPIURL))
}

func Timeout(c *cli.Context) time.Duration {
	return c.Duration(flagTimeout)
}
