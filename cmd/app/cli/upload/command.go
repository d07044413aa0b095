package upload

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"equipviz.dev/backend/cmd/app/cli/client"
	"equipviz.dev/backend/internal/client/render"
	"equipviz.dev/backend/internal/client/upload"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "upload an equipment CSV export and print its summary",
		ArgsUsage: "<file>",
		Flags:     client.Flags(),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("Please select a file first", 2)
			}
			return run(c, c.Args().First())
		},
	}
}

func run(c *cli.Context, path string) error {
	coordinator := upload.New(client.Setup(c), upload.WithTimeout(client.Timeout(c)))
	if !coordinator.Submit(path) {
		return errors.New("upload already in progress")
	}

	out := c.App.Writer
	for ev := range coordinator.Events() {
		switch ev.Kind {
		case upload.EventStarted:
			fmt.Fprintln(c.App.ErrWriter, ev.Message)
		case upload.EventSucceeded:
			fmt.Fprintln(c.App.ErrWriter, ev.Message)
			fmt.Fprintln(out, render.Summary(ev.Summary))
			return nil
		case upload.EventFailed:
			return cli.Exit(ev.Message, 1)
		}
	}
	return nil
}
