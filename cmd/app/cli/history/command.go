package history

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"equipviz.dev/backend/cmd/app/cli/client"
	"equipviz.dev/backend/internal/client/render"
	"equipviz.dev/backend/internal/client/upload"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list the most recent uploads, newest first",
		Flags: append(client.Flags(), &cli.IntFlag{
			Name:  "limit",
			Usage: "show at most this many records (1-5, 0 for all)",
		}),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithTimeout(c.Context, client.Timeout(c))
			defer cancel()

			records, err := client.Setup(c).History(ctx, c.Int("limit"))
			if err != nil {
				return cli.Exit(upload.Describe(err), 1)
			}

			fmt.Fprintln(c.App.Writer, render.History(records))
			return nil
		},
	}
}
