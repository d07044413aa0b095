package tui

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"equipviz.dev/backend/cmd/app/cli/client"
	"equipviz.dev/backend/internal/client/tui"
	"equipviz.dev/backend/internal/client/upload"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "interactive upload screen",
		Flags: client.Flags(),
		Action: func(c *cli.Context) error {
			api := client.Setup(c)
			coordinator := upload.New(api, upload.WithTimeout(client.Timeout(c)))
			return tui.Run(coordinator, api, tea.WithOutput(os.Stderr), tea.WithAltScreen())
		},
	}
}
