package internal

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/metafetch/internal/middleware"
)

var withStore = middleware.UseMiddlewareChain(middleware.LoadConfig, middleware.OpenStore)

var defaultCommands = []middleware.CommandFactory{
	NewInitCmd,
	withStore(NewGetCmd),
	withStore(NewStatusCmd),
	withStore(NewPurgeCmd),
	NewEnvCmd,
}

func RegisterSubCommands(cmd *cobra.Command) {
	for _, factory := range defaultCommands {
		cmd.AddCommand(factory())
	}
}
