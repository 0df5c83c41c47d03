package internal

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/metafetch/internal/middleware"
	"github.com/MrSnakeDoc/metafetch/internal/status"
	"github.com/MrSnakeDoc/metafetch/internal/store"
	"github.com/MrSnakeDoc/metafetch/internal/utils"
)

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List cached entries and their freshness markers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := middleware.Get[store.Backend](cmd, middleware.CtxKeyStore)
			if err != nil {
				return err
			}
			defer utils.Close(st)

			r := status.New(st)
			r.Out = cmd.OutOrStdout()
			return r.Execute(cmd.Context())
		},
	}
}
