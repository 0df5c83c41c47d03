package internal

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/metafetch/internal/errs"
	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/middleware"
	"github.com/MrSnakeDoc/metafetch/internal/prompter"
	"github.com/MrSnakeDoc/metafetch/internal/purge"
	"github.com/MrSnakeDoc/metafetch/internal/store"
	"github.com/MrSnakeDoc/metafetch/internal/utils"
)

func NewPurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "purge [key...]",
		Short:   "Delete cached entries",
		Example: "metafetch purge details-US\nmetafetch purge --all",
		Args: func(cmd *cobra.Command, args []string) error {
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return err
			}
			switch {
			case all && len(args) > 0:
				return middleware.FlagComboError(errs.AllWithNamedKeys, "Delete", "purge")
			case !all && len(args) == 0:
				return middleware.FlagComboError(errs.ProvideKeysOrAll, "delete", "purge")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			yes, _ := cmd.Flags().GetBool("yes")

			st, err := middleware.Get[store.Backend](cmd, middleware.CtxKeyStore)
			if err != nil {
				return err
			}
			defer utils.Close(st)

			p := purge.New(st)
			if !yes {
				p.Prompter = prompter.New(cmd.InOrStdin(), cmd.ErrOrStderr())
			}
			n, err := p.Execute(cmd.Context(), args, all)
			if n > 0 {
				logger.Success("Deleted %d cached entr%s", n, plural(n, "y", "ies"))
			}
			return err
		},
	}

	cmd.Flags().BoolP("all", "a", false, "Delete every cached entry")
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
