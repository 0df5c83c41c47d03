package internal

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/metafetch/internal/config"
	"github.com/MrSnakeDoc/metafetch/internal/errs"
	"github.com/MrSnakeDoc/metafetch/internal/globalconfig"
	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/middleware"
)

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Long: `Write the default configuration file.
The file holds the API endpoint, the cache backend and the retry triggers.
Set api.base_url before running other commands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			override, _ := cmd.Flags().GetString("config")
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}

			path, err := globalconfig.Path(override)
			if err != nil {
				return err
			}

			if err := globalconfig.SaveDefault(path, config.Default(), force); err != nil {
				if errors.Is(err, globalconfig.ErrConfigExists) {
					return middleware.FlagComboError(errs.ConfigAlreadyExists, path)
				}
				return err
			}

			logger.Success("Wrote default configuration to %s", path)
			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration file")
	return cmd
}
