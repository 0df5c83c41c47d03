package middleware

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/metafetch/internal/globalconfig"
)

// LoadConfig reads the configuration selected by --config and stores it in
// the command context under CtxKeyConfig.
func LoadConfig(cmd *cobra.Command, args []string, next func(cmd *cobra.Command, args []string) error) error {
	override, _ := cmd.Flags().GetString("config")

	path, err := globalconfig.Path(override)
	if err != nil {
		return err
	}
	cfg, err := globalconfig.Load(path)
	if err != nil {
		return err
	}

	cmd.SetContext(context.WithValue(ctxOf(cmd), CtxKeyConfig, cfg))
	return next(cmd, args)
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
