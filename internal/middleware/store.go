package middleware

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/metafetch/internal/config"
	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/store"
)

// OpenStore opens the cache backend of the loaded configuration and stores
// it under CtxKeyStore. It must run after LoadConfig. The command closes
// the backend.
func OpenStore(cmd *cobra.Command, args []string, next func(cmd *cobra.Command, args []string) error) error {
	cfg, err := Get[*config.Config](cmd, CtxKeyConfig)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	backend, err := store.Open(ctxOf(cmd), cfg.Cache)
	if err != nil {
		return fmt.Errorf("open %s cache: %w", cfg.Cache.Driver, err)
	}
	logger.Debug("using %s cache (%s)", cfg.Cache.Driver, cfg.Cache.Dir)

	cmd.SetContext(context.WithValue(ctxOf(cmd), CtxKeyStore, backend))
	return next(cmd, args)
}
