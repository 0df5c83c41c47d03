package main

import (
	"errors"
	"os"

	cmd "github.com/MrSnakeDoc/metafetch/internal"
	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/middleware"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, middleware.ErrLogged) {
			logger.LogError(err.Error())
		}
		os.Exit(1)
	}
}
