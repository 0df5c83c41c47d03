package globalconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/metafetch/internal/config"
	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/utils"
)

const (
	configDir  = ".config/metafetch"
	configFile = "config.yml"
)

var ErrConfigExists = errors.New("config file already exists")

func GetConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "metafetch"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// Path returns override when set, else the default config file location.
func Path(override string) (string, error) {
	if override != "" {
		return utils.ExpandHome(override)
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the yaml file at path (when present) and applies env overrides.
// Without a file the configuration comes from the environment alone.
func Load(path string) (*config.Config, error) {
	var cfg config.Config

	exists, err := utils.FileExists(path)
	if err != nil {
		return nil, err
	}

	if exists {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		logger.Debug("loaded config from %s", path)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
		logger.Debug("no config file at %s, using environment", path)
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// SaveDefault writes cfg as yaml to path. An existing file is kept unless
// force is set.
func SaveDefault(path string, cfg config.Config, force bool) error {
	exists, err := utils.FileExists(path)
	if err != nil {
		return err
	}
	if exists && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Usage describes the environment variables understood by Load.
func Usage() (string, error) {
	var cfg config.Config
	return cleanenv.GetDescription(&cfg, nil)
}
