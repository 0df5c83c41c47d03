package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/metafetch/internal/utils"
)

const (
	DriverFS     = "fs"
	DriverSQLite = "sqlite"

	// ListSeparator delimits every multi-valued configuration string.
	ListSeparator = ";"
)

type Config struct {
	API   APIConfig   `yaml:"api"`
	Cache CacheConfig `yaml:"cache"`
	Retry RetryConfig `yaml:"retry"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"METAFETCH_API_BASE_URL"`
	Site    string        `yaml:"site" env:"METAFETCH_SITE" env-default:"US"`
	Details string        `yaml:"details" env:"METAFETCH_DETAILS"`
	Token   string        `yaml:"token,omitempty" env:"METAFETCH_API_TOKEN"`
	Timeout time.Duration `yaml:"timeout" env:"METAFETCH_API_TIMEOUT" env-default:"30s"`
}

type CacheConfig struct {
	Driver string `yaml:"driver" env:"METAFETCH_CACHE_DRIVER" env-default:"fs"`
	Dir    string `yaml:"dir,omitempty" env:"METAFETCH_CACHE_DIR"`
	DSN    string `yaml:"dsn,omitempty" env:"METAFETCH_CACHE_DSN"`
}

// RetryConfig carries the three ';'-delimited trigger lists plus the
// backoff policy applied when one of them matches.
type RetryConfig struct {
	TriggerErrorCodes  string        `yaml:"trigger_error_codes" env:"METAFETCH_RETRY_ERROR_CODES"`
	TriggerExceptions  string        `yaml:"trigger_exceptions" env:"METAFETCH_RETRY_EXCEPTIONS"`
	TriggerStatusCodes string        `yaml:"trigger_status_codes" env:"METAFETCH_RETRY_STATUS_CODES"`
	MaxAttempts        int           `yaml:"max_attempts" env:"METAFETCH_RETRY_MAX_ATTEMPTS" env-default:"3"`
	InitialInterval    time.Duration `yaml:"initial_interval" env:"METAFETCH_RETRY_INITIAL_INTERVAL" env-default:"500ms"`
	MaxInterval        time.Duration `yaml:"max_interval" env:"METAFETCH_RETRY_MAX_INTERVAL" env-default:"10s"`
}

// Default is the configuration written by `metafetch init`.
func Default() Config {
	return Config{
		API: APIConfig{
			Site:    "US",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Driver: DriverFS,
		},
		Retry: RetryConfig{
			TriggerErrorCodes:  "10007;931",
			TriggerExceptions:  "http",
			TriggerStatusCodes: "500;502;503;504",
			MaxAttempts:        3,
			InitialInterval:    500 * time.Millisecond,
			MaxInterval:        10 * time.Second,
		},
	}
}

// ApplyDefaults fills values that depend on the environment.
func (c *Config) ApplyDefaults() error {
	c.API.Site = strings.ToUpper(strings.TrimSpace(c.API.Site))
	if c.API.Site == "" {
		c.API.Site = "US"
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 30 * time.Second
	}

	c.Cache.Driver = strings.ToLower(strings.TrimSpace(c.Cache.Driver))
	if c.Cache.Driver == "" {
		c.Cache.Driver = DriverFS
	}

	if c.Cache.Dir == "" {
		dir, err := DefaultStateDir()
		if err != nil {
			return err
		}
		c.Cache.Dir = dir
	}
	dir, err := utils.ExpandHome(c.Cache.Dir)
	if err != nil {
		return err
	}
	c.Cache.Dir = dir

	if c.Cache.DSN == "" {
		c.Cache.DSN = filepath.Join(c.Cache.Dir, "cache.sqlite")
	}

	if c.Retry.MaxAttempts < 1 {
		c.Retry.MaxAttempts = 1
	}
	return nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var problems []error

	if strings.TrimSpace(c.API.BaseURL) == "" {
		problems = append(problems, errors.New("api.base_url is required (set it in the config file or METAFETCH_API_BASE_URL)"))
	} else if _, err := utils.ParseSecureURL(c.API.BaseURL); err != nil {
		problems = append(problems, fmt.Errorf("api.base_url: %w", err))
	}

	switch c.Cache.Driver {
	case DriverFS, DriverSQLite:
	default:
		problems = append(problems, fmt.Errorf("cache.driver: unsupported driver %q (want %q or %q)", c.Cache.Driver, DriverFS, DriverSQLite))
	}

	for _, tok := range utils.SplitList(c.Retry.TriggerStatusCodes, ListSeparator) {
		if _, err := strconv.Atoi(tok); err != nil {
			problems = append(problems, fmt.Errorf("retry.trigger_status_codes: %q is not a status code", tok))
		}
	}

	if c.Retry.InitialInterval < 0 || c.Retry.MaxInterval < 0 {
		problems = append(problems, errors.New("retry intervals must not be negative"))
	}

	return errors.Join(problems...)
}

// DefaultStateDir is $XDG_STATE_HOME/metafetch or ~/.local/state/metafetch.
func DefaultStateDir() (string, error) {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "metafetch"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "metafetch"), nil
}
