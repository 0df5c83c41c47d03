package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MrSnakeDoc/metafetch/internal/config"
)

var ErrNotFound = errors.New("cache entry not found")

// Entry is one cached payload with the freshness marker it was saved under.
type Entry struct {
	Key      string
	Marker   string
	StoredAt time.Time
	Payload  json.RawMessage
}

type Store interface {
	// TryLoad returns a structurally valid entry, or false when none exists
	// or the stored one cannot be used. It never fails.
	TryLoad(ctx context.Context, key string) (Entry, bool)

	// Save replaces the entry for key. Payload and marker are committed
	// together or not at all.
	Save(ctx context.Context, key string, payload []byte, marker string) error
}

// Admin is implemented by backends that can enumerate and drop entries.
type Admin interface {
	List(ctx context.Context) ([]Info, error)
	Delete(ctx context.Context, key string) error
}

// Backend is what Open returns.
type Backend interface {
	Store
	Admin
	io.Closer
}

// Open builds the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.CacheConfig) (Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", config.DriverFS:
		return NewFS(cfg.Dir)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

func validateSave(key string, payload []byte, marker string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("cache key is required")
	}
	if marker == "" {
		return fmt.Errorf("save %s: freshness marker is required", key)
	}
	if !json.Valid(payload) {
		return fmt.Errorf("save %s: payload is not valid JSON", key)
	}
	return nil
}
