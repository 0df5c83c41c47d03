package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MrSnakeDoc/metafetch/internal/logger"
)

// entryRow holds marker and payload in one row so an upsert commits both.
type entryRow struct {
	Key      string    `gorm:"column:key;primaryKey"`
	Marker   string    `gorm:"column:marker;not null"`
	StoredAt time.Time `gorm:"column:stored_at;not null"`
	Payload  []byte    `gorm:"column:payload;not null"`
}

func (entryRow) TableName() string { return "metadata_cache" }

type SQLite struct {
	db *gorm.DB
}

var _ Backend = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database file at dsn and migrates it.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("sqlite dsn is required")
	}
	if !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(dsn), err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	return NewSQLite(ctx, db)
}

// NewSQLite wraps an existing connection.
func NewSQLite(ctx context.Context, db *gorm.DB) (*SQLite, error) {
	if err := db.WithContext(ctx).AutoMigrate(&entryRow{}); err != nil {
		return nil, fmt.Errorf("migrate metadata_cache: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) TryLoad(ctx context.Context, key string) (Entry, bool) {
	var row entryRow
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug("cache %s unreadable, treating as absent: %v", key, err)
		}
		return Entry{}, false
	}
	if row.Marker == "" || len(row.Payload) == 0 || !json.Valid(row.Payload) {
		logger.Debug("cache %s is corrupt, treating as absent", key)
		return Entry{}, false
	}
	return Entry{Key: row.Key, Marker: row.Marker, StoredAt: row.StoredAt, Payload: row.Payload}, true
}

func (s *SQLite) Save(ctx context.Context, key string, payload []byte, marker string) error {
	if err := validateSave(key, payload, marker); err != nil {
		return err
	}
	row := entryRow{
		Key:      key,
		Marker:   marker,
		StoredAt: time.Now().UTC(),
		Payload:  payload,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"marker", "stored_at", "payload"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]Info, error) {
	var rows []struct {
		Key      string
		Marker   string
		StoredAt time.Time
		Size     int64
	}
	err := s.db.WithContext(ctx).Model(&entryRow{}).
		Select("key, marker, stored_at, length(payload) AS size").
		Order("key").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list metadata_cache: %w", err)
	}

	out := make([]Info, 0, len(rows))
	for _, r := range rows {
		out = append(out, Info{
			Key:       r.Key,
			Marker:    r.Marker,
			StoredAt:  r.StoredAt,
			SizeBytes: r.Size,
			Corrupt:   r.Marker == "" || r.Size == 0,
		})
	}
	return out, nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	res := s.db.WithContext(ctx).Where("key = ?", key).Delete(&entryRow{})
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return nil
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
