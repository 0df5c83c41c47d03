package store

import (
	"encoding/json"
	"time"
)

// envelope is the on-disk layout of one FS entry, gzipped.
type envelope struct {
	Key      string          `json:"key"`
	Marker   string          `json:"marker"`
	StoredAt time.Time       `json:"stored_at"`
	Payload  json.RawMessage `json:"payload"`
}

func (e envelope) valid(key string) bool {
	return e.Key == key && e.Marker != "" && len(e.Payload) > 0 && json.Valid(e.Payload)
}

// Info describes a stored entry for listings.
type Info struct {
	Key       string    `json:"key"`
	Marker    string    `json:"marker"`
	StoredAt  time.Time `json:"stored_at"`
	SizeBytes int64     `json:"size_bytes"`

	// Corrupt entries are listed so they can be purged; TryLoad ignores them.
	Corrupt bool `json:"corrupt,omitempty"`
}
