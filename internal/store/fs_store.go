package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/utils"
)

const (
	entrySuffix = ".json.gz"

	// hashSep separates a rewritten key from its digest. sanitizeKey never
	// emits it, so names of untouched keys cannot collide with hashed ones.
	hashSep = "~"

	// maxEntrySize bounds the decompressed envelope read by TryLoad.
	maxEntrySize = 256 << 20
)

// FS keeps one gzipped JSON envelope per key in a directory.
type FS struct {
	dir string
}

var _ Backend = (*FS)(nil)

func NewFS(dataDir string) (*FS, error) {
	if dataDir == "" {
		return nil, errors.New("cache dir is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dataDir, err)
	}
	return &FS{dir: dataDir}, nil
}

func (s *FS) Dir() string { return s.dir }

func (s *FS) TryLoad(ctx context.Context, key string) (Entry, bool) {
	if ctx.Err() != nil {
		return Entry{}, false
	}
	env, err := s.readEnvelope(s.pathFor(key))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Debug("cache %s unreadable, treating as absent: %v", key, err)
		}
		return Entry{}, false
	}
	if !env.valid(key) {
		logger.Debug("cache %s is corrupt, treating as absent", key)
		return Entry{}, false
	}
	return Entry{Key: env.Key, Marker: env.Marker, StoredAt: env.StoredAt, Payload: env.Payload}, true
}

// Save writes the envelope to a temp file and renames it over the entry.
func (s *FS) Save(ctx context.Context, key string, payload []byte, marker string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateSave(key, payload, marker); err != nil {
		return err
	}

	raw, err := json.Marshal(envelope{
		Key:      key,
		Marker:   marker,
		StoredAt: time.Now().UTC(),
		Payload:  payload,
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	gz, err := utils.GzipBytes(raw)
	if err != nil {
		return fmt.Errorf("compress %s: %w", key, err)
	}

	path := s.pathFor(key)
	logger.Debug("writing %s (size=%s)", path, utils.HumanSize(int64(len(gz))))
	if err := utils.WriteFileAtomic(path, bytes.NewReader(gz), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *FS) List(ctx context.Context) ([]Info, error) {
	des, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.dir, err)
	}

	out := make([]Info, 0, len(des))
	for _, de := range des {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := de.Name()
		if de.IsDir() || utils.IsTempFile(name) || !strings.HasSuffix(name, entrySuffix) {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			continue
		}

		info := Info{Key: strings.TrimSuffix(name, entrySuffix), SizeBytes: fi.Size()}
		env, err := s.readEnvelope(filepath.Join(s.dir, name))
		if err != nil || env.Key == "" || entryName(env.Key) != info.Key || !env.valid(env.Key) {
			info.Corrupt = true
			info.StoredAt = fi.ModTime().UTC()
		} else {
			info.Key = env.Key
			info.Marker = env.Marker
			info.StoredAt = env.StoredAt
		}
		out = append(out, info)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *FS) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.pathFor(key))
	if errors.Is(err, os.ErrNotExist) && key == filepath.Base(key) && strings.Contains(key, hashSep) {
		// corrupt entries are listed under their file name
		err = os.Remove(filepath.Join(s.dir, key+entrySuffix))
	}
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return err
}

func (s *FS) Close() error { return nil }

// --- internals ---

func (s *FS) pathFor(key string) string {
	return filepath.Join(s.dir, entryName(key)+entrySuffix)
}

// entryName is the file stem for key. Keys that sanitizeKey rewrites get a
// digest of the raw key appended so distinct keys never share a file.
func entryName(key string) string {
	name := sanitizeKey(key)
	if name == key {
		return name
	}
	sum := sha256.Sum256([]byte(key))
	return name + hashSep + hex.EncodeToString(sum[:6])
}

func (s *FS) readEnvelope(path string) (env envelope, err error) {
	f, err := os.Open(path)
	if err != nil {
		return envelope{}, err
	}
	rc, err := utils.MaybeGunzip(f)
	if err != nil {
		_ = f.Close()
		return envelope{}, err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close failed: %w", cerr)
		}
	}()

	dec := json.NewDecoder(io.LimitReader(rc, maxEntrySize))
	if err := dec.Decode(&env); err != nil {
		return envelope{}, err
	}
	return env, nil
}

// sanitizeKey maps a cache key onto a safe file name. It is idempotent.
func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(key) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '+', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if name == "" {
		name = "_"
	}
	return name
}
