// Package downloader serves metadata payloads from a local cache and goes
// to the remote API for the full payload only when the remote copy changed.
package downloader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/retry"
	"github.com/MrSnakeDoc/metafetch/internal/store"
	"github.com/MrSnakeDoc/metafetch/internal/utils"
)

// Key identifies a payload. CacheKey must be stable for equal requests.
type Key interface {
	CacheKey() string
}

// Payload carries its own server-side update time.
type Payload interface {
	UpdatedAt() time.Time
}

// Remote is the API side of the downloader. FetchLastUpdateTime must
// transfer only the timestamp.
type Remote[K Key, T Payload] interface {
	FetchLastUpdateTime(ctx context.Context, key K) (time.Time, error)
	FetchFullPayload(ctx context.Context, key K) (T, error)
}

// Source reports where a Result came from.
type Source string

const (
	SourceCache  Source = "cache"
	SourceRemote Source = "remote"
)

type Result[T Payload] struct {
	Payload T
	Marker  string
	Source  Source
}

type Downloader[K Key, T Payload] struct {
	remote  Remote[K, T]
	store   store.Store
	retrier *retry.Retrier
	group   singleflight.Group
}

// New wires a downloader. A nil retrier makes a single attempt per call.
func New[K Key, T Payload](r Remote[K, T], st store.Store, rt *retry.Retrier) *Downloader[K, T] {
	if rt == nil {
		rt = retry.New(retry.Policy{MaxAttempts: 1}, nil)
	}
	return &Downloader[K, T]{remote: r, store: st, retrier: rt}
}

// Get returns the payload for key, from the cache when its marker equals
// the remote last update time, from the remote API otherwise.
func (d *Downloader[K, T]) Get(ctx context.Context, key K) (T, error) {
	res, err := d.Fetch(ctx, key)
	return res.Payload, err
}

// Fetch is Get with provenance.
func (d *Downloader[K, T]) Fetch(ctx context.Context, key K) (Result[T], error) {
	return d.do(ctx, key, false)
}

// Refresh downloads the full payload regardless of the cached marker and
// stores it.
func (d *Downloader[K, T]) Refresh(ctx context.Context, key K) (Result[T], error) {
	return d.do(ctx, key, true)
}

// Cached returns the stored payload for key without contacting the remote
// API. Freshness is not checked.
func (d *Downloader[K, T]) Cached(ctx context.Context, key K) (Result[T], bool) {
	entry, ok := d.store.TryLoad(ctx, key.CacheKey())
	if !ok {
		return Result[T]{}, false
	}
	payload, err := decode[T](entry.Payload)
	if err != nil {
		logger.Debug("%s: cached payload unusable: %v", key.CacheKey(), err)
		return Result[T]{}, false
	}
	return Result[T]{Payload: payload, Marker: entry.Marker, Source: SourceCache}, true
}

// Concurrent calls for the same cache key share one remote sequence.
func (d *Downloader[K, T]) do(ctx context.Context, key K, force bool) (Result[T], error) {
	ck := key.CacheKey()
	group := ck
	if force {
		group = "refresh:" + ck
	}

	v, err, shared := d.group.Do(group, func() (any, error) {
		if force {
			return d.download(ctx, key, ck)
		}
		return d.get(ctx, key, ck)
	})
	if shared {
		logger.Debug("%s: joined in-flight request", ck)
	}
	res, _ := v.(Result[T])
	return res, err
}

func (d *Downloader[K, T]) get(ctx context.Context, key K, ck string) (Result[T], error) {
	var remoteTime time.Time
	err := d.retrier.Do(ctx, ck+": "+OpLastUpdateTime, func(ctx context.Context) error {
		var err error
		remoteTime, err = d.remote.FetchLastUpdateTime(ctx, key)
		return err
	})
	if err != nil {
		return Result[T]{}, fetchFailed(ck, OpLastUpdateTime, err)
	}
	remoteMarker := FormatMarker(remoteTime)

	entry, ok := d.store.TryLoad(ctx, ck)
	switch {
	case !ok:
		logger.Debug("%s: no usable cache entry", ck)
	case entry.Marker != remoteMarker:
		logger.Debug("%s: cached %s, remote %s", ck, entry.Marker, remoteMarker)
	default:
		payload, err := decode[T](entry.Payload)
		if err == nil {
			logger.Debug("%s: cache is fresh (%s)", ck, remoteMarker)
			return Result[T]{Payload: payload, Marker: entry.Marker, Source: SourceCache}, nil
		}
		logger.Debug("%s: cached payload unusable, refetching: %v", ck, err)
	}

	return d.download(ctx, key, ck)
}

func (d *Downloader[K, T]) download(ctx context.Context, key K, ck string) (Result[T], error) {
	var payload T
	err := d.retrier.Do(ctx, ck+": "+OpFullPayload, func(ctx context.Context) error {
		var err error
		payload, err = d.remote.FetchFullPayload(ctx, key)
		return err
	})
	if err != nil {
		return Result[T]{}, fetchFailed(ck, OpFullPayload, err)
	}

	// A payload without an update time could never match a probe.
	if payload.UpdatedAt().IsZero() {
		logger.Warn("%s: payload carries no update time, not cached", ck)
		return Result[T]{Payload: payload, Source: SourceRemote}, nil
	}

	// The marker comes from the payload itself so that a change landing
	// between the probe and the download is caught on the next call.
	marker := FormatMarker(payload.UpdatedAt())

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("%s: payload not cached: encode: %v", ck, err)
		return Result[T]{Payload: payload, Marker: marker, Source: SourceRemote}, nil
	}
	if err := d.store.Save(ctx, ck, raw, marker); err != nil {
		logger.Warn("%s: payload not cached: %v", ck, err)
	} else {
		logger.Debug("%s: cached %s (%s)", ck, marker, utils.HumanSize(int64(len(raw))))
	}
	return Result[T]{Payload: payload, Marker: marker, Source: SourceRemote}, nil
}

var errNullPayload = errors.New("null payload")

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return v, errNullPayload
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode cached payload: %w", err)
	}
	return v, nil
}

func fetchFailed(key, op string, err error) error {
	return &RemoteFetchFailedError{Key: key, Op: op, Err: err}
}
