package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MrSnakeDoc/metafetch/internal/config"
	"github.com/MrSnakeDoc/metafetch/internal/details"
	"github.com/MrSnakeDoc/metafetch/internal/downloader"
	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/printer"
	"github.com/MrSnakeDoc/metafetch/internal/remote"
	"github.com/MrSnakeDoc/metafetch/internal/retry"
	"github.com/MrSnakeDoc/metafetch/internal/retryfilter"
	"github.com/MrSnakeDoc/metafetch/internal/store"
)

type Request struct {
	Site    string
	Details []string
	Refresh bool
	Offline bool
	JSON    bool
}

var ErrNotCached = errors.New("no cached entry")

type Fetcher struct {
	Config     *config.Config
	Downloader *downloader.Downloader[details.Query, details.Details]
	Out        io.Writer
}

// New builds the remote client, retry filter and downloader from cfg. A
// malformed retry configuration fails here.
func New(cfg *config.Config, st store.Store, opts ...remote.Option) (*Fetcher, error) {
	client, err := remote.New(cfg.API, opts...)
	if err != nil {
		return nil, err
	}
	filter, err := retryfilter.FromConfig(cfg.Retry)
	if err != nil {
		return nil, err
	}
	if filter.Empty() {
		logger.Debug("no retry triggers configured, remote calls are attempted once")
	}
	rt := retry.New(retry.PolicyFromConfig(cfg.Retry), filter)

	return &Fetcher{
		Config:     cfg,
		Downloader: downloader.New[details.Query, details.Details](client, st, rt),
		Out:        os.Stdout,
	}, nil
}

// Query resolves the request against the configured site and detail names.
func (f *Fetcher) Query(req Request) (details.Query, error) {
	site := req.Site
	if site == "" {
		site = f.Config.API.Site
	}

	items := req.Details
	if len(items) == 0 && f.Config.API.Details != "" {
		items = []string{f.Config.API.Details}
	}
	names, err := details.ParseNames(items...)
	if err != nil {
		return details.Query{}, err
	}
	return details.NewQuery(site, names...), nil
}

func (f *Fetcher) Execute(ctx context.Context, req Request) error {
	q, err := f.Query(req)
	if err != nil {
		return err
	}

	start := time.Now()
	var res downloader.Result[details.Details]
	switch {
	case req.Offline:
		var ok bool
		if res, ok = f.Downloader.Cached(ctx, q); !ok {
			return fmt.Errorf("%s: %w", q.CacheKey(), ErrNotCached)
		}
	case req.Refresh:
		res, err = f.Downloader.Refresh(ctx, q)
	default:
		res, err = f.Downloader.Fetch(ctx, q)
	}
	if err != nil {
		return err
	}
	logger.Debug("%s served from %s in %s", q.CacheKey(), res.Source, time.Since(start).Truncate(time.Millisecond))

	if req.JSON {
		enc := json.NewEncoder(f.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Payload)
	}
	return f.render(q, res)
}

func (f *Fetcher) render(q details.Query, res downloader.Result[details.Details]) error {
	p := printer.NewColorPrinter()

	if _, err := fmt.Fprintf(f.Out, "%s  updated %s  %s\n",
		q.CacheKey(),
		res.Payload.UpdatedAt().UTC().Format(time.RFC3339),
		p.Freshness(res.Source == downloader.SourceCache),
	); err != nil {
		return err
	}

	table := logger.CreateTable(f.Out, []string{"Section", "Entries"})
	summary := res.Payload.Summary()
	if len(summary) == 0 {
		logger.Warn("%s: response holds no sections", q.CacheKey())
	}
	for _, s := range summary {
		if err := table.Append([]string{s.Section, fmt.Sprintf("%d", s.Count)}); err != nil {
			return fmt.Errorf("an error occurred while appending to the table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("an error occurred while rendering the table: %w", err)
	}
	return nil
}
