package purge

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/prompter"
	"github.com/MrSnakeDoc/metafetch/internal/store"
)

type Purger struct {
	Store    store.Admin
	Prompter prompter.Prompter
}

// New returns a Purger that deletes without asking. Set Prompter to
// confirm --all runs.
func New(st store.Admin) *Purger {
	return &Purger{Store: st, Prompter: prompter.Always(true)}
}

// Execute deletes the named keys, or every entry when all is set. Missing
// keys are reported and skipped; the count of deleted entries is returned.
func (p *Purger) Execute(ctx context.Context, keys []string, all bool) (int, error) {
	if all {
		infos, err := p.Store.List(ctx)
		if err != nil {
			return 0, fmt.Errorf("an error occurred while listing the cache: %w", err)
		}
		if len(infos) == 0 {
			logger.Info("cache is empty")
			return 0, nil
		}
		ok, err := p.Prompter.Confirm(fmt.Sprintf("Delete %d cached entries?", len(infos)))
		if err != nil {
			return 0, err
		}
		if !ok {
			logger.Info("purge aborted")
			return 0, nil
		}
		keys = keys[:0]
		for _, in := range infos {
			keys = append(keys, in.Key)
		}
	}

	deleted := 0
	var failed []error
	for _, k := range keys {
		err := p.Store.Delete(ctx, k)
		switch {
		case err == nil:
			deleted++
			logger.Debug("deleted %s", k)
		case errors.Is(err, store.ErrNotFound):
			logger.Warn("%s is not cached", k)
		default:
			failed = append(failed, fmt.Errorf("delete %s: %w", k, err))
		}
	}
	return deleted, errors.Join(failed...)
}
