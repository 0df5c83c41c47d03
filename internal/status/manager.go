package status

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MrSnakeDoc/metafetch/internal/downloader"
	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/printer"
	"github.com/MrSnakeDoc/metafetch/internal/store"
	"github.com/MrSnakeDoc/metafetch/internal/utils"
)

type Reporter struct {
	Store store.Admin
	Out   io.Writer
}

func New(st store.Admin) *Reporter {
	return &Reporter{Store: st, Out: os.Stdout}
}

// Execute renders one row per cached entry.
func (r *Reporter) Execute(ctx context.Context) error {
	infos, err := r.Store.List(ctx)
	if err != nil {
		return fmt.Errorf("an error occurred while listing the cache: %w", err)
	}
	if len(infos) == 0 {
		logger.Info("cache is empty")
		return nil
	}

	p := printer.NewColorPrinter()
	table := logger.CreateTable(r.Out, []string{"Key", "Remote update", "Size", "Stored", "State"})
	for _, in := range infos {
		if err := table.Append(row(p, in)); err != nil {
			return fmt.Errorf("an error occurred while appending to the table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("an error occurred while rendering the table: %w", err)
	}
	return nil
}

func row(p *printer.ColorPrinter, in store.Info) []string {
	updated := "—"
	if t, err := downloader.ParseMarker(in.Marker); err == nil {
		updated = t.Format(time.RFC3339)
	}
	state := p.Success("✓ valid")
	if in.Corrupt {
		state = p.Error("✗ corrupt")
	}
	return []string{
		in.Key,
		updated,
		utils.HumanSize(in.SizeBytes),
		in.StoredAt.Local().Format("2006-01-02 15:04"),
		state,
	}
}
