// Package pipeline wires one ingest run end to end: confirmed navigation,
// extraction, bounded-concurrency asset downloads, and batched idempotent
// persistence. The pipeline owns no I/O of its own; every stage arrives
// as an interface, which keeps the run logic testable without a browser.
package pipeline

import (
	"context"
	"iter"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/akashkarthik473/scent-showdown/models"
	"github.com/akashkarthik473/scent-showdown/navigator"
)

// Navigator acquires confirmed listing markup. Satisfied by
// *navigator.Navigator.
type Navigator interface {
	Run(ctx context.Context) (*navigator.Result, error)
}

// Extractor maps markup to candidates. Satisfied by *extract.Engine.
type Extractor interface {
	Records(rawHTML, winning string) iter.Seq[models.Candidate]
}

// AssetFetcher downloads a record's image, returning "" on any failure.
// Satisfied by *assets.Fetcher.
type AssetFetcher interface {
	Fetch(ctx context.Context, id int, rawURL string) string
}

// Recorder persists records. Satisfied by *store.Store.
type Recorder interface {
	UpsertFragrance(ctx context.Context, id int, name, imageURL, localPath string) error
	Commit(ctx context.Context) error
}

// Summary describes what one run accomplished.
type Summary struct {
	Extracted  int
	Stored     int
	WithImages int
	Attempts   []models.Attempt
}

// Pipeline runs one acquisition cycle.
type Pipeline struct {
	nav         Navigator
	extractor   Extractor
	fetcher     AssetFetcher
	recorder    Recorder
	batchSize   int
	concurrency int
}

// New assembles a Pipeline. batchSize bounds data loss on crash (records
// committed every batchSize upserts); concurrency bounds parallel asset
// downloads.
func New(nav Navigator, extractor Extractor, fetcher AssetFetcher, recorder Recorder, batchSize, concurrency int) *Pipeline {
	if batchSize <= 0 {
		batchSize = 5
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pipeline{
		nav:         nav,
		extractor:   extractor,
		fetcher:     fetcher,
		recorder:    recorder,
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

// Run executes the pipeline. Per-record failures (missing image, skipped
// card) never abort the run; navigation exhaustion and persistence errors
// are fatal. Batches committed before a fatal error stand, partial
// progress is never rolled back.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	result, err := p.nav.Run(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Attempts: result.Attempts}
	var stored, withImages atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for candidate := range p.extractor.Records(result.HTML, result.Selector) {
		summary.Extracted++
		g.Go(func() error {
			localPath := p.fetcher.Fetch(gctx, candidate.ID, candidate.ImageURL)
			if localPath != "" {
				withImages.Add(1)
			}

			if err := p.recorder.UpsertFragrance(gctx, candidate.ID, candidate.Name, candidate.ImageURL, localPath); err != nil {
				return err
			}

			if n := stored.Add(1); n%int64(p.batchSize) == 0 {
				if err := p.recorder.Commit(gctx); err != nil {
					return err
				}
				slog.Info("batch committed", "records", n)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		summary.Stored = int(stored.Load())
		summary.WithImages = int(withImages.Load())
		return summary, err
	}

	if err := p.recorder.Commit(ctx); err != nil {
		return summary, err
	}

	summary.Stored = int(stored.Load())
	summary.WithImages = int(withImages.Load())
	slog.Info("run complete",
		"extracted", summary.Extracted,
		"stored", summary.Stored,
		"withImages", summary.WithImages,
		"attempts", len(summary.Attempts),
	)
	return summary, nil
}
