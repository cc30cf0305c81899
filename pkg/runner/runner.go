package runner

import (
	"context"
	"fmt"

	"github.com/entrhq/scribe/pkg/docs"
	"github.com/entrhq/scribe/pkg/explorer"
	"github.com/entrhq/scribe/pkg/logging"
	"github.com/entrhq/scribe/pkg/sync"
	"github.com/entrhq/scribe/pkg/sync/diff"
	"github.com/entrhq/scribe/pkg/sync/queue"
)

// Explorer produces the page corpus for one cycle.
type Explorer interface {
	Explore(ctx context.Context, opts explorer.CrawlOptions) ([]explorer.PageContent, error)
}

// Composer turns the page corpus into the desired document text.
type Composer interface {
	Compose(ctx context.Context, pages []explorer.PageContent) (string, error)
}

// Report summarizes one completed cycle.
type Report struct {
	Pages      int
	DraftBytes int
	Added      int
	Modified   int
	Deleted    int
	Unchanged  int
	Similarity float64
}

// Runner orchestrates explore, compose and sync for one run profile.
type Runner struct {
	profile  *Profile
	explorer Explorer
	composer Composer
	syncer   *sync.Synchronizer
	logger   *logging.Logger
}

// New creates a runner. The synchronizer is owned by the runner and stopped
// by Close.
func New(profile *Profile, service docs.Service, ex Explorer, comp Composer) (*Runner, error) {
	if profile == nil {
		return nil, fmt.Errorf("profile is required")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger("runner")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	syncer := sync.New(service, sync.Options{
		SuggestionMode:   profile.Document.SuggestionMode,
		HighlightChanges: profile.Document.Highlight,
		Queue: queue.Options{
			BatchSize: profile.Document.BatchSize,
		},
	})

	return &Runner{
		profile:  profile,
		explorer: ex,
		composer: comp,
		syncer:   syncer,
		logger:   logger,
	}, nil
}

// Synchronizer exposes the owned synchronizer for suggestion lifecycle calls.
func (r *Runner) Synchronizer() *sync.Synchronizer {
	return r.syncer
}

// Run executes one full cycle: crawl the site, compose the draft, sync it
// into the target document.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	p := r.profile

	r.logger.Infof("starting run: %s -> document %s", p.Explore.StartURL, p.Document.ID)

	pages, err := r.explorer.Explore(ctx, explorer.CrawlOptions{
		StartURL:        p.Explore.StartURL,
		IncludePatterns: p.Explore.IncludePatterns,
		ExcludePatterns: p.Explore.ExcludePatterns,
		PageBudget:      p.Explore.PageBudget,
		SameHostOnly:    p.IsSameHostOnly(),
	})
	if err != nil {
		return nil, fmt.Errorf("exploration failed: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("exploration produced no pages for %s", p.Explore.StartURL)
	}
	r.logger.Infof("explored %d pages", len(pages))

	draft, err := r.composer.Compose(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("composition failed: %w", err)
	}
	r.logger.Infof("composed draft: %d bytes", len(draft))

	result, err := r.syncResult(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("sync failed: %w", err)
	}

	report := &Report{
		Pages:      len(pages),
		DraftBytes: len(draft),
		Added:      result.AddedCount,
		Modified:   result.ModifiedCount,
		Deleted:    result.DeletedCount,
		Unchanged:  result.UnchangedCount,
		Similarity: result.Similarity,
	}
	r.logger.Infof("run complete: +%d ~%d -%d (similarity %.2f)",
		report.Added, report.Modified, report.Deleted, report.Similarity)
	return report, nil
}

func (r *Runner) syncResult(ctx context.Context, draft string) (*diff.Result, error) {
	id := r.profile.Document.ID
	if r.profile.Document.Highlight {
		return r.syncer.SyncAndHighlight(ctx, id, draft)
	}
	return r.syncer.Sync(ctx, id, draft)
}

// Close stops the owned synchronizer and releases the logger.
func (r *Runner) Close() {
	r.syncer.Close()
	r.logger.Close()
}
