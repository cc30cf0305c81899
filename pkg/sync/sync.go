// Package sync orchestrates one synchronization cycle against a remote
// document: read back the current text, diff it against the desired text,
// translate the changes into edit payloads and push them through the
// mutation queue.
package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/entrhq/scribe/pkg/docs"
	"github.com/entrhq/scribe/pkg/logging"
	"github.com/entrhq/scribe/pkg/sync/diff"
	"github.com/entrhq/scribe/pkg/sync/queue"
	"github.com/entrhq/scribe/pkg/sync/suggest"
	"github.com/entrhq/scribe/pkg/sync/translate"
	"github.com/entrhq/scribe/pkg/types"
)

// DefaultSyncTimeout bounds how long Sync waits for the queue to drain.
const DefaultSyncTimeout = 2 * time.Minute

// Options configures a Synchronizer.
type Options struct {
	// SuggestionMode keeps deleted text in place under a visual marker
	// instead of removing it.
	SuggestionMode bool
	// HighlightChanges marks every applied change with a review color.
	HighlightChanges bool
	// Highlight overrides the marker colors and deletion style.
	Highlight translate.HighlightOptions
	// Queue overrides the mutation queue tuning.
	Queue queue.Options
	// SyncTimeout bounds one cycle's drain wait. Default: DefaultSyncTimeout.
	SyncTimeout time.Duration
}

// Synchronizer runs synchronization cycles for documents served by one
// document service. It owns the mutation queue and the suggestion manager;
// Close releases them.
type Synchronizer struct {
	service    docs.Service
	queue      *queue.Queue
	suggest    *suggest.Manager
	translator *translate.Translator
	engine     *diff.Engine
	timeout    time.Duration
	logger     *logging.Logger

	mu          stdsync.Mutex
	subscribers []types.Subscriber
}

// New creates a Synchronizer on top of a document service.
func New(service docs.Service, opts Options) *Synchronizer {
	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = DefaultSyncTimeout
	}
	q := queue.New(service, opts.Queue)
	logger, _ := logging.NewLogger("sync")
	return &Synchronizer{
		service:    service,
		queue:      q,
		suggest:    suggest.NewManager(service, q, opts.SuggestionMode, opts.Highlight),
		translator: translate.New(opts.SuggestionMode, opts.Highlight),
		engine:     diff.NewEngine(),
		timeout:    opts.SyncTimeout,
		logger:     logger,
	}
}

// Queue exposes the underlying mutation queue for inspection and tuning.
func (s *Synchronizer) Queue() *queue.Queue {
	return s.queue
}

// Suggestions exposes the suggestion lifecycle manager.
func (s *Synchronizer) Suggestions() *suggest.Manager {
	return s.suggest
}

// Subscribe registers a callback for the full event stream of a cycle:
// comparison events from the synchronizer itself plus queue and suggestion
// events from the owned components.
func (s *Synchronizer) Subscribe(sub types.Subscriber) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()
	s.queue.Subscribe(sub)
	s.suggest.Subscribe(sub)
}

func (s *Synchronizer) emit(ev *types.SyncEvent) {
	s.mu.Lock()
	subs := append([]types.Subscriber{}, s.subscribers...)
	s.mu.Unlock()
	for _, sub := range subs {
		sub(ev)
	}
}

// Sync runs one cycle: compare the document's current text with newText,
// apply the resulting edits and wait for them to settle. The returned result
// describes the comparison even when no edits were needed.
func (s *Synchronizer) Sync(ctx context.Context, documentID, newText string) (*diff.Result, error) {
	if documentID == "" {
		return nil, fmt.Errorf("document id is required")
	}

	doc, err := s.service.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	oldText := doc.PlainText()
	result := s.engine.Compare(oldText, newText)
	s.logger.Infof("compared %s: %d added, %d modified, %d deleted, similarity %.2f",
		documentID, result.AddedCount, result.ModifiedCount, result.DeletedCount, result.Similarity)
	s.emit(types.NewComparisonCompleteEvent(documentID, map[string]interface{}{
		"added":      result.AddedCount,
		"modified":   result.ModifiedCount,
		"deleted":    result.DeletedCount,
		"unchanged":  result.UnchangedCount,
		"similarity": result.Similarity,
	}))

	payloads := s.translator.Translate(result.Changes, len(oldText))
	if len(payloads) == 0 {
		return result, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	results, err := s.queue.ExecuteBatch(waitCtx, documentID, payloads)
	if err != nil {
		return result, fmt.Errorf("failed to apply edits: %w", err)
	}
	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return result, fmt.Errorf("some edits failed: %w", err)
	}

	if s.translator.SuggestionMode {
		s.emit(types.NewSuggestionsAppliedEvent(documentID, len(payloads)))
	}
	return result, nil
}

// SyncAndHighlight runs Sync and then marks the applied changes for review.
func (s *Synchronizer) SyncAndHighlight(ctx context.Context, documentID, newText string) (*diff.Result, error) {
	result, err := s.Sync(ctx, documentID, newText)
	if err != nil {
		return result, err
	}
	if result.TotalBlocks() > 0 {
		if err := s.suggest.Highlight(ctx, documentID, result.Changes); err != nil {
			return result, err
		}
	}
	return result, nil
}

// AcceptSuggestions materializes every pending suggestion in the document.
func (s *Synchronizer) AcceptSuggestions(ctx context.Context, documentID string) (int, error) {
	return s.suggest.AcceptAll(ctx, documentID)
}

// RejectSuggestions rolls every pending suggestion in the document back.
func (s *Synchronizer) RejectSuggestions(ctx context.Context, documentID string) (int, error) {
	return s.suggest.RejectAll(ctx, documentID)
}

// ClearHighlights removes review markers without touching text.
func (s *Synchronizer) ClearHighlights(ctx context.Context, documentID string) error {
	return s.suggest.ClearHighlights(ctx, documentID)
}

// Close stops the owned mutation queue. In-flight calls finish; pending
// requests are kept and resume if the queue is used again.
func (s *Synchronizer) Close() {
	s.queue.Stop()
}
