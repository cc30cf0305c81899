// Package suggest manages the review lifecycle of suggested edits: proposed
// changes are marked visually, then later accepted (new text materialized,
// marked-for-deletion text removed) or rejected (markers dropped, prior text
// kept).
//
// Marker state is never cached: accept and reject re-derive it by scanning
// the live document's style runs, since the remote document is the source of
// truth and other actors may edit it between proposal and resolution.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/entrhq/scribe/pkg/docs"
	"github.com/entrhq/scribe/pkg/logging"
	"github.com/entrhq/scribe/pkg/sync/diff"
	"github.com/entrhq/scribe/pkg/sync/queue"
	"github.com/entrhq/scribe/pkg/sync/translate"
	"github.com/entrhq/scribe/pkg/types"
)

// colorTolerance absorbs float drift from the JSON round trip when matching
// marker colors against live style runs.
const colorTolerance = 1e-6

// Manager drives the suggestion lifecycle for one document service.
type Manager struct {
	service        docs.Service
	queue          *queue.Queue
	suggestionMode bool
	opts           translate.HighlightOptions
	logger         *logging.Logger

	mu          sync.Mutex
	subscribers []types.Subscriber
}

// NewManager creates a suggestion lifecycle manager. suggestionMode must
// match the translator that produced the payloads, since it determines
// whether deleted spans still exist to be marked. Zero-value highlight
// options are replaced with the defaults.
func NewManager(service docs.Service, q *queue.Queue, suggestionMode bool, opts translate.HighlightOptions) *Manager {
	if opts.DeletionStyle == "" {
		opts = translate.DefaultHighlightOptions()
	}
	logger, _ := logging.NewLogger("suggest")
	return &Manager{
		service:        service,
		queue:          q,
		suggestionMode: suggestionMode,
		opts:           opts,
		logger:         logger,
	}
}

// Subscribe registers a callback for suggestion events. Callbacks are
// invoked inline and must not block.
func (m *Manager) Subscribe(sub types.Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, sub)
}

func (m *Manager) emit(ev *types.SyncEvent) {
	m.mu.Lock()
	subs := append([]types.Subscriber{}, m.subscribers...)
	m.mu.Unlock()
	for _, sub := range subs {
		sub(ev)
	}
}

// Highlight applies visual markers to every changed span: background marks
// for added and modified spans and, in suggestion mode, the configured
// deletion marker for retained deleted spans. Change positions are shifted
// past retained spans the same way the translator shifts its payloads.
// The payloads are batched through the queue and Highlight waits for
// them to settle, so markers are visible once it returns.
func (m *Manager) Highlight(ctx context.Context, documentID string, changes []diff.ContentChange) error {
	var payloads []docs.Request
	retained := 0
	for _, change := range changes {
		pos := change.Position + retained
		switch change.Type {
		case diff.Added:
			payloads = append(payloads, m.backgroundMark(pos, pos+len(change.NewContent), m.opts.AddedColor))
		case diff.Modified:
			payloads = append(payloads, m.backgroundMark(pos, pos+len(change.NewContent), m.opts.ModifiedColor))
		case diff.Deleted:
			// Outside suggestion mode the deleted text is already gone;
			// a marker here would strike whatever line took its place.
			if !m.suggestionMode {
				continue
			}
			payloads = append(payloads, m.deletionMark(pos, pos+change.Length))
			retained += change.Length + 1
		}
	}
	if len(payloads) == 0 {
		return nil
	}

	if err := m.settle(ctx, documentID, payloads); err != nil {
		return fmt.Errorf("failed to apply highlights: %w", err)
	}

	m.logger.Infof("applied %d highlight markers to %s", len(payloads), documentID)
	m.emit(types.NewHighlightsAppliedEvent(documentID, len(payloads)))
	return nil
}

// ClearHighlights resets marker styling across the full document span
// without altering text.
func (m *Manager) ClearHighlights(ctx context.Context, documentID string) error {
	doc, err := m.service.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	end := doc.EndIndex()
	if end <= 0 {
		return nil
	}

	payloads := []docs.Request{
		docs.NewTextStyleUpdate(0, end, docs.TextStyle{
			BackgroundColor: &docs.OptionalColor{},
		}, "backgroundColor"),
		docs.NewTextStyleUpdate(0, end, docs.TextStyle{
			Strikethrough: docs.Bool(false),
		}, "strikethrough"),
	}
	if err := m.settle(ctx, documentID, payloads); err != nil {
		return fmt.Errorf("failed to clear highlights: %w", err)
	}

	m.emit(types.NewHighlightsClearedEvent(documentID))
	return nil
}

// AcceptAll materializes every pending suggestion: spans carrying a deletion
// marker are actually removed, addition/modification marks are cleared and
// their text stays. Returns the number of resolved spans.
func (m *Manager) AcceptAll(ctx context.Context, documentID string) (int, error) {
	markers, err := m.scan(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if len(markers) == 0 {
		return 0, nil
	}

	var payloads []docs.Request

	// Style clears first: they address original coordinates and must not be
	// shifted by the deletions below.
	for _, span := range markers {
		if span.kind == markerAddition {
			payloads = append(payloads, docs.NewTextStyleUpdate(span.start, span.end, docs.TextStyle{
				BackgroundColor: &docs.OptionalColor{},
			}, "backgroundColor"))
		}
	}
	// Deletions back-to-front so earlier ranges stay valid as text shrinks.
	for _, span := range descending(markers, markerDeletion) {
		payloads = append(payloads, docs.NewDeleteRange(span.start, span.end))
	}

	if err := m.settle(ctx, documentID, payloads); err != nil {
		return 0, fmt.Errorf("failed to accept suggestions: %w", err)
	}
	if err := m.ClearHighlights(ctx, documentID); err != nil {
		return 0, err
	}

	m.logger.Infof("accepted %d suggested spans in %s", len(markers), documentID)
	m.emit(types.NewSuggestionsAcceptedEvent(documentID, len(markers)))
	return len(markers), nil
}

// RejectAll rolls every pending suggestion back: addition/modification spans
// are removed (restoring the prior content), deletion markers are dropped
// and their text kept. Returns the number of resolved spans.
func (m *Manager) RejectAll(ctx context.Context, documentID string) (int, error) {
	markers, err := m.scan(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if len(markers) == 0 {
		return 0, nil
	}

	var payloads []docs.Request

	for _, span := range markers {
		if span.kind == markerDeletion {
			payloads = append(payloads, docs.NewTextStyleUpdate(span.start, span.end, docs.TextStyle{
				Strikethrough: docs.Bool(false),
			}, "strikethrough"))
		}
	}
	for _, span := range descending(markers, markerAddition) {
		payloads = append(payloads, docs.NewDeleteRange(span.start, span.end))
	}

	if err := m.settle(ctx, documentID, payloads); err != nil {
		return 0, fmt.Errorf("failed to reject suggestions: %w", err)
	}
	if err := m.ClearHighlights(ctx, documentID); err != nil {
		return 0, err
	}

	m.logger.Infof("rejected %d suggested spans in %s", len(markers), documentID)
	m.emit(types.NewSuggestionsRejectedEvent(documentID, len(markers)))
	return len(markers), nil
}

// settle submits payloads through the queue and folds per-payload failures
// into one error.
func (m *Manager) settle(ctx context.Context, documentID string, payloads []docs.Request) error {
	results, err := m.queue.ExecuteBatch(ctx, documentID, payloads)
	if err != nil {
		return err
	}
	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

type markerKind int

const (
	markerDeletion markerKind = iota
	markerAddition
)

type markerSpan struct {
	start int
	end   int
	kind  markerKind
}

// scan re-derives marker state from the live document's style runs, merging
// adjacent runs of the same marker kind into one span.
func (m *Manager) scan(ctx context.Context, documentID string) ([]markerSpan, error) {
	doc, err := m.service.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var spans []markerSpan
	for _, run := range doc.TextRuns() {
		kind, ok := m.classify(run.Run.TextStyle)
		if !ok {
			continue
		}
		if n := len(spans); n > 0 && spans[n-1].kind == kind && spans[n-1].end == run.StartIndex {
			spans[n-1].end = run.EndIndex
			continue
		}
		spans = append(spans, markerSpan{start: run.StartIndex, end: run.EndIndex, kind: kind})
	}
	return spans, nil
}

// classify decides whether a run's style is one of our markers.
func (m *Manager) classify(style *docs.TextStyle) (markerKind, bool) {
	if style == nil {
		return 0, false
	}
	if m.opts.DeletionStyle == translate.DeletionStrikethrough {
		if style.Strikethrough != nil && *style.Strikethrough {
			return markerDeletion, true
		}
	} else if hasBackground(style, m.opts.DeletedColor) {
		return markerDeletion, true
	}
	if hasBackground(style, m.opts.AddedColor) || hasBackground(style, m.opts.ModifiedColor) {
		return markerAddition, true
	}
	return 0, false
}

func hasBackground(style *docs.TextStyle, want docs.RGBColor) bool {
	if style.BackgroundColor == nil || style.BackgroundColor.Color == nil {
		return false
	}
	got := style.BackgroundColor.Color.RGB
	return math.Abs(got.Red-want.Red) < colorTolerance &&
		math.Abs(got.Green-want.Green) < colorTolerance &&
		math.Abs(got.Blue-want.Blue) < colorTolerance
}

// descending returns the spans of one kind sorted by start index, highest
// first.
func descending(spans []markerSpan, kind markerKind) []markerSpan {
	var out []markerSpan
	for _, s := range spans {
		if s.kind == kind {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start > out[j].start })
	return out
}

func (m *Manager) backgroundMark(start, end int, color docs.RGBColor) docs.Request {
	return docs.NewTextStyleUpdate(start, end, docs.TextStyle{
		BackgroundColor: &docs.OptionalColor{Color: &docs.Color{RGB: color}},
	}, "backgroundColor")
}

func (m *Manager) deletionMark(start, end int) docs.Request {
	if m.opts.DeletionStyle == translate.DeletionBackground {
		return m.backgroundMark(start, end, m.opts.DeletedColor)
	}
	return docs.NewTextStyleUpdate(start, end, docs.TextStyle{
		Strikethrough: docs.Bool(true),
	}, "strikethrough")
}
