package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/scribe/pkg/docs"
	"github.com/entrhq/scribe/pkg/sync/queue"
	"github.com/entrhq/scribe/pkg/types"
)

// fakeService holds a body text, applies edits to it and records batch
// calls. Out-of-range edits fail the call the way the real service would.
type fakeService struct {
	mu     stdsync.Mutex
	text   string
	getErr error
	calls  [][]docs.Request
}

func (f *fakeService) BatchUpdate(ctx context.Context, documentID string, requests []docs.Request) ([]docs.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]docs.Request, len(requests))
	copy(cp, requests)
	f.calls = append(f.calls, cp)

	for _, req := range requests {
		switch {
		case req.InsertText != nil:
			idx := req.InsertText.Location.Index
			if idx < 0 || idx > len(f.text) {
				return nil, fmt.Errorf("insert index %d out of range", idx)
			}
			f.text = f.text[:idx] + req.InsertText.Text + f.text[idx:]
		case req.DeleteContentRange != nil:
			r := req.DeleteContentRange.Range
			if r.StartIndex < 0 || r.EndIndex < r.StartIndex || r.EndIndex > len(f.text) {
				return nil, fmt.Errorf("delete range [%d,%d) out of range", r.StartIndex, r.EndIndex)
			}
			f.text = f.text[:r.StartIndex] + f.text[r.EndIndex:]
		}
	}
	return make([]docs.Reply, len(requests)), nil
}

func (f *fakeService) currentText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text
}

func (f *fakeService) Get(ctx context.Context, documentID string) (*docs.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc := &docs.Document{DocumentID: documentID}
	if f.text != "" {
		doc.Body = docs.Body{Content: []docs.StructuralElement{{
			StartIndex: 0,
			EndIndex:   len(f.text),
			Paragraph: &docs.Paragraph{Elements: []docs.ParagraphElement{{
				StartIndex: 0,
				EndIndex:   len(f.text),
				TextRun:    &docs.TextRun{Content: f.text},
			}}},
		}}}
	}
	return doc, nil
}

func (f *fakeService) recordedCalls() [][]docs.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]docs.Request, len(f.calls))
	copy(out, f.calls)
	return out
}

func newTestSynchronizer(t *testing.T, service *fakeService, opts Options) *Synchronizer {
	t.Helper()
	t.Setenv("SCRIBE_LOG_DIR", t.TempDir())
	opts.Queue = queue.Options{
		TickInterval: 5 * time.Millisecond,
		PollInterval: 2 * time.Millisecond,
	}
	s := New(service, opts)
	t.Cleanup(s.Close)
	return s
}

func TestSyncInsertsIntoEmptyDocument(t *testing.T) {
	service := &fakeService{}
	s := newTestSynchronizer(t, service, Options{})

	result, err := s.Sync(context.Background(), "doc-1", "Hello world")
	require.NoError(t, err)
	assert.Equal(t, 1, result.AddedCount)

	calls := service.recordedCalls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0], 1)
	insert := calls[0][0].InsertText
	require.NotNil(t, insert)
	assert.Equal(t, 0, insert.Location.Index)
	assert.Equal(t, "Hello world\n", insert.Text)
}

func TestSyncIdenticalTextIsReadOnly(t *testing.T) {
	service := &fakeService{text: "Line A\nLine B\n"}
	s := newTestSynchronizer(t, service, Options{})

	result, err := s.Sync(context.Background(), "doc-1", "Line A\nLine B\n")
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Similarity)
	assert.Empty(t, service.recordedCalls())
}

func TestSyncModifiedLineDirectMode(t *testing.T) {
	service := &fakeService{text: "Line A\nLine B\n"}
	s := newTestSynchronizer(t, service, Options{})

	result, err := s.Sync(context.Background(), "doc-1", "Line A\nLine C\n")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ModifiedCount)

	calls := service.recordedCalls()
	require.Len(t, calls, 1)
	payloads := calls[0]
	require.Len(t, payloads, 2)

	del := payloads[0].DeleteContentRange
	require.NotNil(t, del)
	assert.Equal(t, docs.Range{StartIndex: 7, EndIndex: 13}, del.Range)

	insert := payloads[1].InsertText
	require.NotNil(t, insert)
	assert.Equal(t, 7, insert.Location.Index)
	assert.Equal(t, "Line C", insert.Text)
}

func TestSyncSuggestionModeKeepsDeletedText(t *testing.T) {
	service := &fakeService{text: "Keep\nDrop\n"}
	s := newTestSynchronizer(t, service, Options{SuggestionMode: true})

	var applied *types.SyncEvent
	s.Subscribe(func(ev *types.SyncEvent) {
		if ev.Type == types.EventTypeSuggestionsApplied {
			applied = ev
		}
	})

	result, err := s.Sync(context.Background(), "doc-1", "Keep\n")
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeletedCount)

	calls := service.recordedCalls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0], 1)
	marker := calls[0][0].UpdateTextStyle
	require.NotNil(t, marker)
	assert.Equal(t, docs.Range{StartIndex: 5, EndIndex: 9}, marker.Range)
	assert.Equal(t, "strikethrough", marker.Fields)

	require.NotNil(t, applied)
	assert.Equal(t, "doc-1", applied.DocumentID)
}

func TestSyncDirectDeletionLeavesNoResidue(t *testing.T) {
	service := &fakeService{text: "DEL\nKEEP\n"}
	s := newTestSynchronizer(t, service, Options{})

	_, err := s.Sync(context.Background(), "doc-1", "KEEP\nNEW\n")
	require.NoError(t, err)

	// The deleted line's newline must go with it or the surviving lines end
	// up glued together around a stray blank.
	assert.Equal(t, "KEEP\nNEW\n", service.currentText())
}

func TestSyncPureDeletionRemovesWholeLine(t *testing.T) {
	service := &fakeService{text: "Keep A\nDrop\nKeep B\n"}
	s := newTestSynchronizer(t, service, Options{})

	result, err := s.Sync(context.Background(), "doc-1", "Keep A\nKeep B\n")
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeletedCount)
	assert.Equal(t, "Keep A\nKeep B\n", service.currentText())
}

func TestSyncDirectModeWithoutFinalNewline(t *testing.T) {
	service := &fakeService{text: "A\nB"}
	s := newTestSynchronizer(t, service, Options{})

	_, err := s.Sync(context.Background(), "doc-1", "A\n")
	require.NoError(t, err)
	assert.Equal(t, "A\n", service.currentText())
}

func TestSyncSuggestionModeOffsetsLaterEdits(t *testing.T) {
	service := &fakeService{text: "DEL\nKEEP\n"}
	s := newTestSynchronizer(t, service, Options{SuggestionMode: true})

	_, err := s.Sync(context.Background(), "doc-1", "KEEP\nNEW\n")
	require.NoError(t, err)

	// The struck line stays in the document, so the new line lands after
	// KEEP rather than inside it.
	assert.Equal(t, "DEL\nKEEP\nNEW\n", service.currentText())

	calls := service.recordedCalls()
	require.Len(t, calls, 1)
	var marker *docs.UpdateTextStyleRequest
	for _, req := range calls[0] {
		if req.UpdateTextStyle != nil {
			marker = req.UpdateTextStyle
		}
	}
	require.NotNil(t, marker)
	assert.Equal(t, docs.Range{StartIndex: 0, EndIndex: 3}, marker.Range)
}

func TestSyncAndHighlightMarksChanges(t *testing.T) {
	service := &fakeService{text: ""}
	s := newTestSynchronizer(t, service, Options{HighlightChanges: true})

	_, err := s.SyncAndHighlight(context.Background(), "doc-1", "Fresh content")
	require.NoError(t, err)

	calls := service.recordedCalls()
	require.Len(t, calls, 2)
	require.NotNil(t, calls[0][0].InsertText)
	require.NotNil(t, calls[1][0].UpdateTextStyle)
	assert.Equal(t, "backgroundColor", calls[1][0].UpdateTextStyle.Fields)
}

func TestSyncAndHighlightDirectModeSkipsDeletionMarkers(t *testing.T) {
	service := &fakeService{text: "Old\nKeep\n"}
	s := newTestSynchronizer(t, service, Options{HighlightChanges: true})

	_, err := s.SyncAndHighlight(context.Background(), "doc-1", "Keep\n")
	require.NoError(t, err)

	// The only change is a destructive deletion, so the highlight pass has
	// nothing to mark and must not touch the surviving text.
	calls := service.recordedCalls()
	require.Len(t, calls, 1)
	for _, req := range calls[0] {
		assert.Nil(t, req.UpdateTextStyle)
	}
	assert.Equal(t, "Keep\n", service.currentText())
}

func TestSyncEmitsComparisonEvent(t *testing.T) {
	service := &fakeService{text: "Line A\n"}
	s := newTestSynchronizer(t, service, Options{})

	var comparison *types.SyncEvent
	s.Subscribe(func(ev *types.SyncEvent) {
		if ev.Type == types.EventTypeComparisonComplete {
			comparison = ev
		}
	})

	_, err := s.Sync(context.Background(), "doc-1", "Line A\nLine B\n")
	require.NoError(t, err)

	require.NotNil(t, comparison)
	assert.Equal(t, 1, comparison.Metadata["added"])
	assert.Equal(t, 1, comparison.Metadata["unchanged"])
}

func TestSyncReadFailure(t *testing.T) {
	service := &fakeService{getErr: errors.New("document not found")}
	s := newTestSynchronizer(t, service, Options{})

	_, err := s.Sync(context.Background(), "doc-1", "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read document")
}

func TestSyncRequiresDocumentID(t *testing.T) {
	s := newTestSynchronizer(t, &fakeService{}, Options{})
	_, err := s.Sync(context.Background(), "", "anything")
	require.Error(t, err)
}
