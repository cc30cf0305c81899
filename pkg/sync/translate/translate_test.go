package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/scribe/pkg/docs"
	"github.com/entrhq/scribe/pkg/sync/diff"
)

func TestAddedProducesInsert(t *testing.T) {
	tr := New(false, HighlightOptions{})

	requests := tr.TranslateChange(diff.ContentChange{
		Type:       diff.Added,
		NewContent: "New paragraph",
		Position:   42,
		Length:     13,
	})

	require.Len(t, requests, 1)
	require.NotNil(t, requests[0].InsertText)
	assert.Equal(t, 42, requests[0].InsertText.Location.Index)
	assert.Equal(t, "New paragraph\n", requests[0].InsertText.Text)
}

func TestModifiedProducesDeleteThenInsert(t *testing.T) {
	tr := New(false, HighlightOptions{})

	requests := tr.TranslateChange(diff.ContentChange{
		Type:       diff.Modified,
		OldContent: "Line B",
		NewContent: "Line C",
		Position:   7,
		Length:     6,
	})

	require.Len(t, requests, 2)
	require.NotNil(t, requests[0].DeleteContentRange, "delete must precede insert")
	assert.Equal(t, docs.Range{StartIndex: 7, EndIndex: 13}, requests[0].DeleteContentRange.Range)
	require.NotNil(t, requests[1].InsertText)
	assert.Equal(t, 7, requests[1].InsertText.Location.Index)
	assert.Equal(t, "Line C", requests[1].InsertText.Text)
}

func TestDeletedDirectModeProducesDelete(t *testing.T) {
	tr := New(false, HighlightOptions{})

	requests := tr.TranslateChange(diff.ContentChange{
		Type:       diff.Deleted,
		OldContent: "stale line",
		Position:   5,
		Length:     10,
	})

	require.Len(t, requests, 1)
	require.NotNil(t, requests[0].DeleteContentRange)
	assert.Equal(t, docs.Range{StartIndex: 5, EndIndex: 16}, requests[0].DeleteContentRange.Range,
		"range must cover the line's newline, not just its text")
}

func TestDeletedSuggestionModeProducesStrikeMarker(t *testing.T) {
	tr := New(true, HighlightOptions{})

	requests := tr.TranslateChange(diff.ContentChange{
		Type:       diff.Deleted,
		OldContent: "stale line",
		Position:   5,
		Length:     10,
	})

	require.Len(t, requests, 1, "suggestion-mode deletion is exactly one style update")
	require.Nil(t, requests[0].DeleteContentRange)
	style := requests[0].UpdateTextStyle
	require.NotNil(t, style)
	assert.Equal(t, docs.Range{StartIndex: 5, EndIndex: 15}, style.Range)
	require.NotNil(t, style.TextStyle.Strikethrough)
	assert.True(t, *style.TextStyle.Strikethrough)
	assert.Equal(t, "strikethrough", style.Fields)
}

func TestDeletedSuggestionModeBackgroundStyle(t *testing.T) {
	opts := DefaultHighlightOptions()
	opts.DeletionStyle = DeletionBackground
	tr := New(true, opts)

	requests := tr.TranslateChange(diff.ContentChange{
		Type:     diff.Deleted,
		Position: 0,
		Length:   4,
	})

	require.Len(t, requests, 1)
	style := requests[0].UpdateTextStyle
	require.NotNil(t, style)
	assert.Equal(t, "backgroundColor", style.Fields)
	require.NotNil(t, style.TextStyle.BackgroundColor)
	require.NotNil(t, style.TextStyle.BackgroundColor.Color)
	assert.Equal(t, opts.DeletedColor, style.TextStyle.BackgroundColor.Color.RGB)
}

func TestUnchangedProducesNothing(t *testing.T) {
	tr := New(false, HighlightOptions{})

	requests := tr.Translate([]diff.ContentChange{
		{Type: diff.Unchanged, OldContent: "same", NewContent: "same", Position: 0, Length: 4},
	}, 5)

	assert.Empty(t, requests)
}

func TestTranslatePreservesListOrder(t *testing.T) {
	tr := New(false, HighlightOptions{})

	requests := tr.Translate([]diff.ContentChange{
		{Type: diff.Unchanged, OldContent: "head", NewContent: "head", Position: 0, Length: 4},
		{Type: diff.Modified, OldContent: "mid", NewContent: "middle", Position: 5, Length: 3},
		{Type: diff.Added, NewContent: "tail", Position: 12, Length: 4},
	}, 9)

	require.Len(t, requests, 3)
	assert.NotNil(t, requests[0].DeleteContentRange)
	assert.NotNil(t, requests[1].InsertText)
	assert.NotNil(t, requests[2].InsertText)
	assert.Equal(t, "tail\n", requests[2].InsertText.Text)
}

// applyPayloads replays payloads against text the way the service would,
// in list order. Style updates leave text untouched.
func applyPayloads(t *testing.T, text string, requests []docs.Request) string {
	t.Helper()
	for _, req := range requests {
		switch {
		case req.InsertText != nil:
			idx := req.InsertText.Location.Index
			require.LessOrEqual(t, idx, len(text), "insert index out of range")
			text = text[:idx] + req.InsertText.Text + text[idx:]
		case req.DeleteContentRange != nil:
			r := req.DeleteContentRange.Range
			require.GreaterOrEqual(t, r.StartIndex, 0, "delete start out of range")
			require.LessOrEqual(t, r.StartIndex, r.EndIndex, "inverted delete range")
			require.LessOrEqual(t, r.EndIndex, len(text), "delete end out of range")
			text = text[:r.StartIndex] + text[r.EndIndex:]
		}
	}
	return text
}

func TestDirectModePayloadsReplayToNewText(t *testing.T) {
	cases := []struct {
		name string
		old  string
		new  string
	}{
		{"delete then add", "DEL\nKEEP\n", "KEEP\nNEW\n"},
		{"pure deletion", "Keep A\nDrop\nKeep B\n", "Keep A\nKeep B\n"},
		{"empty document", "", "Hello world\n"},
		{"full rewrite", "old one\nold two\n", "brand new\ncontent here\nthird line\n"},
		{"interleaved edits", "alpha\nbeta\ngamma\ndelta\n", "alpha\nBETA\nnew line\ndelta\n"},
	}

	engine := diff.NewEngine()
	tr := New(false, HighlightOptions{})

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := engine.Compare(tc.old, tc.new)
			requests := tr.Translate(result.Changes, len(tc.old))
			assert.Equal(t, tc.new, applyPayloads(t, tc.old, requests))
		})
	}
}

func TestDirectModeDeleteClampedWithoutFinalNewline(t *testing.T) {
	engine := diff.NewEngine()
	tr := New(false, HighlightOptions{})

	// The comparison normalizes a missing trailing newline, so the deletion
	// of the last line reaches one past the real document end and must be
	// clamped to it.
	old := "A\nB"
	result := engine.Compare(old, "A\n")
	requests := tr.Translate(result.Changes, len(old))

	assert.Equal(t, "A\n", applyPayloads(t, old, requests))
}

func TestSuggestionModePayloadsRetainDeletedText(t *testing.T) {
	engine := diff.NewEngine()
	tr := New(true, DefaultHighlightOptions())

	old := "DEL\nKEEP\n"
	result := engine.Compare(old, "KEEP\nNEW\n")
	requests := tr.Translate(result.Changes, len(old))

	// The deleted line stays in place with a strike marker; every later
	// payload lands past it rather than at its pre-deletion offset.
	assert.Equal(t, "DEL\nKEEP\nNEW\n", applyPayloads(t, old, requests))

	var marker *docs.UpdateTextStyleRequest
	for _, req := range requests {
		require.Nil(t, req.DeleteContentRange, "suggestion mode must not delete text")
		if req.UpdateTextStyle != nil {
			marker = req.UpdateTextStyle
		}
	}
	require.NotNil(t, marker)
	assert.Equal(t, docs.Range{StartIndex: 0, EndIndex: 3}, marker.Range)
}

func TestSuggestionModeModifiedReplacesInPlace(t *testing.T) {
	engine := diff.NewEngine()
	tr := New(true, DefaultHighlightOptions())

	old := "A\nB\nC\n"
	result := engine.Compare(old, "A\nX\nC\n")
	requests := tr.Translate(result.Changes, len(old))

	// Modified lines are replaced immediately in both modes; only deletions
	// are held back as suggestions.
	assert.Equal(t, "A\nX\nC\n", applyPayloads(t, old, requests))
}
