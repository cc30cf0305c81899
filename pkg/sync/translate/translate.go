// Package translate converts diff change records into the primitive edit
// payloads the remote document service accepts.
package translate

import (
	"github.com/entrhq/scribe/pkg/docs"
	"github.com/entrhq/scribe/pkg/sync/diff"
)

// DeletionStyle selects how a suggested deletion is marked.
type DeletionStyle string

const (
	// DeletionStrikethrough marks suggested deletions with a strike through
	// the text, in place.
	DeletionStrikethrough DeletionStyle = "strikethrough"
	// DeletionBackground marks suggested deletions with a background
	// highlight instead of a strike.
	DeletionBackground DeletionStyle = "background"
)

// HighlightOptions controls marker appearance for changed spans.
type HighlightOptions struct {
	AddedColor    docs.RGBColor
	ModifiedColor docs.RGBColor
	DeletedColor  docs.RGBColor
	DeletionStyle DeletionStyle
}

// DefaultHighlightOptions returns the marker palette used when the caller
// supplies none: green for additions, yellow for modifications, red for
// deletions, strike-through deletion markers.
func DefaultHighlightOptions() HighlightOptions {
	return HighlightOptions{
		AddedColor:    docs.RGBColor{Red: 0.83, Green: 0.97, Blue: 0.85},
		ModifiedColor: docs.RGBColor{Red: 1.0, Green: 0.95, Blue: 0.77},
		DeletedColor:  docs.RGBColor{Red: 0.98, Green: 0.82, Blue: 0.82},
		DeletionStyle: DeletionStrikethrough,
	}
}

// Translator converts change records into mutation payloads.
//
// In suggestion mode destructive deletions are replaced by non-destructive
// deletion markers; the actual removal is deferred until the suggestion is
// resolved by the lifecycle manager.
type Translator struct {
	SuggestionMode bool
	Highlight      HighlightOptions
}

// New creates a translator. Zero-value highlight options are replaced with
// the defaults.
func New(suggestionMode bool, opts HighlightOptions) *Translator {
	if opts.DeletionStyle == "" {
		opts = DefaultHighlightOptions()
	}
	return &Translator{SuggestionMode: suggestionMode, Highlight: opts}
}

// Translate converts the change list into payloads in list order. Unchanged
// records produce nothing. docLength is the character length of the document
// being edited; deletions of a final line without a trailing newline are
// clamped to it (pass 0 when unknown to disable clamping).
//
// Change positions assume deleted lines are entirely absent from the final
// document. In suggestion mode the marked text stays in place instead, so
// every payload after a retained span is shifted right by that span's length
// plus its newline.
func (t *Translator) Translate(changes []diff.ContentChange, docLength int) []docs.Request {
	var requests []docs.Request
	retained := 0
	delta := 0
	for _, change := range changes {
		shifted := change
		shifted.Position += retained
		for _, req := range t.TranslateChange(shifted) {
			// The document is docLength+delta characters long by the time
			// this payload applies; a delete range must not reach past it.
			if r := req.DeleteContentRange; r != nil && docLength > 0 {
				if end := docLength + delta; r.Range.EndIndex > end {
					r.Range.EndIndex = end
				}
			}
			delta += lengthDelta(req)
			requests = append(requests, req)
		}
		if t.SuggestionMode && change.Type == diff.Deleted {
			retained += change.Length + 1
		}
	}
	return requests
}

// lengthDelta is the net character count one payload adds to the document.
func lengthDelta(req docs.Request) int {
	switch {
	case req.InsertText != nil:
		return len(req.InsertText.Text)
	case req.DeleteContentRange != nil:
		return req.DeleteContentRange.Range.StartIndex - req.DeleteContentRange.Range.EndIndex
	default:
		return 0
	}
}

// TranslateChange converts a single change record into its payloads.
func (t *Translator) TranslateChange(change diff.ContentChange) []docs.Request {
	switch change.Type {
	case diff.Added:
		// Added lines carry their own newline so the insertion creates a
		// line rather than extending its neighbor.
		return []docs.Request{
			docs.NewInsertText(change.Position, change.NewContent+"\n"),
		}

	case diff.Modified:
		// Delete must precede insert within the same call: both address the
		// same offset and the service applies payloads in order.
		return []docs.Request{
			docs.NewDeleteRange(change.Position, change.Position+change.Length),
			docs.NewInsertText(change.Position, change.NewContent),
		}

	case diff.Deleted:
		if t.SuggestionMode {
			return []docs.Request{t.deletionMarker(change)}
		}
		// Length covers the line text only; the range extends one past it so
		// the line's newline goes with it.
		return []docs.Request{
			docs.NewDeleteRange(change.Position, change.Position+change.Length+1),
		}

	default:
		return nil
	}
}

// deletionMarker builds the non-destructive style payload that stands in for
// a deletion while the suggestion is pending.
func (t *Translator) deletionMarker(change diff.ContentChange) docs.Request {
	start := change.Position
	end := change.Position + change.Length

	if t.Highlight.DeletionStyle == DeletionBackground {
		return docs.NewTextStyleUpdate(start, end, docs.TextStyle{
			BackgroundColor: &docs.OptionalColor{Color: &docs.Color{RGB: t.Highlight.DeletedColor}},
		}, "backgroundColor")
	}
	return docs.NewTextStyleUpdate(start, end, docs.TextStyle{
		Strikethrough: docs.Bool(true),
	}, "strikethrough")
}
