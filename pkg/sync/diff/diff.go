// Package diff computes the structural difference between the last known
// text of a document and a newly generated text, as an ordered list of typed
// change records the translator can turn into edit payloads.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeType classifies one unit of textual difference.
type ChangeType string

const (
	// Added is a line present only in the new text.
	Added ChangeType = "added"
	// Modified is an old line replaced by a new line at the same spot.
	Modified ChangeType = "modified"
	// Deleted is a line present only in the old text.
	Deleted ChangeType = "deleted"
	// Unchanged is a line common to both texts.
	Unchanged ChangeType = "unchanged"
)

// ContentChange represents one unit of textual difference.
//
// Position is a character offset in the target document's coordinate space
// at the time the change list was produced: it advances only for lines that
// will remain in the final document (added and unchanged), so edits applied
// in list order land at the right offsets.
type ContentChange struct {
	Type       ChangeType
	OldContent string
	NewContent string
	Position   int
	Length     int
}

// Result aggregates one diff run. It is immutable after Compare returns.
type Result struct {
	Changes        []ContentChange
	AddedCount     int
	ModifiedCount  int
	DeletedCount   int
	UnchangedCount int

	// Similarity is unchanged / total blocks, 0 when no blocks exist.
	Similarity float64
}

// TotalBlocks returns the number of counted (non-blank) diff blocks.
func (r *Result) TotalBlocks() int {
	return r.AddedCount + r.ModifiedCount + r.DeletedCount + r.UnchangedCount
}

// Engine computes line-based diffs.
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewEngine creates a diff engine.
func NewEngine() *Engine {
	return &Engine{dmp: diffmatchpatch.New()}
}

// Compare diffs oldText against newText and classifies every non-blank line.
// Blank lines (after trimming whitespace) are excluded from counts and from
// position advancement so formatting-only differences produce no noise.
func (e *Engine) Compare(oldText, newText string) *Result {
	oldText = ensureTrailingNewline(normalizeNewlines(oldText))
	newText = ensureTrailingNewline(normalizeNewlines(newText))

	oldChars, newChars, lineIndex := e.dmp.DiffLinesToChars(oldText, newText)
	diffs := e.dmp.DiffMain(oldChars, newChars, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lineIndex)

	result := &Result{}
	position := 0

	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			if strings.TrimSpace(line) == "" {
				continue
			}

			switch d.Type {
			case diffmatchpatch.DiffEqual:
				result.Changes = append(result.Changes, ContentChange{
					Type:       Unchanged,
					OldContent: line,
					NewContent: line,
					Position:   position,
					Length:     len(line),
				})
				result.UnchangedCount++
				position += len(line) + 1
			case diffmatchpatch.DiffInsert:
				result.Changes = append(result.Changes, ContentChange{
					Type:       Added,
					NewContent: line,
					Position:   position,
					Length:     len(line),
				})
				result.AddedCount++
				position += len(line) + 1
			case diffmatchpatch.DiffDelete:
				// Deleted lines do not advance the running position; the
				// span they occupied is tracked by Length alone.
				result.Changes = append(result.Changes, ContentChange{
					Type:       Deleted,
					OldContent: line,
					Position:   position,
					Length:     len(line),
				})
				result.DeletedCount++
			}
		}
	}

	collapseModifications(result)

	if total := result.TotalBlocks(); total > 0 {
		result.Similarity = float64(result.UnchangedCount) / float64(total)
	}
	return result
}

// collapseModifications rewrites each adjacent deleted+added pair into a
// single modified record. Only directly adjacent pairs collapse; a deleted
// line whose replacement appears further away stays as two records.
func collapseModifications(result *Result) {
	changes := result.Changes
	for i := 0; i+1 < len(changes); i++ {
		if changes[i].Type != Deleted || changes[i+1].Type != Added {
			continue
		}
		changes[i] = ContentChange{
			Type:       Modified,
			OldContent: changes[i].OldContent,
			NewContent: changes[i+1].NewContent,
			Position:   changes[i].Position,
			Length:     changes[i].Length,
		}
		changes = append(changes[:i+1], changes[i+2:]...)
		result.DeletedCount--
		result.AddedCount--
		result.ModifiedCount++
	}
	result.Changes = changes
}

// normalizeNewlines rewrites CRLF and bare CR line endings to LF so the
// line diff never reports ending-only differences.
func normalizeNewlines(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}

// ensureTrailingNewline terminates non-empty content with a newline so the
// final line of each input compares as the same line unit as its peers.
func ensureTrailingNewline(content string) string {
	if content == "" || strings.HasSuffix(content, "\n") {
		return content
	}
	return content + "\n"
}

// splitLines splits content into lines. Empty content returns an empty
// slice (not a slice with one empty string).
func splitLines(content string) []string {
	if content == "" {
		return []string{}
	}

	lines := strings.Split(normalizeNewlines(content), "\n")

	// Content ending with a newline yields a trailing empty string; drop it
	// to get an accurate line list.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
