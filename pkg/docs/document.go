package docs

import "strings"

// Document is the read-back representation of a remote document: its
// structural element list plus enough metadata to address edits.
type Document struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
	Body       Body   `json:"body"`
}

// Body holds the ordered structural elements of the document.
type Body struct {
	Content []StructuralElement `json:"content"`
}

// StructuralElement is one block-level element. Only paragraphs carry text;
// other kinds (tables, section breaks) are opaque to Scribe.
type StructuralElement struct {
	StartIndex int        `json:"startIndex"`
	EndIndex   int        `json:"endIndex"`
	Paragraph  *Paragraph `json:"paragraph,omitempty"`
}

// Paragraph is a run-structured block of text.
type Paragraph struct {
	Elements       []ParagraphElement `json:"elements"`
	ParagraphStyle *ParagraphStyle    `json:"paragraphStyle,omitempty"`
}

// ParagraphElement is one span within a paragraph.
type ParagraphElement struct {
	StartIndex int      `json:"startIndex"`
	EndIndex   int      `json:"endIndex"`
	TextRun    *TextRun `json:"textRun,omitempty"`
}

// TextRun is a contiguous span of text sharing one style.
type TextRun struct {
	Content   string     `json:"content"`
	TextStyle *TextStyle `json:"textStyle,omitempty"`
}

// RunSpan pairs a text run with its character span, for style scanning.
type RunSpan struct {
	StartIndex int
	EndIndex   int
	Run        *TextRun
}

// PlainText concatenates the document's text runs into the full body text.
func (d *Document) PlainText() string {
	var b strings.Builder
	for _, se := range d.Body.Content {
		if se.Paragraph == nil {
			continue
		}
		for _, pe := range se.Paragraph.Elements {
			if pe.TextRun != nil {
				b.WriteString(pe.TextRun.Content)
			}
		}
	}
	return b.String()
}

// TextRuns returns every text run in document order with its span.
func (d *Document) TextRuns() []RunSpan {
	var runs []RunSpan
	for _, se := range d.Body.Content {
		if se.Paragraph == nil {
			continue
		}
		for _, pe := range se.Paragraph.Elements {
			if pe.TextRun == nil {
				continue
			}
			runs = append(runs, RunSpan{
				StartIndex: pe.StartIndex,
				EndIndex:   pe.EndIndex,
				Run:        pe.TextRun,
			})
		}
	}
	return runs
}

// EndIndex returns the index one past the last character of the body,
// or 0 for an empty document.
func (d *Document) EndIndex() int {
	end := 0
	for _, se := range d.Body.Content {
		if se.EndIndex > end {
			end = se.EndIndex
		}
	}
	return end
}
