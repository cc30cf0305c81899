package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func styledDoc() *Document {
	strike := Bool(true)
	return &Document{
		DocumentID: "doc-1",
		Body: Body{Content: []StructuralElement{
			{
				StartIndex: 0,
				EndIndex:   12,
				Paragraph: &Paragraph{Elements: []ParagraphElement{
					{StartIndex: 0, EndIndex: 7, TextRun: &TextRun{Content: "Line A\n"}},
					{StartIndex: 7, EndIndex: 12, TextRun: &TextRun{
						Content:   "gone\n",
						TextStyle: &TextStyle{Strikethrough: strike},
					}},
				}},
			},
			{StartIndex: 12, EndIndex: 13}, // section break, no paragraph
		}},
	}
}

func TestPlainTextSkipsNonParagraphElements(t *testing.T) {
	doc := styledDoc()
	assert.Equal(t, "Line A\ngone\n", doc.PlainText())
}

func TestTextRunsPreserveSpans(t *testing.T) {
	runs := styledDoc().TextRuns()
	assert.Len(t, runs, 2)
	assert.Equal(t, 0, runs[0].StartIndex)
	assert.Equal(t, 7, runs[0].EndIndex)
	assert.Equal(t, 7, runs[1].StartIndex)
	assert.Equal(t, 12, runs[1].EndIndex)
	assert.NotNil(t, runs[1].Run.TextStyle)
	assert.True(t, *runs[1].Run.TextStyle.Strikethrough)
}

func TestEndIndex(t *testing.T) {
	assert.Equal(t, 13, styledDoc().EndIndex())

	empty := &Document{}
	assert.Equal(t, 0, empty.EndIndex())
}
