// Package docs provides the client model for the remote collaborative
// document service. The service accepts one call per document carrying an
// ordered list of primitive edit payloads and returns one reply per payload,
// or a single call-level error.
package docs

// Request is one primitive edit payload. Exactly one field is set; the
// service rejects payloads with zero or multiple operations.
type Request struct {
	InsertText             *InsertTextRequest             `json:"insertText,omitempty"`
	DeleteContentRange     *DeleteContentRangeRequest     `json:"deleteContentRange,omitempty"`
	UpdateTextStyle        *UpdateTextStyleRequest        `json:"updateTextStyle,omitempty"`
	UpdateParagraphStyle   *UpdateParagraphStyleRequest   `json:"updateParagraphStyle,omitempty"`
	CreateParagraphBullets *CreateParagraphBulletsRequest `json:"createParagraphBullets,omitempty"`
}

// Location is a character offset in the document body.
type Location struct {
	Index int `json:"index"`
}

// Range is a half-open character span [StartIndex, EndIndex).
type Range struct {
	StartIndex int `json:"startIndex"`
	EndIndex   int `json:"endIndex"`
}

// InsertTextRequest inserts text at a location.
type InsertTextRequest struct {
	Location Location `json:"location"`
	Text     string   `json:"text"`
}

// DeleteContentRangeRequest removes the content in a range.
type DeleteContentRangeRequest struct {
	Range Range `json:"range"`
}

// UpdateTextStyleRequest applies text styling over a range. Fields is a
// comma-separated mask naming which style attributes the update touches;
// attributes outside the mask are left as they are.
type UpdateTextStyleRequest struct {
	Range     Range     `json:"range"`
	TextStyle TextStyle `json:"textStyle"`
	Fields    string    `json:"fields"`
}

// UpdateParagraphStyleRequest applies paragraph styling over a range.
type UpdateParagraphStyleRequest struct {
	Range          Range          `json:"range"`
	ParagraphStyle ParagraphStyle `json:"paragraphStyle"`
	Fields         string         `json:"fields"`
}

// CreateParagraphBulletsRequest converts the paragraphs in a range into a list.
type CreateParagraphBulletsRequest struct {
	Range        Range  `json:"range"`
	BulletPreset string `json:"bulletPreset"`
}

// TextStyle holds the character-level style attributes Scribe manipulates.
// Pointer fields distinguish "unset" from an explicit false/empty value.
type TextStyle struct {
	Bold            *bool          `json:"bold,omitempty"`
	Italic          *bool          `json:"italic,omitempty"`
	Strikethrough   *bool          `json:"strikethrough,omitempty"`
	BackgroundColor *OptionalColor `json:"backgroundColor,omitempty"`
}

// OptionalColor wraps a color; a set OptionalColor with a nil Color resets
// the attribute to transparent.
type OptionalColor struct {
	Color *Color `json:"color,omitempty"`
}

// Color is an RGB color in the service's wire format.
type Color struct {
	RGB RGBColor `json:"rgbColor"`
}

// RGBColor holds channel values in [0, 1].
type RGBColor struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

// ParagraphStyle holds the paragraph-level attributes Scribe manipulates.
type ParagraphStyle struct {
	NamedStyleType string `json:"namedStyleType,omitempty"`
}

// Reply is the per-payload acknowledgement returned by a batch call. Most
// payload kinds produce an empty reply; the field is retained for reporting.
type Reply struct {
	// Raw carries any service-specific reply body, untouched.
	Raw map[string]interface{} `json:"-"`
}

// NewInsertText builds an insert-text payload at a character offset.
func NewInsertText(index int, text string) Request {
	return Request{InsertText: &InsertTextRequest{
		Location: Location{Index: index},
		Text:     text,
	}}
}

// NewDeleteRange builds a delete payload over [start, end).
func NewDeleteRange(start, end int) Request {
	return Request{DeleteContentRange: &DeleteContentRangeRequest{
		Range: Range{StartIndex: start, EndIndex: end},
	}}
}

// NewTextStyleUpdate builds a style-update payload over [start, end).
func NewTextStyleUpdate(start, end int, style TextStyle, fields string) Request {
	return Request{UpdateTextStyle: &UpdateTextStyleRequest{
		Range:     Range{StartIndex: start, EndIndex: end},
		TextStyle: style,
		Fields:    fields,
	}}
}

// NewParagraphStyleUpdate builds a paragraph-style payload over [start, end).
func NewParagraphStyleUpdate(start, end int, namedStyle string) Request {
	return Request{UpdateParagraphStyle: &UpdateParagraphStyleRequest{
		Range:          Range{StartIndex: start, EndIndex: end},
		ParagraphStyle: ParagraphStyle{NamedStyleType: namedStyle},
		Fields:         "namedStyleType",
	}}
}

// NewParagraphBullets builds a create-list payload over [start, end).
func NewParagraphBullets(start, end int, preset string) Request {
	return Request{CreateParagraphBullets: &CreateParagraphBulletsRequest{
		Range:        Range{StartIndex: start, EndIndex: end},
		BulletPreset: preset,
	}}
}

// Bool returns a pointer to b, for building TextStyle literals.
func Bool(b bool) *bool {
	return &b
}
