// Package tokenizer counts model tokens so the writer can keep crawled page
// content inside the model's context budget.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used for models without a registered encoding.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens for a specific model.
type Counter struct {
	encoding *tiktoken.Tiktoken
}

// NewCounter creates a token counter for the given model, falling back to
// the default encoding when the model is unknown.
func NewCounter(model string) (*Counter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to load encoding: %w", err)
		}
	}
	return &Counter{encoding: enc}, nil
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// Approximate estimates the token count without an encoding. Useful when
// the encoding data is unavailable; roughly four characters per token.
func Approximate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// Fits reports whether text stays within budget tokens.
func (c *Counter) Fits(text string, budget int) bool {
	return c.Count(text) <= budget
}

// Truncate trims text to at most budget tokens, preserving token boundaries.
func (c *Counter) Truncate(text string, budget int) string {
	tokens := c.encoding.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return text
	}
	return c.encoding.Decode(tokens[:budget])
}
