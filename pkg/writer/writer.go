// Package writer composes the desired document text from explored product
// pages using an LLM provider. Its output is the "new text" side of a
// synchronization cycle.
package writer

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/scribe/pkg/explorer"
	"github.com/entrhq/scribe/pkg/llm"
	"github.com/entrhq/scribe/pkg/llm/tokenizer"
	"github.com/entrhq/scribe/pkg/logging"
	"github.com/entrhq/scribe/pkg/types"
)

// DefaultContextBudget caps how many tokens of page content go into one
// composition request.
const DefaultContextBudget = 24000

// Options configures a Writer.
type Options struct {
	// ProductName names the product in the system prompt.
	ProductName string

	// Audience describes who the documentation is written for.
	Audience string

	// ContextBudget caps page-content tokens per request.
	// Default: DefaultContextBudget.
	ContextBudget int
}

// Writer turns crawled pages into a full documentation draft.
type Writer struct {
	provider llm.Provider
	counter  *tokenizer.Counter
	opts     Options
	logger   *logging.Logger
}

// New creates a Writer on top of an LLM provider. Token counting falls back
// to an approximation when the model's encoding data is unavailable.
func New(provider llm.Provider, opts Options) *Writer {
	if opts.ContextBudget <= 0 {
		opts.ContextBudget = DefaultContextBudget
	}
	counter, err := tokenizer.NewCounter(provider.GetModel())
	logger, _ := logging.NewLogger("writer")
	if err != nil {
		logger.Warnf("token encoding unavailable, using approximation: %v", err)
		counter = nil
	}
	return &Writer{
		provider: provider,
		counter:  counter,
		opts:     opts,
		logger:   logger,
	}
}

// Compose produces the desired document text from the explored pages.
func (w *Writer) Compose(ctx context.Context, pages []explorer.PageContent) (string, error) {
	if len(pages) == 0 {
		return "", fmt.Errorf("no pages to document")
	}

	corpus := w.buildCorpus(pages)
	w.logger.Infof("composing documentation from %d pages (%d chars of context)", len(pages), len(corpus))

	messages := []*types.Message{
		types.NewSystemMessage(composeSystemPrompt(w.opts.ProductName, w.opts.Audience)),
		types.NewUserMessage(corpus),
	}

	reply, err := w.provider.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("composition failed: %w", err)
	}

	draft := strings.TrimSpace(reply.Content)
	if draft == "" {
		return "", fmt.Errorf("model returned an empty draft")
	}
	return draft + "\n", nil
}

// buildCorpus concatenates page sections, trimming each page so the whole
// corpus stays inside the context budget.
func (w *Writer) buildCorpus(pages []explorer.PageContent) string {
	perPage := w.opts.ContextBudget / len(pages)
	if perPage < 1 {
		perPage = 1
	}

	var b strings.Builder
	b.WriteString("Write the product documentation from these observed pages.\n")
	for i, page := range pages {
		fmt.Fprintf(&b, "\n--- Page %d: %s (%s) ---\n", i+1, page.Title, page.URL)
		b.WriteString(w.trim(page.Markdown, perPage))
		b.WriteString("\n")
	}
	return b.String()
}

// trim bounds one page's content to budget tokens.
func (w *Writer) trim(text string, budget int) string {
	if w.counter != nil {
		return w.counter.Truncate(text, budget)
	}
	if tokenizer.Approximate(text) <= budget {
		return text
	}
	// approximation path: four characters per token
	limit := budget * 4
	if limit < len(text) {
		return text[:limit]
	}
	return text
}

// TokensFor reports how many tokens the given text costs in the writer's
// model encoding, approximated when encoding data is unavailable.
func (w *Writer) TokensFor(text string) int {
	if w.counter != nil {
		return w.counter.Count(text)
	}
	return tokenizer.Approximate(text)
}
