package explorer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (s *Session) UpdateLastUsed() {
	s.LastUsedAt = time.Now()
}

// Navigate navigates the session's page to the specified URL.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	s.UpdateLastUsed()

	playwrightOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		playwrightOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if _, err := s.Page.Goto(url, playwrightOpts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	s.CurrentURL = s.Page.URL()
	return nil
}

// ExtractContent extracts page content in the specified format.
func (s *Session) ExtractContent(opts ExtractOptions) (string, error) {
	s.UpdateLastUsed()

	if opts.Format == "" {
		opts.Format = FormatMarkdown
	}
	if opts.MaxLength == 0 {
		opts.MaxLength = DefaultMaxLength
	}

	switch opts.Format {
	case FormatMarkdown:
		return s.extractMarkdown(opts)
	case FormatText:
		return s.extractText(opts)
	case FormatHTML:
		return s.extractHTML(opts)
	case FormatStructured:
		return s.extractStructured(opts)
	default:
		return "", fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

// extractText extracts plain text content from the page or selector.
func (s *Session) extractText(opts ExtractOptions) (string, error) {
	selector := opts.Selector
	if selector == "" {
		selector = "body"
	}

	element, err := s.Page.QuerySelector(selector)
	if err != nil {
		return "", fmt.Errorf("selector query failed: %w", err)
	}
	if element == nil {
		return "", fmt.Errorf("no element found matching selector: %s", selector)
	}
	content, err := element.TextContent()
	if err != nil {
		return "", fmt.Errorf("text extraction failed: %w", err)
	}

	if len(content) > opts.MaxLength {
		truncated := content[:opts.MaxLength]
		warning := fmt.Sprintf("\n\n[Content truncated: %d of %d characters shown]", opts.MaxLength, len(content))
		return truncated + warning, nil
	}
	return content, nil
}

// extractMarkdown extracts the page title and body text as Markdown.
func (s *Session) extractMarkdown(opts ExtractOptions) (string, error) {
	var b strings.Builder

	title, err := s.Page.Title()
	if err == nil && title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}

	text, err := s.extractText(opts)
	if err != nil {
		return "", err
	}

	b.WriteString(text)
	return b.String(), nil
}

// extractHTML returns the page's cleaned semantic HTML: scripts, styles and
// other noise stripped, targeting attributes kept.
func (s *Session) extractHTML(opts ExtractOptions) (string, error) {
	raw, err := s.Page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}

	cleaned, err := cleanHTML(raw, opts.MaxLength)
	if err != nil {
		return "", err
	}
	return cleaned.HTML, nil
}

// extractStructured extracts title, headings, links and body as JSON.
func (s *Session) extractStructured(opts ExtractOptions) (string, error) {
	structured := StructuredContent{}

	if title, err := s.Page.Title(); err == nil {
		structured.Title = title
	}

	if headings, err := s.Page.QuerySelectorAll("h1, h2, h3, h4, h5, h6"); err == nil {
		for _, heading := range headings {
			if text, textErr := heading.TextContent(); textErr == nil && text != "" {
				structured.Headings = append(structured.Headings, strings.TrimSpace(text))
			}
		}
	}

	structured.Links = s.pageLinks()

	if bodyText, err := s.extractText(opts); err == nil {
		structured.Body = bodyText
	}

	data, err := json.MarshalIndent(structured, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode structured content: %w", err)
	}
	return string(data), nil
}

// Links returns every hyperlink on the current page.
func (s *Session) Links() []Link {
	s.UpdateLastUsed()
	return s.pageLinks()
}

func (s *Session) pageLinks() []Link {
	var links []Link
	anchors, err := s.Page.QuerySelectorAll("a[href]")
	if err != nil {
		return links
	}
	for _, anchor := range anchors {
		text, _ := anchor.TextContent()
		href, _ := anchor.GetAttribute("href")
		if href == "" {
			continue
		}
		links = append(links, Link{
			Text: strings.TrimSpace(text),
			Href: href,
		})
	}
	return links
}

// GetMetadata returns current page metadata.
func (s *Session) GetMetadata() (map[string]string, error) {
	s.UpdateLastUsed()

	title, err := s.Page.Title()
	if err != nil {
		title = ""
	}
	return map[string]string{
		"title": title,
		"url":   s.Page.URL(),
	}, nil
}
