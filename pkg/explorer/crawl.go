package explorer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"

	"github.com/entrhq/scribe/pkg/logging"
)

// DefaultPageBudget caps how many pages one crawl may visit.
const DefaultPageBudget = 25

// URLFilter decides which URLs a crawl may visit, using glob patterns.
// Denied patterns take precedence; with no include patterns everything not
// denied is allowed.
type URLFilter struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewURLFilter compiles include and exclude glob patterns.
func NewURLFilter(include, exclude []string) (*URLFilter, error) {
	f := &URLFilter{}
	for _, pattern := range include {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}
		f.include = append(f.include, g)
	}
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		f.exclude = append(f.exclude, g)
	}
	return f, nil
}

// Allows returns true if the URL passes the filter rules.
func (f *URLFilter) Allows(target string) bool {
	for _, pattern := range f.exclude {
		if pattern.Match(target) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, pattern := range f.include {
		if pattern.Match(target) {
			return true
		}
	}
	return false
}

// CrawlOptions configures one crawl run.
type CrawlOptions struct {
	// StartURL is the first page visited.
	StartURL string

	// IncludePatterns and ExcludePatterns constrain which links are followed.
	IncludePatterns []string
	ExcludePatterns []string

	// PageBudget caps the number of visited pages. Default: DefaultPageBudget.
	PageBudget int

	// SameHostOnly restricts the crawl to the start URL's host.
	SameHostOnly bool

	// Extract tunes per-page content extraction.
	Extract ExtractOptions
}

// Crawler walks the product's pages breadth-first inside one session.
type Crawler struct {
	session *Session
	logger  *logging.Logger
}

// NewCrawler creates a crawler over an existing session.
func NewCrawler(session *Session) *Crawler {
	logger, _ := logging.NewLogger("explorer")
	return &Crawler{session: session, logger: logger}
}

// Crawl visits pages starting from opts.StartURL, following allowed links
// breadth-first until the page budget is spent or no links remain. The
// context cancels the crawl between page visits.
func (c *Crawler) Crawl(ctx context.Context, opts CrawlOptions) ([]PageContent, error) {
	if opts.StartURL == "" {
		return nil, fmt.Errorf("start URL is required")
	}
	if opts.PageBudget <= 0 {
		opts.PageBudget = DefaultPageBudget
	}

	filter, err := NewURLFilter(opts.IncludePatterns, opts.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	start, err := url.Parse(opts.StartURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}

	visited := map[string]bool{}
	frontier := []string{opts.StartURL}
	var pages []PageContent

	for len(frontier) > 0 && len(pages) < opts.PageBudget {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		target := frontier[0]
		frontier = frontier[1:]
		if visited[target] {
			continue
		}
		visited[target] = true

		if err := c.session.Navigate(target, NavigateOptions{WaitUntil: "domcontentloaded"}); err != nil {
			c.logger.Warnf("skipping %s: %v", target, err)
			continue
		}

		content, err := c.session.ExtractContent(opts.Extract)
		if err != nil {
			c.logger.Warnf("extraction failed for %s: %v", target, err)
			continue
		}

		metadata, _ := c.session.GetMetadata()
		pages = append(pages, PageContent{
			URL:      c.session.CurrentURL,
			Title:    metadata["title"],
			Markdown: content,
		})

		for _, link := range c.session.Links() {
			next, ok := resolveLink(start, c.session.CurrentURL, link.Href)
			if !ok || visited[next] {
				continue
			}
			if opts.SameHostOnly && !sameHost(start, next) {
				continue
			}
			if !filter.Allows(next) {
				continue
			}
			frontier = append(frontier, next)
		}
	}

	c.logger.Infof("crawl finished: %d pages visited", len(pages))
	return pages, nil
}

// resolveLink turns a page-relative href into an absolute URL, dropping
// fragments and non-navigable schemes.
func resolveLink(start *url.URL, pageURL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return "", false
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = start
	}
	resolved, err := base.Parse(href)
	if err != nil {
		return "", false
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	resolved.Fragment = ""
	return resolved.String(), true
}

func sameHost(start *url.URL, target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Host == start.Host
}
