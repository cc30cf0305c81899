package runner

import (
	"context"
	"fmt"

	"github.com/entrhq/scribe/pkg/explorer"
)

// SiteExplorer is the browser-backed Explorer. It owns a session manager
// and a single named crawl session.
type SiteExplorer struct {
	manager  *explorer.SessionManager
	headless bool
}

// NewSiteExplorer creates a browser-backed explorer.
func NewSiteExplorer(headless bool) *SiteExplorer {
	return &SiteExplorer{
		manager:  explorer.NewSessionManager(),
		headless: headless,
	}
}

// Explore starts a browser session, crawls from the profile's start URL and
// closes the session when done.
func (s *SiteExplorer) Explore(ctx context.Context, opts explorer.CrawlOptions) ([]explorer.PageContent, error) {
	if err := s.manager.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	session, err := s.manager.StartSession("crawl", explorer.SessionOptions{
		Headless: s.headless,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer s.manager.CloseSession(session.Name)

	return explorer.NewCrawler(session).Crawl(ctx, opts)
}

// Shutdown releases the underlying browser runtime.
func (s *SiteExplorer) Shutdown() error {
	return s.manager.Shutdown()
}
