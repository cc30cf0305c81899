package config

import (
	"fmt"
	"sync"
)

// SectionIDExplorer is the identifier for the explorer section
const SectionIDExplorer = "explorer"

// ExplorerSection manages crawl configuration settings.
type ExplorerSection struct {
	StartURL        string
	IncludePatterns []string
	ExcludePatterns []string
	PageBudget      int
	Headless        bool
	SameHostOnly    bool
	mu              sync.RWMutex
}

// NewExplorerSection creates a new explorer section with defaults.
func NewExplorerSection() *ExplorerSection {
	return &ExplorerSection{
		Headless:     true,
		SameHostOnly: true,
	}
}

// ID returns the section identifier.
func (s *ExplorerSection) ID() string {
	return SectionIDExplorer
}

// Title returns the section title.
func (s *ExplorerSection) Title() string {
	return "Explorer"
}

// Description returns the section description.
func (s *ExplorerSection) Description() string {
	return "Configure how the product is crawled: start URL, link filters and page budget."
}

// Data returns the current configuration data.
func (s *ExplorerSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"start_url":        s.StartURL,
		"include_patterns": toInterfaceSlice(s.IncludePatterns),
		"exclude_patterns": toInterfaceSlice(s.ExcludePatterns),
		"page_budget":      s.PageBudget,
		"headless":         s.Headless,
		"same_host_only":   s.SameHostOnly,
	}
}

// SetData updates the configuration from the provided data.
func (s *ExplorerSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if startURL, ok := data["start_url"].(string); ok {
		s.StartURL = startURL
	}
	if include, ok := asStringSlice(data["include_patterns"]); ok {
		s.IncludePatterns = include
	}
	if exclude, ok := asStringSlice(data["exclude_patterns"]); ok {
		s.ExcludePatterns = exclude
	}
	if budget, ok := asInt(data["page_budget"]); ok {
		s.PageBudget = budget
	}
	if headless, ok := data["headless"].(bool); ok {
		s.Headless = headless
	}
	if sameHost, ok := data["same_host_only"].(bool); ok {
		s.SameHostOnly = sameHost
	}
	return nil
}

// Validate validates the current configuration.
func (s *ExplorerSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.PageBudget < 0 {
		return fmt.Errorf("page_budget must not be negative")
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *ExplorerSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StartURL = ""
	s.IncludePatterns = nil
	s.ExcludePatterns = nil
	s.PageBudget = 0
	s.Headless = true
	s.SameHostOnly = true
}

// GetStartURL returns the configured start URL.
func (s *ExplorerSection) GetStartURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.StartURL
}

// GetIncludePatterns returns the configured include patterns.
func (s *ExplorerSection) GetIncludePatterns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.IncludePatterns...)
}

// GetExcludePatterns returns the configured exclude patterns.
func (s *ExplorerSection) GetExcludePatterns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.ExcludePatterns...)
}

// GetPageBudget returns the configured page budget (0 means default).
func (s *ExplorerSection) GetPageBudget() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.PageBudget
}

// IsHeadless returns whether the browser runs headless.
func (s *ExplorerSection) IsHeadless() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Headless
}

// IsSameHostOnly returns whether the crawl stays on the start URL's host.
func (s *ExplorerSection) IsSameHostOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SameHostOnly
}

func toInterfaceSlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// asStringSlice accepts both []string and the []interface{} that JSON
// decoding produces.
func asStringSlice(v interface{}) ([]string, bool) {
	switch values := v.(type) {
	case []string:
		return append([]string{}, values...), true
	case []interface{}:
		out := make([]string, 0, len(values))
		for _, item := range values {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
