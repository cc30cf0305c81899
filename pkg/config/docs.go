package config

import (
	"fmt"
	"sync"
)

// SectionIDDocs is the identifier for the document service section
const SectionIDDocs = "docs"

// DocsSection manages document service configuration settings.
type DocsSection struct {
	BaseURL        string
	Token          string
	DocumentID     string
	SuggestionMode bool
	Highlight      bool
	BatchSize      int
	MaxRetries     int
	mu             sync.RWMutex
}

// NewDocsSection creates a new document service section with defaults.
func NewDocsSection() *DocsSection {
	return &DocsSection{}
}

// ID returns the section identifier.
func (s *DocsSection) ID() string {
	return SectionIDDocs
}

// Title returns the section title.
func (s *DocsSection) Title() string {
	return "Document Service"
}

// Description returns the section description.
func (s *DocsSection) Description() string {
	return "Configure the remote document service: endpoint, credentials, target document and edit behavior."
}

// Data returns the current configuration data.
func (s *DocsSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"base_url":        s.BaseURL,
		"token":           s.Token,
		"document_id":     s.DocumentID,
		"suggestion_mode": s.SuggestionMode,
		"highlight":       s.Highlight,
		"batch_size":      s.BatchSize,
		"max_retries":     s.MaxRetries,
	}
}

// SetData updates the configuration from the provided data.
func (s *DocsSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if baseURL, ok := data["base_url"].(string); ok {
		s.BaseURL = baseURL
	}
	if token, ok := data["token"].(string); ok {
		s.Token = token
	}
	if documentID, ok := data["document_id"].(string); ok {
		s.DocumentID = documentID
	}
	if suggestionMode, ok := data["suggestion_mode"].(bool); ok {
		s.SuggestionMode = suggestionMode
	}
	if highlight, ok := data["highlight"].(bool); ok {
		s.Highlight = highlight
	}
	if batchSize, ok := asInt(data["batch_size"]); ok {
		s.BatchSize = batchSize
	}
	if maxRetries, ok := asInt(data["max_retries"]); ok {
		s.MaxRetries = maxRetries
	}
	return nil
}

// Validate validates the current configuration.
func (s *DocsSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.BatchSize < 0 {
		return fmt.Errorf("batch_size must not be negative")
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *DocsSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BaseURL = ""
	s.Token = ""
	s.DocumentID = ""
	s.SuggestionMode = false
	s.Highlight = false
	s.BatchSize = 0
	s.MaxRetries = 0
}

// GetBaseURL returns the configured service base URL.
func (s *DocsSection) GetBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.BaseURL
}

// GetToken returns the configured service token.
func (s *DocsSection) GetToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Token
}

// GetDocumentID returns the configured target document.
func (s *DocsSection) GetDocumentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DocumentID
}

// IsSuggestionMode returns whether edits are applied as suggestions.
func (s *DocsSection) IsSuggestionMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SuggestionMode
}

// IsHighlight returns whether applied changes are marked for review.
func (s *DocsSection) IsHighlight() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Highlight
}

// GetBatchSize returns the configured batch size (0 means default).
func (s *DocsSection) GetBatchSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.BatchSize
}

// GetMaxRetries returns the configured retry ceiling (0 means default).
func (s *DocsSection) GetMaxRetries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MaxRetries
}

// asInt accepts both int and the float64 that JSON decoding produces.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}
