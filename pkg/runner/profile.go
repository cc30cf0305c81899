// Package runner loads run profiles and orchestrates a full documentation
// cycle: explore the product site, compose a draft, synchronize it into the
// target document.
package runner

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the YAML run profile for one documentation cycle.
type Profile struct {
	// Product describes what is being documented
	Product ProductConfig `yaml:"product"`

	// Explore configures the site crawl
	Explore ExploreConfig `yaml:"explore"`

	// Document configures the sync target
	Document DocumentConfig `yaml:"document"`

	// Model configures the LLM provider
	Model ModelConfig `yaml:"model"`
}

// ProductConfig names the product and its audience for the draft.
type ProductConfig struct {
	Name     string `yaml:"name"`
	Audience string `yaml:"audience"`
}

// ExploreConfig configures the crawl frontier.
type ExploreConfig struct {
	StartURL        string   `yaml:"start_url"`
	IncludePatterns []string `yaml:"include_patterns"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
	PageBudget      int      `yaml:"page_budget"`
	Headless        *bool    `yaml:"headless"`
	SameHostOnly    *bool    `yaml:"same_host_only"`
}

// DocumentConfig configures the sync target and change presentation.
type DocumentConfig struct {
	ID             string `yaml:"id"`
	BaseURL        string `yaml:"base_url"`
	SuggestionMode bool   `yaml:"suggestion_mode"`
	Highlight      bool   `yaml:"highlight"`
	BatchSize      int    `yaml:"batch_size"`
}

// ModelConfig configures the LLM provider. The API key is never read from
// the profile, only from flags, the environment or the config file.
type ModelConfig struct {
	Name          string `yaml:"name"`
	BaseURL       string `yaml:"base_url"`
	ContextBudget int    `yaml:"context_budget"`
}

// DefaultProfile returns a profile with sensible crawl defaults.
func DefaultProfile() *Profile {
	headless := true
	sameHost := true
	return &Profile{
		Explore: ExploreConfig{
			PageBudget:   10,
			Headless:     &headless,
			SameHostOnly: &sameHost,
		},
	}
}

// LoadProfile reads and validates a run profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	profile := DefaultProfile()
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

// Validate validates the profile.
func (p *Profile) Validate() error {
	if p.Explore.StartURL == "" {
		return fmt.Errorf("explore.start_url is required")
	}
	if p.Document.ID == "" {
		return fmt.Errorf("document.id is required")
	}
	if p.Explore.PageBudget < 0 {
		return fmt.Errorf("explore.page_budget cannot be negative")
	}
	if p.Document.BatchSize < 0 {
		return fmt.Errorf("document.batch_size cannot be negative")
	}
	return nil
}

// IsHeadless reports whether the crawl browser should run headless.
// Unset means headless.
func (p *Profile) IsHeadless() bool {
	if p.Explore.Headless == nil {
		return true
	}
	return *p.Explore.Headless
}

// IsSameHostOnly reports whether the crawl stays on the start host.
// Unset means same host only.
func (p *Profile) IsSameHostOnly() bool {
	if p.Explore.SameHostOnly == nil {
		return true
	}
	return *p.Explore.SameHostOnly
}
