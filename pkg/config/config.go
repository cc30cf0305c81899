package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// Initialize creates and initializes the global configuration manager.
// This should be called once at application startup.
func Initialize(configPath string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	store, err := NewFileStore(configPath)
	if err != nil {
		return err
	}

	manager := NewManager(store)
	if err := manager.RegisterSection(NewDocsSection()); err != nil {
		return err
	}
	if err := manager.RegisterSection(NewLLMSection()); err != nil {
		return err
	}
	if err := manager.RegisterSection(NewExplorerSection()); err != nil {
		return err
	}

	if err := manager.LoadAll(); err != nil {
		return err
	}

	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}
	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetDocs returns the document service section from global config.
// Returns nil if config is not initialized.
func GetDocs() *DocsSection {
	if !IsInitialized() {
		return nil
	}
	section, ok := Global().GetSection(SectionIDDocs)
	if !ok {
		return nil
	}
	docs, ok := section.(*DocsSection)
	if !ok {
		return nil
	}
	return docs
}

// GetLLM returns the LLM settings section from global config.
// Returns nil if config is not initialized.
func GetLLM() *LLMSection {
	if !IsInitialized() {
		return nil
	}
	section, ok := Global().GetSection(SectionIDLLM)
	if !ok {
		return nil
	}
	llm, ok := section.(*LLMSection)
	if !ok {
		return nil
	}
	return llm
}

// GetExplorer returns the explorer section from global config.
// Returns nil if config is not initialized.
func GetExplorer() *ExplorerSection {
	if !IsInitialized() {
		return nil
	}
	section, ok := Global().GetSection(SectionIDExplorer)
	if !ok {
		return nil
	}
	explorer, ok := section.(*ExplorerSection)
	if !ok {
		return nil
	}
	return explorer
}
