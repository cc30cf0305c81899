package config

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return store, path
}

func TestFileStoreMissingFile(t *testing.T) {
	store, _ := newTestStore(t)

	data, err := store.GetSection("docs")
	if err != nil {
		t.Fatalf("GetSection failed: %v", err)
	}
	if len(data) != 0 {
		t.Error("expected empty section for fresh store")
	}
	if store.IsModified() {
		t.Error("fresh store should not be modified")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, path := newTestStore(t)

	if err := store.SetSection("docs", map[string]interface{}{
		"document_id": "doc-1",
		"batch_size":  25,
	}); err != nil {
		t.Fatalf("SetSection failed: %v", err)
	}
	if !store.IsModified() {
		t.Error("store should be modified after SetSection")
	}
	if err := store.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if store.IsModified() {
		t.Error("store should not be modified after Save")
	}

	reloaded, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	data, err := reloaded.GetSection("docs")
	if err != nil {
		t.Fatalf("GetSection failed: %v", err)
	}
	if data["document_id"] != "doc-1" {
		t.Errorf("document_id = %v, want doc-1", data["document_id"])
	}
	// JSON round trip turns ints into float64
	if data["batch_size"] != float64(25) {
		t.Errorf("batch_size = %v, want 25", data["batch_size"])
	}
}

func TestFileStoreSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "config.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	store.SetSection("llm", map[string]interface{}{"model": "gpt-4o"})
	if err := store.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := NewFileStore(path); err == nil {
		t.Error("expected error for corrupt config file")
	}
}

func TestFileStoreGetSectionReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)
	store.SetSection("docs", map[string]interface{}{"token": "abc"})

	data, _ := store.GetSection("docs")
	data["token"] = "mutated"

	again, _ := store.GetSection("docs")
	if again["token"] != "abc" {
		t.Error("GetSection must return a copy, not the backing map")
	}
}

func TestFileStoreSetAll(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.SetAll(map[string]map[string]interface{}{
		"docs": {"document_id": "doc-2"},
		"llm":  {"model": "gpt-4o-mini"},
	})
	if err != nil {
		t.Fatalf("SetAll failed: %v", err)
	}

	all, err := store.GetAll()
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(all))
	}
	if all["docs"]["document_id"] != "doc-2" {
		t.Error("docs section missing after SetAll")
	}
}
