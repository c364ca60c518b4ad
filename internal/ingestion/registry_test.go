package ingestion

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultSources(t *testing.T) {
	sources := DefaultSources()
	if len(sources) == 0 {
		t.Fatal("default registry is empty")
	}
	seen := make(map[string]bool)
	for _, src := range sources {
		if src.Name == "" || src.FeedURL == "" {
			t.Errorf("incomplete source entry: %+v", src)
		}
		if seen[src.Name] {
			t.Errorf("duplicate source name %q", src.Name)
		}
		seen[src.Name] = true
	}
}

func TestLoadSourcesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `sources:
  - name: BBC World
    feed_url: https://feeds.bbci.co.uk/news/world/rss.xml
  - name: DW News
    feed_url: https://rss.dw.com/rdf/rss-en-all
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources returned error: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Name != "BBC World" || sources[1].FeedURL != "https://rss.dw.com/rdf/rss-en-all" {
		t.Errorf("unexpected parse result: %+v", sources)
	}
}

func TestLoadSourcesEmptyPathUsesDefaults(t *testing.T) {
	sources, err := LoadSources("")
	if err != nil {
		t.Fatalf("LoadSources returned error: %v", err)
	}
	if len(sources) != len(DefaultSources()) {
		t.Errorf("expected built-in defaults, got %d sources", len(sources))
	}
}

func TestLoadSourcesRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	os.WriteFile(empty, []byte("sources: []\n"), 0o600)
	if _, err := LoadSources(empty); err == nil {
		t.Error("expected error for empty source list")
	}

	missing := filepath.Join(dir, "missing.yaml")
	os.WriteFile(missing, []byte("sources:\n  - name: No URL\n"), 0o600)
	if _, err := LoadSources(missing); err == nil {
		t.Error("expected error for entry without feed_url")
	}

	if _, err := LoadSources(filepath.Join(dir, "does-not-exist.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
