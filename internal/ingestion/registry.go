package ingestion

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is one registered feed endpoint. The registry is static for the
// lifetime of the process.
type Source struct {
	Name    string `yaml:"name" json:"name"`
	FeedURL string `yaml:"feed_url" json:"feed_url"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// DefaultSources returns the built-in feed registry.
func DefaultSources() []Source {
	return []Source{
		{Name: "Google News - World", FeedURL: "https://news.google.com/rss/headlines/section/topic/WORLD?hl=en-US&gl=US&ceid=US:en"},
		{Name: "Google News - China", FeedURL: "https://news.google.com/rss/search?q=China&hl=en-US&gl=US&ceid=US:en"},
		{Name: "CNN World", FeedURL: "http://rss.cnn.com/rss/edition_world.rss"},
		{Name: "Reuters China (Search)", FeedURL: "https://www.reuters.com/world/china/rss"},
		{Name: "Sky News World", FeedURL: "https://feeds.skynews.com/feeds/rss/world.xml"},
		{Name: "France24 World", FeedURL: "https://www.france24.com/en/rss"},
		{Name: "NPR World", FeedURL: "https://www.npr.org/rss/rss.php?id=1004"},
		{Name: "CNBC International", FeedURL: "https://www.cnbc.com/id/100727362/device/rss/rss.html"},
		{Name: "CNBC Asia", FeedURL: "https://www.cnbc.com/id/19832390/device/rss/rss.html"},
		{Name: "China Daily China", FeedURL: "https://www.chinadaily.com.cn/rss/china_rss.xml"},
	}
}

// LoadSources reads the registry from a YAML file. An empty path yields the
// built-in defaults; a file that parses but lists no sources is an error.
func LoadSources(path string) ([]Source, error) {
	if path == "" {
		return DefaultSources(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s lists no sources", path)
	}

	for i, src := range file.Sources {
		if src.Name == "" || src.FeedURL == "" {
			return nil, fmt.Errorf("sources file %s: entry %d missing name or feed_url", path, i)
		}
	}

	return file.Sources, nil
}
