package tagging

import (
	"sort"
	"strings"
)

// Tags are persisted as a prefix/suffix-delimited blob ("|china|taiwan|")
// so membership queries reduce to LIKE '%|china|%' on any SQL engine.

// NormalizeSlug lowercases a tag and replaces spaces with dashes.
func NormalizeSlug(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), " ", "-")
}

// ToBlob encodes a tag set as a sorted, deduplicated delimited blob. The
// empty set encodes as "|".
func ToBlob(tags []string) string {
	seen := make(map[string]struct{}, len(tags))
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		slug := NormalizeSlug(tag)
		if slug == "" {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		cleaned = append(cleaned, slug)
	}

	if len(cleaned) == 0 {
		return "|"
	}

	sort.Strings(cleaned)
	return "|" + strings.Join(cleaned, "|") + "|"
}

// FromBlob decodes a delimited blob back into a tag slice.
func FromBlob(blob string) []string {
	if blob == "" || blob == "|" {
		return nil
	}

	var tags []string
	for _, part := range strings.Split(blob, "|") {
		if part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}
