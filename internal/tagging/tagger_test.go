package tagging

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		texts     []string
		countries []string
		topics    []string
	}{
		{
			// Substring matching also fires "ai" inside "Taipei" and
			// "war" inside "warns".
			name:      "china and taiwan politics",
			texts:     []string{"Beijing warns Taipei", "election tensions rise", ""},
			countries: []string{"china", "taiwan"},
			topics:    []string{"politics", "technology", "war-security"},
		},
		{
			name:      "economy only",
			texts:     []string{"Central bank holds interest rate steady amid inflation"},
			countries: nil,
			topics:    []string{"economy"},
		},
		{
			name:      "empty input",
			texts:     []string{"", "   "},
			countries: nil,
			topics:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			countries, topics := Extract(tt.texts...)
			if !reflect.DeepEqual(countries, tt.countries) {
				t.Errorf("countries = %v, want %v", countries, tt.countries)
			}
			if !reflect.DeepEqual(topics, tt.topics) {
				t.Errorf("topics = %v, want %v", topics, tt.topics)
			}
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	text := "China and Russia discuss energy trade with India"
	first, firstTopics := Extract(text)
	for i := 0; i < 10; i++ {
		countries, topics := Extract(text)
		if !reflect.DeepEqual(countries, first) || !reflect.DeepEqual(topics, firstTopics) {
			t.Fatal("Extract output is not deterministic")
		}
	}
}

func TestChinaRelated(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Xi Jinping visits Moscow", true},
		{"Hong Kong markets rally", true},
		{"PRC statement on trade", true},
		{"French elections in Paris", false},
		{"merchinary business deal", false}, // no word-boundary match
		{"", false},
	}

	for _, tt := range tests {
		if got := ChinaRelated(tt.text); got != tt.want {
			t.Errorf("ChinaRelated(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestBlobRoundTrip(t *testing.T) {
	blob := ToBlob([]string{"Taiwan", "china", "china", "  "})
	if blob != "|china|taiwan|" {
		t.Errorf("unexpected blob: %q", blob)
	}

	tags := FromBlob(blob)
	want := []string{"china", "taiwan"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("FromBlob = %v, want %v", tags, want)
	}
}

func TestEmptyBlob(t *testing.T) {
	if got := ToBlob(nil); got != "|" {
		t.Errorf("ToBlob(nil) = %q, want %q", got, "|")
	}
	if got := FromBlob("|"); got != nil {
		t.Errorf("FromBlob(\"|\") = %v, want nil", got)
	}
}

func TestSupportedVocabulariesSorted(t *testing.T) {
	countries := SupportedCountries()
	if len(countries) == 0 {
		t.Fatal("expected non-empty country vocabulary")
	}
	for i := 1; i < len(countries); i++ {
		if countries[i-1] >= countries[i] {
			t.Fatalf("countries not sorted at %d: %s >= %s", i, countries[i-1], countries[i])
		}
	}

	topics := SupportedTopics()
	if len(topics) == 0 {
		t.Fatal("expected non-empty topic vocabulary")
	}
}
