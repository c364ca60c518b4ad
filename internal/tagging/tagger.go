package tagging

import (
	"regexp"
	"sort"
	"strings"
)

// Country and topic vocabularies are fixed and enumerable. Matching is
// plain lowercase substring search over the concatenated text.
var countryKeywords = map[string][]string{
	"china":          {"china", "chinese", "beijing", "shanghai", "hong kong"},
	"taiwan":         {"taiwan", "taipei"},
	"united-states":  {"united states", "u.s.", "us ", "washington", "white house", "american"},
	"russia":         {"russia", "russian", "moscow", "kremlin"},
	"ukraine":        {"ukraine", "kyiv", "kiev"},
	"united-kingdom": {"united kingdom", "uk ", "britain", "british", "london"},
	"india":          {"india", "indian", "new delhi"},
	"japan":          {"japan", "japanese", "tokyo"},
	"south-korea":    {"south korea", "seoul"},
	"north-korea":    {"north korea", "pyongyang"},
	"iran":           {"iran", "iranian", "tehran"},
	"israel":         {"israel", "israeli", "jerusalem"},
	"germany":        {"germany", "german", "berlin"},
	"france":         {"france", "french", "paris"},
	"canada":         {"canada", "canadian", "ottawa"},
	"australia":      {"australia", "australian", "canberra"},
}

var topicKeywords = map[string][]string{
	"politics":     {"election", "parliament", "president", "minister", "policy", "government", "diplomatic"},
	"economy":      {"economy", "inflation", "gdp", "interest rate", "central bank", "federal reserve"},
	"business":     {"market", "stocks", "earnings", "company", "merger", "trade"},
	"technology":   {"ai", "artificial intelligence", "chip", "software", "cyber", "tech"},
	"science":      {"research", "scientists", "study", "space", "nasa"},
	"health":       {"health", "hospital", "disease", "virus", "vaccine", "outbreak"},
	"climate":      {"climate", "emissions", "carbon", "wildfire", "flood", "weather"},
	"energy":       {"oil", "gas", "energy", "opec", "electricity"},
	"war-security": {"war", "military", "attack", "missile", "defense", "security", "conflict"},
	"sports":       {"sports", "olympic", "fifa", "nba", "football", "tennis"},
}

// chinaTerms is an independent relevance signal checked with word
// boundaries so e.g. "merchinary" does not fire.
var chinaTerms = []string{
	"china",
	"chinese",
	"beijing",
	"shanghai",
	"hong kong",
	"taiwan",
	"xi jinping",
	"prc",
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	chinaTermRes = compileChinaTerms()
)

func compileChinaTerms() []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(chinaTerms))
	for _, term := range chinaTerms {
		res = append(res, regexp.MustCompile(`\b`+regexp.QuoteMeta(term)+`\b`))
	}
	return res
}

// KeywordTagger adapts the package-level matchers to an injectable
// collaborator value.
type KeywordTagger struct{}

// Extract implements the tagging collaborator contract.
func (KeywordTagger) Extract(texts ...string) (countries, topics []string) {
	return Extract(texts...)
}

// ChinaRelated implements the china-relevance signal.
func (KeywordTagger) ChinaRelated(texts ...string) bool {
	return ChinaRelated(texts...)
}

// Extract returns sorted country and topic tag slugs matched anywhere in
// the given texts. Empty input yields empty tag sets.
func Extract(texts ...string) (countries, topics []string) {
	payload := joinTexts(texts)
	if payload == "" {
		return nil, nil
	}

	normalized := whitespaceRe.ReplaceAllString(strings.ToLower(payload), " ")
	return matchVocabulary(normalized, countryKeywords), matchVocabulary(normalized, topicKeywords)
}

// ChinaRelated reports whether any china term appears in the given texts.
func ChinaRelated(texts ...string) bool {
	payload := strings.ToLower(joinTexts(texts))
	if payload == "" {
		return false
	}

	for _, re := range chinaTermRes {
		if re.MatchString(payload) {
			return true
		}
	}
	return false
}

// SupportedCountries lists the country vocabulary, sorted.
func SupportedCountries() []string {
	return sortedKeys(countryKeywords)
}

// SupportedTopics lists the topic vocabulary, sorted.
func SupportedTopics() []string {
	return sortedKeys(topicKeywords)
}

func matchVocabulary(normalized string, vocab map[string][]string) []string {
	var hits []string
	for tag, keywords := range vocab {
		for _, kw := range keywords {
			if strings.Contains(normalized, kw) {
				hits = append(hits, tag)
				break
			}
		}
	}
	sort.Strings(hits)
	return hits
}

func joinTexts(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			parts = append(parts, t)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
