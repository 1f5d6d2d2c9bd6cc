package retrieval

import "strings"

// normalize lowercases text and collapses runs of whitespace to single
// spaces so matching ignores layout differences in extracted content.
func normalize(text string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(strings.ToLower(text)), " "))
}

// contains is substring containment over normalized text.
func contains(normalizedContent, needle string) bool {
	return strings.Contains(normalizedContent, needle)
}

// queryWords splits a normalized query into its qualifying words.
// Words of three characters or more carry signal; shorter ones are
// mostly articles and prepositions and are discarded.
func queryWords(normalizedQuery string) []string {
	var words []string
	for _, word := range strings.Split(normalizedQuery, " ") {
		if len(word) > 2 {
			words = append(words, word)
		}
	}
	return words
}
