package retrieval

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxContextChars bounds the assembled context so the prompt
	// stays within the generation model's window.
	DefaultMaxContextChars = 8000

	// formattingReserve is held back for the document header and
	// separators when truncating.
	formattingReserve = 100

	// minUsableBudget is the smallest remaining budget worth filling
	// with a truncated document.
	minUsableBudget = 200

	truncationMarker = "... [Content truncated for context limit]"
)

// AssembleContext concatenates result documents as
// "Document: <name>\n<content>" blocks, staying under maxChars. The
// first document that would overflow is truncated into the remaining
// budget if enough of it is left, and assembly stops there. If nothing
// fit at all, the top result is force-included, truncated.
func AssembleContext(results []Result, maxChars int) string {
	var builder strings.Builder
	total := 0

	for _, result := range results {
		doc := result.Document
		block := "Document: " + doc.Filename + "\n" + doc.Content

		if total+len(block) > maxChars {
			remaining := maxChars - total - formattingReserve
			if remaining > minUsableBudget {
				truncated := truncate(doc.Content, remaining) + truncationMarker
				builder.WriteString("Document: " + doc.Filename + "\n" + truncated + "\n\n")
			}
			break
		}

		builder.WriteString(block + "\n\n")
		total += len(block)
	}

	context := builder.String()
	if strings.TrimSpace(context) == "" && len(results) > 0 {
		first := results[0].Document
		truncated := truncate(first.Content, maxChars-minUsableBudget) + truncationMarker
		context = "Document: " + first.Filename + "\n" + truncated
	}
	return context
}

// truncate cuts content to at most limit bytes without splitting a
// UTF-8 sequence.
func truncate(content string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(content) <= limit {
		return content
	}
	for limit > 0 && !utf8.RuneStart(content[limit]) {
		limit--
	}
	return content[:limit]
}
