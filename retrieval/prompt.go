package retrieval

import (
	"strings"

	"github.com/poiesic/doctalk/core"
)

// HistoryLimit is how many trailing conversation messages carry over
// into the prompt.
const HistoryLimit = 6

// BuildPrompt assembles the full generation prompt: grounding
// instructions, recent conversation history, the document context, and
// the current question. The instructions forbid the model from using
// knowledge outside the supplied context.
func BuildPrompt(query, context string, history []core.Message) string {
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}

	var builder strings.Builder
	builder.WriteString("IMPORTANT: You are analyzing documents in a conversational context. " +
		"ONLY use the information provided below. DO NOT make up or infer any information " +
		"not explicitly stated in the document.\n\n")

	if len(history) > 0 {
		builder.WriteString("Previous conversation context:\n")
		for i, message := range history {
			if i > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(message.Role.String() + ": " + message.Content)
		}
		builder.WriteString("\n\n")
	}

	builder.WriteString("Document Content:\n" + context + "\n\n")
	builder.WriteString("Current Question: " + query + "\n\n")
	builder.WriteString("Instructions: Answer ONLY using the information from the document above. " +
		"If the information is not in the document, say \"This information is not provided in the document.\" " +
		"Do not add any external knowledge or assumptions. Be conversational and reference previous " +
		"questions when relevant.\n\n")
	builder.WriteString("Answer:")
	return builder.String()
}
