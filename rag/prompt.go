package rag

import (
	"fmt"
	"strings"

	"github.com/crewlens/crewlens/core"
)

// DegradedAnswer is returned when a dataset's index location does not
// exist on disk. Degraded mode is a contract, not an error: the caller
// gets a usable answer and no exception.
const DegradedAnswer = "The knowledge base is not yet initialized. Please upload a file."

// noContextMarker stands in for an empty retrieval set so the model is
// told explicitly that nothing matched, rather than being handed an
// empty block.
const noContextMarker = "No relevant data found."

const personaInstructions = `You are an expert Employee Data Analyst with access to a company database.

INSTRUCTIONS:
1. Answer questions using ONLY the provided context below
2. Be specific with numbers, names, and details
3. If asked for counts/totals, calculate accurately from the data
4. If asked about specific people/projects, search the context carefully
5. If the answer is not in the context, say 'I don't have that information in the database'
6. Format answers clearly with bullet points or numbers when listing multiple items`

// formatContext numbers the retrieved chunks for the model.
func formatContext(texts []string) string {
	if len(texts) == 0 {
		return noContextMarker
	}
	lines := make([]string, len(texts))
	for i, text := range texts {
		lines[i] = fmt.Sprintf("[%d] %s", i+1, text)
	}
	return strings.Join(lines, "\n")
}

// formatHistory renders the recent turns oldest-first. An empty window
// yields an empty string and the prompt omits the section.
func formatHistory(turns []core.ConversationTurn) string {
	if len(turns) == 0 {
		return ""
	}
	lines := make([]string, len(turns))
	for i, turn := range turns {
		label := "User"
		if turn.Role == core.RoleAssistant {
			label = "Assistant"
		}
		lines[i] = fmt.Sprintf("%s: %s", label, turn.Text)
	}
	return strings.Join(lines, "\n")
}

// buildPrompt composes the single completion prompt: persona, numbered
// context, truncated history, then the current question.
func buildPrompt(contextBlock string, history []core.ConversationTurn, query string) string {
	var b strings.Builder
	b.WriteString(personaInstructions)
	b.WriteString("\n\nCONTEXT FROM DATABASE:\n")
	b.WriteString(contextBlock)
	if h := formatHistory(history); h != "" {
		b.WriteString("\n\nCONVERSATION SO FAR:\n")
		b.WriteString(h)
	}
	b.WriteString("\n\nRemember: Only use information from the context above. Be precise and factual.")
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	return b.String()
}

// truncateHistory keeps the most recent window of turns, preserving
// oldest-first order inside the window.
func truncateHistory(turns []core.ConversationTurn, window int) []core.ConversationTurn {
	if window <= 0 {
		return nil
	}
	if len(turns) <= window {
		return turns
	}
	return turns[len(turns)-window:]
}
