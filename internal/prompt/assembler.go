package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Turn is one prior exchange entry from the conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Assembler composes the full completion prompt from the system preamble,
// analytics results, retrieved memories, and recent history, trimming the
// oldest history first when the token budget would overflow.
type Assembler struct {
	tokenBudget  int
	historyTurns int
}

func NewAssembler(tokenBudget, historyTurns int) *Assembler {
	if tokenBudget <= 0 {
		tokenBudget = 4000
	}
	if historyTurns <= 0 {
		historyTurns = 6
	}
	return &Assembler{tokenBudget: tokenBudget, historyTurns: historyTurns}
}

// EstimateTokens approximates the token count of text; roughly four
// characters per token for English prose.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// SystemPrompt is the assistant's standing instruction set.
func SystemPrompt(teacherID int) string {
	return fmt.Sprintf(`You are a helpful teaching assistant for teacher #%d. You help analyze student grades, identify struggling students, and suggest interventions.

When database query results are provided, base your answer on them. Be specific: name students, cite numbers, and suggest concrete next steps. Keep answers concise and practical.

When asked to produce code or scripts, emit them in fenced code blocks with a language tag.`, teacherID)
}

// Assemble builds the prompt string. Analytics results and the memory block
// may be empty; history is trimmed oldest-first against the token budget.
func (a *Assembler) Assemble(teacherID int, analyticsJSON, memoryBlock string, history []Turn, message string) string {
	var b strings.Builder
	b.WriteString(SystemPrompt(teacherID))
	b.WriteString("\n\n")

	if analyticsJSON != "" {
		b.WriteString("=== Database Query Results ===\n")
		b.WriteString(analyticsJSON)
		b.WriteString("\n\n")
	}

	if memoryBlock != "" {
		b.WriteString(memoryBlock)
	}

	tail := fmt.Sprintf("USER: %s\n\nASSISTANT: ", message)

	if len(history) > a.historyTurns {
		history = history[len(history)-a.historyTurns:]
	}

	used := EstimateTokens(b.String()) + EstimateTokens(tail)
	var kept []string
	for i := len(history) - 1; i >= 0; i-- {
		line := fmt.Sprintf("%s: %s\n", strings.ToUpper(history[i].Role), history[i].Content)
		cost := EstimateTokens(line)
		if used+cost > a.tokenBudget {
			break
		}
		used += cost
		kept = append(kept, line)
	}
	// kept is newest-first; emit chronologically.
	for i := len(kept) - 1; i >= 0; i-- {
		b.WriteString(kept[i])
	}
	if len(kept) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(tail)
	return b.String()
}

// MarshalAnalytics renders query records as the JSON block embedded in the
// prompt. Empty results render as an empty string so the section is omitted.
func MarshalAnalytics(directive string, records []map[string]any) string {
	if len(records) == 0 {
		return ""
	}
	payload, err := json.MarshalIndent(map[string]any{
		"query_type": directive,
		"results":    records,
	}, "", "  ")
	if err != nil {
		return ""
	}
	return string(payload)
}
