package vectormem

import (
	"context"
	"fmt"
	"strings"
)

const excerptLimit = 150

// Searcher is the slice of the store the retriever needs.
type Searcher interface {
	Search(ctx context.Context, query string, k int, filters map[string]string) ([]Match, error)
}

// Retriever turns raw similarity hits into a prompt-ready context block.
// Ranking is the store's job; the retriever applies the business rules on
// top: self-conversation exclusion, exact-content dedup, and a hard
// relevance cutoff on cosine distance.
type Retriever struct {
	store       Searcher
	maxDistance float32
	overfetch   int
}

func NewRetriever(store Searcher, maxDistance float64, overfetch int) *Retriever {
	if maxDistance <= 0 {
		maxDistance = 0.7
	}
	if overfetch < 1 {
		overfetch = 2
	}
	return &Retriever{
		store:       store,
		maxDistance: float32(maxDistance),
		overfetch:   overfetch,
	}
}

// GetContext returns a delimited past-context block with up to n accepted
// excerpts, or the empty string when nothing survives filtering. Callers
// treat empty as "omit this section", never as an error.
//
// Candidates are over-fetched so that filtering does not starve the result
// when many of the top hits come from the excluded conversation or repeat
// the same content.
func (r *Retriever) GetContext(ctx context.Context, query string, n int, excludeConversation string) (string, error) {
	if strings.TrimSpace(query) == "" || n <= 0 {
		return "", nil
	}

	candidates, err := r.store.Search(ctx, query, n*r.overfetch, nil)
	if err != nil {
		return "", fmt.Errorf("search memory: %w", err)
	}
	if len(candidates) == 0 {
		return "", nil
	}

	var lines []string
	seen := make(map[string]struct{})
	for _, c := range candidates {
		if excludeConversation != "" && c.ConversationID == excludeConversation {
			continue
		}
		if _, dup := seen[c.Content]; dup {
			continue
		}
		seen[c.Content] = struct{}{}
		if c.Distance > r.maxDistance {
			continue
		}

		role := c.Role
		if role == "" {
			role = "unknown"
		}
		excerpt := c.Content
		if len(excerpt) > excerptLimit {
			excerpt = excerpt[:excerptLimit] + "..."
		}
		lines = append(lines, fmt.Sprintf("[Past %s message]: %s", role, excerpt))

		if len(lines) >= n {
			break
		}
	}

	if len(lines) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("=== RELEVANT PAST CONTEXT ===\n")
	b.WriteString("You previously discussed related topics:\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nUse this context if relevant to the current question.\n")
	b.WriteString("================================\n\n")
	return b.String(), nil
}
