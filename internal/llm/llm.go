package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/gradeinsight/assistant/internal/config"
)

// ErrProviderUnavailable marks faults reaching the model backend, as opposed
// to faults in the generated stream itself.
var ErrProviderUnavailable = errors.New("llm provider unavailable")

// Request is one completion to stream.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Streamer produces a completion incrementally. onToken is invoked once per
// text chunk in arrival order; if it returns an error the stream is
// abandoned. The full accumulated text is returned on success.
type Streamer interface {
	Stream(ctx context.Context, req Request, onToken func(chunk string) error) (string, error)
}

// New builds the streamer selected by configuration.
func New(cfg *config.Config) (Streamer, error) {
	switch cfg.LLMProvider {
	case "ollama":
		return NewOllamaStreamer(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	case "anthropic":
		return NewAnthropicStreamer(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	case "mock":
		return NewMockStreamer(nil), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
