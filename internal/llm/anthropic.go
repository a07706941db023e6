package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicStreamer streams completions from the Anthropic Messages API.
type AnthropicStreamer struct {
	client anthropic.Client
	model  string
}

func NewAnthropicStreamer(apiKey, model string) *AnthropicStreamer {
	return &AnthropicStreamer{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (s *AnthropicStreamer) Stream(ctx context.Context, req Request, onToken func(string) error) (string, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	stream := s.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	var full strings.Builder
	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		// Accumulation errors are non-fatal; deltas still arrive below.
		_ = message.Accumulate(event)

		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := evt.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				full.WriteString(delta.Text)
				if err := onToken(delta.Text); err != nil {
					return full.String(), err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			return full.String(), ctx.Err()
		}
		return full.String(), fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return full.String(), nil
}
