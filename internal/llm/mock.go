package llm

import (
	"context"
	"strings"
)

// MockStreamer replays a fixed chunk sequence. Used by tests and by the
// "mock" provider mode for running the service without a model backend.
type MockStreamer struct {
	chunks []string
	err    error
}

func NewMockStreamer(chunks []string) *MockStreamer {
	if chunks == nil {
		chunks = []string{"This is a ", "canned response."}
	}
	return &MockStreamer{chunks: chunks}
}

// NewFailingStreamer returns a streamer whose Stream fails immediately.
func NewFailingStreamer(err error) *MockStreamer {
	return &MockStreamer{err: err}
}

func (s *MockStreamer) Stream(ctx context.Context, _ Request, onToken func(string) error) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	var full strings.Builder
	for _, chunk := range s.chunks {
		if err := ctx.Err(); err != nil {
			return full.String(), err
		}
		full.WriteString(chunk)
		if err := onToken(chunk); err != nil {
			return full.String(), err
		}
	}
	return full.String(), nil
}
