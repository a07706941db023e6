package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable reports that the embedding backend cannot be reached or
// cannot serve the model. Callers distinguish this from empty input, which
// is handled before the provider is ever called.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Provider converts text to a fixed-length dense vector. Encode is a pure
// function of the text for a fixed model version.
type Provider interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
}
