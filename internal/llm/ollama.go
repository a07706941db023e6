package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OllamaStreamer talks to a local Ollama daemon over its NDJSON generate API.
type OllamaStreamer struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaStreamer(baseURL, model string) *OllamaStreamer {
	return &OllamaStreamer{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 0}, // stream lifetime governed by ctx
	}
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func (s *OllamaStreamer) Stream(ctx context.Context, req Request, onToken func(string) error) (string, error) {
	body := ollamaGenerateRequest{
		Model:  s.model,
		Prompt: req.Prompt,
		Stream: true,
		Options: map[string]any{
			"num_predict": req.MaxTokens,
			"temperature": req.Temperature,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: generate returned status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaGenerateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			// Malformed chunks are skipped; the stream carries on.
			continue
		}
		if chunk.Error != "" {
			return full.String(), fmt.Errorf("%w: %s", ErrProviderUnavailable, chunk.Error)
		}
		if chunk.Response != "" {
			full.WriteString(chunk.Response)
			if err := onToken(chunk.Response); err != nil {
				return full.String(), err
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return full.String(), ctx.Err()
		}
		return full.String(), fmt.Errorf("read generate stream: %w", err)
	}
	return full.String(), nil
}

// Healthy probes the daemon's version endpoint.
func (s *OllamaStreamer) Healthy(ctx context.Context) bool {
	probe, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(probe, http.MethodGet, s.baseURL+"/api/version", nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
