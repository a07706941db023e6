package chat

import (
	"fmt"

	"github.com/gradeinsight/assistant/internal/prompt"
)

const (
	maxMessageLength = 10000
	minMaxTokens     = 100
	maxMaxTokens     = 8192
	maxTemperature   = 2.0
)

// Request is the caller-supplied chat payload.
type Request struct {
	Message             string        `json:"message"`
	ConversationHistory []prompt.Turn `json:"conversation_history"`
	TeacherID           int           `json:"teacher_id"`
	ConversationID      string        `json:"conversation_id"`
	MaxTokens           int           `json:"max_tokens"`
	Temperature         *float64      `json:"temperature"`
}

// Validate checks bounds and fills defaults in place.
func (r *Request) Validate() error {
	if r.Message == "" {
		return fmt.Errorf("message must not be empty")
	}
	if len(r.Message) > maxMessageLength {
		return fmt.Errorf("message exceeds %d characters", maxMessageLength)
	}
	if r.TeacherID <= 0 {
		return fmt.Errorf("teacher_id must be positive")
	}
	if r.MaxTokens == 0 {
		r.MaxTokens = 2048
	}
	if r.MaxTokens < minMaxTokens || r.MaxTokens > maxMaxTokens {
		return fmt.Errorf("max_tokens must be between %d and %d", minMaxTokens, maxMaxTokens)
	}
	if r.Temperature == nil {
		t := 0.7
		r.Temperature = &t
	}
	if *r.Temperature < 0 || *r.Temperature > maxTemperature {
		return fmt.Errorf("temperature must be between 0.0 and %.1f", maxTemperature)
	}
	return nil
}
