package chat

import "github.com/gradeinsight/assistant/internal/artifact"

// Event is one server-to-client stream frame. The wire shape varies by
// Type; optional fields are pointers so absent ones are omitted entirely.
type Event struct {
	Type        string             `json:"type"`
	Content     string             `json:"content,omitempty"`
	ToolName    string             `json:"tool_name,omitempty"`
	Success     *bool              `json:"success,omitempty"`
	RecordCount *int               `json:"record_count,omitempty"`
	Artifact    *artifact.Artifact `json:"artifact,omitempty"`
	Message     string             `json:"message,omitempty"`
}

func StatusEvent(content string) Event {
	return Event{Type: "status", Content: content}
}

func ToolResultEvent(toolName string, success bool, recordCount int) Event {
	return Event{
		Type:        "tool_result",
		ToolName:    toolName,
		Success:     &success,
		RecordCount: &recordCount,
	}
}

func TokenEvent(chunk string) Event {
	return Event{Type: "token", Content: chunk}
}

func ArtifactEvent(a artifact.Artifact) Event {
	return Event{Type: "artifact", Artifact: &a}
}

func DoneEvent() Event {
	return Event{Type: "done"}
}

func ErrorEvent(message string) Event {
	return Event{Type: "error", Message: message}
}
