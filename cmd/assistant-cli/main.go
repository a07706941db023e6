// assistant-cli is a thin terminal client for the assistant service: it
// posts chat requests and renders the event stream as it arrives.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	serverFlag    string
	teacherIDFlag int
	messageFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "assistant-cli",
	Short: "Terminal client for the GradeInsight assistant",
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant (single message or REPL mode)",
	RunE:  runChat,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service readiness",
	RunE:  runStatus,
}

var memoryCmd = &cobra.Command{
	Use:   "memory [query]",
	Short: "Search the assistant's semantic memory",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemorySearch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "http://localhost:8090", "Assistant server URL")
	rootCmd.PersistentFlags().IntVar(&teacherIDFlag, "teacher", 1, "Teacher id for analytics grounding")
	chatCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Single message to send")
	rootCmd.AddCommand(chatCmd, statusCmd, memoryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type historyTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type streamEvent struct {
	Type        string `json:"type"`
	Content     string `json:"content"`
	ToolName    string `json:"tool_name"`
	RecordCount *int   `json:"record_count"`
	Message     string `json:"message"`
	Artifact    *struct {
		Language string  `json:"language"`
		Code     string  `json:"code"`
		Filename *string `json:"filename"`
	} `json:"artifact"`
}

func runChat(cmd *cobra.Command, _ []string) error {
	conversationID := uuid.NewString()
	var history []historyTurn

	if messageFlag != "" {
		_, err := sendMessage(cmd.Context(), conversationID, messageFlag, history)
		return err
	}

	fmt.Println("GradeInsight assistant (type 'exit' to quit)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}
		response, err := sendMessage(cmd.Context(), conversationID, input, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		history = append(history,
			historyTurn{Role: "user", Content: input},
			historyTurn{Role: "assistant", Content: response},
		)
	}
	return scanner.Err()
}

// sendMessage posts one chat request and renders the stream: status lines to
// stderr, tokens to stdout as they arrive. It returns the full response text.
func sendMessage(ctx context.Context, conversationID, message string, history []historyTurn) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"message":              message,
		"conversation_history": history,
		"teacher_id":           teacherIDFlag,
		"conversation_id":      conversationID,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverFlag+"/v1/chat", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var body map[string]any
		_ = json.NewDecoder(res.Body).Decode(&body)
		return "", fmt.Errorf("server returned %d: %v", res.StatusCode, body["error"])
	}

	var full strings.Builder
	scanner := bufio.NewScanner(res.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			continue
		}
		switch ev.Type {
		case "status":
			fmt.Fprintf(os.Stderr, "[%s]\n", ev.Content)
		case "tool_result":
			count := 0
			if ev.RecordCount != nil {
				count = *ev.RecordCount
			}
			fmt.Fprintf(os.Stderr, "[%s: %d records]\n", ev.ToolName, count)
		case "token":
			fmt.Print(ev.Content)
			full.WriteString(ev.Content)
		case "artifact":
			if ev.Artifact == nil {
				continue
			}
			if ev.Artifact.Filename == nil {
				fmt.Fprintf(os.Stderr, "\n[artifact: %s, no filename, not saved]\n", ev.Artifact.Language)
				continue
			}
			name := *ev.Artifact.Filename
			if err := os.WriteFile(name, []byte(ev.Artifact.Code), 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "\n[artifact: failed to save %s: %v]\n", name, err)
				continue
			}
			fmt.Fprintf(os.Stderr, "\n[artifact: %s saved to %s]\n", ev.Artifact.Language, name)
		case "done":
			fmt.Println()
			return full.String(), nil
		case "error":
			fmt.Println()
			return full.String(), fmt.Errorf("%s", ev.Message)
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), err
	}
	return full.String(), fmt.Errorf("stream ended without done event")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverFlag+"/readyz", nil)
	if err != nil {
		return err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer res.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return err
	}
	for k, v := range body {
		fmt.Printf("%-17s %v\n", k, v)
	}
	return nil
}

func runMemorySearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	u := fmt.Sprintf("%s/v1/memory/search?q=%s", serverFlag, url.QueryEscape(args[0]))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var body struct {
		Results []struct {
			Role       string  `json:"role"`
			Content    string  `json:"content"`
			Similarity float32 `json:"similarity"`
		} `json:"results"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return err
	}
	if len(body.Results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, m := range body.Results {
		fmt.Printf("%.3f  [%s] %s\n", m.Similarity, m.Role, m.Content)
	}
	return nil
}
