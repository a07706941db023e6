package artifact

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Artifact is a code block extracted from generated text.
type Artifact struct {
	ID       string  `json:"id"`
	Language string  `json:"language"`
	Code     string  `json:"code"`
	Filename *string `json:"filename"`
}

var fencePattern = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)[ \t]*\n(.*?)```")

// filename directives the model sometimes embeds in the first lines of a
// block, e.g. "# filename: report.py" or "// file: main.go".
var filenameDirective = regexp.MustCompile(`(?i)^\s*(?:#|//|--|<!--)\s*file(?:name)?\s*:\s*([\w.\-/]+)`)

var defaultFilenames = map[string]string{
	"python":     "script.py",
	"py":         "script.py",
	"go":         "main.go",
	"javascript": "script.js",
	"js":         "script.js",
	"typescript": "script.ts",
	"ts":         "script.ts",
	"bash":       "script.sh",
	"sh":         "script.sh",
	"shell":      "script.sh",
	"sql":        "query.sql",
	"html":       "index.html",
	"css":        "style.css",
	"json":       "data.json",
	"yaml":       "config.yaml",
	"yml":        "config.yaml",
	"csv":        "data.csv",
}

// Extract scans text for fenced code blocks and produces one artifact per
// block, in order of appearance. An untagged fence gets language "text".
func Extract(text string) []Artifact {
	matches := fencePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	artifacts := make([]Artifact, 0, len(matches))
	for _, m := range matches {
		lang := strings.ToLower(strings.TrimSpace(m[1]))
		if lang == "" {
			lang = "text"
		}
		code := strings.TrimRight(m[2], "\n")
		artifacts = append(artifacts, Artifact{
			ID:       uuid.NewString(),
			Language: lang,
			Code:     code,
			Filename: inferFilename(lang, code),
		})
	}
	return artifacts
}

// inferFilename prefers an explicit directive in the first three lines of
// the block, then falls back to the per-language default. Unknown languages
// get no filename.
func inferFilename(lang, code string) *string {
	lines := strings.SplitN(code, "\n", 4)
	for i, line := range lines {
		if i >= 3 {
			break
		}
		if m := filenameDirective.FindStringSubmatch(line); m != nil {
			name := m[1]
			return &name
		}
	}
	if name, ok := defaultFilenames[lang]; ok {
		return &name
	}
	return nil
}
