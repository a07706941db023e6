package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// DirectiveType names an analytics query the assistant can ground on.
type DirectiveType string

const (
	DirectiveStrugglingStudents DirectiveType = "struggling_students"
	DirectiveStudentDetail      DirectiveType = "student_detail"
	DirectiveAssignmentAnalysis DirectiveType = "assignment_analysis"
	DirectiveMissingAssignments DirectiveType = "missing_assignments"
	DirectiveClassOverview      DirectiveType = "class_overview"
)

// Directive is a classified analytics intent. StudentID is set only for
// DirectiveStudentDetail.
type Directive struct {
	Type      DirectiveType
	StudentID int
}

var studentIDPattern = regexp.MustCompile(`(?:id|student|#)\s*(\d+)`)

// rules are evaluated in priority order; the first match wins and at most
// one directive is produced per message.
var rules = []func(string) (Directive, bool){
	func(msg string) (Directive, bool) {
		if containsAny(msg, "struggling", "failing", "below", "low grade") {
			return Directive{Type: DirectiveStrugglingStudents}, true
		}
		return Directive{}, false
	},
	func(msg string) (Directive, bool) {
		if !strings.Contains(msg, "student") || !containsAny(msg, "id", "number", "#") {
			return Directive{}, false
		}
		m := studentIDPattern.FindStringSubmatch(msg)
		if m == nil {
			return Directive{}, false
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			// Unparseable identifier degrades to no match, not an error.
			return Directive{}, false
		}
		return Directive{Type: DirectiveStudentDetail, StudentID: id}, true
	},
	func(msg string) (Directive, bool) {
		if containsAny(msg, "assignment", "hardest", "difficult", "lowest") {
			return Directive{Type: DirectiveAssignmentAnalysis}, true
		}
		return Directive{}, false
	},
	func(msg string) (Directive, bool) {
		if strings.Contains(msg, "missing") {
			return Directive{Type: DirectiveMissingAssignments}, true
		}
		return Directive{}, false
	},
	func(msg string) (Directive, bool) {
		if containsAny(msg, "class", "overview", "summary", "average") {
			return Directive{Type: DirectiveClassOverview}, true
		}
		return Directive{}, false
	},
}

// Classify maps a free-text message to at most one analytics directive.
// The second return value is false when no rule matches.
func Classify(message string) (Directive, bool) {
	msg := strings.ToLower(message)
	for _, rule := range rules {
		if d, ok := rule(msg); ok {
			return d, true
		}
	}
	return Directive{}, false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
