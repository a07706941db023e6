package intent

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		want      DirectiveType
		studentID int
		matched   bool
	}{
		{
			name:    "struggling keyword",
			message: "Which students are struggling?",
			want:    DirectiveStrugglingStudents,
			matched: true,
		},
		{
			name:    "failing keyword",
			message: "show me who is FAILING right now",
			want:    DirectiveStrugglingStudents,
			matched: true,
		},
		{
			name:      "student detail with id",
			message:   "how is student #42 doing",
			want:      DirectiveStudentDetail,
			studentID: 42,
			matched:   true,
		},
		{
			name:      "student detail with id keyword",
			message:   "pull up the student with id 7",
			want:      DirectiveStudentDetail,
			studentID: 7,
			matched:   true,
		},
		{
			name:    "assignment analysis",
			message: "what was the hardest assignment this term",
			want:    DirectiveAssignmentAnalysis,
			matched: true,
		},
		{
			name:    "missing work",
			message: "who has missing homework",
			want:    DirectiveMissingAssignments,
			matched: true,
		},
		{
			name:    "class overview",
			message: "give me a class summary",
			want:    DirectiveClassOverview,
			matched: true,
		},
		{
			name:    "struggling outranks overview",
			message: "class overview of struggling students",
			want:    DirectiveStrugglingStudents,
			matched: true,
		},
		{
			name:    "student without numeric id falls through to overview",
			message: "what is the student id average in this class",
			want:    DirectiveClassOverview,
			matched: true,
		},
		{
			name:    "no directive",
			message: "tell me a joke about math",
			matched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.message)
			if ok != tt.matched {
				t.Fatalf("Classify(%q) matched = %v, want %v", tt.message, ok, tt.matched)
			}
			if !tt.matched {
				return
			}
			if got.Type != tt.want {
				t.Fatalf("Classify(%q) = %q, want %q", tt.message, got.Type, tt.want)
			}
			if got.StudentID != tt.studentID {
				t.Fatalf("Classify(%q) student id = %d, want %d", tt.message, got.StudentID, tt.studentID)
			}
		})
	}
}
