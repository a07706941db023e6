package artifact

import "testing"

func TestExtractPythonBlock(t *testing.T) {
	text := "Here is a script:\n```python\nprint('hi')\n```\nDone."
	got := Extract(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(got))
	}
	a := got[0]
	if a.Language != "python" {
		t.Fatalf("language = %q, want python", a.Language)
	}
	if a.Code != "print('hi')" {
		t.Fatalf("code = %q", a.Code)
	}
	if a.Filename == nil || *a.Filename != "script.py" {
		t.Fatalf("filename = %v, want script.py", a.Filename)
	}
	if a.ID == "" {
		t.Fatal("artifact id must be set")
	}
}

func TestExtractUntaggedDefaultsToText(t *testing.T) {
	got := Extract("```\nplain stuff\n```")
	if len(got) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(got))
	}
	if got[0].Language != "text" {
		t.Fatalf("language = %q, want text", got[0].Language)
	}
	if got[0].Filename != nil {
		t.Fatalf("untagged block should have no filename, got %q", *got[0].Filename)
	}
}

func TestExtractFilenameDirective(t *testing.T) {
	text := "```python\n# filename: grade_report.py\nprint('report')\n```"
	got := Extract(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(got))
	}
	if got[0].Filename == nil || *got[0].Filename != "grade_report.py" {
		t.Fatalf("filename = %v, want grade_report.py", got[0].Filename)
	}
}

func TestExtractMultipleBlocksInOrder(t *testing.T) {
	text := "```go\npackage main\n```\ntext between\n```sql\nSELECT 1;\n```"
	got := Extract(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(got))
	}
	if got[0].Language != "go" || got[1].Language != "sql" {
		t.Fatalf("languages = %q, %q", got[0].Language, got[1].Language)
	}
}

func TestExtractNoBlocks(t *testing.T) {
	if got := Extract("no code here"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
