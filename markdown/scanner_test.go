package markdown

import (
	"errors"
	"strings"
	"testing"
)

const doc = "# Schema\n" +
	"\n" +
	"```mermaid\n" +
	"graph TD\n" +
	"  a --> b\n" +
	"```\n" +
	"\n" +
	"- item\n" +
	"  ```mermaid\n" +
	"  erDiagram\n" +
	"      User {\n" +
	"          string id PK\n" +
	"      }\n" +
	"  ```\n" +
	"\n" +
	"```go\n" +
	"fmt.Println()\n" +
	"```\n"

func TestBlocks(t *testing.T) {
	s := NewScanner(doc)

	blocks := s.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("expected 2 mermaid blocks, got %d", len(blocks))
	}

	er := s.ERDiagrams()
	if len(er) != 1 {
		t.Fatalf("expected 1 erDiagram block, got %d", len(er))
	}
	b := er[0]
	if b.StartLine != 8 || b.EndLine != 13 {
		t.Errorf("unexpected boundaries %d..%d", b.StartLine, b.EndLine)
	}
	if b.Indent != "  " {
		t.Errorf("expected two-space indent, got %q", b.Indent)
	}
	if !strings.HasPrefix(b.Content, "erDiagram\n    User {") {
		t.Errorf("indent not stripped from content:\n%s", b.Content)
	}
}

func TestUnterminatedBlockIgnored(t *testing.T) {
	s := NewScanner("```mermaid\nerDiagram\n")
	if got := len(s.Blocks()); got != 0 {
		t.Errorf("expected no blocks, got %d", got)
	}
}

func TestReplaceBlock(t *testing.T) {
	s := NewScanner(doc)
	block := s.ERDiagrams()[0]

	out, err := s.ReplaceBlock(block, "erDiagram\n    Post {\n        string title\n    }\n")
	if err != nil {
		t.Fatalf("ReplaceBlock: %v", err)
	}

	want := strings.Replace(doc,
		"  erDiagram\n      User {\n          string id PK\n      }\n",
		"  erDiagram\n      Post {\n          string title\n      }\n", 1)
	if out != want {
		t.Errorf("unexpected result:\n%s", out)
	}

	// The first block is untouched and the scanner still holds the input
	if s.Content() != doc {
		t.Error("scanner content changed")
	}

	s.Update(out)
	if got := s.ERDiagrams()[0].Content; !strings.Contains(got, "Post") {
		t.Errorf("rescan did not see the new block: %s", got)
	}
}

func TestReplaceBlockDetectsEdits(t *testing.T) {
	s := NewScanner(doc)
	block := s.ERDiagrams()[0]

	s.Update(strings.Replace(doc, "string id PK", "string uuid PK", 1))
	if _, err := s.ReplaceBlock(block, "erDiagram"); !errors.Is(err, ErrModified) {
		t.Errorf("expected ErrModified, got %v", err)
	}

	s.Update("short")
	if _, err := s.ReplaceBlock(block, "erDiagram"); err == nil {
		t.Error("expected boundary error")
	}
}

func TestDescribe(t *testing.T) {
	block := NewScanner(doc).ERDiagrams()[0]
	got := Describe(block, 0)
	if got != "1. line 9: erDiagram (1 entities)" {
		t.Errorf("unexpected description %q", got)
	}
}
