// Package markdown finds Mermaid ER diagram blocks in Markdown documents
// and replaces them in place.
package markdown

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrModified is returned when a block no longer matches what was scanned.
var ErrModified = errors.New("block content has been modified")

// Fence is the code fence language that marks a diagram block.
const Fence = "mermaid"

// Block is a fenced mermaid block.
type Block struct {
	Content     string // Block body with the fence indentation removed
	StartLine   int    // Line of the opening fence (0-based)
	EndLine     int    // Line of the closing fence
	Indent      string // Indentation before the opening fence
	ContentHash string // SHA256 of Content when scanned
}

// IsERDiagram reports whether the block holds an erDiagram.
func (b Block) IsERDiagram() bool {
	for _, line := range strings.Split(b.Content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "%%") {
			continue
		}
		return strings.HasPrefix(trimmed, "erDiagram")
	}
	return false
}

// Scanner finds diagram blocks in markdown content
type Scanner struct {
	content string
	lines   []string
}

// NewScanner creates a new markdown scanner
func NewScanner(content string) *Scanner {
	return &Scanner{
		content: content,
		lines:   strings.Split(content, "\n"),
	}
}

// Content returns the current markdown content.
func (s *Scanner) Content() string {
	return s.content
}

// Update replaces the scanned content, typically after ReplaceBlock.
func (s *Scanner) Update(content string) {
	s.content = content
	s.lines = strings.Split(content, "\n")
}

// Blocks returns every mermaid block in document order. An unterminated
// block is ignored.
func (s *Scanner) Blocks() []Block {
	var blocks []Block
	var current *Block
	var body []string

	for i, line := range s.lines {
		trimmed := strings.TrimLeft(line, " \t")
		if current == nil {
			lang, ok := strings.CutPrefix(trimmed, "```")
			if ok && strings.EqualFold(strings.TrimSpace(lang), Fence) {
				current = &Block{StartLine: i, Indent: line[:len(line)-len(trimmed)]}
				body = body[:0]
			}
			continue
		}

		if strings.HasPrefix(trimmed, "```") {
			current.EndLine = i
			current.Content = strings.Join(body, "\n")
			current.ContentHash = hash(current.Content)
			blocks = append(blocks, *current)
			current = nil
			continue
		}
		body = append(body, strings.TrimPrefix(line, current.Indent))
	}

	return blocks
}

// ERDiagrams returns the blocks that hold an erDiagram.
func (s *Scanner) ERDiagrams() []Block {
	var out []Block
	for _, b := range s.Blocks() {
		if b.IsERDiagram() {
			out = append(out, b)
		}
	}
	return out
}

// Validate checks that the block is still where it was found and that its
// content matches the hash taken when it was scanned.
func (s *Scanner) Validate(block Block) error {
	if block.StartLine < 0 || block.EndLine >= len(s.lines) || block.StartLine >= block.EndLine {
		return fmt.Errorf("invalid block boundaries: start=%d, end=%d, total lines=%d",
			block.StartLine, block.EndLine, len(s.lines))
	}

	start := strings.TrimLeft(s.lines[block.StartLine], " \t")
	if !strings.HasPrefix(start, "```"+Fence) {
		return fmt.Errorf("%w: opening fence missing at line %d", ErrModified, block.StartLine+1)
	}
	end := strings.TrimLeft(s.lines[block.EndLine], " \t")
	if !strings.HasPrefix(end, "```") {
		return fmt.Errorf("%w: closing fence missing at line %d", ErrModified, block.EndLine+1)
	}

	body := make([]string, 0, block.EndLine-block.StartLine-1)
	for _, line := range s.lines[block.StartLine+1 : block.EndLine] {
		body = append(body, strings.TrimPrefix(line, block.Indent))
	}
	if hash(strings.Join(body, "\n")) != block.ContentHash {
		return fmt.Errorf("%w: hash mismatch at line %d", ErrModified, block.StartLine+1)
	}
	return nil
}

// ReplaceBlock returns the markdown with the body of block replaced by
// content, indented like the fence. The scanner itself is not changed.
func (s *Scanner) ReplaceBlock(block Block, content string) (string, error) {
	if err := s.Validate(block); err != nil {
		return "", err
	}

	content = strings.TrimRight(content, "\n")
	var replacement []string
	for _, line := range strings.Split(content, "\n") {
		if line == "" {
			replacement = append(replacement, "")
			continue
		}
		replacement = append(replacement, block.Indent+line)
	}

	lines := make([]string, 0, len(s.lines)-(block.EndLine-block.StartLine-1)+len(replacement))
	lines = append(lines, s.lines[:block.StartLine+1]...)
	lines = append(lines, replacement...)
	lines = append(lines, s.lines[block.EndLine:]...)
	return strings.Join(lines, "\n"), nil
}

// Describe returns a one-line summary of a block for listings.
func Describe(block Block, index int) string {
	preview := ""
	for _, line := range strings.Split(block.Content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			preview = trimmed
			break
		}
	}
	entities := 0
	for _, line := range strings.Split(block.Content, "\n") {
		if strings.HasSuffix(strings.TrimSpace(line), "{") {
			entities++
		}
	}
	return fmt.Sprintf("%d. line %d: %s (%d entities)", index+1, block.StartLine+1, preview, entities)
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
