package review

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SearchReplaceBlock is a suggested in-place edit attached to a comment.
type SearchReplaceBlock struct {
	Search  string `json:"search"`
	Replace string `json:"replace"`
}

// Comment is one line (or line-range) review comment.
type Comment struct {
	Path                string               `json:"path"`
	Line                int                  `json:"line"`
	StartLine           *int                 `json:"start_line,omitempty"`
	Body                string               `json:"body"`
	SearchReplaceBlocks []SearchReplaceBlock `json:"search_replace_blocks,omitempty"`
}

// Payload is the review document that crosses the engine's output boundary.
type Payload struct {
	Summary  string    `json:"summary"`
	Comments []Comment `json:"comments"`
}

// Canonicalize validates data against the review schema and re-serializes
// it in canonical form: compact, fixed field order, nulls dropped and HTML
// characters left unescaped. Canonicalizing a canonical string returns it
// unchanged.
func Canonicalize(data []byte) (string, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parsing review JSON: %w", err)
	}
	if err := Validate(doc); err != nil {
		return "", err
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", fmt.Errorf("decoding review JSON: %w", err)
	}
	return Marshal(p)
}

// Marshal encodes a payload in canonical form.
func Marshal(p Payload) (string, error) {
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("encoding review JSON: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Parse decodes a canonical payload string.
func Parse(s string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return Payload{}, fmt.Errorf("parsing review JSON: %w", err)
	}
	return p, nil
}
