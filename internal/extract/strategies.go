package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/dshills/reviewgen/internal/review"
)

// ToolCall reads the arguments of the expected tool invocation. A call to
// any other tool is a contract violation, not a reason to look elsewhere.
type ToolCall struct {
	Tool string
}

func (s ToolCall) Name() string { return "tool_call" }

func (s ToolCall) CanHandle(raw *backend.RawResponse) bool {
	return len(raw.ToolCalls) > 0
}

func (s ToolCall) Extract(raw *backend.RawResponse) (string, error) {
	var names []string
	for _, call := range raw.ToolCalls {
		if call.Name != s.Tool {
			names = append(names, call.Name)
			continue
		}
		if strings.TrimSpace(call.Arguments) == "" {
			return "", backend.Errorf(backend.ErrEmptyOutput, "", "tool %s called with no arguments", s.Tool)
		}
		return canonical(call.Arguments)
	}
	return "", backend.Errorf(backend.ErrToolNotInvoked, "", "expected tool %s, got %s", s.Tool, strings.Join(names, ", "))
}

// StructuredText reads the schema-constrained output field.
type StructuredText struct{}

func (StructuredText) Name() string { return "structured_text" }

func (StructuredText) CanHandle(raw *backend.RawResponse) bool {
	return raw.OutputText != nil
}

func (StructuredText) Extract(raw *backend.RawResponse) (string, error) {
	text := strings.TrimSpace(*raw.OutputText)
	if text == "" {
		return "", backend.Errorf(backend.ErrEmptyOutput, "", "structured output is empty")
	}
	return canonical(text)
}

var fencedJSON = regexp.MustCompile("(?is)```json\\s*(.*?)```")

// FencedJSON reads the first ```json block embedded in free text.
type FencedJSON struct{}

func (FencedJSON) Name() string { return "fenced_json" }

func (FencedJSON) CanHandle(raw *backend.RawResponse) bool {
	return fencedJSON.MatchString(raw.Text())
}

func (FencedJSON) Extract(raw *backend.RawResponse) (string, error) {
	m := fencedJSON.FindStringSubmatch(raw.Text())
	body := strings.TrimSpace(m[1])
	if body == "" {
		return "", backend.Errorf(backend.ErrEmptyOutput, "", "fenced json block is empty")
	}
	return canonical(body)
}

// WholeJSON reads a message whose entire text is a JSON document.
type WholeJSON struct{}

func (WholeJSON) Name() string { return "whole_json" }

func (WholeJSON) CanHandle(raw *backend.RawResponse) bool {
	text := strings.TrimSpace(raw.Text())
	if len(text) < 2 {
		return false
	}
	first, last := text[0], text[len(text)-1]
	return (first == '{' || first == '[') && (last == '}' || last == ']')
}

func (WholeJSON) Extract(raw *backend.RawResponse) (string, error) {
	return canonical(strings.TrimSpace(raw.Text()))
}

// PlainText returns the reply verbatim after trimming. Only discussion
// chains use it.
type PlainText struct{}

func (PlainText) Name() string { return "plain_text" }

func (PlainText) CanHandle(raw *backend.RawResponse) bool {
	return raw.OutputText != nil || len(raw.Blocks) > 0
}

func (PlainText) Extract(raw *backend.RawResponse) (string, error) {
	text := strings.TrimSpace(raw.Text())
	if text == "" {
		return "", backend.Errorf(backend.ErrEmptyOutput, "", "reply text is empty")
	}
	return text, nil
}

func canonical(text string) (string, error) {
	out, err := review.Canonicalize([]byte(text))
	if err != nil {
		return "", backend.Wrap(backend.ErrInvalidJSON, "", "", fmt.Errorf("canonicalizing review payload: %w", err))
	}
	return out, nil
}
