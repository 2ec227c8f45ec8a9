package backend

import (
	"fmt"
	"strings"
)

// Provider names a backend family.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// DefaultProvider is used when configuration leaves the provider unset.
const DefaultProvider = ProviderOpenAI

// ParseProvider normalizes a configured provider name. An empty name
// resolves to DefaultProvider.
func ParseProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DefaultProvider, nil
	case "openai", "a":
		return ProviderOpenAI, nil
	case "anthropic", "claude", "b":
		return ProviderAnthropic, nil
	default:
		return "", fmt.Errorf("unknown provider: %s", name)
	}
}

// Mode selects between schema-enforced line comments and free-text replies.
type Mode string

const (
	ModeLineComment Mode = "line-comment"
	ModeDiscussion  Mode = "discussion"
)

// PromptSegment is one piece of the prompt. Stable segments are identical
// across requests (instructions, repository guidelines); dynamic segments
// change per request (diff, log, thread).
type PromptSegment struct {
	Text   string
	Stable bool
}

// ReviewRequest is the immutable input to one acquisition.
type ReviewRequest struct {
	Segments        []PromptSegment
	ThinkingEnabled bool
	Provider        Provider
	Model           string
	Mode            Mode
}

// NewReviewRequest wraps a plain prompt as a single dynamic segment.
func NewReviewRequest(prompt string, provider Provider, model string, mode Mode, thinking bool) ReviewRequest {
	return ReviewRequest{
		Segments:        []PromptSegment{{Text: prompt}},
		ThinkingEnabled: thinking,
		Provider:        provider,
		Model:           model,
		Mode:            mode,
	}
}

// Prompt returns the full prompt text.
func (r ReviewRequest) Prompt() string {
	var b strings.Builder
	for _, s := range r.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// StableSegments returns the texts of the stable prefix segments, in order.
func (r ReviewRequest) StableSegments() []string {
	var out []string
	for _, s := range r.Segments {
		if s.Stable {
			out = append(out, s.Text)
		}
	}
	return out
}

// DynamicPrompt returns the concatenation of the non-stable segments.
func (r ReviewRequest) DynamicPrompt() string {
	var b strings.Builder
	for _, s := range r.Segments {
		if !s.Stable {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}
