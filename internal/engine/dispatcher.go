package engine

import (
	"fmt"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/dshills/reviewgen/internal/extract"
	"github.com/dshills/reviewgen/internal/providers"
	"github.com/dshills/reviewgen/internal/review"
)

// Pairing is a backend together with the chain that reads its replies.
type Pairing struct {
	Backend providers.Backend
	Chain   *extract.Chain
}

// Dispatcher selects a pairing by provider and mode.
type Dispatcher struct {
	backends map[backend.Provider]providers.Backend
}

// NewDispatcher registers backends by their Name.
func NewDispatcher(backends ...providers.Backend) *Dispatcher {
	d := &Dispatcher{backends: make(map[backend.Provider]providers.Backend, len(backends))}
	for _, b := range backends {
		d.backends[b.Name()] = b
	}
	return d
}

// Resolve returns the pairing for a provider and mode. An empty provider
// selects backend.DefaultProvider.
func (d *Dispatcher) Resolve(provider backend.Provider, mode backend.Mode) (Pairing, error) {
	if provider == "" {
		provider = backend.DefaultProvider
	}
	b, ok := d.backends[provider]
	if !ok {
		return Pairing{}, fmt.Errorf("no backend registered for provider %q", provider)
	}
	chain, err := ChainFor(provider, mode)
	if err != nil {
		return Pairing{}, err
	}
	return Pairing{Backend: b, Chain: chain}, nil
}

// ChainFor builds the extraction chain for a provider and mode.
//
//   - openai, line-comment: tool call, structured text, fenced JSON, whole JSON
//   - anthropic, line-comment: tool call only; anything else is ErrToolNotInvoked
//   - discussion: plain text
func ChainFor(provider backend.Provider, mode backend.Mode) (*extract.Chain, error) {
	switch mode {
	case backend.ModeDiscussion:
		return extract.NewChain(provider, extract.PlainText{}), nil
	case backend.ModeLineComment, "":
	default:
		return nil, fmt.Errorf("unknown mode: %s", mode)
	}

	tool := extract.ToolCall{Tool: review.ToolName}
	switch provider {
	case backend.ProviderOpenAI:
		return extract.NewChain(provider, tool, extract.StructuredText{}, extract.FencedJSON{}, extract.WholeJSON{}), nil
	case backend.ProviderAnthropic:
		c := extract.NewChain(provider, tool)
		c.Miss = backend.ErrToolNotInvoked
		return c, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
