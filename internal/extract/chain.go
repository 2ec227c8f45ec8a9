package extract

import (
	"github.com/dshills/reviewgen/internal/backend"
)

// Strategy is one way of pulling text out of a reply. Implementations are
// pure and hold no state between calls.
type Strategy interface {
	Name() string
	CanHandle(raw *backend.RawResponse) bool
	Extract(raw *backend.RawResponse) (string, error)
}

// Chain runs strategies in priority order.
type Chain struct {
	Provider   backend.Provider
	Strategies []Strategy
	// Miss is the error kind reported when visible output matches no
	// strategy. Defaults to ErrUnexpectedResponseShape.
	Miss error
}

// NewChain creates a chain over the given strategies.
func NewChain(provider backend.Provider, strategies ...Strategy) *Chain {
	return &Chain{Provider: provider, Strategies: strategies}
}

// Result reports which strategy produced the text.
type Result struct {
	Text     string
	Strategy string
}

// Extract returns the text produced by the first matching strategy.
func (c *Chain) Extract(raw *backend.RawResponse) (Result, error) {
	if raw == nil || raw.Shape() == backend.ShapeStatusOnly {
		return Result{}, backend.Errorf(backend.ErrNoChoicesReturned, c.Provider, "reply carried no output (status %s)", statusOf(raw))
	}

	for _, s := range c.Strategies {
		if !s.CanHandle(raw) {
			continue
		}
		text, err := s.Extract(raw)
		if err != nil {
			if backend.KindOf(err) == nil {
				err = backend.Wrap(backend.ErrInvalidJSON, c.Provider, s.Name(), err)
			} else if e, ok := err.(*backend.Error); ok && e.Provider == "" {
				e.Provider = c.Provider
			}
			return Result{Strategy: s.Name()}, err
		}
		return Result{Text: text, Strategy: s.Name()}, nil
	}

	if !raw.HasVisibleOutput() {
		return Result{}, backend.Errorf(backend.ErrEmptyOutput, c.Provider, "reply carried no visible text")
	}
	miss := c.Miss
	if miss == nil {
		miss = backend.ErrUnexpectedResponseShape
	}
	return Result{}, backend.Errorf(miss, c.Provider, "no strategy matched %s reply", raw.Shape())
}

func statusOf(raw *backend.RawResponse) string {
	if raw == nil {
		return "none"
	}
	if raw.Reason != "" {
		return string(raw.Status) + "/" + raw.Reason
	}
	return string(raw.Status)
}
