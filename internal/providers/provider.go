package providers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/dshills/reviewgen/internal/registry"
)

// EmptyReplyInstruction is appended to a discussion prompt when the first
// reply came back empty.
const EmptyReplyInstruction = "Your previous reply was empty. Reply now with the visible answer text only, " +
	"without spending the budget on hidden reasoning."

// Payload is a provider-specific request built for exactly one attempt.
// It is never mutated after Build; retries build a new one.
type Payload struct {
	Provider        backend.Provider
	Model           string
	Mode            backend.Mode
	Attempt         int
	Temperature     float64
	TokenBudget     int
	ThinkingBudget  int
	ReasoningEffort string
	Header          http.Header
	Body            any
}

// BuildOptions adjusts a build for the content retry.
type BuildOptions struct {
	Attempt int
	// TokenBudget, when positive, replaces the registry budget.
	TokenBudget int
	// Corrective appends EmptyReplyInstruction (discussion mode only).
	Corrective bool
}

// Backend is one generative-model service: a payload builder plus a
// transport that returns a normalized RawResponse.
type Backend interface {
	Name() backend.Provider
	Build(req backend.ReviewRequest, opts BuildOptions) (*Payload, error)
	Send(ctx context.Context, p *Payload) (*backend.RawResponse, error)
}

// Options configures a Backend. Credentials are passed in explicitly;
// nothing in this package reads the environment.
type Options struct {
	APIKey          string
	BaseURL         string
	ExtendedContext bool
	MaxAttempts     int
	Timeout         time.Duration
	Registry        *registry.Registry
	HTTPClient      *http.Client
	Logger          *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.Timeout <= 0 {
		o.Timeout = 120 * time.Second
	}
	if o.Registry == nil {
		o.Registry = registry.Default()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// New creates a backend by provider name. A missing API key is not an
// error here; Build reports it before any network call.
func New(provider backend.Provider, opts Options) (Backend, error) {
	opts = opts.withDefaults()
	switch provider {
	case backend.ProviderOpenAI:
		return NewOpenAI(opts), nil
	case backend.ProviderAnthropic:
		return NewAnthropic(opts), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// IsAuthError reports whether err is a missing or rejected credential.
func IsAuthError(err error) bool {
	k := backend.KindOf(err)
	return k == backend.ErrUnauthorized || k == backend.ErrMissingCredential
}

func resolveParams(reg *registry.Registry, req backend.ReviewRequest, opts BuildOptions) registry.Params {
	p := reg.Resolve(req.Provider, req.Model, req.ThinkingEnabled)
	if opts.TokenBudget > 0 {
		p.TokenBudget = opts.TokenBudget
	}
	return p
}

func ptr[T any](v T) *T { return &v }
