package engine

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/dshills/reviewgen/internal/fingerprint"
	"github.com/dshills/reviewgen/internal/providers"
	"github.com/google/uuid"
)

// Engine acquires review text from a provider.
type Engine struct {
	dispatcher      *Dispatcher
	logger          *slog.Logger
	logRawReplies   bool
	logCacheMetrics bool
	now             func() time.Time
	newID           func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRawReplyLogging logs every provider body at debug level.
func WithRawReplyLogging(on bool) Option {
	return func(e *Engine) { e.logRawReplies = on }
}

// WithCacheMetrics logs the prompt fingerprint and cache token counts.
func WithCacheMetrics(on bool) Option {
	return func(e *Engine) { e.logCacheMetrics = on }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine over a dispatcher.
func New(d *Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		dispatcher: d,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Acquire returns the review for req. In line-comment mode the result is
// always canonical review JSON; an empty reply after the retry is
// ErrEmptyOutput. In discussion mode an empty reply after the retry is
// returned as "" with a nil error.
func (e *Engine) Acquire(ctx context.Context, req backend.ReviewRequest) (string, error) {
	if req.Provider == "" {
		req.Provider = backend.DefaultProvider
	}
	if req.Mode == "" {
		req.Mode = backend.ModeLineComment
	}

	log := e.logger.With(
		slog.String("acquisition_id", e.newID()),
		slog.String("provider", string(req.Provider)),
		slog.String("model", req.Model),
		slog.String("mode", string(req.Mode)),
	)

	pair, err := e.dispatcher.Resolve(req.Provider, req.Mode)
	if err != nil {
		return "", err
	}

	var fp string
	if e.logCacheMetrics {
		fp = fingerprint.FromRequest(req)
	}

	opts := providers.BuildOptions{}
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		opts.Attempt = attempt
		payload, err := pair.Backend.Build(req, opts)
		if err != nil {
			log.Error("building request", slog.Int("attempt", attempt), slog.String("error", err.Error()))
			return "", err
		}

		start := e.now()
		raw, err := pair.Backend.Send(ctx, payload)
		if err != nil {
			log.Error("provider request failed",
				slog.Int("attempt", attempt),
				slog.Duration("duration", e.now().Sub(start)),
				slog.String("error", err.Error()),
			)
			return "", err
		}
		if e.logRawReplies {
			log.Debug("raw provider reply", slog.Int("attempt", attempt), slog.String("body", string(raw.Body)))
		}
		if e.logCacheMetrics {
			log.Info("prompt cache",
				slog.String("fingerprint", fp),
				slog.Int("cache_read_tokens", raw.Usage.CacheReadTokens),
				slog.Int("cache_write_tokens", raw.Usage.CacheWriteTokens),
				slog.Int("input_tokens", raw.Usage.InputTokens),
			)
		}

		res, xerr := pair.Chain.Extract(raw)
		decision := Decide(raw, res.Text, xerr, attempt)
		if decision == RetryReducedBudget && !canShrink(payload.TokenBudget) {
			decision = RetryNone
		}
		log.Info("provider reply",
			slog.Int("attempt", attempt),
			slog.Int("token_budget", payload.TokenBudget),
			slog.String("status", string(raw.Status)),
			slog.String("shape", raw.Shape().String()),
			slog.String("strategy", res.Strategy),
			slog.Int("output_tokens", raw.Usage.OutputTokens),
			slog.Int("reasoning_tokens", raw.Usage.ReasoningTokens),
			slog.String("decision", decision.String()),
			slog.Duration("duration", e.now().Sub(start)),
		)

		if decision == RetryReducedBudget {
			opts = providers.BuildOptions{
				TokenBudget: RetryBudget(payload.TokenBudget),
				Corrective:  req.Mode == backend.ModeDiscussion,
			}
			continue
		}

		if xerr != nil {
			if attempt > 0 && isEmptyKind(xerr) {
				return e.emptyAfterRetry(log, req, xerr)
			}
			return "", xerr
		}
		return res.Text, nil
	}

	// Unreachable: Decide never retries the last attempt.
	return "", backend.Errorf(backend.ErrEmptyOutput, req.Provider, "no attempts left")
}

func (e *Engine) emptyAfterRetry(log *slog.Logger, req backend.ReviewRequest, cause error) (string, error) {
	if req.Mode == backend.ModeDiscussion {
		log.Warn("discussion reply still empty after retry", slog.String("error", cause.Error()))
		return "", nil
	}
	return "", backend.Errorf(backend.ErrEmptyOutput, req.Provider, "no usable output after retry: %v", cause)
}
