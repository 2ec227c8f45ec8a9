package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dshills/reviewgen/internal/backend"
)

const maxRetryAfter = 30 * time.Second

// TransportError describes one failed HTTP exchange.
type TransportError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sending request: %v", e.Err)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient: a connection error,
// a 5xx, or an explicit rate-limit signal.
func (e *TransportError) Retryable() bool {
	if e.Err != nil {
		return !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, context.DeadlineExceeded)
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Executor posts a request body and returns the response body, retrying
// transient failures with exponential backoff and jitter.
type Executor struct {
	client      *http.Client
	maxAttempts int
	newBackOff  func() backoff.BackOff
	logger      *slog.Logger
}

// NewExecutor creates an executor that makes at most maxAttempts calls.
func NewExecutor(client *http.Client, maxAttempts int, logger *slog.Logger) *Executor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Executor{
		client:      client,
		maxAttempts: maxAttempts,
		newBackOff:  defaultBackOff,
		logger:      logger,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	b.MaxInterval = 8 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// retryAfterBackOff stretches the next delay to a server-provided hint.
type retryAfterBackOff struct {
	backoff.BackOff
	hint *time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	d := b.BackOff.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	if *b.hint > d {
		d = *b.hint
	}
	*b.hint = 0
	return d
}

// Send posts body to url. 401/403 surface as ErrUnauthorized, everything
// else that fails surfaces as ErrTransportFailure.
func (e *Executor) Send(ctx context.Context, provider backend.Provider, url string, header http.Header, body []byte) ([]byte, error) {
	var (
		respBody []byte
		attempt  int
		hint     time.Duration
	)

	op := func() error {
		attempt++
		data, terr := e.do(ctx, url, header, body)
		if terr == nil {
			respBody = data
			return nil
		}
		if terr.StatusCode == http.StatusUnauthorized || terr.StatusCode == http.StatusForbidden {
			return backoff.Permanent(backend.Wrap(backend.ErrUnauthorized, provider, "", terr))
		}
		if !terr.Retryable() {
			return backoff.Permanent(terr)
		}
		hint = min(terr.RetryAfter, maxRetryAfter)
		return terr
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&retryAfterBackOff{BackOff: e.newBackOff(), hint: &hint}, uint64(e.maxAttempts-1)),
		ctx,
	)
	notify := func(err error, d time.Duration) {
		e.logger.Warn("retrying provider request",
			slog.String("provider", string(provider)),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", d),
			slog.String("error", err.Error()),
		)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if backend.KindOf(err) != nil {
			return nil, err
		}
		return nil, backend.Wrap(backend.ErrTransportFailure, provider, fmt.Sprintf("after %d attempt(s)", attempt), err)
	}
	return respBody, nil
}

func (e *Executor) do(ctx context.Context, url string, header http.Header, body []byte) ([]byte, *TransportError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("creating request: %w", err)}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("reading response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return data, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
