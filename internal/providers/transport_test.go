package providers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(client *http.Client, attempts int) *Executor {
	e := NewExecutor(client, attempts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.newBackOff = zeroBackOff
	return e
}

func TestExecutor_HeadersAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "v", r.Header.Get("X-Test"))
		w.Write([]byte(`ok`))
	}))
	defer server.Close()

	e := newTestExecutor(server.Client(), 1)
	data, err := e.Send(context.Background(), backend.ProviderOpenAI, server.URL, http.Header{"X-Test": {"v"}}, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestExecutor_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`bad request`))
	}))
	defer server.Close()

	e := newTestExecutor(server.Client(), 3)
	_, err := e.Send(context.Background(), backend.ProviderOpenAI, server.URL, nil, nil)
	require.ErrorIs(t, err, backend.ErrTransportFailure)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, err.Error(), "status 400")
}

func TestExecutor_ForbiddenIsUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	e := newTestExecutor(server.Client(), 3)
	_, err := e.Send(context.Background(), backend.ProviderAnthropic, server.URL, nil, nil)
	require.ErrorIs(t, err, backend.ErrUnauthorized)
	assert.Equal(t, backend.ErrUnauthorized, backend.KindOf(err))
}

func TestExecutor_RecoversFromServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`ok`))
	}))
	defer server.Close()

	e := newTestExecutor(server.Client(), 2)
	data, err := e.Send(context.Background(), backend.ProviderOpenAI, server.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, int32(2), calls.Load())
}

func TestExecutor_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	e := newTestExecutor(http.DefaultClient, 2)
	_, err := e.Send(context.Background(), backend.ProviderOpenAI, url, nil, nil)
	require.ErrorIs(t, err, backend.ErrTransportFailure)
	assert.Contains(t, err.Error(), "after 2 attempt(s)")
}

func TestExecutor_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestExecutor(server.Client(), 3)
	_, err := e.Send(ctx, backend.ProviderOpenAI, server.URL, nil, nil)
	require.ErrorIs(t, err, backend.ErrTransportFailure)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTransportError_Retryable(t *testing.T) {
	tests := []struct {
		err  *TransportError
		want bool
	}{
		{&TransportError{StatusCode: 429}, true},
		{&TransportError{StatusCode: 500}, true},
		{&TransportError{StatusCode: 503}, true},
		{&TransportError{StatusCode: 400}, false},
		{&TransportError{StatusCode: 404}, false},
		{&TransportError{Err: errors.New("connection reset")}, true},
		{&TransportError{Err: context.Canceled}, false},
		{&TransportError{Err: context.DeadlineExceeded}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Retryable(), tt.err.Error())
	}
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, 2*time.Second, parseRetryAfter("2"))
	assert.Equal(t, 1500*time.Millisecond, parseRetryAfter("1.5"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon"))

	future := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
	d := parseRetryAfter(future)
	assert.Greater(t, d, 5*time.Second)
	assert.LessOrEqual(t, d, 10*time.Second)
}

func TestRetryAfterBackOff(t *testing.T) {
	hint := 3 * time.Second
	b := &retryAfterBackOff{BackOff: zeroBackOff(), hint: &hint}
	assert.Equal(t, 3*time.Second, b.NextBackOff())
	assert.Equal(t, time.Duration(0), b.NextBackOff())
}
