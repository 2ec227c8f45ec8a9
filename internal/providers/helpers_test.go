package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/dshills/reviewgen/internal/backend"
)

func zeroBackOff() backoff.BackOff { return &backoff.ZeroBackOff{} }

func testOptions(server *httptest.Server) Options {
	return Options{
		APIKey:      "test-key",
		BaseURL:     server.URL,
		HTTPClient:  server.Client(),
		MaxAttempts: 3,
	}
}

func newTestOpenAI(t *testing.T, server *httptest.Server) *OpenAI {
	t.Helper()
	o := NewOpenAI(testOptions(server))
	o.exec.newBackOff = zeroBackOff
	return o
}

func newTestAnthropic(t *testing.T, server *httptest.Server) *Anthropic {
	t.Helper()
	a := NewAnthropic(testOptions(server))
	a.exec.newBackOff = zeroBackOff
	return a
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func lineRequest(provider backend.Provider, model string) backend.ReviewRequest {
	return backend.NewReviewRequest("test prompt", provider, model, backend.ModeLineComment, false)
}
