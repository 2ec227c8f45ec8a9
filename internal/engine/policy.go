package engine

import (
	"strings"

	"github.com/dshills/reviewgen/internal/backend"
)

// RetryDecision is the outcome of inspecting one reply.
type RetryDecision int

const (
	RetryNone RetryDecision = iota
	RetryReducedBudget
)

func (d RetryDecision) String() string {
	switch d {
	case RetryReducedBudget:
		return "retry_reduced_budget"
	default:
		return "none"
	}
}

// MaxAttempts caps the logical attempts per request.
const MaxAttempts = 2

// MinRetryBudget is the floor for a reduced retry budget.
const MinRetryBudget = 256

// Decide inspects the reply to the given zero-based attempt. Only the first
// attempt can ask for a retry, and only when the reply had nothing usable
// in it.
func Decide(raw *backend.RawResponse, text string, extractErr error, attempt int) RetryDecision {
	if attempt >= MaxAttempts-1 {
		return RetryNone
	}
	if raw != nil && raw.TruncatedByBudget() && !raw.HasVisibleOutput() {
		return RetryReducedBudget
	}
	switch backend.KindOf(extractErr) {
	case backend.ErrEmptyOutput, backend.ErrNoChoicesReturned:
		return RetryReducedBudget
	case nil:
		if extractErr == nil && strings.TrimSpace(text) == "" {
			return RetryReducedBudget
		}
	}
	return RetryNone
}

// RetryBudget returns the token budget for the retry: half the first
// budget, floored at MinRetryBudget, and strictly smaller than first
// whenever first is at least 2. Budgets below 2 are returned unchanged;
// no smaller positive budget exists.
func RetryBudget(first int) int {
	if first < 2 {
		return first
	}
	b := max(MinRetryBudget, first/2)
	if b >= first {
		b = first - 1
	}
	return b
}

// canShrink reports whether a retry can ask for fewer tokens than first.
func canShrink(first int) bool {
	return RetryBudget(first) < first
}

func isEmptyKind(err error) bool {
	k := backend.KindOf(err)
	return k == backend.ErrEmptyOutput || k == backend.ErrNoChoicesReturned
}
