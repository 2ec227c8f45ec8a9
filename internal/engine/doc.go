// Package engine acquires one review result per request.
//
// [Engine.Acquire] resolves a provider backend and extraction chain through
// the [Dispatcher], sends at most two strictly sequential requests and
// returns the canonical review JSON (line-comment mode) or trimmed reply
// text (discussion mode). The second request exists only when [Decide]
// returns RetryReducedBudget for the first reply.
package engine
