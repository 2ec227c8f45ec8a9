// Package providers builds request payloads for each supported generative
// model service and sends them over HTTP.
//
// Supported providers: OpenAI (Responses API) and Anthropic (Messages API).
//
// Each [Backend] has two halves. Build is pure: it turns a review request
// into a provider-specific [Payload] using the model registry's parameters
// and reports a missing credential before any network call. Send posts the
// payload through a shared [Executor], which retries transient failures
// with exponential back-off and jitter and honours Retry-After, then
// normalizes the reply into a backend.RawResponse.
//
// Use [New] to obtain a Backend by provider name.
package providers
