// Package redact removes secrets from prompt text and log output.
//
// Detection uses regex heuristics covering common secret shapes: provider
// API keys (Anthropic, OpenAI), bearer tokens, JWTs, private keys, AWS
// access keys, and GitHub and Slack tokens.
//
// Prompt files whose paths match configured glob patterns have their
// entire content replaced rather than being scanned. [Handler] wraps any
// slog.Handler so that messages and string attributes are scrubbed before
// they are written.
package redact
