// Package output formats an acquired review for display or machine
// consumption.
//
// Three formats are supported:
//   - json: the canonical review JSON, byte for byte (discussion replies
//     are wrapped in a small object)
//   - markdown: PR-comment-friendly, one section per file
//   - text: human-readable terminal output
//
// Use [GetWriter] to obtain a [Writer] for a format string, or [WriteResult]
// to render straight to a file or stdout.
package output
