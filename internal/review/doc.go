// Package review defines the canonical review payload: a summary plus line
// comments, each optionally carrying search/replace edits.
//
// The JSON schema in schema.go is both sent to providers as the structured
// output contract and enforced locally by Validate. Canonicalize is the only
// way a provider reply becomes the string the engine returns, so every
// line-comment result parses and validates.
package review
