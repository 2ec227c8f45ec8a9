// Package config loads and merges reviewgen configuration from multiple
// sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (REVIEWGEN_PROVIDER, REVIEWGEN_MODEL,
//     REVIEWGEN_DEBUG_LOGRAWREPLIES, etc.; OPENAI_API_KEY and
//     ANTHROPIC_API_KEY for credentials)
//  3. Config file ($XDG_CONFIG_HOME/reviewgen/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Get] for the process-wide
// memoized copy, [Save] to write the config file, and [SetField] to update
// a single key. Credentials are never written to disk.
package config
