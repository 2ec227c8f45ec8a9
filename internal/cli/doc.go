// Package cli wires together the Cobra command tree for the reviewgen binary.
//
// It defines the root command and its subcommands (review, config, models,
// fingerprint, version), binds flags, reads configuration, invokes the
// acquisition engine, and maps error kinds onto exit codes.
package cli
