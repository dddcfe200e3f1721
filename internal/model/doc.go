// Package model defines the shared value types for the toyshare CLI.
//
// This package contains pure data structures with no external dependencies.
// The run mode (development/production), exit codes (ExitCode) and the
// CLIError type that carries an exit code live here so that every
// component can report failures the CLI layer knows how to translate into
// a process exit status.
package model
