package model

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is the development-vs-production indicator that controls which
// code path the launcher takes. Its string value is what the application
// sees in NODE_ENV.
type Mode string

const (
	// ModeDevelopment runs the server source through a TypeScript
	// interpreter with the asset bundler in middleware mode.
	ModeDevelopment Mode = "development"

	// ModeProduction runs the already-bundled output from dist/.
	ModeProduction Mode = "production"
)

// String returns the string representation of Mode.
func (m Mode) String() string {
	return string(m)
}

// IsValid checks whether the Mode value is one of the predefined modes.
func (m Mode) IsValid() bool {
	switch m {
	case ModeDevelopment, ModeProduction:
		return true
	default:
		return false
	}
}

// ParseMode converts a string to a Mode. Matching is case-insensitive and
// accepts the short forms "dev" and "prod" that commonly appear in
// NODE_ENV. An empty string is an error; callers pick their own default.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return ModeDevelopment, nil
	case "production", "prod":
		return ModeProduction, nil
	default:
		return "", fmt.Errorf("invalid mode: %q (valid: development, production)", s)
	}
}

// ExitCode defines the CLI exit codes. Scripts and CI systems rely on
// these to tell configuration problems apart from build or migration
// failures.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates a required setting is missing or invalid
	// (e.g., DATABASE_URL is not set).
	ExitConfigError ExitCode = 2

	// ExitDependencyInstall indicates installing node dependencies failed.
	ExitDependencyInstall ExitCode = 3

	// ExitPortInUse indicates the application port is already bound by
	// another process.
	ExitPortInUse ExitCode = 4

	// ExitBuildFailed indicates one of the bundling steps failed.
	ExitBuildFailed ExitCode = 5

	// ExitMigrationFailed indicates migration generation or application
	// failed.
	ExitMigrationFailed ExitCode = 6
)

// ErrMissingConfig is the sentinel wrapped by every configuration error
// that reports an unset required value.
var ErrMissingConfig = errors.New("missing required configuration")

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ExitCodeOf extracts the exit code carried by err. A CLIError's code
// wins, then ErrMissingConfig maps to ExitConfigError, then an
// unwrapped subprocess failure keeps the child's status. Other
// errors map to ExitGeneralError and nil maps to ExitSuccess.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	if errors.Is(err, ErrMissingConfig) {
		return ExitConfigError
	}
	var coder interface{ ExitStatus() int }
	if errors.As(err, &coder) && coder.ExitStatus() > 0 {
		return ExitCode(coder.ExitStatus())
	}
	return ExitGeneralError
}
