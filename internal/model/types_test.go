package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMode_IsValid checks that only defined modes pass validation.
func TestMode_IsValid(t *testing.T) {
	assert.True(t, ModeDevelopment.IsValid())
	assert.True(t, ModeProduction.IsValid())
	assert.False(t, Mode("staging").IsValid())
	assert.False(t, Mode("").IsValid())
}

// TestParseMode verifies string-to-mode conversion, including the short
// forms and case normalization.
func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		hasError bool
	}{
		{"development", ModeDevelopment, false},
		{"production", ModeProduction, false},
		{"dev", ModeDevelopment, false},
		{"PROD", ModeProduction, false},
		{" Production ", ModeProduction, false},
		{"test", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseMode(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestCLIError_Error checks message formatting with and without an
// underlying error.
func TestCLIError_Error(t *testing.T) {
	plain := NewCLIError(ExitConfigError, "DATABASE_URL environment variable not set")
	assert.Equal(t, "DATABASE_URL environment variable not set", plain.Error())

	wrapped := WrapCLIError(ExitBuildFailed, "asset bundling failed", errors.New("exit status 2"))
	assert.Equal(t, "asset bundling failed: exit status 2", wrapped.Error())
}

// TestCLIError_Unwrap verifies errors.Is sees through a CLIError.
func TestCLIError_Unwrap(t *testing.T) {
	err := WrapCLIError(ExitConfigError, "bad config", ErrMissingConfig)
	assert.True(t, errors.Is(err, ErrMissingConfig))

	var cliErr *CLIError
	require.True(t, errors.As(fmt.Errorf("outer: %w", err), &cliErr))
	assert.Equal(t, ExitConfigError, cliErr.Code)
}

type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("exit status %d", int(s)) }
func (s statusErr) ExitStatus() int { return int(s) }

// TestExitCodeOf verifies the precedence between subprocess exit statuses
// and CLIError codes.
func TestExitCodeOf(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCodeOf(nil))
	assert.Equal(t, ExitGeneralError, ExitCodeOf(errors.New("boom")))
	assert.Equal(t, ExitMigrationFailed, ExitCodeOf(NewCLIError(ExitMigrationFailed, "x")))

	// The wrapping CLIError decides the category.
	err := WrapCLIError(ExitBuildFailed, "server bundling failed", statusErr(7))
	assert.Equal(t, ExitBuildFailed, ExitCodeOf(err))

	// A bare child failure keeps its own status.
	assert.Equal(t, ExitCode(7), ExitCodeOf(fmt.Errorf("run: %w", statusErr(7))))
	assert.Equal(t, ExitGeneralError, ExitCodeOf(statusErr(0)))

	assert.Equal(t, ExitConfigError, ExitCodeOf(fmt.Errorf("DATABASE_URL: %w", ErrMissingConfig)))
}
