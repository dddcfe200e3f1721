package port

import (
	"fmt"
)

// suggestionWindow is how far above a busy port Preflight looks for a
// free alternative.
const suggestionWindow = 100

// InUseError reports a busy application port.
type InUseError struct {
	Port int

	// Suggestion is a nearby free port, or 0 when none was found.
	Suggestion int
}

// Error implements the error interface for InUseError.
func (e *InUseError) Error() string {
	if e.Suggestion > 0 {
		return fmt.Sprintf("port %d is already in use (try PORT=%d)", e.Port, e.Suggestion)
	}
	return fmt.Sprintf("port %d is already in use", e.Port)
}

// Preflight returns *InUseError when port cannot be bound.
func (s *Scanner) Preflight(port int) error {
	if s.IsPortAvailable(port) {
		return nil
	}
	suggestion, err := s.FindAvailablePort(port+1, port+suggestionWindow)
	if err != nil {
		suggestion = 0
	}
	return &InUseError{Port: port, Suggestion: suggestion}
}
