package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command describes one external program invocation.
type Command struct {
	// Name is the program; it is looked up in PATH when not a path.
	Name string

	// Args are the arguments after Name.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env is the complete environment for the child. Nil inherits the
	// parent's environment unchanged.
	Env []string
}

// FromArgv builds a Command from an argv slice plus extra arguments.
// It returns an error when argv is empty.
func FromArgv(argv []string, extra ...string) (Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return Command{}, errors.New("empty command")
	}
	args := make([]string, 0, len(argv)-1+len(extra))
	args = append(args, argv[1:]...)
	args = append(args, extra...)
	return Command{Name: argv[0], Args: args}, nil
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// ExitError reports a child that ran and exited non-zero.
type ExitError struct {
	// Command is the rendered command line.
	Command string

	// Code is the child's exit code, at least 1.
	Code int

	// Err is the underlying *exec.ExitError.
	Err error
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}

// Unwrap returns the underlying exec error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitStatus exposes Code so model.ExitCodeOf propagates it.
func (e *ExitError) ExitStatus() int {
	return e.Code
}

// Stdio is the set of streams handed to children.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Inherit returns the parent's own standard streams.
func Inherit() Stdio {
	return Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// build creates the exec.Cmd. It deliberately does not use
// exec.CommandContext: cancellation of a supervised child goes through
// signal relay, not SIGKILL.
func build(c Command, stdio Stdio) *exec.Cmd {
	// #nosec G204 -- argv comes from toyshare configuration, not user input
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = stdio.In
	cmd.Stdout = stdio.Out
	cmd.Stderr = stdio.Err
	return cmd
}

// classify converts an exec error into *ExitError when the child ran and
// exited non-zero. Start failures (e.g., binary not found) are wrapped
// as-is.
func classify(c Command, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 1 {
			// Killed by a signal: there is no exit status to propagate.
			code = 1
		}
		return &ExitError{Command: c.String(), Code: code, Err: err}
	}
	return fmt.Errorf("failed to run %s: %w", c.String(), err)
}

// Run executes the command synchronously with the given streams and
// returns *ExitError on a non-zero exit. A cancelled ctx kills the child.
func Run(ctx context.Context, c Command, stdio Stdio) error {
	cmd := build(c, stdio)
	if err := cmd.Start(); err != nil {
		return classify(c, err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = cmd.Process.Kill()
		case <-done:
		}
	}()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", c.String(), ctxErr)
		}
		return classify(c, err)
	}
	return nil
}

// MergeEnv returns base with overrides applied. Later keys win and
// existing keys are replaced in place, so the result never carries two
// values for one name.
func MergeEnv(base []string, overrides map[string]string, extra ...string) []string {
	index := make(map[string]int, len(base))
	out := make([]string, 0, len(base)+len(overrides)+len(extra))

	set := func(kv string) {
		key, _, _ := strings.Cut(kv, "=")
		if i, ok := index[key]; ok {
			out[i] = kv
			return
		}
		index[key] = len(out)
		out = append(out, kv)
	}

	for _, kv := range base {
		set(kv)
	}
	for _, kv := range extra {
		set(kv)
	}
	for _, key := range sortedKeys(overrides) {
		set(key + "=" + overrides[key])
	}
	return out
}
