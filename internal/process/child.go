package process

import (
	"errors"
	"os"
	"os/exec"
	"sort"
	"sync"
)

// Signaler is anything that can receive a forwarded signal.
type Signaler interface {
	Signal(sig os.Signal) error
}

// Child is a started, supervised process.
type Child struct {
	command Command
	cmd     *exec.Cmd

	waitOnce sync.Once
	code     int
	err      error
	done     chan struct{}
}

// Start launches the command without waiting for it.
func Start(c Command, stdio Stdio) (*Child, error) {
	cmd := build(c, stdio)
	if err := cmd.Start(); err != nil {
		return nil, classify(c, err)
	}
	return &Child{command: c, cmd: cmd, done: make(chan struct{})}, nil
}

// Pid returns the operating system process id.
func (c *Child) Pid() int {
	return c.cmd.Process.Pid
}

// Signal forwards sig to the child. Signalling a child that already
// exited is not an error.
func (c *Child) Signal(sig os.Signal) error {
	select {
	case <-c.done:
		return nil
	default:
	}
	if err := c.cmd.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// Wait blocks until the child exits and returns its exit code. A
// non-zero exit is reported through the code, not the error; the error
// is reserved for failures to wait at all. Wait may be called more than
// once and from several goroutines.
func (c *Child) Wait() (int, error) {
	c.waitOnce.Do(func() {
		defer close(c.done)
		err := classify(c.command, c.cmd.Wait())
		if exitErr, ok := err.(*ExitError); ok {
			c.code = exitErr.Code
			return
		}
		c.err = err
	})
	<-c.done
	return c.code, c.err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
