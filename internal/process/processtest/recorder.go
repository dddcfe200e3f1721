// Package processtest provides a recording process.Executor for tests of
// packages that shell out.
package processtest

import (
	"context"
	"sync"

	"github.com/toyshare/toyshare/internal/process"
)

// Call is one recorded invocation.
type Call struct {
	Command   process.Command
	Supervise bool
}

// Recorder records every command instead of running it. Hooks decide the
// outcome; a nil hook means success with exit code 0.
type Recorder struct {
	// OnRun is consulted for each Run call.
	OnRun func(process.Command) error

	// OnSupervise is consulted for each Supervise call.
	OnSupervise func(process.Command) (int, error)

	mu    sync.Mutex
	calls []Call
}

// Run implements process.Executor.
func (r *Recorder) Run(_ context.Context, c process.Command) error {
	r.record(Call{Command: c})
	if r.OnRun != nil {
		return r.OnRun(c)
	}
	return nil
}

// Supervise implements process.Executor.
func (r *Recorder) Supervise(_ context.Context, c process.Command) (int, error) {
	r.record(Call{Command: c, Supervise: true})
	if r.OnSupervise != nil {
		return r.OnSupervise(c)
	}
	return 0, nil
}

// Calls returns a copy of the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Names returns the program name and first argument of each call, e.g.
// "npx vite", which is usually enough to assert on ordering.
func (r *Recorder) Names() []string {
	calls := r.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		name := c.Command.Name
		if len(c.Command.Args) > 0 {
			name += " " + c.Command.Args[0]
		}
		out = append(out, name)
	}
	return out
}

// FailOn returns an OnRun hook that fails every command whose Name plus
// first argument equals name.
func FailOn(name string, err error) func(process.Command) error {
	return func(c process.Command) error {
		key := c.Name
		if len(c.Args) > 0 {
			key += " " + c.Args[0]
		}
		if key == name {
			return err
		}
		return nil
	}
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

var _ process.Executor = (*Recorder)(nil)
