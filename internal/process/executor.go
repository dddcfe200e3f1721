package process

import (
	"context"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Executor is what the launcher, build and migrate packages run tools
// through. Tests substitute a recording fake.
type Executor interface {
	// Run executes c to completion with inherited standard I/O.
	Run(ctx context.Context, c Command) error

	// Supervise starts c, relays termination signals to it and returns
	// its exit code once it exits.
	Supervise(ctx context.Context, c Command) (int, error)
}

// Local runs commands on this machine.
type Local struct {
	Stdio   Stdio
	Signals SignalSource
	Logger  *zap.Logger
}

// NewLocal returns a Local that inherits the parent's standard I/O and
// listens for OS interrupt/terminate signals.
func NewLocal(logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{Stdio: Inherit(), Signals: OSSignals, Logger: logger}
}

// Run implements Executor.
func (l *Local) Run(ctx context.Context, c Command) error {
	l.Logger.Debug("running command", zap.Stringer("command", c), zap.String("dir", c.Dir))
	return Run(ctx, c, l.Stdio)
}

// Supervise implements Executor. Leaving ctx does not stop the child;
// only a relayed signal or the child's own exit ends supervision.
func (l *Local) Supervise(ctx context.Context, c Command) (int, error) {
	// Subscribe before starting so an early Ctrl-C is not lost.
	sigs, unsubscribe := l.Signals()
	defer unsubscribe()

	child, err := Start(c, l.Stdio)
	if err != nil {
		return 0, err
	}
	l.Logger.Debug("started child", zap.Stringer("command", c), zap.Int("pid", child.Pid()))

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()

	var g errgroup.Group
	g.Go(func() error {
		Relay(relayCtx, sigs, child, func(sig os.Signal, err error) {
			if err != nil {
				l.Logger.Warn("failed to forward signal", zap.Stringer("signal", sig), zap.Error(err))
				return
			}
			l.Logger.Debug("forwarded signal", zap.Stringer("signal", sig), zap.Int("pid", child.Pid()))
		})
		return nil
	})

	var code int
	g.Go(func() error {
		defer stopRelay()
		var waitErr error
		code, waitErr = child.Wait()
		return waitErr
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}
	l.Logger.Debug("child exited", zap.Stringer("command", c), zap.Int("code", code))
	return code, nil
}
