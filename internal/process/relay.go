package process

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Interrupts are the termination requests relayed to a supervised child.
var Interrupts = []os.Signal{os.Interrupt, syscall.SIGTERM}

// ReportFunc is told about every forwarded signal and the result of
// forwarding it. It may be nil.
type ReportFunc func(sig os.Signal, err error)

// Relay forwards every signal received on in to target until ctx is done
// or in is closed. It returns the number of signals forwarded.
func Relay(ctx context.Context, in <-chan os.Signal, target Signaler, report ReportFunc) int {
	forwarded := 0
	for {
		select {
		case <-ctx.Done():
			return forwarded
		case sig, ok := <-in:
			if !ok {
				return forwarded
			}
			err := target.Signal(sig)
			forwarded++
			if report != nil {
				report(sig, err)
			}
		}
	}
}

// SignalSource subscribes to process signals. The returned function
// unsubscribes.
type SignalSource func() (<-chan os.Signal, func())

// OSSignals subscribes to Interrupts via os/signal.
func OSSignals() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, Interrupts...)
	return ch, func() { signal.Stop(ch) }
}
