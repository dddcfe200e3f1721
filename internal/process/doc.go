// Package process runs the external tools toyshare orchestrates.
//
// Two shapes of execution are supported:
//   - Run: attempt-once, synchronous, standard I/O inherited so the
//     operator sees bundler and generator output as it happens.
//   - Supervise: start one long-lived child, relay interrupt/terminate
//     signals to it, and report its exit code once it is gone.
//
// Waiting for the child (Child.Wait) and forwarding signals (Relay) are
// separate units so each can be tested on its own; Supervise composes them.
package process
