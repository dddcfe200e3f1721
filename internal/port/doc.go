// Package port checks whether the application port is free before the
// launcher starts the server.
//
// The Node server binds PORT (default 5000) itself and dies with
// EADDRINUSE when another process holds it, usually after a slow
// interpreter start. Probing with net.Listen first turns that into an
// immediate, specific error with a suggested free port.
package port
