// Package paths resolves the ToyShare project root and the fixed set of
// directories derived from it.
//
// The root is always the parent of the directory that contains the
// running program's own location:
//
//	<root>/bin/toyshare          (compiled binary)
//	<root>/cmd/toyshare/main.go  (go run; the command directory is the location)
//
// How the program was started is an explicit Invocation value rather than
// something each caller rediscovers. Resolution is pure string
// computation: a missing directory is not an error at this layer.
package paths
