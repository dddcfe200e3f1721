// Package main is the entry point for the toyshare CLI.
//
// All functionality lives in internal/cli. Build-time variables (version,
// commit, date) are injected via ldflags; during development they default
// to "dev", "none" and "unknown".
package main

import (
	"runtime"

	"github.com/toyshare/toyshare/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	// Under `go run` the binary lives in a temporary directory, so the
	// project is found from this file's location instead.
	if _, file, _, ok := runtime.Caller(0); ok {
		cli.SourceFile = file
	}

	cli.Execute(cli.NewRootCommand())
}
