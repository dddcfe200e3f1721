package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Invocation records how the running program was started. The same
// bundle must come out of every kind.
type Invocation string

const (
	// InvokedBinary means a compiled binary placed under <root>/bin.
	InvokedBinary Invocation = "binary"

	// InvokedSource means `go run ./cmd/toyshare`; the binary lives in a
	// go-build temp directory, so the command's source directory is used.
	InvokedSource Invocation = "source"

	// InvokedExplicit means the root was given via --root or TOYSHARE_ROOT.
	InvokedExplicit Invocation = "explicit"
)

// String returns the string representation of Invocation.
func (i Invocation) String() string {
	return string(i)
}

// Origin is where the program considers itself to be running from.
type Origin struct {
	Invocation Invocation `json:"invocation"`

	// Location is the binary path, the command source directory, or the
	// explicit root, depending on Invocation.
	Location string `json:"location"`
}

// Bundle resolves the path bundle for this origin.
func (o Origin) Bundle() Bundle {
	if o.Invocation == InvokedExplicit {
		return FromRoot(o.Location)
	}
	return Resolve(o.Location)
}

// Detect reports how the program was started given an explicit root (may
// be empty) and the path of the running executable.
func Detect(explicitRoot, executable string) Invocation {
	if explicitRoot != "" {
		return InvokedExplicit
	}
	if isGoRunBinary(executable) {
		return InvokedSource
	}
	return InvokedBinary
}

// isGoRunBinary matches the temp layout `go run` uses:
// $GOTMPDIR/go-build123/b001/exe/<name>.
func isGoRunBinary(executable string) bool {
	for _, part := range strings.Split(filepath.ToSlash(executable), "/") {
		if strings.HasPrefix(part, "go-build") {
			return true
		}
	}
	return false
}

// Locate determines the origin of the running program. sourceFile is the
// main package's own source file (from runtime.Caller in main) and is
// only consulted for InvokedSource.
func Locate(explicitRoot, sourceFile string) (Origin, error) {
	exe, err := os.Executable()
	if err != nil && explicitRoot == "" {
		return Origin{}, fmt.Errorf("failed to locate running executable: %w", err)
	}

	switch Detect(explicitRoot, exe) {
	case InvokedExplicit:
		return Origin{Invocation: InvokedExplicit, Location: explicitRoot}, nil

	case InvokedSource:
		if sourceFile == "" {
			return Origin{}, errors.New("started via go run but the command source location is unknown; pass --root")
		}
		// The command directory plays the part of the script, so <root>/cmd
		// is the script's directory and its parent is the root.
		return Origin{Invocation: InvokedSource, Location: filepath.Dir(sourceFile)}, nil

	default:
		// Follow symlinks so a binary linked into ~/bin still resolves to
		// the checkout it was built in.
		if resolved, evalErr := filepath.EvalSymlinks(exe); evalErr == nil {
			exe = resolved
		}
		return Origin{Invocation: InvokedBinary, Location: exe}, nil
	}
}
