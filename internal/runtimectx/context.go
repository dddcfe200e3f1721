// Package runtimectx holds the small set of environment facts every
// toyshare component needs: where the project is, how the program was
// started, which module system the Node project uses and the run mode.
//
// The Context is built once per process by Init and is immutable
// afterwards. Components receive it explicitly; child processes receive
// the directory facts through Environ.
package runtimectx

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/toyshare/toyshare/internal/manifest"
	"github.com/toyshare/toyshare/internal/model"
	"github.com/toyshare/toyshare/internal/paths"
)

// Variables exported to child processes.
const (
	EnvRoot      = "TOYSHARE_ROOT"
	EnvClient    = "TOYSHARE_CLIENT_DIR"
	EnvClientSrc = "TOYSHARE_CLIENT_SRC_DIR"
	EnvShared    = "TOYSHARE_SHARED_DIR"
	EnvAssets    = "TOYSHARE_ASSETS_DIR"
)

// Context is the process-wide, read-only environment description.
type Context struct {
	Paths  paths.Bundle
	Origin paths.Origin
	Module manifest.ModuleKind
	Mode   model.Mode
}

// Options are the inputs to Init. Only the first successful Init call's
// options take effect.
type Options struct {
	Origin paths.Origin
	Mode   model.Mode
	Logger *zap.Logger
}

// New builds a Context without touching the process-wide instance.
// A project without package.json is treated as CommonJS, which is what
// Node itself does.
func New(opts Options) (*Context, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mode := opts.Mode
	if mode == "" {
		mode = model.ModeDevelopment
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid mode %q", mode)
	}

	bundle := opts.Origin.Bundle()

	module := manifest.ModuleCommonJS
	pkg, err := manifest.Load(bundle.Root)
	switch {
	case err == nil:
		module = pkg.ModuleKind()
	case errors.Is(err, manifest.ErrNotFound):
		logger.Debug("no package.json in project root; assuming commonjs", zap.String("root", bundle.Root))
	default:
		return nil, err
	}

	return &Context{
		Paths:  bundle,
		Origin: opts.Origin,
		Module: module,
		Mode:   mode,
	}, nil
}

var (
	initMu  sync.Mutex
	current *Context
)

// Init builds the process-wide Context on first success and returns the
// same value on every later call, whatever options are passed. A failed
// first attempt can be retried.
func Init(opts Options) (*Context, error) {
	initMu.Lock()
	defer initMu.Unlock()

	if current != nil {
		return current, nil
	}
	ctx, err := New(opts)
	if err != nil {
		return nil, err
	}
	current = ctx
	return current, nil
}

// WithMode returns a copy of c using mode. The receiver is unchanged.
func (c *Context) WithMode(mode model.Mode) *Context {
	cp := *c
	cp.Mode = mode
	return &cp
}

// Exports returns the directory facts keyed by environment variable name.
func (c *Context) Exports() map[string]string {
	return map[string]string{
		EnvRoot:      c.Paths.Root,
		EnvClient:    c.Paths.Client,
		EnvClientSrc: c.Paths.ClientSrc,
		EnvShared:    c.Paths.Shared,
		EnvAssets:    c.Paths.Assets,
	}
}

// Environ renders Exports as KEY=value pairs in a stable order.
func (c *Context) Environ() []string {
	exports := c.Exports()
	out := make([]string, 0, len(exports))
	for _, key := range []string{EnvRoot, EnvClient, EnvClientSrc, EnvShared, EnvAssets} {
		out = append(out, key+"="+exports[key])
	}
	return out
}
