package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/sys/atomicwriter"
	"go.uber.org/zap"

	"github.com/toyshare/toyshare/internal/config"
	"github.com/toyshare/toyshare/internal/manifest"
	"github.com/toyshare/toyshare/internal/model"
	"github.com/toyshare/toyshare/internal/process"
	"github.com/toyshare/toyshare/internal/runtimectx"
)

// Result describes a successful build.
type Result struct {
	// Bootstrap is the absolute path of the written bootstrap file.
	Bootstrap string `json:"bootstrap" yaml:"bootstrap"`

	// Server is the absolute path of the bundled server.
	Server string `json:"server" yaml:"server"`

	// Module is the module kind the bootstrap was rendered for.
	Module manifest.ModuleKind `json:"module" yaml:"module"`

	// Warnings are package.json problems found before bundling.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Builder runs the production build.
type Builder struct {
	Runtime *runtimectx.Context
	Config  *config.Config
	Exec    process.Executor
	Logger  *zap.Logger

	// Environ is the base environment for the bundlers; os.Environ when
	// nil.
	Environ func() []string
}

// Build runs the asset bundler, then the server bundler, then writes the
// bootstrap. Any failure stops the remaining steps and leaves no
// bootstrap behind.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	rt := b.Runtime
	logger := b.logger()
	bootstrap := BootstrapPath(rt.Paths, rt.Module)

	if err := removeBootstraps(rt); err != nil {
		return nil, model.WrapCLIError(model.ExitBuildFailed, "failed to remove previous bootstrap", err)
	}

	result := &Result{
		Bootstrap: bootstrap,
		Server:    filepath.Join(rt.Paths.Dist, ServerBundle),
		Module:    rt.Module,
	}
	result.Warnings = b.checkManifest()
	for _, w := range result.Warnings {
		logger.Warn(w)
	}

	assets, err := b.command(b.Config.Tools.AssetBundler)
	if err != nil {
		return nil, err
	}
	logger.Info("bundling client assets", zap.Stringer("command", assets))
	if err := b.Exec.Run(ctx, assets); err != nil {
		return nil, model.WrapCLIError(model.ExitBuildFailed, "client asset bundling failed", err)
	}

	server, err := b.command(b.Config.Tools.ServerBundler, ServerBundlerArgs(b.Config.ServerEntry, rt.Module)...)
	if err != nil {
		return nil, err
	}
	logger.Info("bundling server", zap.Stringer("command", server))
	if err := b.Exec.Run(ctx, server); err != nil {
		return nil, model.WrapCLIError(model.ExitBuildFailed, "server bundling failed", err)
	}

	content, err := RenderBootstrap(rt.Module, rt.Paths)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitBuildFailed, "failed to render bootstrap", err)
	}
	if err := os.MkdirAll(rt.Paths.Dist, 0o755); err != nil {
		return nil, model.WrapCLIError(model.ExitBuildFailed, "failed to create dist directory", err)
	}
	if err := atomicwriter.WriteFile(bootstrap, content, 0o644); err != nil {
		return nil, model.WrapCLIError(model.ExitBuildFailed, "failed to write bootstrap", err)
	}
	logger.Info("wrote production bootstrap", zap.String("path", bootstrap))

	return result, nil
}

// ServerBundlerArgs returns the arguments appended to the server bundler
// command: the entry point and the esbuild options for a Node bundle
// that leaves node_modules external.
func ServerBundlerArgs(entry string, kind manifest.ModuleKind) []string {
	format := "cjs"
	if kind == manifest.ModuleESM {
		format = "esm"
	}
	return []string{
		entry,
		"--platform=node",
		"--packages=external",
		"--bundle",
		"--format=" + format,
		"--outfile=" + filepath.ToSlash(filepath.Join("dist", ServerBundle)),
	}
}

// NPMPackages extracts the npm package each npx-style argv runs, e.g.
// "vite" from ["npx", "vite", "build"]. Commands not run through a
// package runner are skipped.
func NPMPackages(argvs ...[]string) []string {
	var out []string
	for _, argv := range argvs {
		if len(argv) < 2 {
			continue
		}
		switch filepath.Base(argv[0]) {
		case "npx", "bunx", "pnpx":
		default:
			continue
		}
		for _, arg := range argv[1:] {
			if strings.HasPrefix(arg, "-") {
				continue
			}
			out = append(out, arg)
			break
		}
	}
	return out
}

func (b *Builder) command(argv []string, extra ...string) (process.Command, error) {
	cmd, err := process.FromArgv(argv, extra...)
	if err != nil {
		return process.Command{}, model.WrapCLIError(model.ExitConfigError, "invalid bundler command", err)
	}
	environ := b.Environ
	if environ == nil {
		environ = os.Environ
	}
	cmd.Dir = b.Runtime.Paths.Root
	cmd.Env = process.MergeEnv(environ(), map[string]string{
		config.EnvMode:          model.ModeProduction.String(),
		config.EnvBundlerConfig: b.Runtime.Paths.Join(b.Config.BundlerConfigPath),
	}, b.Runtime.Environ()...)
	return cmd, nil
}

func (b *Builder) checkManifest() []string {
	pkg, err := manifest.Load(b.Runtime.Paths.Root)
	if err != nil {
		if errors.Is(err, manifest.ErrNotFound) {
			return nil
		}
		return []string{err.Error()}
	}
	problems := manifest.Check(pkg, NPMPackages(b.Config.Tools.AssetBundler, b.Config.Tools.ServerBundler)...)
	out := make([]string, 0, len(problems))
	for _, p := range problems {
		out = append(out, p.Error())
	}
	return out
}

// removeBootstraps deletes both bootstrap variants so a project whose
// module kind changed cannot start from a stale file.
func removeBootstraps(rt *runtimectx.Context) error {
	for _, kind := range []manifest.ModuleKind{manifest.ModuleESM, manifest.ModuleCommonJS} {
		path := BootstrapPath(rt.Paths, kind)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return nil
}

func (b *Builder) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}
