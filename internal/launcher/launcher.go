// Package launcher starts the ToyShare server in development or
// production mode as a supervised child process.
//
// Development runs the server source through a TypeScript interpreter
// (tsx by default) with NODE_ENV and the bundler config path overridden.
// Production runs the bootstrap file written by the build package with
// plain node. Exactly one branch runs per launch. The child's exit code
// becomes toyshare's exit code, and Ctrl-C is relayed to the child.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/toyshare/toyshare/internal/build"
	"github.com/toyshare/toyshare/internal/config"
	"github.com/toyshare/toyshare/internal/manifest"
	"github.com/toyshare/toyshare/internal/model"
	"github.com/toyshare/toyshare/internal/process"
	"github.com/toyshare/toyshare/internal/runtimectx"
)

// nodeModulesDir is the dependency directory whose absence triggers an
// install.
const nodeModulesDir = "node_modules"

// PortChecker is satisfied by *port.Scanner.
type PortChecker interface {
	Preflight(port int) error
}

// Options select what a single launch does.
type Options struct {
	Mode model.Mode

	// InstallDeps runs the install command first when node_modules is
	// missing.
	InstallDeps bool

	// SkipPortCheck disables the PORT pre-flight probe.
	SkipPortCheck bool

	// Host overrides HOST for the child when non-empty.
	Host string
}

// Launcher builds and supervises the server process.
type Launcher struct {
	Runtime *runtimectx.Context
	Config  *config.Config
	Exec    process.Executor
	Ports   PortChecker
	Logger  *zap.Logger

	// Out receives the mode/working-directory banner.
	Out io.Writer

	// Environ is the base environment for the child; os.Environ when nil.
	Environ func() []string
}

// Plan returns the command for mode without running anything. The
// development and production branches are mutually exclusive: the
// interpreter is never part of a production plan and the bootstrap file
// is never part of a development plan.
func (l *Launcher) Plan(opts Options) (process.Command, error) {
	rt := l.Runtime
	overrides := map[string]string{
		config.EnvMode: opts.Mode.String(),
		config.EnvPort: strconv.Itoa(l.Config.Port),
	}
	host := opts.Host
	if host == "" {
		host = l.Config.Host
	}
	if host != "" {
		overrides[config.EnvHost] = host
	}

	var (
		cmd process.Command
		err error
	)
	switch opts.Mode {
	case model.ModeDevelopment:
		cmd, err = process.FromArgv(l.Config.Tools.Interpreter, l.Config.ServerEntry)
		overrides[config.EnvBundlerConfig] = rt.Paths.Join(l.Config.BundlerConfigPath)
	case model.ModeProduction:
		cmd, err = process.FromArgv(l.Config.Tools.Node, build.BootstrapPath(rt.Paths, rt.Module))
	default:
		return process.Command{}, fmt.Errorf("invalid mode %q", opts.Mode)
	}
	if err != nil {
		return process.Command{}, model.WrapCLIError(model.ExitConfigError, "invalid launch command", err)
	}

	environ := l.Environ
	if environ == nil {
		environ = os.Environ
	}
	cmd.Dir = rt.Paths.Root
	cmd.Env = process.MergeEnv(environ(), overrides, rt.Environ()...)
	return cmd, nil
}

// EnsureDependencies runs the install command when node_modules is
// missing. An existing directory is trusted as-is.
func (l *Launcher) EnsureDependencies(ctx context.Context) error {
	dir := l.Runtime.Paths.Join(nodeModulesDir)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		l.logger().Debug("dependencies present", zap.String("dir", dir))
		return nil
	}

	cmd, err := process.FromArgv(l.Config.Tools.Install)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid install command", err)
	}
	cmd.Dir = l.Runtime.Paths.Root

	l.logger().Info("node_modules missing; installing dependencies", zap.Stringer("command", cmd))
	if err := l.Exec.Run(ctx, cmd); err != nil {
		return model.WrapCLIError(model.ExitDependencyInstall, "dependency installation failed", err)
	}
	return nil
}

// Launch runs the optional install and pre-flight checks, prints the
// banner, then supervises the server. It returns the child's exit code.
func (l *Launcher) Launch(ctx context.Context, opts Options) (int, error) {
	if !opts.Mode.IsValid() {
		return 0, model.NewCLIError(model.ExitConfigError, fmt.Sprintf("invalid mode %q", opts.Mode))
	}

	if opts.InstallDeps {
		if err := l.EnsureDependencies(ctx); err != nil {
			return 0, err
		}
	}

	if opts.Mode == model.ModeProduction {
		entry := build.BootstrapPath(l.Runtime.Paths, l.Runtime.Module)
		if _, err := os.Stat(entry); err != nil {
			return 0, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("no production build found at %s; run `toyshare build` first", entry), err)
		}
	} else {
		l.warnManifest(l.Config.Tools.Interpreter)
	}

	if !opts.SkipPortCheck && l.Ports != nil {
		if err := l.Ports.Preflight(l.Config.Port); err != nil {
			return 0, model.WrapCLIError(model.ExitPortInUse, "cannot start server", err)
		}
	}

	cmd, err := l.Plan(opts)
	if err != nil {
		return 0, err
	}

	l.banner(opts.Mode, cmd.Dir)
	l.logger().Debug("launching", zap.Stringer("command", cmd), zap.String("mode", opts.Mode.String()))

	code, err := l.Exec.Supervise(ctx, cmd)
	if err != nil {
		return 0, model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("failed to launch %s", cmd.Name), err)
	}
	return code, nil
}

// banner prints the chosen mode and working directory before launch.
func (l *Launcher) banner(mode model.Mode, dir string) {
	out := l.Out
	if out == nil {
		out = os.Stdout
	}
	bold := color.New(color.FgCyan, color.Bold)
	_, _ = bold.Fprintf(out, "Starting ToyShare in %s mode\n", mode)
	_, _ = fmt.Fprintf(out, "Working directory: %s\n", dir)
}

// warnManifest logs undeclared npm tools; npx still works without them,
// only slower.
func (l *Launcher) warnManifest(argvs ...[]string) {
	pkg, err := manifest.Load(l.Runtime.Paths.Root)
	if err != nil {
		if !errors.Is(err, manifest.ErrNotFound) {
			l.logger().Warn("cannot read package.json", zap.Error(err))
		}
		return
	}
	for _, problem := range manifest.Check(pkg, build.NPMPackages(argvs...)...) {
		l.logger().Warn(problem.Error())
	}
}

func (l *Launcher) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}
