package launcher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyshare/toyshare/internal/config"
	"github.com/toyshare/toyshare/internal/model"
	"github.com/toyshare/toyshare/internal/paths"
	"github.com/toyshare/toyshare/internal/port"
	"github.com/toyshare/toyshare/internal/process"
	"github.com/toyshare/toyshare/internal/process/processtest"
	"github.com/toyshare/toyshare/internal/runtimectx"
)

type fakePorts struct {
	err     error
	checked []int
}

func (f *fakePorts) Preflight(p int) error {
	f.checked = append(f.checked, p)
	return f.err
}

func newLauncher(t *testing.T, packageJSON string) (*Launcher, *processtest.Recorder, *fakePorts, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	if packageJSON != "" {
		require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(packageJSON), 0o644))
	}
	rt, err := runtimectx.New(runtimectx.Options{
		Origin: paths.Origin{Invocation: paths.InvokedExplicit, Location: root},
	})
	require.NoError(t, err)

	rec := &processtest.Recorder{}
	ports := &fakePorts{}
	out := &bytes.Buffer{}
	l := &Launcher{
		Runtime: rt,
		Config: &config.Config{
			Port:              5000,
			BundlerConfigPath: "vite.config.ts",
			ServerEntry:       "server/index.ts",
			Tools: config.Tools{
				Interpreter: []string{"npx", "tsx"},
				Node:        []string{"node"},
				Install:     []string{"npm", "install"},
			},
		},
		Exec:    rec,
		Ports:   ports,
		Out:     out,
		Environ: func() []string { return []string{"PATH=/usr/bin", "NODE_ENV=production"} },
	}
	return l, rec, ports, out
}

// TestPlan_BranchesAreExclusive verifies that each mode runs exactly one
// of the two entry points.
func TestPlan_BranchesAreExclusive(t *testing.T) {
	l, _, _, _ := newLauncher(t, `{"type": "module"}`)
	root := l.Runtime.Paths.Root

	dev, err := l.Plan(Options{Mode: model.ModeDevelopment})
	require.NoError(t, err)
	assert.Equal(t, "npx", dev.Name)
	assert.Equal(t, []string{"tsx", "server/index.ts"}, dev.Args)
	assert.Equal(t, root, dev.Dir)
	assert.Contains(t, dev.Env, "NODE_ENV=development")
	assert.NotContains(t, dev.Env, "NODE_ENV=production")
	assert.Contains(t, dev.Env, "VITE_CONFIG_PATH="+filepath.Join(root, "vite.config.ts"))
	assert.Contains(t, dev.Env, "PORT=5000")
	assert.Contains(t, dev.Env, runtimectx.EnvShared+"="+l.Runtime.Paths.Shared)

	prod, err := l.Plan(Options{Mode: model.ModeProduction})
	require.NoError(t, err)
	assert.Equal(t, "node", prod.Name)
	assert.Equal(t, []string{filepath.Join(root, "dist", "index.js")}, prod.Args)
	assert.Contains(t, prod.Env, "NODE_ENV=production")
	assert.NotContains(t, prod.Env, "NODE_ENV=development")
	assert.NotContains(t, prod.Args, "server/index.ts")
	for _, kv := range prod.Env {
		assert.NotContains(t, kv, "VITE_CONFIG_PATH=")
	}
}

// TestPlan_CommonJSBootstrap verifies production picks index.cjs for a
// CommonJS project.
func TestPlan_CommonJSBootstrap(t *testing.T) {
	l, _, _, _ := newLauncher(t, "")

	prod, err := l.Plan(Options{Mode: model.ModeProduction})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(l.Runtime.Paths.Dist, "index.cjs")}, prod.Args)
}

// TestPlan_Host verifies the option overrides the configured host.
func TestPlan_Host(t *testing.T) {
	l, _, _, _ := newLauncher(t, "")
	l.Config.Host = "127.0.0.1"

	cmd, err := l.Plan(Options{Mode: model.ModeDevelopment})
	require.NoError(t, err)
	assert.Contains(t, cmd.Env, "HOST=127.0.0.1")

	cmd, err = l.Plan(Options{Mode: model.ModeDevelopment, Host: "0.0.0.0"})
	require.NoError(t, err)
	assert.Contains(t, cmd.Env, "HOST=0.0.0.0")
	assert.NotContains(t, cmd.Env, "HOST=127.0.0.1")
}

// TestLaunch_Development verifies the banner, the port check and that
// the child's exit code is returned.
func TestLaunch_Development(t *testing.T) {
	l, rec, ports, out := newLauncher(t, "")
	rec.OnSupervise = func(process.Command) (int, error) { return 130, nil }

	code, err := l.Launch(context.Background(), Options{Mode: model.ModeDevelopment})
	require.NoError(t, err)
	assert.Equal(t, 130, code)
	assert.Equal(t, []int{5000}, ports.checked)

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Supervise)
	assert.Contains(t, out.String(), "development mode")
	assert.Contains(t, out.String(), l.Runtime.Paths.Root)
}

// TestLaunch_PortInUse verifies nothing is started when the port is
// taken, and that the check can be skipped.
func TestLaunch_PortInUse(t *testing.T) {
	l, rec, ports, _ := newLauncher(t, "")
	ports.err = &port.InUseError{Port: 5000, Suggestion: 5001}

	_, err := l.Launch(context.Background(), Options{Mode: model.ModeDevelopment})
	require.Error(t, err)
	assert.Equal(t, model.ExitPortInUse, model.ExitCodeOf(err))
	assert.Contains(t, err.Error(), "PORT=5001")
	assert.Empty(t, rec.Calls())

	_, err = l.Launch(context.Background(), Options{Mode: model.ModeDevelopment, SkipPortCheck: true})
	require.NoError(t, err)
	assert.Len(t, rec.Calls(), 1)
}

// TestLaunch_ProductionRequiresBuild verifies start fails clearly before
// a build exists and runs node once it does.
func TestLaunch_ProductionRequiresBuild(t *testing.T) {
	l, rec, _, _ := newLauncher(t, "")

	_, err := l.Launch(context.Background(), Options{Mode: model.ModeProduction})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toyshare build")
	assert.Empty(t, rec.Calls())

	require.NoError(t, os.MkdirAll(l.Runtime.Paths.Dist, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(l.Runtime.Paths.Dist, "index.cjs"), []byte(""), 0o644))

	code, err := l.Launch(context.Background(), Options{Mode: model.ModeProduction})
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.Equal(t, []string{"node " + filepath.Join(l.Runtime.Paths.Dist, "index.cjs")}, rec.Names())
}

// TestEnsureDependencies verifies install runs only when node_modules is
// missing, and that its failure aborts the launch.
func TestEnsureDependencies(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		l, rec, _, _ := newLauncher(t, "")
		_, err := l.Launch(context.Background(), Options{Mode: model.ModeDevelopment, InstallDeps: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"npm install", "npx tsx"}, rec.Names())
		assert.Equal(t, l.Runtime.Paths.Root, rec.Calls()[0].Command.Dir)
	})

	t.Run("present", func(t *testing.T) {
		l, rec, _, _ := newLauncher(t, "")
		require.NoError(t, os.Mkdir(filepath.Join(l.Runtime.Paths.Root, "node_modules"), 0o755))
		require.NoError(t, l.EnsureDependencies(context.Background()))
		assert.Empty(t, rec.Calls())
	})

	t.Run("failure", func(t *testing.T) {
		l, rec, _, _ := newLauncher(t, "")
		rec.OnRun = processtest.FailOn("npm install", errors.New("network down"))

		_, err := l.Launch(context.Background(), Options{Mode: model.ModeDevelopment, InstallDeps: true})
		require.Error(t, err)
		assert.Equal(t, model.ExitDependencyInstall, model.ExitCodeOf(err))
		assert.Equal(t, []string{"npm install"}, rec.Names())
	})
}

// TestLaunch_InvalidMode verifies an unknown mode is a configuration
// error.
func TestLaunch_InvalidMode(t *testing.T) {
	l, rec, _, _ := newLauncher(t, "")
	_, err := l.Launch(context.Background(), Options{Mode: model.Mode("staging")})
	require.Error(t, err)
	assert.Equal(t, model.ExitConfigError, model.ExitCodeOf(err))
	assert.Empty(t, rec.Calls())
}

// TestLaunch_SuperviseError verifies a start failure is reported as an
// error rather than an exit code.
func TestLaunch_SuperviseError(t *testing.T) {
	l, rec, _, _ := newLauncher(t, "")
	rec.OnSupervise = func(process.Command) (int, error) { return 0, errors.New("executable file not found") }

	_, err := l.Launch(context.Background(), Options{Mode: model.ModeDevelopment})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to launch npx")
}

// TestPlan_OverridesAmbientNodeEnv verifies an inherited NODE_ENV such as
// "test" never reaches the server.
func TestPlan_OverridesAmbientNodeEnv(t *testing.T) {
	l, _, _, _ := newLauncher(t, "")
	l.Environ = func() []string { return []string{"NODE_ENV=test", "PATH=/usr/bin"} }

	for _, mode := range []model.Mode{model.ModeDevelopment, model.ModeProduction} {
		cmd, err := l.Plan(Options{Mode: mode})
		require.NoError(t, err)
		assert.Contains(t, cmd.Env, "NODE_ENV="+mode.String())
		assert.NotContains(t, cmd.Env, "NODE_ENV=test")
	}
}
