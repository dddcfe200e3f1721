// Package cli — dev.go implements the "toyshare dev" command.
//
// The dev command runs the server source through the TypeScript
// interpreter with NODE_ENV=development. The server's exit code becomes
// toyshare's exit code, and Ctrl-C is forwarded to the server.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/toyshare/toyshare/internal/launcher"
	"github.com/toyshare/toyshare/internal/model"
	"github.com/toyshare/toyshare/internal/port"
)

// devFlags holds the flag values for the dev command.
type devFlags struct {
	// install runs the install command when node_modules is missing.
	install bool

	// skipPortCheck disables the PORT pre-flight probe.
	skipPortCheck bool
}

// NewDevCommand creates the "dev" cobra command.
func NewDevCommand() *cobra.Command {
	flags := &devFlags{}

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server from source.

The server entry (server/index.ts by default) runs through tsx with
NODE_ENV=development and VITE_CONFIG_PATH pointing at the project's
Vite config. The TOYSHARE_*_DIR variables describe the project layout.

Examples:
  toyshare dev
  toyshare dev --install
  PORT=3000 toyshare dev`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLauncher(cmd.Context(), launcher.Options{
				Mode:          model.ModeDevelopment,
				InstallDeps:   flags.install,
				SkipPortCheck: flags.skipPortCheck,
			})
		},
	}

	cmd.Flags().BoolVar(&flags.install, "install", false, "Install dependencies first if node_modules is missing")
	cmd.Flags().BoolVar(&flags.skipPortCheck, "skip-port-check", false, "Do not check that PORT is free before starting")

	return cmd
}

// runLauncher is shared by dev, ubuntu and start. A non-zero server exit
// is returned as an error so Execute can pass the code on.
func runLauncher(ctx context.Context, opts launcher.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := loadEnvironment(opts.Mode)
	if err != nil {
		return err
	}

	host := opts.Host
	if host == "" {
		host = env.Config.Host
	}

	l := &launcher.Launcher{
		Runtime: env.Runtime.WithMode(opts.Mode),
		Config:  env.Config,
		Exec:    env.Exec,
		Ports:   port.NewScanner(host),
		Logger:  env.Logger,
	}

	code, err := l.Launch(ctx, opts)
	if err != nil {
		return err
	}
	if code != 0 {
		return &serverExitError{code: code}
	}
	return nil
}
