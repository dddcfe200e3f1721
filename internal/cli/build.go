// Package cli — build.go implements the "toyshare build" command.
//
// The build command bundles the client with Vite and the server with
// esbuild, then writes the production bootstrap into dist/. Exit code 5
// means one of the steps failed; no bootstrap is left behind in that case.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toyshare/toyshare/internal/build"
	"github.com/toyshare/toyshare/internal/model"
)

// NewBuildCommand creates the "build" cobra command.
func NewBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the production bundle into dist/",
		Long: `Build the production bundle.

Steps:
  1. npx vite build            (client assets into dist/public)
  2. npx esbuild server/...    (server bundle into dist/server.js)
  3. write dist/index.js       (bootstrap; index.cjs for CommonJS projects)

Examples:
  toyshare build
  toyshare build --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context())
		},
	}

	return cmd
}

func runBuild(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := loadEnvironment(model.ModeProduction)
	if err != nil {
		return err
	}

	b := &build.Builder{
		Runtime: env.Runtime.WithMode(model.ModeProduction),
		Config:  env.Config,
		Exec:    env.Exec,
		Logger:  env.Logger,
	}
	res, err := b.Build(ctx)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(res)
	}
	fmt.Printf("Build complete (%s)\n", res.Module)
	fmt.Printf("  Server:    %s\n", res.Server)
	fmt.Printf("  Bootstrap: %s\n", res.Bootstrap)
	for _, w := range res.Warnings {
		fmt.Printf("  Warning:   %s\n", w)
	}
	return nil
}
