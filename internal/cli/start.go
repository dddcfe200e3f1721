// Package cli — start.go implements the "toyshare start" command.
//
// The start command runs the production bootstrap written by
// "toyshare build" with plain node and NODE_ENV=production. It refuses to
// run when no build exists.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/toyshare/toyshare/internal/launcher"
	"github.com/toyshare/toyshare/internal/model"
)

// NewStartCommand creates the "start" cobra command.
func NewStartCommand() *cobra.Command {
	var skipPortCheck bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the production server from dist/",
		Long: `Start the production server from the last build.

Runs dist/index.js (dist/index.cjs for CommonJS projects) with node.
Before starting, PORT is checked; exit code 4 means it is already in use.

Examples:
  toyshare build && toyshare start
  PORT=8080 toyshare start`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLauncher(cmd.Context(), launcher.Options{
				Mode:          model.ModeProduction,
				SkipPortCheck: skipPortCheck,
			})
		},
	}

	cmd.Flags().BoolVar(&skipPortCheck, "skip-port-check", false, "Do not check that PORT is free before starting")

	return cmd
}
