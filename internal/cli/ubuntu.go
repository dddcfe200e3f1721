// Package cli — ubuntu.go implements the "toyshare ubuntu" command, the
// launcher used on Ubuntu hosts and containers.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/toyshare/toyshare/internal/launcher"
	"github.com/toyshare/toyshare/internal/model"
)

// ubuntuHost makes the server reachable from outside the machine or
// container.
const ubuntuHost = "0.0.0.0"

// NewUbuntuCommand creates the "ubuntu" cobra command.
func NewUbuntuCommand() *cobra.Command {
	var skipPortCheck bool

	cmd := &cobra.Command{
		Use:   "ubuntu",
		Short: "Install dependencies if needed and start the development server on all interfaces",
		Long: `Start the development server the way a fresh Ubuntu host needs it.

Dependencies are installed first when node_modules is missing (exit code 3
if that fails), and the server binds HOST=0.0.0.0.

Examples:
  toyshare ubuntu
  toyshare ubuntu --root /srv/toyshare`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLauncher(cmd.Context(), launcher.Options{
				Mode:          model.ModeDevelopment,
				InstallDeps:   true,
				SkipPortCheck: skipPortCheck,
				Host:          ubuntuHost,
			})
		},
	}

	cmd.Flags().BoolVar(&skipPortCheck, "skip-port-check", false, "Do not check that PORT is free before starting")

	return cmd
}
