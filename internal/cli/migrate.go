// Package cli — migrate.go implements the "toyshare migrate" command.
//
// The migrate command generates SQL migrations from the Drizzle schema and
// applies the pending ones to DATABASE_URL. A missing DATABASE_URL is a
// configuration error (exit code 2) reported before any connection is
// attempted; other failures exit with code 6.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toyshare/toyshare/internal/migrate"
)

// NewMigrateCommand creates the "migrate" cobra command.
func NewMigrateCommand() *cobra.Command {
	var skipGenerate bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Generate and apply database migrations",
		Long: `Generate migrations with drizzle-kit and apply the pending ones.

DATABASE_URL selects the database: postgres://, mysql:// or sqlite://.
Applied files are recorded in the toyshare_migrations table.

Examples:
  DATABASE_URL=postgres://localhost/toyshare toyshare migrate
  toyshare migrate --skip-generate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), migrate.Options{SkipGenerate: skipGenerate})
		},
	}

	cmd.Flags().BoolVar(&skipGenerate, "skip-generate", false, "Apply existing migration files without running the generator")

	return cmd
}

func runMigrate(ctx context.Context, opts migrate.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := loadEnvironment("")
	if err != nil {
		return err
	}

	r := &migrate.Runner{
		Runtime: env.Runtime,
		Config:  env.Config,
		Exec:    env.Exec,
		Logger:  env.Logger,
	}
	res, err := r.Run(ctx, opts)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		if res.Applied == nil {
			res.Applied = []string{}
		}
		return printJSON(res)
	}
	if len(res.Applied) == 0 {
		fmt.Println("Database is up to date")
		return nil
	}
	fmt.Printf("Applied %d migration(s):\n", len(res.Applied))
	for _, name := range res.Applied {
		fmt.Printf("  %s\n", name)
	}
	return nil
}
