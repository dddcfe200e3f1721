// Package cli implements the cobra-based CLI commands for toyshare.
//
// Each subcommand (dev, ubuntu, start, build, migrate, paths) is defined in
// its own file within this package. This file defines the root command that
// serves as the parent for all subcommands and handles global flags, the
// shared logger and exit-code translation.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/toyshare/toyshare/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	jsonOutput bool

	// verbose lowers the log level to debug.
	verbose bool

	// rootDir overrides project root detection (same as TOYSHARE_ROOT).
	rootDir string

	// configFile points at an explicit toyshare.yaml.
	configFile string

	// logger is built in PersistentPreRunE; it discards everything until
	// then so helpers never see nil.
	logger = zap.NewNop()
)

// Build-time information, injected from the main package.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"

	// SourceFile is main.go's path as recorded by the compiler. It locates
	// the project when the CLI runs through `go run`.
	SourceFile string
)

// NewRootCommand creates and configures the root cobra command.
//
// The root command itself does not perform any action; it only provides
// help text and global flags.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "toyshare",
		Short: "Run, build and migrate the ToyShare web application",
		Long: `toyshare drives the ToyShare Node application: it starts the
development server, produces and runs the production build, and applies
database migrations.

The project root is the parent of the directory holding the toyshare
binary (for example <root>/bin/toyshare). Use --root or TOYSHARE_ROOT to
point at a project explicitly.`,

		// Errors are printed by Execute in text or JSON form.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Project root (default: parent of the binary's directory)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: <root>/toyshare.yaml)")

	rootCmd.AddCommand(NewDevCommand())
	rootCmd.AddCommand(NewUbuntuCommand())
	rootCmd.AddCommand(NewStartCommand())
	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewPathsCommand())

	return rootCmd
}

// newLogger builds the console logger on stderr; stdout is reserved for
// command output.
func newLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.DisableStacktrace = true
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

// Execute runs the root command and exits with the code carried by the
// returned error.
func Execute(rootCmd *cobra.Command) {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	// The server already reported its own failure on the inherited
	// stderr; only its status is passed on.
	var exited *serverExitError
	if errors.As(err, &exited) {
		os.Exit(exited.code)
	}

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(cliErr.Message, cliErr.Err)
	} else {
		printError(err.Error(), nil)
	}
	os.Exit(int(model.ExitCodeOf(err)))
}

// serverExitError carries a supervised server's non-zero exit code.
type serverExitError struct {
	code int
}

func (e *serverExitError) Error() string {
	return fmt.Sprintf("server exited with status %d", e.code)
}

func (e *serverExitError) ExitStatus() int {
	return e.code
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(message string, underlying error) {
	if jsonOutput {
		// Errors go to stderr even in JSON mode; stdout is for results.
		data, _ := json.MarshalIndent(errorEnvelope(message, underlying), "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	}
}

// errorEnvelope builds the --json error object. When a failed tool's exit
// status is known it is reported as childExitCode next to the detail.
func errorEnvelope(message string, underlying error) map[string]interface{} {
	errMap := map[string]interface{}{
		"message": message,
	}
	if underlying != nil {
		errMap["detail"] = underlying.Error()

		var child interface{ ExitStatus() int }
		if errors.As(underlying, &child) {
			errMap["childExitCode"] = child.ExitStatus()
		}
	}
	return map[string]interface{}{"error": errMap}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
