// Package cli — paths.go implements the "toyshare paths" command, which
// shows how the project was located and the resulting directory layout.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/toyshare/toyshare/internal/paths"
	"github.com/toyshare/toyshare/internal/runtimectx"
)

// pathsReport is the machine-readable form of the paths command output.
type pathsReport struct {
	Invocation string       `json:"invocation" yaml:"invocation"`
	Module     string       `json:"module" yaml:"module"`
	Mode       string       `json:"mode" yaml:"mode"`
	Paths      paths.Bundle `json:"paths" yaml:"paths"`
	Env        []string     `json:"env" yaml:"env"`
}

// NewPathsCommand creates the "paths" cobra command.
func NewPathsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Show the resolved project directories",
		Long: `Show the project root and the directories derived from it, plus
the TOYSHARE_* variables passed to the server.

Examples:
  toyshare paths
  toyshare paths --json
  toyshare paths --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if IsJSONOutput() {
				format = "json"
			}
			env, err := loadEnvironment("")
			if err != nil {
				return err
			}
			return writePaths(os.Stdout, newPathsReport(env.Runtime), format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, yaml")

	return cmd
}

func newPathsReport(rt *runtimectx.Context) pathsReport {
	return pathsReport{
		Invocation: rt.Origin.Invocation.String(),
		Module:     rt.Module.String(),
		Mode:       rt.Mode.String(),
		Paths:      rt.Paths,
		Env:        rt.Environ(),
	}
}

// writePaths renders the report in the requested format.
func writePaths(w io.Writer, r pathsReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return enc.Close()
	case "text", "":
		fmt.Fprintf(w, "Invocation: %s\n", r.Invocation)
		fmt.Fprintf(w, "Module:     %s\n", r.Module)
		fmt.Fprintf(w, "Mode:       %s\n", r.Mode)
		fmt.Fprintln(w)
		m := r.Paths.Map()
		for _, name := range paths.Names() {
			fmt.Fprintf(w, "  %-14s %s\n", name, m[name])
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (valid: text, json, yaml)", format)
	}
}
