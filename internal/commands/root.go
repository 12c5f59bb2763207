// Package commands wires the CLI surface: a one-shot analyze command for
// batch runs and a serve command exposing the analyzer over MCP.
package commands

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/pascan/pascan/internal/config"
)

// Version is stamped at release time.
var Version = "0.1.0"

// RootCmd creates and returns the root command for the pascan CLI.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pascan",
		Short: "Structural analyzer for legacy Delphi projects",
		Long: `pascan scans an Object Pascal codebase and produces a structural model:
units with their types and methods, event handlers, complexity estimates,
embedded SQL, form definitions and the unit dependency graph.

The model feeds modernization tooling; pascan never modifies the sources.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	return cmd
}

// loadConfig reads the config file if one exists, otherwise defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = "pascan.yaml"
		if _, err := os.Stat(path); err != nil {
			log.Printf("[config] no %s found, using defaults", path)
			return config.Default(), nil
		}
	}
	return config.Load(path)
}
