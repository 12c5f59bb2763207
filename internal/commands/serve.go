package commands

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/pascan/pascan/internal/server"
)

// ServeCmd creates the 'serve' command running the MCP stdio server.
func ServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Starts an MCP server on stdin/stdout. Clients call analyze_project to
scan a directory, then query the model with query_units, show_unit and
get_dependencies, or read the pascan://model/* resources.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the MCP protocol; all logging goes to stderr.
			log.SetOutput(os.Stderr)

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			srv, err := server.New(cfg)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to pascan.yaml")

	return cmd
}
