package commands

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pascan/pascan/internal/analyzer"
	"github.com/pascan/pascan/internal/loader"
	"github.com/pascan/pascan/internal/report"
)

// AnalyzeCmd creates the one-shot 'analyze' command. It writes three
// artifacts into the output directory: the canonical model, the run
// metadata, and a markdown summary.
func AnalyzeCmd() *cobra.Command {
	var (
		configPath string
		outDir     string
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "analyze [project-dir]",
		Short: "Analyze a Delphi project directory and write the model to disk",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Project = args[0]
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			if outDir != "" {
				cfg.Output.Dir = outDir
			}

			root, err := filepath.Abs(cfg.Project)
			if err != nil {
				return fmt.Errorf("resolving project path: %w", err)
			}

			files, err := loader.Load(root, cfg.Ignore)
			if err != nil {
				return err
			}

			a := analyzer.New(analyzer.Options{
				Workers:       cfg.Workers,
				EventSuffixes: cfg.EventSuffixes,
				EventPrefixes: cfg.EventPrefixes,
			})
			pm, err := a.Analyze(cmd.Context(), files)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
				return fmt.Errorf("creating output dir: %w", err)
			}

			modelJSON, err := report.CanonicalJSON(pm)
			if err != nil {
				return err
			}
			metaJSON, err := report.MetaJSON(pm)
			if err != nil {
				return err
			}
			md := report.NewRenderer(cfg.Output.MaxReportTokens).Markdown(pm)

			outputs := map[string][]byte{
				"project_model.json": modelJSON,
				"run.meta.json":      metaJSON,
				"report.md":          []byte(md),
			}
			for name, data := range outputs {
				path := filepath.Join(cfg.Output.Dir, name)
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
			}
			log.Printf("[analyze] wrote model, meta and report to %s", cfg.Output.Dir)

			fmt.Fprintf(os.Stderr, "%d units, %d methods, %d edges, %d cycles, %d skipped\n",
				pm.Totals.Units, pm.Totals.Methods, len(pm.Edges), len(pm.Cycles), len(pm.Skipped))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to pascan.yaml")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default .pascan)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of analysis workers (default GOMAXPROCS)")

	return cmd
}
