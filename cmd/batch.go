package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Rana718/querygraft/internal/batch"
	"github.com/Rana718/querygraft/internal/descriptor"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [dir]",
	Short: "Describe every annotated query in a directory",
	Long: `
Analyze all "-- name: Name" annotated queries in the *.sql files of a
directory (default: the queries path from the config) and write one entry per
query. A query that fails to analyze is reported in its entry and does not
stop the others; the command fails at the end if any did.`,

	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dir := cfg.Queries
		if len(args) > 0 {
			dir = args[0]
		}

		queries, err := batch.Load(dir)
		if err != nil {
			return fmt.Errorf("failed to load queries: %w", err)
		}
		if len(queries) == 0 {
			color.Yellow("⚠️  No annotated queries found in %s", dir)
			return nil
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = cfg.Output.Format
		}
		outPath, _ := cmd.Flags().GetString("out")
		if outPath == "" {
			outPath = cfg.Output.Path
		}
		workers, _ := cmd.Flags().GetInt("workers")
		if workers <= 0 {
			workers = cfg.Workers
		}
		progress, _ := cmd.Flags().GetBool("progress")

		ctx := context.Background()
		a, src, err := openAnalyzer(ctx, cfg)
		if err != nil {
			return err
		}
		defer src.Close()

		start := time.Now()
		results, err := batch.Run(ctx, a, queries, batch.Options{Workers: workers, Progress: progress})
		if err != nil {
			return err
		}

		out, err := openOutput(outPath)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := descriptor.Encode(out, batch.Report(results), format); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}

		failed := batch.Failed(results)
		summary := color.New(color.FgGreen)
		if failed > 0 {
			summary = color.New(color.FgYellow)
		}
		summary.Fprintf(os.Stderr, "✅ Analyzed %d queries (%d failed) in %v\n",
			len(results), failed, time.Since(start).Round(time.Millisecond))
		if outPath != "" {
			color.New(color.FgCyan).Fprintf(os.Stderr, "📝 Written to %s\n", outPath)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d queries failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("out", "o", "", "write results to a file instead of stdout")
	batchCmd.Flags().String("format", "", "output format: json or yaml (default from config)")
	batchCmd.Flags().IntP("workers", "w", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().Bool("progress", false, "show a progress bar on stderr")
}
