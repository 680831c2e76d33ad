package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Rana718/querygraft/internal/descriptor"
	"github.com/Rana718/querygraft/internal/render"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [query]",
	Short: "Describe one SELECT statement",
	Long: `
Analyze a single SELECT statement and print its descriptor: tables, typed
properties, placeholder variables and the equality filter.

The query is read from the argument, --query, --file or stdin.
With --sql the restricted find (and count) statement implied by the filter
is printed instead, with ${name} variables as bind arguments.

Examples:
  querygraft analyze "select id, name from doctor where id = \${doctorId}"
  querygraft analyze --file query.sql --format yaml
  querygraft analyze --sql --var doctorId=7 "select * from doctor where id = \${doctorId}"`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		queryFlag, _ := cmd.Flags().GetString("query")
		fileFlag, _ := cmd.Flags().GetString("file")
		raw, err := readQuery(args, queryFlag, fileFlag)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = cfg.Output.Format
		}

		ctx := context.Background()
		a, src, err := openAnalyzer(ctx, cfg)
		if err != nil {
			return err
		}
		defer src.Close()

		d, err := a.Analyze(ctx, raw)
		if err != nil {
			return err
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		if !quiet {
			printNotices(d.Notices())
		}

		showSQL, _ := cmd.Flags().GetBool("sql")
		if showSQL {
			vars, _ := cmd.Flags().GetStringArray("var")
			return printSQL(cmd.OutOrStdout(), d, cfg.NormalizedProvider(), vars)
		}

		return descriptor.Encode(cmd.OutOrStdout(), d, format)
	},
}

func printSQL(w io.Writer, d *descriptor.QueryDescriptor, provider string, vars []string) error {
	values, err := parseVars(vars)
	if err != nil {
		return err
	}

	r := render.New(provider)
	queries := []func(*descriptor.QueryDescriptor) (string, []interface{}, error){r.Find}
	if d.HasCountAggregate() {
		queries = append(queries, r.Count)
	}

	for _, build := range queries {
		query, args, err := build(d)
		if err != nil {
			return err
		}
		if len(values) > 0 {
			if args, err = render.Bind(args, values); err != nil {
				return err
			}
		}
		fmt.Fprintln(w, query+";")
		if len(args) > 0 {
			fmt.Fprintf(w, "-- args: %v\n", args)
		}
	}
	return nil
}

func parseVars(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q, expected name=value", pair)
		}
		values[name] = value
	}
	return values, nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("query", "q", "", "query text")
	analyzeCmd.Flags().StringP("file", "f", "", "read the query from a file")
	analyzeCmd.Flags().String("format", "", "output format: json or yaml (default from config)")
	analyzeCmd.Flags().Bool("sql", false, "print the rendered find/count statement instead of the descriptor")
	analyzeCmd.Flags().StringArray("var", nil, "variable value for --sql, as name=value (repeatable)")
	analyzeCmd.Flags().Bool("quiet", false, "do not print notices")
}
