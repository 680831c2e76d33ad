package cmd

import (
	"fmt"

	"github.com/Rana718/querygraft/internal/placeholder"
	"github.com/spf13/cobra"
)

var varsCmd = &cobra.Command{
	Use:   "vars [query]",
	Short: "List the ${name} placeholders of a query",
	Long: `
Print every placeholder of the query in order of appearance, one per line.
A placeholder used twice is printed twice. No parsing or metadata is needed.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readQuery(args, "", "")
		if err != nil {
			return err
		}
		for _, name := range placeholder.Scan(raw) {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "QueryGraft CLI version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(varsCmd)
	rootCmd.AddCommand(versionCmd)
}
