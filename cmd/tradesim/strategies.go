package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/tradesim/internal/strategy"
)

func newStrategiesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "List the built-in strategies and their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := make([]strategy.Metadata, 0)
			for _, def := range strategy.DefaultRegistry().List() {
				catalog = append(catalog, def.Metadata())
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(catalog)
			}
			return printCatalog(cmd.OutOrStdout(), catalog)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	return cmd
}

func printCatalog(out io.Writer, catalog []strategy.Metadata) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, meta := range catalog {
		fmt.Fprintf(w, "%s\t%s\t[%s risk]\n", meta.ID, meta.Name, meta.RiskLevel)
		fmt.Fprintf(w, "\t%s\n", meta.Description)
		for _, p := range meta.Parameters {
			fmt.Fprintf(w, "\t  %s\t%s\n", p.ID, describeParameter(p))
		}
	}
	return w.Flush()
}

func describeParameter(p strategy.ParameterSpec) string {
	switch p.Type {
	case strategy.ParameterNumber:
		return fmt.Sprintf("default %v, range %g..%g step %g", p.Default, p.Min, p.Max, p.Step)
	case strategy.ParameterSelect:
		return fmt.Sprintf("default %v, one of %s", p.Default, strings.Join(p.Options, "|"))
	default:
		return fmt.Sprintf("default %v", p.Default)
	}
}
