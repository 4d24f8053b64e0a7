package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tbrossard/evtwin/core/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List registered driving scenarios",
	RunE:  runScenarios,
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	reg := scenario.DefaultRegistry()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDURATION")
	for _, name := range reg.Names() {
		sc, err := reg.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%.0fs\n", sc.Name, sc.DurationS)
	}
	return w.Flush()
}
