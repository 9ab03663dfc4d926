package agents

import (
	"fmt"
	"text/tabwriter"

	"engram/internal/agent"

	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:   "agents",
	Short: "List the available agent types",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := agent.DefaultCatalog()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tNAME\tTOOLS\tDESCRIPTION")
		for _, t := range cat.Types() {
			p, _ := cat.Profile(t)
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.Type, p.Name, len(p.Tools), p.Description)
		}
		return w.Flush()
	},
}
