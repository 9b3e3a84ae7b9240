package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mcasconvert/internal/core"
)

// NewSubjectsCommand creates the subjects command.
func NewSubjectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List supported subjects and their input columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tTEST DATE\tINPUT COLUMNS")
			for _, s := range core.Subjects() {
				def := s.Definition()
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s, %s, %s\n",
					def.Key, def.DisplayName, def.TestDate,
					s.PerfColumn(), s.ScaledColumn(), s.CPIColumn())
			}
			return tw.Flush()
		},
	}
}
