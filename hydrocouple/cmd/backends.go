package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/sarchlab/hydrocouple/components/surfacelayer/dummy"
	"github.com/spf13/cobra"
)

func newBackendsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "Probe the backends of the example variants.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := a.registry()
			for _, v := range dummy.Variants {
				if v != dummy.VariantPure {
					registry.Probe(v)
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BACKEND\tAVAILABLE\tREASON")

			for _, t := range registry.Tokens() {
				fmt.Fprintf(w, "%s\t%t\t%s\n", t.Name, t.Available, t.Reason)
			}

			return w.Flush()
		},
	}
}
