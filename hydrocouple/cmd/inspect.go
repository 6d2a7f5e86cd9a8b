package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/syifan/goseth"
)

func newInspectCmd(a *app) *cobra.Command {
	o := &runOptions{quiet: true}

	var depth int

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Run the dummy component and print the executor as JSON.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			sim, err := a.buildSimulation(o, out)
			if err != nil {
				return err
			}

			if err := sim.run(cmd.Context(), o, out); err != nil {
				return err
			}

			serializer := goseth.NewSerializer()
			serializer.SetRoot(sim.executor)
			serializer.SetMaxDepth(depth)

			if err := serializer.Serialize(out); err != nil {
				return err
			}

			fmt.Fprintln(out)

			return nil
		},
	}

	o.addFlags(inspectCmd)
	inspectCmd.Flags().IntVar(&depth, "depth", 2,
		"How deep to serialize the executor")

	return inspectCmd
}
