package cmd

import (
	"fmt"

	"github.com/sarchlab/hydrocouple/component"
	"github.com/sarchlab/hydrocouple/components/surfacelayer/dummy"
	"github.com/sarchlab/hydrocouple/field"
	"github.com/spf13/cobra"
)

func newDescribeCmd(_ *app) *cobra.Command {
	var manifest string

	describeCmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the interface of component types.",
		Long: "`describe` prints the dummy component type, or the types " +
			"declared in an HCL manifest given with --manifest.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			types := []*component.Type{dummy.Type()}

			if manifest != "" {
				manifests, err := field.LoadManifest(manifest)
				if err != nil {
					return err
				}

				types = types[:0]
				for _, m := range manifests {
					types = append(types, component.TypeFromManifest(m))
				}
			}

			for _, t := range types {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}

			return nil
		},
	}

	describeCmd.Flags().StringVar(&manifest, "manifest", "",
		"Describe the component types of an HCL manifest")

	return describeCmd
}
