package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/componentize-go/resolve"
)

func newWitCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "wit",
		Short: "Print the WIT package of the selected world",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, world, err := resolve.Resolve(cmd.Context(), a.resolveOptions())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "// world %s\n", world)
			for _, p := range g.Packages() {
				if !all && p.ID != world.Package {
					continue
				}
				fmt.Fprintf(a.stdout, "\n// %s (from %s)\n%s", p.ID, p.Source, p.WIT)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print every resolved package, not only the world's")
	return cmd
}
