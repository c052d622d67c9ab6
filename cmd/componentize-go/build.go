package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/componentize-go/pipeline"
	"github.com/wippyai/componentize-go/toolchain"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		req    pipeline.BuildRequest
		wasip1 bool
	)
	cmd := &cobra.Command{
		Use:     "build",
		Aliases: []string{"componentize"},
		Short:   "Build the Go module as a WebAssembly component",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := a.pipeline(!wasip1)
			bin, err := p.Build(cmd.Context(), req)
			if err != nil {
				return err
			}
			kind := "component"
			if wasip1 {
				kind = "wasip1 module"
			}
			fmt.Fprintf(a.stdout, "%s %s\n", okStyle.Render("wrote "+kind), pathStyle.Render(bin.Path))
			return nil
		},
	}
	f := cmd.Flags()
	f.String("go", "", "path to the Go binary (default \"go\" from PATH)")
	f.StringVarP(&req.Output, "output", "o", toolchain.DefaultOutput, "output path of the component")
	f.StringVar(&req.ModDir, "mod", "", "directory containing go.mod (default: working directory)")
	f.BoolVar(&wasip1, "wasip1", false, "leave a plain wasip1 module instead of a component")
	return cmd
}
