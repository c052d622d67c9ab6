package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/componentize-go/pipeline"
)

func newBindingsCmd(a *app) *cobra.Command {
	var (
		out       string
		generator string
	)
	cmd := &cobra.Command{
		Use:   "bindings",
		Short: "Generate Go bindings for the selected world",
		Long: "Resolve the WIT, stage it as a single directory and run the binding\n" +
			"generator on it. The generator receives --world, --out and the staged\n" +
			"directory after its own arguments.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen := &pipeline.Generator{Runner: a.runner, Command: strings.Fields(generator)}
			world, err := gen.Generate(cmd.Context(), a.resolveOptions(), out)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s %s %s\n", okStyle.Render("generated bindings for"), funcStyle.Render(world.String()), pathStyle.Render(out))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "output", "o", pipeline.DefaultBindingsDir, "directory receiving the generated bindings")
	f.StringVar(&generator, "generator", strings.Join(pipeline.DefaultGenerator, " "), "binding generator command")
	return cmd
}
