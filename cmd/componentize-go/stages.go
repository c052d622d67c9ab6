package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/componentize-go/component"
	"github.com/wippyai/componentize-go/metadata"
)

// newEmbedCmd runs the embed stage on an existing module in place.
func newEmbedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "embed <module.wasm|module.wat>",
		Short: "Embed the selected world's component-type metadata into a core module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := metadata.Embed(cmd.Context(), args[0], metadata.Options{
				Encoder:   a.embedder().Encoder,
				Assembler: a.tool,
				Resolve:   a.resolveOptions(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s %s\n", okStyle.Render("embedded"), pathStyle.Render(args[0]))
			return nil
		},
	}
}

// newEncodeCmd turns an embedded core module into a component in place.
func newEncodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <module.wasm|module.wat>",
		Short: "Encode an embedded core module as a component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := a.encoder()
			if err := enc.Ready(); err != nil {
				return err
			}
			err := component.Encode(cmd.Context(), args[0], component.Options{
				Assembler: a.tool,
				Encoder:   *enc,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s %s\n", okStyle.Render("wrote component"), pathStyle.Render(args[0]))
			return nil
		},
	}
}
