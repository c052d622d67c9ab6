package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wippyai/componentize-go/artifact"
	"github.com/wippyai/componentize-go/component"
	"github.com/wippyai/componentize-go/errors"
	"github.com/wippyai/componentize-go/wasm"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.wasm>",
		Short: "Show the imports, exports and custom sections of a component",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := args[0]
			data, err := artifact.ReadFile(errors.PhaseEncode, path)
			if err != nil {
				return err
			}
			info, err := component.Inspect(data)
			if err != nil {
				return errors.WithPath(errors.PhaseEncode, errors.KindParse, path, err)
			}
			printInfo(a.stdout, path, info)
			return nil
		},
	}
}

func printInfo(w io.Writer, path string, info *component.Info) {
	fmt.Fprintf(w, "%s\n", titleStyle.Render("Component: "+path))
	fmt.Fprintf(w, "Core modules: %d\n", info.CoreModules)

	fmt.Fprintf(w, "\nImports:\n")
	for _, imp := range info.Imports {
		fmt.Fprintf(w, "  %s %s\n", funcStyle.Render(imp.Name), typeStyle.Render(externName(imp.Kind)))
	}
	fmt.Fprintf(w, "\nExports:\n")
	for _, exp := range info.Exports {
		fmt.Fprintf(w, "  %s %s\n", funcStyle.Render(exp.Name), typeStyle.Render(externName(exp.Sort)))
	}
	fmt.Fprintf(w, "\nPackages:\n")
	for _, p := range info.Packages() {
		fmt.Fprintf(w, "  %s\n", p)
	}
	if len(info.CustomSections) > 0 {
		fmt.Fprintf(w, "\nCustom sections:\n")
		for _, cs := range info.CustomSections {
			fmt.Fprintf(w, "  %s %s\n", cs.Name, helpStyle.Render(fmt.Sprintf("(%d bytes)", len(cs.Data))))
		}
	}
}

func externName(kind byte) string {
	switch kind {
	case component.ExternCoreModule:
		return "core module"
	case component.ExternFunc:
		return "func"
	case component.ExternValue:
		return "value"
	case component.ExternType:
		return "type"
	case component.ExternComponent:
		return "component"
	case component.ExternInstance:
		return "instance"
	}
	return wasm.KindName(kind)
}
