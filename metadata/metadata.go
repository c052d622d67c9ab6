package metadata

import (
	"context"
	"os"
	"strings"

	"github.com/wippyai/componentize-go/artifact"
	"github.com/wippyai/componentize-go/errors"
	"github.com/wippyai/componentize-go/resolve"
	"github.com/wippyai/componentize-go/wasm"
	"github.com/wippyai/componentize-go/wasmtools"
)

// SectionPrefix starts the name of every custom section carrying component
// type metadata.
const SectionPrefix = "component-type"

// emptyModule is the smallest valid core module.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// Encoder produces the metadata custom sections describing a world.
type Encoder interface {
	Encode(ctx context.Context, g *resolve.Graph, world resolve.WorldID) ([]wasm.CustomSection, error)
}

// ToolEncoder encodes metadata with `wasm-tools component embed`. The graph
// is staged as a WIT directory and embedded into an empty module, and the
// resulting component-type sections are lifted out.
type ToolEncoder struct {
	Tool *wasmtools.Tool
}

// Encode implements Encoder.
func (e ToolEncoder) Encode(ctx context.Context, g *resolve.Graph, world resolve.WorldID) ([]wasm.CustomSection, error) {
	dir, err := os.MkdirTemp("", "componentize-go-embed-*")
	if err != nil {
		return nil, errors.IO(errors.PhaseEmbed, os.TempDir(), err)
	}
	defer os.RemoveAll(dir)

	if err := resolve.Stage(dir, g, world); err != nil {
		return nil, err
	}
	out, err := e.Tool.Embed(ctx, dir, world.String(), emptyModule, g.FeatureFlags())
	if err != nil {
		return nil, err
	}
	return Extract(out)
}

// Extract returns the component-type custom sections of module, in order.
func Extract(module []byte) ([]wasm.CustomSection, error) {
	all, err := wasm.CustomSections(module)
	if err != nil {
		return nil, errors.New(errors.PhaseEmbed, errors.KindParse).
			Detail("decode embedded metadata").
			Cause(err).
			Build()
	}
	var out []wasm.CustomSection
	for _, s := range all {
		if strings.HasPrefix(s.Name, SectionPrefix) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, errors.New(errors.PhaseEmbed, errors.KindValidation).
			Detail("no %s section was produced", SectionPrefix).
			Build()
	}
	return out, nil
}

// Embedder appends world metadata to core modules.
type Embedder struct {
	Encoder Encoder
}

// Embed returns a copy of module with the metadata of world appended as
// custom sections. module itself is not modified.
func (e *Embedder) Embed(ctx context.Context, module []byte, g *resolve.Graph, world resolve.WorldID) ([]byte, error) {
	if !wasm.IsCoreModule(module) {
		return nil, errors.New(errors.PhaseEmbed, errors.KindParse).
			Detail("input is not a core WebAssembly module").
			Build()
	}
	sections, err := e.Encoder.Encode(ctx, g, world)
	if err != nil {
		return nil, err
	}
	out := module
	for _, s := range sections {
		out, err = wasm.AppendCustomSection(out, s.Name, s.Data)
		if err != nil {
			return nil, errors.New(errors.PhaseEmbed, errors.KindParse).Cause(err).Build()
		}
	}
	return out, nil
}

// Options configures the path-level Embed.
type Options struct {
	Encoder   Encoder
	Assembler wasm.Assembler
	Store     artifact.Store
	Resolve   resolve.Options
}

// Embed reads the module at path (text or binary), resolves the configured
// WIT, embeds the selected world and replaces path with the result.
func Embed(ctx context.Context, path string, opts Options) error {
	store := opts.Store
	if store.Fs == nil {
		store = artifact.OS
	}

	data, err := store.ReadFile(errors.PhaseEmbed, path)
	if err != nil {
		return err
	}
	module, err := wasm.Parse(ctx, opts.Assembler, data)
	if err != nil {
		return errors.WithPath(errors.PhaseEmbed, errors.KindParse, path, err)
	}
	g, world, err := resolve.Resolve(ctx, opts.Resolve)
	if err != nil {
		return err
	}
	out, err := (&Embedder{Encoder: opts.Encoder}).Embed(ctx, module, g, world)
	if err != nil {
		return errors.WithPath(errors.PhaseEmbed, errors.KindParse, path, err)
	}
	return store.WriteFile(errors.PhaseEmbed, path, out)
}
