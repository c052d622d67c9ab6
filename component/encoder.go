package component

import (
	"context"
	"slices"
	"strings"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/componentize-go/adapter"
	"github.com/wippyai/componentize-go/artifact"
	"github.com/wippyai/componentize-go/errors"
	"github.com/wippyai/componentize-go/wasm"
	"github.com/wippyai/componentize-go/wasmtools"
)

// Backend turns a core module carrying component-type metadata into a
// component.
type Backend interface {
	New(ctx context.Context, module []byte, adapters []wasmtools.Adapter, validate bool) ([]byte, error)
}

// ToolBackend encodes with `wasm-tools component new`.
type ToolBackend struct {
	Tool *wasmtools.Tool
}

// New implements Backend.
func (b ToolBackend) New(ctx context.Context, module []byte, adapters []wasmtools.Adapter, validate bool) ([]byte, error) {
	return b.Tool.ComponentNew(ctx, module, adapters, validate)
}

// Encoder converts wasip1 core modules into components using the
// wasi_snapshot_preview1 reactor adapter.
type Encoder struct {
	Backend Backend
	// Adapter overrides the embedded reactor adapter when non-nil.
	Adapter []byte
	// LoadAdapter supplies the adapter when Adapter is nil. Nil loads the
	// embedded reactor.
	LoadAdapter func() ([]byte, error)
	Validate    bool
}

// Ready loads the adapter if it has not been loaded yet. Encode calls it
// too; callers use it to fail before spending time on compilation.
func (e *Encoder) Ready() error {
	if e.Adapter != nil {
		return nil
	}
	load := e.LoadAdapter
	if load == nil {
		load = adapter.WASIPreview1Reactor
	}
	adp, err := load()
	if err != nil {
		return err
	}
	e.Adapter = adp
	return nil
}

// Encode returns the component for module. With Validate set the module is
// checked before encoding: it must compile, and every import it takes from
// the adapter namespace must be provided by the adapter.
func (e *Encoder) Encode(ctx context.Context, module []byte) ([]byte, error) {
	if !wasm.IsCoreModule(module) {
		return nil, errors.New(errors.PhaseEncode, errors.KindParse).
			Detail("input is not a core WebAssembly module").
			Build()
	}

	if err := e.Ready(); err != nil {
		return nil, err
	}
	adp := e.Adapter

	if e.Validate {
		if err := ValidateModule(ctx, module); err != nil {
			return nil, err
		}
		if err := CheckAdapterImports(module, adp); err != nil {
			return nil, err
		}
	}

	out, err := e.Backend.New(ctx, module, []wasmtools.Adapter{{Name: adapter.Name, Bytes: adp}}, e.Validate)
	if err != nil {
		return nil, err
	}

	info, err := Inspect(out)
	if err != nil {
		return nil, errors.New(errors.PhaseEncode, errors.KindValidation).
			Detail("encoder output is not a valid component").
			Cause(err).
			Build()
	}
	Logger().Debug("encoded component",
		zap.Int("size", len(out)),
		zap.Int("imports", len(info.Imports)),
		zap.Int("exports", len(info.Exports)),
		zap.Strings("packages", info.Packages()))
	return out, nil
}

// ValidateModule compiles module with wazero to check its structure.
// Imports are not resolved.
func ValidateModule(ctx context.Context, module []byte) error {
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, module)
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindValidation).
			Detail("core module failed validation").
			Cause(err).
			Build()
	}
	return compiled.Close(ctx)
}

// CheckAdapterImports reports every function module imports from the
// adapter namespace that the adapter does not export.
func CheckAdapterImports(module, adp []byte) error {
	imports, err := wasm.Imports(module)
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindParse).
			Detail("decode module imports").
			Cause(err).
			Build()
	}
	exports, err := wasm.Exports(adp)
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindParse).
			Detail("decode adapter exports").
			Cause(err).
			Build()
	}

	provided := make(map[string]byte, len(exports))
	for _, exp := range exports {
		provided[exp.Name] = exp.Kind
	}

	var missing []string
	for _, imp := range imports {
		if imp.Module != adapter.Name {
			continue
		}
		kind, ok := provided[imp.Name]
		if !ok || kind != imp.Kind {
			missing = append(missing, imp.Module+"."+imp.Name+" ("+wasm.KindName(imp.Kind)+")")
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return errors.Validation("adapter %s does not provide: %s", adapter.Name, strings.Join(missing, ", "))
}

// Options configures the path-level Encode.
type Options struct {
	Assembler wasm.Assembler
	Store     artifact.Store
	Encoder   Encoder
}

// Encode reads the module at path, encodes it and replaces path with the
// component.
func Encode(ctx context.Context, path string, opts Options) error {
	store := opts.Store
	if store.Fs == nil {
		store = artifact.OS
	}
	data, err := store.ReadFile(errors.PhaseEncode, path)
	if err != nil {
		return err
	}
	module, err := wasm.Parse(ctx, opts.Assembler, data)
	if err != nil {
		return errors.WithPath(errors.PhaseEncode, errors.KindParse, path, err)
	}
	out, err := opts.Encoder.Encode(ctx, module)
	if err != nil {
		return errors.WithPath(errors.PhaseEncode, errors.KindValidation, path, err)
	}
	return store.WriteFile(errors.PhaseEncode, path, out)
}
