package resolve

import (
	"bytes"
	"context"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/componentize-go/errors"
	"github.com/wippyai/componentize-go/wasmtools"
)

// Loader parses one WIT source (directory, file or binary package) into a
// standalone graph. The package the source introduces is the last one in
// the returned Packages.
type Loader interface {
	Load(ctx context.Context, path string, flags wasmtools.FeatureFlags) (*wit.Resolve, error)
}

// ToolLoader loads WIT through `wasm-tools component wit --json`.
type ToolLoader struct {
	Tool *wasmtools.Tool
}

// Load implements Loader.
func (l ToolLoader) Load(ctx context.Context, path string, flags wasmtools.FeatureFlags) (*wit.Resolve, error) {
	out, err := l.Tool.WitJSON(ctx, path, flags)
	if err != nil {
		return nil, errors.WithPath(errors.PhaseResolve, errors.KindParse, path, err)
	}
	res, err := wit.DecodeJSON(bytes.NewReader(out))
	if err != nil {
		return nil, errors.Parse(errors.PhaseResolve, path, err)
	}
	return res, nil
}
