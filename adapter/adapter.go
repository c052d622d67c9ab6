//go:generate sh ../scripts/fetch-adapter.sh 36.0.0

package adapter

import (
	"embed"
	"io/fs"
	"path"
	"sync"

	"github.com/wippyai/componentize-go/errors"
	"github.com/wippyai/componentize-go/wasm"
)

const (
	// Name is the core module namespace the adapter satisfies.
	Name = "wasi_snapshot_preview1"
	// Version is the wasmtime release the embedded adapter comes from.
	Version = "36.0.0"
	// File is the adapter's file name inside the assets directory.
	File = "wasi_snapshot_preview1.reactor.wasm"
)

//go:embed assets
var assets embed.FS

var (
	reactorOnce sync.Once
	reactor     []byte
	reactorErr  error
)

// WASIPreview1Reactor returns the embedded reactor adapter. The returned
// slice is shared by every caller and must not be modified.
func WASIPreview1Reactor() ([]byte, error) {
	reactorOnce.Do(func() {
		reactor, reactorErr = fromFS(assets, path.Join("assets", File))
	})
	return reactor, reactorErr
}

func fromFS(fsys fs.FS, name string) ([]byte, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.New(errors.PhaseEncode, errors.KindIO).
			Path(name).
			Detail("adapter %s (wasmtime %s) is not embedded; run `go generate ./adapter` and rebuild", File, Version).
			Cause(err).
			Build()
	}
	if err := check(b, name); err != nil {
		return nil, err
	}
	return b, nil
}

func check(b []byte, name string) error {
	if !wasm.IsCoreModule(b) {
		return errors.New(errors.PhaseEncode, errors.KindValidation).
			Path(name).
			Detail("adapter is not a core WebAssembly module").
			Build()
	}
	return nil
}
