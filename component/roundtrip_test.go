package component

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"

	"github.com/wippyai/componentize-go/adapter"
	"github.com/wippyai/componentize-go/metadata"
	"github.com/wippyai/componentize-go/process"
	"github.com/wippyai/componentize-go/resolve"
	"github.com/wippyai/componentize-go/wasm"
	"github.com/wippyai/componentize-go/wasmtools"
)

const roundTripWIT = `package test:app;

interface host {
	log: func(x: u32);
}

interface api {
	ping: func() -> u32;
}

world app {
	import host;
	export api;
}
`

const roundTripWAT = `(module
  (import "test:app/host" "log" (func $log (param i32)))
  (func (export "test:app/api#ping") (result i32)
    (call $log (i32.const 7))
    (i32.const 42)))
`

// TestRoundTripWasmTools drives the real wasm-tools through assemble,
// embed, encode and back through Inspect and `component wit`.
func TestRoundTripWasmTools(t *testing.T) {
	path, err := exec.LookPath("wasm-tools")
	if err != nil {
		t.Skip("wasm-tools not on PATH")
	}
	if _, err := adapter.WASIPreview1Reactor(); err != nil {
		t.Skip("reactor adapter not fetched")
	}

	ctx := context.Background()
	tool := wasmtools.New(path, process.NewExecRunner())

	dir := t.TempDir()
	witDir := filepath.Join(dir, "wit")
	if err := os.MkdirAll(witDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(witDir, "app.wit"), []byte(roundTripWIT), 0o644); err != nil {
		t.Fatal(err)
	}

	module, err := wasm.Parse(ctx, tool, []byte(roundTripWAT))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	g, world, err := resolve.Resolve(ctx, resolve.Options{
		Loader:  resolve.ToolLoader{Tool: tool},
		Sources: []string{witDir},
		World:   "app",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	embedded, err := (&metadata.Embedder{Encoder: metadata.ToolEncoder{Tool: tool}}).Embed(ctx, module, g, world)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	enc := &Encoder{Backend: ToolBackend{Tool: tool}, Validate: true}
	out, err := enc.Encode(ctx, embedded)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	info, err := Inspect(out)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !slices.ContainsFunc(info.Imports, func(i Import) bool { return i.Name == "test:app/host" }) {
		t.Errorf("imports = %+v", info.Imports)
	}
	if !slices.ContainsFunc(info.Exports, func(e Export) bool { return e.Name == "test:app/api" }) {
		t.Errorf("exports = %+v", info.Exports)
	}
	if !slices.Contains(info.Packages(), "test:app") {
		t.Errorf("packages = %v", info.Packages())
	}

	// The world name is not encoded; the interfaces' package is.
	componentPath := filepath.Join(dir, "app.wasm")
	if err := os.WriteFile(componentPath, out, 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := resolve.ToolLoader{Tool: tool}.Load(ctx, componentPath, wasmtools.FeatureFlags{})
	if err != nil {
		t.Fatalf("Load component: %v", err)
	}
	var names []string
	for _, p := range res.Packages {
		names = append(names, p.Name.String())
	}
	if !slices.Contains(names, "test:app") {
		t.Errorf("decoded packages = %v", names)
	}
}
