package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.bytecodealliance.org/wit"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/componentize-go/errors"
	"github.com/wippyai/componentize-go/process"
	"github.com/wippyai/componentize-go/resolve"
	"github.com/wippyai/componentize-go/toolchain"
	"github.com/wippyai/componentize-go/wasm"
	"github.com/wippyai/componentize-go/wasmtools"
)

var (
	coreModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	componentB = []byte{0x00, 0x61, 0x73, 0x6d, 0x0d, 0x00, 0x01, 0x00}
)

const appJSON = `{
	"worlds": [{"name": "app", "imports": {}, "exports": {}, "package": 0}],
	"interfaces": [],
	"types": [],
	"packages": [{"name": "test:app", "interfaces": {}, "worlds": {"app": 0}}]
}`

type jsonLoader map[string]string

func (l jsonLoader) Load(_ context.Context, path string, _ wasmtools.FeatureFlags) (*wit.Resolve, error) {
	src, ok := l[path]
	if !ok {
		return nil, fmt.Errorf("no WIT at %s", path)
	}
	return wit.DecodeJSON(strings.NewReader(src))
}

// fakeGo answers `go version`, `go build` and `go test -c`.
type fakeGo struct {
	fail    map[string]bool
	version string
	// output is what the compiler writes; nil writes coreModule.
	output []byte
	calls  []process.Command
}

func (f *fakeGo) Run(_ context.Context, cmd process.Command) (*process.Result, error) {
	f.calls = append(f.calls, cmd)
	switch cmd.Args[0] {
	case "version":
		return &process.Result{Stdout: []byte(f.version)}, nil
	case "test":
		pkg := cmd.Args[len(cmd.Args)-1]
		if f.fail[pkg] {
			res := &process.Result{ExitCode: 1, Stderr: []byte(pkg + ": undefined: x")}
			return res, process.Failed(cmd, res)
		}
	}
	out := cmd.Args[slices.Index(cmd.Args, "-o")+1]
	data := f.output
	if data == nil {
		data = coreModule
	}
	return &process.Result{}, os.WriteFile(out, data, 0o644)
}

func (f *fakeGo) subcommands() []string {
	var out []string
	for _, c := range f.calls {
		out = append(out, c.Args[0])
	}
	return out
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (e *fakeEmbedder) Embed(_ context.Context, module []byte, _ *resolve.Graph, world resolve.WorldID) ([]byte, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return wasm.AppendCustomSection(module, "component-type:"+world.String(), nil)
}

type fakeEncoder struct {
	err   error
	seen  [][]byte
	calls int
}

func (e *fakeEncoder) Encode(_ context.Context, module []byte) ([]byte, error) {
	e.calls++
	e.seen = append(e.seen, module)
	if e.err != nil {
		return nil, e.err
	}
	return componentB, nil
}

// readyEncoder reports a missing adapter from Ready.
type readyEncoder struct {
	fakeEncoder
	err   error
	ready int
}

func (e *readyEncoder) Ready() error {
	e.ready++
	return e.err
}

type fakeAssembler struct {
	calls int
}

func (a *fakeAssembler) Assemble(_ context.Context, text []byte) ([]byte, error) {
	a.calls++
	if string(text) != "(module)" {
		return nil, fmt.Errorf("unexpected text %q", text)
	}
	return coreModule, nil
}

type fixture struct {
	gotool   *fakeGo
	embedder *fakeEmbedder
	encoder  *fakeEncoder
	events   []Event
	p        *Pipeline
}

func newFixture(version string) *fixture {
	f := &fixture{
		gotool:   &fakeGo{version: version, fail: map[string]bool{}},
		embedder: &fakeEmbedder{},
		encoder:  &fakeEncoder{},
	}
	f.p = &Pipeline{
		Go:           toolchain.NewGo("", f.gotool),
		Embedder:     f.embedder,
		Encoder:      f.encoder,
		Resolve:      resolve.Options{Loader: jsonLoader{"wit": appJSON}},
		Componentize: true,
		Progress:     func(e Event) { f.events = append(f.events, e) },
	}
	return f
}

func TestBuild(t *testing.T) {
	f := newFixture("go version go1.25.3 linux/amd64")
	out := filepath.Join(t.TempDir(), "app.wasm")

	bin, err := f.p.Build(context.Background(), BuildRequest{Output: out})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if bin.State != StateEncoded || bin.Path != out {
		t.Errorf("bin = %+v", bin)
	}
	onDisk, _ := os.ReadFile(out)
	if !bytes.Equal(onDisk, componentB) || !bytes.Equal(bin.Bytes, componentB) {
		t.Error("component was not persisted")
	}
	if diff := cmp.Diff([]string{"version", "build"}, f.gotool.subcommands()); diff != "" {
		t.Errorf("go commands (-want +got):\n%s", diff)
	}
	sections, err := wasm.CustomSections(f.encoder.seen[0])
	if err != nil || len(sections) != 1 || sections[0].Name != "component-type:test:app/app" {
		t.Errorf("encoder did not receive the embedded module: %v, %v", sections, err)
	}

	var stages []Stage
	for _, e := range f.events {
		stages = append(stages, e.Stage)
	}
	want := []Stage{StageGate, StageResolve, StageCompile, StageEmbed, StageEncode, StageDone}
	if diff := cmp.Diff(want, stages); diff != "" {
		t.Errorf("stages (-want +got):\n%s", diff)
	}
}

func TestBuildWasip1(t *testing.T) {
	f := newFixture("go version go1.26.0 darwin/arm64")
	f.p.Componentize = false
	f.p.Resolve = resolve.Options{}
	out := filepath.Join(t.TempDir(), "main.wasm")

	bin, err := f.p.Build(context.Background(), BuildRequest{Output: out})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if bin.State != StateParsed {
		t.Errorf("state = %v", bin.State)
	}
	if f.embedder.calls != 0 || f.encoder.calls != 0 {
		t.Error("wasip1 builds must not embed or encode")
	}
	onDisk, _ := os.ReadFile(out)
	if !bytes.Equal(onDisk, coreModule) {
		t.Error("raw module should be left in place")
	}
}

func TestBuildGateFirst(t *testing.T) {
	tests := []struct {
		version string
		cause   error
	}{
		{"go version go1.24.9 linux/amd64", toolchain.ErrVersionTooOld},
		{"go version go2.0.0 linux/amd64", toolchain.ErrUnsupportedMajor},
		{"gccgo (GCC) 14.1", toolchain.ErrVersionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			f := newFixture(tt.version)
			_, err := f.p.Build(context.Background(), BuildRequest{Output: filepath.Join(t.TempDir(), "x.wasm")})
			if errors.KindOf(err) != errors.KindVersion {
				t.Fatalf("err = %v", err)
			}
			if !errorsIs(err, tt.cause) {
				t.Errorf("err = %v, want cause %v", err, tt.cause)
			}
			if diff := cmp.Diff([]string{"version"}, f.gotool.subcommands()); diff != "" {
				t.Errorf("nothing may run after a failed gate (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildAdapterCheckedAfterGate(t *testing.T) {
	missing := errors.New(errors.PhaseEncode, errors.KindIO).Detail("adapter is not embedded").Build()

	t.Run("old toolchain reported first", func(t *testing.T) {
		f := newFixture("go version go1.24.9 linux/amd64")
		enc := &readyEncoder{err: missing}
		f.p.Encoder = enc
		_, err := f.p.Build(context.Background(), BuildRequest{Output: filepath.Join(t.TempDir(), "x.wasm")})
		if errors.KindOf(err) != errors.KindVersion {
			t.Fatalf("err = %v", err)
		}
		if enc.ready != 0 {
			t.Error("adapter checked before the gate")
		}
	})

	t.Run("missing adapter stops before compiling", func(t *testing.T) {
		f := newFixture("go version go1.25.4 linux/amd64")
		enc := &readyEncoder{err: missing}
		f.p.Encoder = enc
		_, err := f.p.Build(context.Background(), BuildRequest{Output: filepath.Join(t.TempDir(), "x.wasm")})
		if errors.KindOf(err) != errors.KindIO || enc.ready != 1 {
			t.Fatalf("err = %v, ready = %d", err, enc.ready)
		}
		if diff := cmp.Diff([]string{"version"}, f.gotool.subcommands()); diff != "" {
			t.Errorf("go commands (-want +got):\n%s", diff)
		}
		for _, e := range f.events {
			if e.Stage == StageResolve || e.Stage == StageCompile {
				t.Errorf("unexpected stage %v", e.Stage)
			}
		}
	})

	t.Run("test without packages", func(t *testing.T) {
		f := newFixture("go version go1.25.4 linux/amd64")
		enc := &readyEncoder{err: missing}
		f.p.Encoder = enc
		_, err := f.p.Test(context.Background(), TestRequest{OutputDir: t.TempDir()})
		if errors.KindOf(err) != errors.KindArgument || enc.ready != 0 {
			t.Fatalf("err = %v, ready = %d", err, enc.ready)
		}
	})

	t.Run("wasip1 never loads it", func(t *testing.T) {
		f := newFixture("go version go1.25.4 linux/amd64")
		enc := &readyEncoder{err: missing}
		f.p.Encoder = enc
		f.p.Componentize = false
		if _, err := f.p.Build(context.Background(), BuildRequest{Output: filepath.Join(t.TempDir(), "x.wasm")}); err != nil {
			t.Fatalf("Build: %v", err)
		}
		if enc.ready != 0 {
			t.Error("wasip1 build loaded the adapter")
		}
	})

	t.Run("ready adapter", func(t *testing.T) {
		f := newFixture("go version go1.25.4 linux/amd64")
		enc := &readyEncoder{}
		f.p.Encoder = enc
		bin, err := f.p.Build(context.Background(), BuildRequest{Output: filepath.Join(t.TempDir(), "x.wasm")})
		if err != nil || bin.State != StateEncoded || enc.ready != 1 {
			t.Fatalf("bin = %+v, err = %v, ready = %d", bin, err, enc.ready)
		}
	})
}

func TestBuildTextOutput(t *testing.T) {
	f := newFixture("go version go1.25.4 linux/amd64")
	f.gotool.output = []byte("(module)")
	out := filepath.Join(t.TempDir(), "main.wasm")

	_, err := f.p.Build(context.Background(), BuildRequest{Output: out})
	if errors.KindOf(err) != errors.KindParse || !errorsIs(err, wasm.ErrNoAssembler) {
		t.Fatalf("without an assembler: err = %v", err)
	}

	asm := &fakeAssembler{}
	f.p.Assembler = asm
	bin, err := f.p.Build(context.Background(), BuildRequest{Output: out})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if asm.calls != 1 || bin.State != StateEncoded {
		t.Errorf("calls = %d, state = %v", asm.calls, bin.State)
	}
	seen := f.encoder.seen[len(f.encoder.seen)-1]
	if !wasm.IsCoreModule(seen) {
		t.Error("encoder did not receive the assembled module")
	}

	f.p.Componentize = false
	if _, err := f.p.Build(context.Background(), BuildRequest{Output: out}); err != nil {
		t.Fatalf("wasip1 Build: %v", err)
	}
	onDisk, _ := os.ReadFile(out)
	if !bytes.Equal(onDisk, coreModule) {
		t.Errorf("assembled module was not persisted: %x", onDisk)
	}
}

func TestBuildStageFailureKeepsLastState(t *testing.T) {
	f := newFixture("go version go1.25.0 linux/amd64")
	f.encoder.err = errors.Validation("adapter mismatch")
	out := filepath.Join(t.TempDir(), "main.wasm")

	_, err := f.p.Build(context.Background(), BuildRequest{Output: out})
	var e *errors.Error
	if !asError(err, &e) || e.Kind != errors.KindValidation || e.Path != out {
		t.Fatalf("err = %v", err)
	}
	onDisk, _ := os.ReadFile(out)
	sections, err := wasm.CustomSections(onDisk)
	if err != nil || len(sections) != 1 {
		t.Errorf("embedded module should remain on disk: %v, %v", sections, err)
	}
}

func TestTestNoPackages(t *testing.T) {
	f := newFixture("go version go1.25.0 linux/amd64")
	_, err := f.p.Test(context.Background(), TestRequest{OutputDir: t.TempDir()})
	if errors.KindOf(err) != errors.KindArgument {
		t.Fatalf("err = %v", err)
	}
	if len(f.gotool.calls) != 0 {
		t.Errorf("commands ran: %v", f.gotool.subcommands())
	}
}

func TestTestCollidingNames(t *testing.T) {
	f := newFixture("go version go1.25.0 linux/amd64")
	_, err := f.p.Test(context.Background(), TestRequest{
		OutputDir: t.TempDir(),
		Packages:  []string{"./x/a/b", "./y/a/b"},
	})
	if errors.KindOf(err) != errors.KindArgument || !strings.Contains(err.Error(), "a_b_test.wasm") {
		t.Fatalf("err = %v", err)
	}
}

func TestTestPackages(t *testing.T) {
	pkgs := []string{"./internal/http/router", "./broken", "./unit_tests_should_pass"}

	tests := []struct {
		name      string
		keepGoing bool
		wantBuilt []string
		wantErrs  int
	}{
		{"stop at first failure", false, []string{"http_router_test.wasm"}, 1},
		{"keep going", true, []string{"http_router_test.wasm", "unit~_tests~_should~_pass_test.wasm"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			SetLogger(zap.New(core))
			defer SetLogger(zap.NewNop())

			f := newFixture("go version go1.25.1 linux/amd64")
			f.gotool.fail["./broken"] = true
			dir := t.TempDir()

			bins, err := f.p.Test(context.Background(), TestRequest{
				OutputDir: dir,
				Packages:  pkgs,
				KeepGoing: tt.keepGoing,
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if n := len(multierr.Errors(err)); n != tt.wantErrs {
				t.Errorf("errors = %d, want %d", n, tt.wantErrs)
			}
			if errors.KindOf(err) != errors.KindProcess || !strings.Contains(err.Error(), "undefined: x") {
				t.Errorf("err = %v", err)
			}

			var built []string
			for _, b := range bins {
				if b.State != StateEncoded {
					t.Errorf("%s state = %v", b.Path, b.State)
				}
				built = append(built, filepath.Base(b.Path))
			}
			if diff := cmp.Diff(tt.wantBuilt, built); diff != "" {
				t.Errorf("built (-want +got):\n%s", diff)
			}
			if got := logs.FilterMessage("test build failed").Len(); got != 1 {
				t.Errorf("failure logs = %d", got)
			}
			if f.gotool.calls[0].Args[0] != "version" {
				t.Error("gate must run first")
			}
		})
	}
}

func TestGeneratorGenerate(t *testing.T) {
	var got process.Command
	var stagedFiles []string
	runner := process.RunnerFunc(func(_ context.Context, cmd process.Command) (*process.Result, error) {
		got = cmd
		entries, _ := os.ReadDir(cmd.Args[len(cmd.Args)-1])
		for _, e := range entries {
			stagedFiles = append(stagedFiles, e.Name())
		}
		return &process.Result{}, nil
	})

	out := t.TempDir()
	g := &Generator{Runner: runner}
	world, err := g.Generate(context.Background(), resolve.Options{Loader: jsonLoader{"wit": appJSON}}, out)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if world.String() != "test:app/app" {
		t.Errorf("world = %s", world)
	}
	if got.Name != "wit-bindgen-go" || got.Phase != errors.PhaseBindings {
		t.Errorf("cmd = %+v", got)
	}
	wantPrefix := []string{"generate", "--world", "test:app/app", "--out", out}
	if diff := cmp.Diff(wantPrefix, got.Args[:len(wantPrefix)]); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
	if !slices.Contains(stagedFiles, "test-app.wit") {
		t.Errorf("staged files = %v", stagedFiles)
	}
}

func TestGeneratorFailure(t *testing.T) {
	runner := process.RunnerFunc(func(_ context.Context, cmd process.Command) (*process.Result, error) {
		res := &process.Result{ExitCode: 2, Stderr: []byte("unknown flag")}
		return res, process.Failed(cmd, res)
	})
	g := &Generator{Runner: runner, Command: []string{"my-gen"}}
	_, err := g.Generate(context.Background(), resolve.Options{Loader: jsonLoader{"wit": appJSON}}, t.TempDir())
	if errors.KindOf(err) != errors.KindProcess {
		t.Fatalf("err = %v", err)
	}
}

func asError(err error, target **errors.Error) bool {
	e, ok := err.(*errors.Error)
	if ok {
		*target = e
	}
	return ok
}

func errorsIs(err, target error) bool {
	for err != nil {
		if err == target {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
