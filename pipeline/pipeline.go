package pipeline

import (
	"context"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/componentize-go/artifact"
	"github.com/wippyai/componentize-go/errors"
	"github.com/wippyai/componentize-go/resolve"
	"github.com/wippyai/componentize-go/toolchain"
	"github.com/wippyai/componentize-go/wasm"
)

// State is how far a binary has progressed.
type State int

const (
	StateParsed State = iota
	StateEmbedded
	StateEncoded
)

func (s State) String() string {
	switch s {
	case StateParsed:
		return "parsed"
	case StateEmbedded:
		return "embedded"
	case StateEncoded:
		return "encoded"
	}
	return "unknown"
}

// Binary is a compiled artifact owned by one pipeline run. Bytes always
// match what was last persisted to Path.
type Binary struct {
	Path    string
	Package string
	Bytes   []byte
	State   State
}

// MetadataEmbedder appends world metadata to a core module.
type MetadataEmbedder interface {
	Embed(ctx context.Context, module []byte, g *resolve.Graph, world resolve.WorldID) ([]byte, error)
}

// ComponentEncoder converts an embedded core module into a component.
type ComponentEncoder interface {
	Encode(ctx context.Context, module []byte) ([]byte, error)
}

// Preparer is implemented by stages that can check their inputs up front.
// Ready runs once per run, after the gate and before resolution.
type Preparer interface {
	Ready() error
}

// Pipeline builds Go programs and tests into components. Runs are
// sequential: one binary at a time, each stage persisted before the next.
type Pipeline struct {
	Go *toolchain.Go
	// Assembler converts text format compiler output; nil accepts binary
	// output only.
	Assembler wasm.Assembler
	Embedder  MetadataEmbedder
	Encoder   ComponentEncoder
	// Progress, when set, receives an Event at every stage boundary.
	Progress func(Event)
	Store    artifact.Store
	Resolve  resolve.Options
	// Componentize converts compiled binaries into components. When false
	// the raw wasip1 binary is left in place.
	Componentize bool
}

// BuildRequest selects the module to build.
type BuildRequest struct {
	ModDir string
	Output string
}

// TestRequest selects the test packages to build.
type TestRequest struct {
	ModDir    string
	OutputDir string
	Packages  []string
	// KeepGoing builds every package and reports all failures instead of
	// stopping at the first.
	KeepGoing bool
}

// Build gates the toolchain, compiles the module and componentizes the
// result in place.
func (p *Pipeline) Build(ctx context.Context, req BuildRequest) (*Binary, error) {
	if err := p.gate(ctx); err != nil {
		return nil, err
	}
	if err := p.ready(); err != nil {
		return nil, err
	}
	tgt, err := p.target(ctx)
	if err != nil {
		return nil, err
	}

	p.emit(Event{Stage: StageCompile, Path: req.Output})
	path, err := p.Go.Build(ctx, toolchain.BuildOptions{ModDir: req.ModDir, Output: req.Output})
	if err != nil {
		p.emit(Event{Stage: StageFailed, Path: req.Output, Err: err})
		return nil, err
	}
	bin, err := p.run(ctx, path, "", tgt)
	if err != nil {
		p.emit(Event{Stage: StageFailed, Path: path, Err: err})
		return nil, err
	}
	p.emit(Event{Stage: StageDone, Path: path, State: bin.State})
	return bin, nil
}

// Test gates the toolchain and builds one test binary per package into
// req.OutputDir, named by artifact.TestFilename.
func (p *Pipeline) Test(ctx context.Context, req TestRequest) ([]*Binary, error) {
	if len(req.Packages) == 0 {
		return nil, errors.Argument(errors.PhaseTest, "no test package given; pass at least one --pkg")
	}
	names := make(map[string]string, len(req.Packages))
	for _, pkg := range req.Packages {
		name := artifact.TestFilename(pkg)
		if prev, ok := names[name]; ok {
			return nil, errors.Argument(errors.PhaseTest, "test packages %s and %s both map to %s", prev, pkg, name)
		}
		names[name] = pkg
	}

	if err := p.gate(ctx); err != nil {
		return nil, err
	}
	if err := p.ready(); err != nil {
		return nil, err
	}
	tgt, err := p.target(ctx)
	if err != nil {
		return nil, err
	}

	var (
		bins []*Binary
		errs error
	)
	for _, pkg := range req.Packages {
		if err := ctx.Err(); err != nil {
			return bins, multierr.Append(errs, err)
		}
		bin, err := p.test(ctx, req, pkg, tgt)
		if err != nil {
			Logger().Error("test build failed", zap.String("package", pkg), zap.Error(err))
			p.emit(Event{Stage: StageFailed, Package: pkg, Err: err})
			if !req.KeepGoing {
				return bins, err
			}
			errs = multierr.Append(errs, err)
			continue
		}
		p.emit(Event{Stage: StageDone, Package: pkg, Path: bin.Path, State: bin.State})
		bins = append(bins, bin)
	}
	return bins, errs
}

func (p *Pipeline) test(ctx context.Context, req TestRequest, pkg string, t *target) (*Binary, error) {
	out := filepath.Join(req.OutputDir, artifact.TestFilename(pkg))
	p.emit(Event{Stage: StageCompile, Package: pkg, Path: out})
	path, err := p.Go.BuildTest(ctx, toolchain.TestOptions{ModDir: req.ModDir, Package: pkg, Output: out})
	if err != nil {
		return nil, err
	}
	return p.run(ctx, path, pkg, t)
}

// target is the resolved world shared by every binary of a run.
type target struct {
	graph *resolve.Graph
	world resolve.WorldID
}

func (p *Pipeline) gate(ctx context.Context) error {
	p.emit(Event{Stage: StageGate})
	v, err := toolchain.Gate(ctx, p.Go.Runner, p.Go.Path)
	if err != nil {
		p.emit(Event{Stage: StageFailed, Err: err})
		return err
	}
	Logger().Debug("toolchain accepted", zap.String("go", p.Go.Path), zap.Stringer("version", v))
	return nil
}

// target resolves the WIT once per run; nothing is resolved for wasip1 output.
func (p *Pipeline) target(ctx context.Context) (*target, error) {
	if !p.Componentize {
		return nil, nil
	}
	p.emit(Event{Stage: StageResolve})
	g, world, err := resolve.Resolve(ctx, p.Resolve)
	if err != nil {
		p.emit(Event{Stage: StageFailed, Err: err})
		return nil, err
	}
	Logger().Debug("resolved world", zap.Stringer("world", world), zap.Int("packages", len(g.Packages())))
	return &target{graph: g, world: world}, nil
}

// ready checks the componentize stages; wasip1 runs skip it.
func (p *Pipeline) ready() error {
	if !p.Componentize {
		return nil
	}
	for _, stage := range []any{p.Embedder, p.Encoder} {
		pr, ok := stage.(Preparer)
		if !ok {
			continue
		}
		if err := pr.Ready(); err != nil {
			p.emit(Event{Stage: StageFailed, Err: err})
			return err
		}
	}
	return nil
}

// run loads a compiled binary and drives it through embed and encode,
// persisting after each stage.
func (p *Pipeline) run(ctx context.Context, path, pkg string, t *target) (*Binary, error) {
	store := p.store()
	raw, err := store.ReadFile(errors.PhaseBuild, path)
	if err != nil {
		return nil, err
	}
	data, err := wasm.Parse(ctx, p.Assembler, raw)
	if err != nil {
		return nil, errors.WithPath(errors.PhaseBuild, errors.KindParse, path, err)
	}
	if !wasm.IsCoreModule(data) {
		return nil, errors.New(errors.PhaseBuild, errors.KindParse).
			Path(path).
			Detail("compiler output is not a core WebAssembly module").
			Build()
	}
	bin := &Binary{Path: path, Package: pkg, Bytes: data, State: StateParsed}
	if !wasm.IsBinary(raw) {
		if err := p.persist(bin, errors.PhaseBuild, data, StateParsed); err != nil {
			return nil, err
		}
	}
	if t == nil {
		Logger().Info("built wasip1 module", zap.String("path", path))
		return bin, nil
	}

	p.emit(Event{Stage: StageEmbed, Package: pkg, Path: path})
	embedded, err := p.Embedder.Embed(ctx, bin.Bytes, t.graph, t.world)
	if err != nil {
		return nil, errors.WithPath(errors.PhaseEmbed, errors.KindParse, path, err)
	}
	if err := p.persist(bin, errors.PhaseEmbed, embedded, StateEmbedded); err != nil {
		return nil, err
	}

	p.emit(Event{Stage: StageEncode, Package: pkg, Path: path})
	encoded, err := p.Encoder.Encode(ctx, bin.Bytes)
	if err != nil {
		return nil, errors.WithPath(errors.PhaseEncode, errors.KindValidation, path, err)
	}
	if err := p.persist(bin, errors.PhaseEncode, encoded, StateEncoded); err != nil {
		return nil, err
	}

	Logger().Info("built component",
		zap.String("path", path),
		zap.Stringer("world", t.world),
		zap.Int("size", len(bin.Bytes)))
	return bin, nil
}

func (p *Pipeline) persist(bin *Binary, phase errors.Phase, data []byte, next State) error {
	if err := p.store().WriteFile(phase, bin.Path, data); err != nil {
		return err
	}
	bin.Bytes = data
	bin.State = next
	return nil
}

func (p *Pipeline) store() artifact.Store {
	if p.Store.Fs == nil {
		return artifact.OS
	}
	return p.Store
}

func (p *Pipeline) emit(e Event) {
	if p.Progress != nil {
		p.Progress(e)
	}
}
