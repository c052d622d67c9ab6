package toolchain

import (
	"context"
	"path/filepath"

	"github.com/wippyai/componentize-go/errors"
	"github.com/wippyai/componentize-go/process"
)

const (
	// DefaultGo is looked up in PATH when no compiler path is given.
	DefaultGo = "go"
	// DefaultOutput is the core module path for builds without -o.
	DefaultOutput = "main.wasm"
)

// targetEnv selects the WASI preview 1 port of the Go toolchain.
var targetEnv = []string{"GOOS=wasip1", "GOARCH=wasm"}

// Go invokes the Go toolchain to produce core wasm modules.
type Go struct {
	Path   string
	Runner process.Runner
}

// NewGo returns a Go collaborator; an empty path means DefaultGo.
func NewGo(path string, r process.Runner) *Go {
	if path == "" {
		path = DefaultGo
	}
	return &Go{Path: path, Runner: r}
}

// BuildOptions configures a `go build` of the main package.
type BuildOptions struct {
	// ModDir is the directory holding go.mod; empty means the working directory.
	ModDir string
	// Output is the core module path; empty means DefaultOutput.
	Output string
}

// Build compiles the module in opts.ModDir as a reactor core module and
// returns the absolute output path.
func (g *Go) Build(ctx context.Context, opts BuildOptions) (string, error) {
	out, err := absOutput(opts.Output, DefaultOutput)
	if err != nil {
		return "", err
	}
	_, err = g.Runner.Run(ctx, process.Command{
		Name:  g.Path,
		Args:  []string{"build", "-buildmode=c-shared", "-ldflags=-checklinkname=0", "-o", out},
		Dir:   opts.ModDir,
		Env:   targetEnv,
		Phase: errors.PhaseBuild,
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// TestOptions configures a `go test -c` of one package.
type TestOptions struct {
	ModDir  string
	Package string
	Output  string
}

// BuildTest compiles the tests of opts.Package into opts.Output.
func (g *Go) BuildTest(ctx context.Context, opts TestOptions) (string, error) {
	if opts.Package == "" {
		return "", errors.Argument(errors.PhaseTest, "no test package given")
	}
	if opts.Output == "" {
		return "", errors.Argument(errors.PhaseTest, "no output path for package %s", opts.Package)
	}
	out, err := absOutput(opts.Output, "")
	if err != nil {
		return "", err
	}
	_, err = g.Runner.Run(ctx, process.Command{
		Name:  g.Path,
		Args:  []string{"test", "-c", "-ldflags=-checklinkname=0", "-o", out, opts.Package},
		Dir:   opts.ModDir,
		Env:   targetEnv,
		Phase: errors.PhaseTest,
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// absOutput resolves the output path against the working directory, since
// the compiler runs in the module directory.
func absOutput(p, def string) (string, error) {
	if p == "" {
		p = def
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.IO(errors.PhaseBuild, p, err)
	}
	return abs, nil
}
