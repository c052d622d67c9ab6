package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/componentize-go/errors"
	"github.com/wippyai/componentize-go/process"
	"github.com/wippyai/componentize-go/resolve"
)

// DefaultGenerator is the binding generator command. The world, the output
// directory and the staged WIT directory are appended to it.
var DefaultGenerator = []string{"wit-bindgen-go", "generate"}

// DefaultBindingsDir receives generated bindings when no output is given.
const DefaultBindingsDir = "internal"

// Generator drives an external binding generator over the resolved world.
type Generator struct {
	Runner  process.Runner
	Command []string
}

// Generate resolves opts, stages the graph as a single WIT directory and
// runs the generator against it. It returns the world bindings were
// generated for.
func (g *Generator) Generate(ctx context.Context, opts resolve.Options, out string) (resolve.WorldID, error) {
	graph, world, err := resolve.Resolve(ctx, opts)
	if err != nil {
		return resolve.WorldID{}, err
	}

	if out == "" {
		out = DefaultBindingsDir
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return world, errors.IO(errors.PhaseBindings, out, err)
	}

	dir, err := os.MkdirTemp("", "componentize-go-bindings-*")
	if err != nil {
		return world, errors.IO(errors.PhaseBindings, os.TempDir(), err)
	}
	defer os.RemoveAll(dir)
	if err := resolve.Stage(dir, graph, world); err != nil {
		return world, err
	}

	command := g.Command
	if len(command) == 0 {
		command = DefaultGenerator
	}
	args := slices.Clone(command[1:])
	args = append(args, "--world", world.String(), "--out", abs, dir)

	Logger().Debug("generating bindings", zap.Stringer("world", world), zap.String("out", abs))
	_, err = g.Runner.Run(ctx, process.Command{
		Name:  command[0],
		Args:  args,
		Phase: errors.PhaseBindings,
	})
	if err != nil {
		return world, errors.WithPath(errors.PhaseBindings, errors.KindProcess, abs, err)
	}
	return world, nil
}
