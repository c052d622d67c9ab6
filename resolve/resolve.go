package resolve

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/wippyai/componentize-go/errors"
)

// DefaultSource is resolved when no WIT sources are given.
const DefaultSource = "wit"

// Options controls Resolve.
type Options struct {
	Loader Loader
	// Fs is the filesystem staging happens on; nil is the OS filesystem.
	Fs          afero.Fs
	World       string
	Sources     []string
	Features    []string
	AllFeatures bool
}

// Resolve loads every source into one graph and selects the target world
// among the main packages the sources introduced.
func Resolve(ctx context.Context, opts Options) (*Graph, WorldID, error) {
	if len(opts.Sources) == 0 {
		opts.Sources = []string{DefaultSource}
		return Resolve(ctx, opts)
	}
	if opts.Loader == nil {
		return nil, WorldID{}, errors.Argument(errors.PhaseResolve, "no WIT loader configured")
	}

	g := NewGraph(ParseFeatures(opts.Features), opts.AllFeatures)
	g.Fs = opts.Fs
	main := make([]PackageID, 0, len(opts.Sources))
	for _, src := range opts.Sources {
		if err := ctx.Err(); err != nil {
			return nil, WorldID{}, err
		}
		id, err := g.Push(ctx, opts.Loader, src)
		if err != nil {
			return nil, WorldID{}, err
		}
		main = append(main, id)
	}

	world, err := g.SelectWorld(main, opts.World)
	if err != nil {
		return nil, WorldID{}, err
	}
	return g, world, nil
}

// Stage writes the graph as a WIT directory rooted at the package owning
// world, with every other package under deps/. The result can be handed to
// any WIT consumer in place of the original sources. It is written to the
// graph's filesystem.
func Stage(dir string, g *Graph, world WorldID) error {
	root, ok := g.Package(world.Package)
	if !ok {
		return errors.Resolution("package %s is not in the graph", world.Package)
	}
	fsys := g.fs()
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return errors.IO(errors.PhaseResolve, dir, err)
	}
	if err := writeWIT(fsys, filepath.Join(dir, fileName(root.ID)), root.WIT); err != nil {
		return err
	}

	deps := filepath.Join(dir, "deps")
	for _, p := range g.Packages() {
		if p.ID == root.ID {
			continue
		}
		if err := fsys.MkdirAll(deps, 0o755); err != nil {
			return errors.IO(errors.PhaseResolve, deps, err)
		}
		if err := writeWIT(fsys, filepath.Join(deps, fileName(p.ID)), p.WIT); err != nil {
			return err
		}
	}
	return nil
}

func writeWIT(fsys afero.Fs, path, text string) error {
	if err := afero.WriteFile(fsys, path, []byte(text), 0o644); err != nil {
		return errors.IO(errors.PhaseResolve, path, err)
	}
	return nil
}
