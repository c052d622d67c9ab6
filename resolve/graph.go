package resolve

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/componentize-go/errors"
	"github.com/wippyai/componentize-go/wasmtools"
)

// PackageID is a package's full identifier, "ns:name" or "ns:name@version".
type PackageID string

// Version returns the version suffix of the identifier, or "".
func (id PackageID) Version() string {
	_, v, _ := strings.Cut(string(id), "@")
	return v
}

// Base returns the identifier without its version.
func (id PackageID) Base() string {
	b, _, _ := strings.Cut(string(id), "@")
	return b
}

// WorldID identifies a world within a merged graph.
type WorldID struct {
	Package PackageID
	Name    string
}

// String renders the fully qualified form, "ns:name/world@version".
func (w WorldID) String() string {
	if w.Package == "" {
		return w.Name
	}
	s := w.Package.Base() + "/" + w.Name
	if v := w.Package.Version(); v != "" {
		s += "@" + v
	}
	return s
}

// ParseWorldID parses "ns:name/world" or "ns:name/world@version".
func ParseWorldID(s string) (WorldID, bool) {
	pkg, rest, ok := strings.Cut(s, "/")
	if !ok || !strings.Contains(pkg, ":") || rest == "" {
		return WorldID{}, false
	}
	name, version, _ := strings.Cut(rest, "@")
	if name == "" {
		return WorldID{}, false
	}
	id := PackageID(pkg)
	if version != "" {
		id = PackageID(pkg + "@" + version)
	}
	return WorldID{Package: id, Name: name}, true
}

// Package is one package merged into a Graph.
type Package struct {
	Pkg    *wit.Package
	ID     PackageID
	Source string // first source that defined it
	WIT    string // canonical rendering, used for equality and staging
}

// Graph accumulates the packages of every WIT source, in push order.
// Packages are keyed by full identifier: an identical re-definition is
// ignored, a differing one is a resolution error.
type Graph struct {
	byID     map[PackageID]*Package
	Features Features
	// Fs holds the sources and staging directories; nil is the OS
	// filesystem. Loaders that shell out only see the OS filesystem.
	Fs          afero.Fs
	packages    []*Package
	AllFeatures bool
}

// NewGraph returns an empty graph resolving with the given features.
func NewGraph(features Features, all bool) *Graph {
	if features == nil {
		features = Features{}
	}
	return &Graph{
		byID:        make(map[PackageID]*Package),
		Features:    features,
		AllFeatures: all,
	}
}

// FeatureFlags returns the feature selection in the form wasm-tools takes.
func (g *Graph) FeatureFlags() wasmtools.FeatureFlags {
	return wasmtools.FeatureFlags{Names: g.Features.Sorted(), All: g.AllFeatures}
}

func (g *Graph) fs() afero.Fs {
	if g.Fs == nil {
		return osFs
	}
	return g.Fs
}

var osFs = afero.NewOsFs()

// Packages returns the merged packages in the order they were first seen.
func (g *Graph) Packages() []*Package {
	return g.packages
}

// Package looks up a merged package.
func (g *Graph) Package(id PackageID) (*Package, bool) {
	p, ok := g.byID[id]
	return p, ok
}

// World looks up a world by identifier.
func (g *Graph) World(id WorldID) (*wit.World, bool) {
	p, ok := g.byID[id.Package]
	if !ok {
		return nil, false
	}
	for name, w := range p.Pkg.Worlds.All() {
		if name == id.Name {
			return w, true
		}
	}
	return nil, false
}

// Push loads the source at path and merges its packages, returning the
// identifier of the main package it introduced.
//
// A text source that fails to load on its own is retried once with every
// package already in the graph staged as a dependency, which lets later
// sources reference packages defined by earlier ones.
func (g *Graph) Push(ctx context.Context, loader Loader, path string) (PackageID, error) {
	res, err := loader.Load(ctx, path, g.FeatureFlags())
	if err != nil && len(g.packages) > 0 && g.isText(path) {
		staged, cleanup, serr := g.stageSource(path)
		if serr != nil {
			return "", serr
		}
		defer cleanup()
		if sres, serr := loader.Load(ctx, staged, g.FeatureFlags()); serr == nil {
			res, err = sres, nil
		}
	}
	if err != nil {
		return "", errors.WithPath(errors.PhaseResolve, errors.KindParse, path, err)
	}
	if res == nil || len(res.Packages) == 0 {
		return "", errors.New(errors.PhaseResolve, errors.KindParse).
			Path(path).
			Detail("no WIT packages found").
			Build()
	}
	for _, p := range res.Packages {
		if err := g.merge(p, path); err != nil {
			return "", err
		}
	}
	return packageID(res.Packages[len(res.Packages)-1]), nil
}

func (g *Graph) merge(p *wit.Package, source string) error {
	id := packageID(p)
	rendered := p.WIT(nil, "")
	if existing, ok := g.byID[id]; ok {
		if existing.WIT == rendered {
			return nil
		}
		return errors.Resolution("package %s from %s conflicts with its definition from %s", id, source, existing.Source)
	}
	entry := &Package{Pkg: p, ID: id, Source: source, WIT: rendered}
	g.byID[id] = entry
	g.packages = append(g.packages, entry)
	return nil
}

// SelectWorld picks a world among the main packages.
//
// A name containing ':' is looked up fully qualified anywhere in the graph.
// A plain name must match exactly one world of the main packages. No name
// requires the main packages to define exactly one world between them.
func (g *Graph) SelectWorld(main []PackageID, name string) (WorldID, error) {
	if strings.Contains(name, ":") {
		id, ok := ParseWorldID(name)
		if !ok {
			return WorldID{}, errors.Resolution("invalid world identifier %q", name)
		}
		if _, ok := g.World(id); !ok {
			return WorldID{}, errors.Resolution("world %s not found", id)
		}
		return id, nil
	}

	var candidates []WorldID
	seen := make(map[PackageID]bool)
	for _, pid := range main {
		if seen[pid] {
			continue
		}
		seen[pid] = true
		p, ok := g.byID[pid]
		if !ok {
			continue
		}
		for wname := range p.Pkg.Worlds.All() {
			candidates = append(candidates, WorldID{Package: pid, Name: wname})
		}
	}

	if name == "" {
		switch len(candidates) {
		case 1:
			return candidates[0], nil
		case 0:
			return WorldID{}, errors.Resolution("no worlds defined in %s", joinIDs(main))
		default:
			return WorldID{}, errors.Resolution("multiple worlds found, select one with --world: %s", joinWorlds(candidates))
		}
	}

	var matches []WorldID
	for _, c := range candidates {
		if c.Name == name {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return WorldID{}, errors.Resolution("world %q not found; candidates: %s", name, joinWorlds(candidates))
	default:
		return WorldID{}, errors.Resolution("world %q is ambiguous: %s", name, joinWorlds(matches))
	}
}

// stageSource copies a text source into a temp dir next to renderings of
// every merged package under deps/.
func (g *Graph) stageSource(path string) (string, func(), error) {
	fsys := g.fs()
	dir, err := afero.TempDir(fsys, "", "componentize-go-wit-")
	if err != nil {
		return "", nil, errors.IO(errors.PhaseResolve, os.TempDir(), err)
	}
	cleanup := func() { _ = fsys.RemoveAll(dir) }

	if err := copySource(fsys, path, dir); err != nil {
		cleanup()
		return "", nil, errors.IO(errors.PhaseResolve, path, err)
	}
	deps := filepath.Join(dir, "deps")
	if err := fsys.MkdirAll(deps, 0o755); err != nil {
		cleanup()
		return "", nil, errors.IO(errors.PhaseResolve, deps, err)
	}
	for _, p := range g.packages {
		dst := filepath.Join(deps, fileName(p.ID))
		if ok, _ := afero.Exists(fsys, dst); ok {
			continue
		}
		if err := afero.WriteFile(fsys, dst, []byte(p.WIT), 0o644); err != nil {
			cleanup()
			return "", nil, errors.IO(errors.PhaseResolve, dst, err)
		}
	}
	return dir, cleanup, nil
}

// copySource copies a .wit file, or a directory's top-level .wit files and
// its deps/ tree, into dir.
func copySource(fsys afero.Fs, path, dir string) error {
	info, err := fsys.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(fsys, path, filepath.Join(dir, filepath.Base(path)))
	}
	entries, err := afero.ReadDir(fsys, path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".wit" {
			continue
		}
		if err := copyFile(fsys, filepath.Join(path, e.Name()), filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	src := filepath.Join(path, "deps")
	if ok, _ := afero.DirExists(fsys, src); !ok {
		return nil
	}
	return afero.Walk(fsys, src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		dst := filepath.Join(dir, rel)
		if info.IsDir() {
			return fsys.MkdirAll(dst, 0o755)
		}
		return copyFile(fsys, p, dst)
	})
}

func copyFile(fsys afero.Fs, src, dst string) error {
	b, err := afero.ReadFile(fsys, src)
	if err != nil {
		return err
	}
	return afero.WriteFile(fsys, dst, b, 0o644)
}

func (g *Graph) isText(path string) bool {
	info, err := g.fs().Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir() || filepath.Ext(path) == ".wit"
}

func packageID(p *wit.Package) PackageID {
	return PackageID(p.Name.String())
}

// fileName maps an identifier to a file name valid on every platform.
func fileName(id PackageID) string {
	r := strings.NewReplacer(":", "-", "/", "-", "@", "-")
	return r.Replace(string(id)) + ".wit"
}

func joinIDs(ids []PackageID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = string(id)
	}
	return strings.Join(s, ", ")
}

func joinWorlds(ws []WorldID) string {
	s := make([]string, len(ws))
	for i, w := range ws {
		s[i] = w.String()
	}
	return strings.Join(s, ", ")
}
