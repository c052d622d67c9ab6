package wasmtools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wippyai/componentize-go/errors"
	"github.com/wippyai/componentize-go/process"
)

// DefaultPath is looked up in PATH when no wasm-tools path is configured.
const DefaultPath = "wasm-tools"

// StringEncoding is the canonical ABI string encoding recorded in metadata.
const StringEncoding = "utf8"

// FeatureFlags selects @unstable WIT features.
type FeatureFlags struct {
	Names []string
	All   bool
}

func (f FeatureFlags) args() []string {
	var args []string
	if f.All {
		args = append(args, "--all-features")
	}
	if len(f.Names) > 0 {
		args = append(args, "--features", strings.Join(f.Names, ","))
	}
	return args
}

// Adapter names a core module passed to `component new --adapt`.
type Adapter struct {
	Name  string
	Bytes []byte
}

// Tool runs wasm-tools subcommands. Inputs and outputs are exchanged through
// a private temp directory per call; nothing outside it is written.
type Tool struct {
	Runner process.Runner
	Path   string
}

// New returns a Tool; an empty path means DefaultPath.
func New(path string, r process.Runner) *Tool {
	if path == "" {
		path = DefaultPath
	}
	return &Tool{Path: path, Runner: r}
}

// WitJSON resolves the WIT directory, file or binary package at path and
// returns the resolved graph as JSON.
func (t *Tool) WitJSON(ctx context.Context, path string, f FeatureFlags) ([]byte, error) {
	args := append([]string{"component", "wit", path, "--json"}, f.args()...)
	res, err := t.run(ctx, errors.PhaseResolve, args)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// Assemble converts the text format to a binary module.
func (t *Tool) Assemble(ctx context.Context, text []byte) ([]byte, error) {
	var out []byte
	err := withTemp(func(dir string) error {
		in := filepath.Join(dir, "input.wat")
		if err := os.WriteFile(in, text, 0o644); err != nil {
			return errors.IO(errors.PhaseEmbed, in, err)
		}
		dst := filepath.Join(dir, "output.wasm")
		if _, err := t.run(ctx, errors.PhaseEmbed, []string{"parse", in, "-o", dst}); err != nil {
			return err
		}
		var err error
		out, err = readOutput(errors.PhaseEmbed, dst)
		return err
	})
	return out, err
}

// Embed runs `component embed` of world from the WIT at witPath into module
// and returns the resulting module.
func (t *Tool) Embed(ctx context.Context, witPath, world string, module []byte, f FeatureFlags) ([]byte, error) {
	var out []byte
	err := withTemp(func(dir string) error {
		in := filepath.Join(dir, "module.wasm")
		if err := os.WriteFile(in, module, 0o644); err != nil {
			return errors.IO(errors.PhaseEmbed, in, err)
		}
		dst := filepath.Join(dir, "embedded.wasm")
		args := []string{"component", "embed", witPath, "--world", world, "--encoding", StringEncoding}
		args = append(args, f.args()...)
		args = append(args, in, "-o", dst)
		if _, err := t.run(ctx, errors.PhaseEmbed, args); err != nil {
			return err
		}
		var err error
		out, err = readOutput(errors.PhaseEmbed, dst)
		return err
	})
	return out, err
}

// ComponentNew runs `component new` over module with the given adapters.
func (t *Tool) ComponentNew(ctx context.Context, module []byte, adapters []Adapter, validate bool) ([]byte, error) {
	var out []byte
	err := withTemp(func(dir string) error {
		in := filepath.Join(dir, "module.wasm")
		if err := os.WriteFile(in, module, 0o644); err != nil {
			return errors.IO(errors.PhaseEncode, in, err)
		}
		args := []string{"component", "new", in}
		for _, a := range adapters {
			p := filepath.Join(dir, a.Name+".wasm")
			if err := os.WriteFile(p, a.Bytes, 0o644); err != nil {
				return errors.IO(errors.PhaseEncode, p, err)
			}
			args = append(args, "--adapt", fmt.Sprintf("%s=%s", a.Name, p))
		}
		if !validate {
			args = append(args, "--skip-validation")
		}
		dst := filepath.Join(dir, "component.wasm")
		args = append(args, "-o", dst)
		if _, err := t.run(ctx, errors.PhaseEncode, args); err != nil {
			return err
		}
		var err error
		out, err = readOutput(errors.PhaseEncode, dst)
		return err
	})
	return out, err
}

func (t *Tool) run(ctx context.Context, phase errors.Phase, args []string) (*process.Result, error) {
	return t.Runner.Run(ctx, process.Command{
		Name:  t.Path,
		Args:  args,
		Phase: phase,
	})
}

func withTemp(fn func(dir string) error) error {
	dir, err := os.MkdirTemp("", "componentize-go-*")
	if err != nil {
		return errors.IO(errors.PhaseConfig, os.TempDir(), err)
	}
	defer os.RemoveAll(dir)
	return fn(dir)
}

func readOutput(phase errors.Phase, path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(phase, path, err)
	}
	return b, nil
}
