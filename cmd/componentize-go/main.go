// Command componentize-go builds Go programs and tests into WebAssembly
// components.
//
// Usage:
//
//	componentize-go [-d wit]... [-w world] build [-o main.wasm] [--mod dir] [--go path] [--wasip1]
//	componentize-go [-d wit]... [-w world] test --pkg ./pkg... [-o dir] [--keep-going]
//	componentize-go [-d wit]... [-w world] bindings [-o internal]
//	componentize-go [-d wit]... [-w world] wit
//	componentize-go inspect file.wasm
//	componentize-go [-d wit]... [-w world] embed file.wasm|file.wat
//	componentize-go encode file.wasm|file.wat
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"
	"go.uber.org/zap"

	"github.com/wippyai/componentize-go/adapter"
	"github.com/wippyai/componentize-go/component"
	"github.com/wippyai/componentize-go/config"
	"github.com/wippyai/componentize-go/errors"
	"github.com/wippyai/componentize-go/metadata"
	"github.com/wippyai/componentize-go/pipeline"
	"github.com/wippyai/componentize-go/process"
	"github.com/wippyai/componentize-go/resolve"
	"github.com/wippyai/componentize-go/toolchain"
	"github.com/wippyai/componentize-go/wasmtools"
)

// loadAdapter supplies the reactor adapter to component builds.
var loadAdapter = adapter.WASIPreview1Reactor

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// globals holds the persistent flags.
type globals struct {
	configPath  string
	world       string
	logLevel    string
	wasmTools   string
	witPaths    []string
	features    []string
	logFormat   LogFormat
	allFeatures bool
	noValidate  bool
}

// app is the state shared by subcommands once flags and config are merged.
type app struct {
	cfg    config.Config
	runner process.Runner
	tool   *wasmtools.Tool
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
	format LogFormat
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{}
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "componentize-go",
		Short:         "Build Go WebAssembly components",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, g)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.PersistentFlags()
	f.StringArrayVarP(&g.witPaths, "wit-path", "d", nil, "WIT document location; may be repeated (default \"wit\")")
	f.StringVarP(&g.world, "world", "w", "", "world to target (default: the only world of the WIT packages)")
	f.StringArrayVar(&g.features, "features", nil, "comma-separated WIT features to enable; may be repeated")
	f.BoolVar(&g.allFeatures, "all-features", false, "enable every @unstable WIT feature")
	f.StringVar(&g.configPath, "config", config.DefaultFile, "configuration file")
	f.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.Var(enumflag.New(&g.logFormat, "format", logFormatIDs, enumflag.EnumCaseInsensitive), "log-format", "log format: console or json")
	f.StringVar(&g.wasmTools, "wasm-tools", "", "path to wasm-tools (default $"+config.EnvWasmTools+" or PATH)")
	f.BoolVar(&g.noValidate, "no-validate", false, "skip module validation before encoding")

	root.AddCommand(
		newBuildCmd(a),
		newTestCmd(a),
		newBindingsCmd(a),
		newWitCmd(a),
		newInspectCmd(a),
		newEmbedCmd(a),
		newEncodeCmd(a),
	)
	return root
}

// setup loads the configuration file, applies flag overrides and installs
// the logger.
func (a *app) setup(cmd *cobra.Command, g *globals) error {
	flags := cmd.Flags()
	cfg, err := config.Load(g.configPath, flags.Changed("config"))
	if err != nil {
		return err
	}

	var o config.Overrides
	if flags.Changed("wit-path") {
		o.WitPaths = g.witPaths
	}
	if flags.Changed("features") {
		o.Features = g.features
	}
	if flags.Changed("world") {
		o.World = &g.world
	}
	if flags.Changed("all-features") {
		o.AllFeatures = &g.allFeatures
	}
	if flags.Changed("log-level") {
		o.LogLevel = &g.logLevel
	}
	if flags.Changed("wasm-tools") {
		o.WasmTools = &g.wasmTools
	}
	if flags.Changed("no-validate") {
		v := !g.noValidate
		o.Validate = &v
	}
	if flags.Lookup("go") != nil && flags.Changed("go") {
		v, _ := flags.GetString("go")
		o.Go = &v
	}
	a.cfg = cfg.With(o)

	level, err := a.cfg.Level()
	if err != nil {
		return errors.Argument(errors.PhaseConfig, "invalid log level %q", a.cfg.LogLevel)
	}
	a.format = g.logFormat
	a.logger = newLogger(g.logFormat, level, a.stderr)
	installLogger(a.logger)

	a.runner = process.NewExecRunner()
	a.tool = wasmtools.New(a.cfg.WasmToolsPath(os.LookupEnv), a.runner)
	return nil
}

func (a *app) resolveOptions() resolve.Options {
	return resolve.Options{
		Sources:     a.cfg.WitPaths,
		World:       a.cfg.World,
		Features:    a.cfg.Features,
		AllFeatures: a.cfg.AllFeatures,
		Loader:      resolve.ToolLoader{Tool: a.tool},
	}
}

func (a *app) pipeline(componentize bool) *pipeline.Pipeline {
	p := &pipeline.Pipeline{
		Go:           toolchain.NewGo(a.cfg.Go, a.runner),
		Assembler:    a.tool,
		Resolve:      a.resolveOptions(),
		Componentize: componentize,
	}
	if !componentize {
		return p
	}

	p.Embedder = a.embedder()
	p.Encoder = a.encoder()
	return p
}

func (a *app) embedder() *metadata.Embedder {
	return &metadata.Embedder{Encoder: metadata.ToolEncoder{Tool: a.tool}}
}

func (a *app) encoder() *component.Encoder {
	return &component.Encoder{
		Backend:     component.ToolBackend{Tool: a.tool},
		LoadAdapter: loadAdapter,
		Validate:    a.cfg.ValidateModules(),
	}
}
