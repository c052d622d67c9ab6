package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/componentize-go/pipeline"
)

func newTestCmd(a *app) *cobra.Command {
	var (
		req        pipeline.TestRequest
		wasip1     bool
		noProgress bool
	)
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Build Go test binaries as WebAssembly components",
		Long: "Build one test binary per --pkg into the output directory. Each binary is\n" +
			"named after the last two segments of its package path, e.g.\n" +
			"./internal/http/router becomes http_router_test.wasm.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := a.pipeline(!wasip1)

			var results []result
			collect := func(e pipeline.Event) {
				if e.Package != "" && e.Stage.Terminal() {
					results = append(results, result{pkg: e.Package, path: e.Path, state: e.State, err: e.Err})
				}
			}

			var runErr error
			if !noProgress && a.format == LogConsole && isTerminal(a.stderr) && len(req.Packages) > 0 {
				runErr = runWithProgress(cmd.Context(), a, p, req, collect)
			} else {
				p.Progress = collect
				_, runErr = p.Test(cmd.Context(), req)
			}

			if len(results) > 0 {
				printSummary(a.stdout, results)
			}
			return runErr
		},
	}
	f := cmd.Flags()
	f.String("go", "", "path to the Go binary (default \"go\" from PATH)")
	f.StringArrayVar(&req.Packages, "pkg", nil, "test package to build; may be repeated")
	f.StringVarP(&req.OutputDir, "output", "o", ".", "directory receiving the test binaries")
	f.StringVar(&req.ModDir, "mod", "", "directory containing go.mod (default: working directory)")
	f.BoolVar(&wasip1, "wasip1", false, "leave plain wasip1 modules instead of components")
	f.BoolVar(&req.KeepGoing, "keep-going", false, "build every package and report all failures")
	f.BoolVar(&noProgress, "no-progress", false, "disable the interactive progress display")
	return cmd
}

// runWithProgress runs the test build in the background while a progress
// view renders its events. Interrupting the view cancels the build.
func runWithProgress(ctx context.Context, a *app, p *pipeline.Pipeline, req pipeline.TestRequest, collect func(pipeline.Event)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The view owns the terminal while it runs; failures reach the summary.
	installLogger(zap.NewNop())
	defer installLogger(a.logger)

	prog := tea.NewProgram(newProgressModel(req.Packages, cancel), tea.WithOutput(a.stderr), tea.WithContext(ctx))
	p.Progress = func(e pipeline.Event) {
		collect(e)
		prog.Send(eventMsg(e))
	}

	done := make(chan error, 1)
	go func() {
		_, err := p.Test(ctx, req)
		prog.Send(doneMsg{err: err})
		done <- err
	}()

	if _, err := prog.Run(); err != nil && ctx.Err() == nil {
		cancel()
		<-done
		return err
	}
	return <-done
}
