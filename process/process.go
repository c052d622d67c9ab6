package process

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/componentize-go/errors"
)

// Command describes one invocation of an external tool.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env entries are appended to the inherited environment.
	Env []string
	// Phase attributes failures to a pipeline stage.
	Phase errors.Phase
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result holds the captured output of a successful invocation.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner runs external commands to completion.
//
// Implementations block until the command exits. A nonzero exit status is
// returned as a process error carrying the captured stderr.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Command) (*Result, error)

// Run calls f(ctx, cmd).
func (f RunnerFunc) Run(ctx context.Context, cmd Command) (*Result, error) {
	return f(ctx, cmd)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	log := Logger().With(zap.String("cmd", cmd.String()))
	if cmd.Dir != "" {
		log = log.With(zap.String("dir", cmd.Dir))
	}
	log.Debug("running external command", zap.Strings("env", cmd.Env))

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := &Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if err == nil {
		log.Debug("external command finished", zap.Int("stdout_bytes", stdout.Len()))
		return res, nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		log.Debug("external command failed", zap.Int("exit_code", res.ExitCode))
		return res, Failed(cmd, res)
	}

	// the command never started (missing binary, bad dir)
	return nil, errors.New(cmd.Phase, errors.KindProcess).
		Command(cmd.String()).
		Path(cmd.Dir).
		Detail("failed to start %s", cmd.Name).
		Cause(err).
		Build()
}

// Failed builds the process error for a command that exited with res.
func Failed(cmd Command, res *Result) error {
	return errors.New(cmd.Phase, errors.KindProcess).
		Command(cmd.String()).
		Stderr(res.Stderr).
		Detail("%s exited with status %d", cmd.Name, res.ExitCode).
		Build()
}
