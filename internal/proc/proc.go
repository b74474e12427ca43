// Package proc runs external commands to completion with a bounded timeout
// and maps every failure mode onto an exit code, so callers never have to
// handle process errors as errors.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Exit codes synthesized for failures that never produce a process exit
// status. They mirror the conventional shell codes for the same conditions.
const (
	ExitTimeout  = 124
	ExitNotFound = 127
	ExitOSError  = 1
)

// Request describes one command invocation.
type Request struct {
	// Argv is the command and its arguments. Argv[0] is resolved via PATH.
	Argv []string

	// Dir is the working directory. Empty means inherit the parent's.
	Dir string

	// Timeout bounds the run. When it expires the process is killed and the
	// result reports ExitTimeout.
	Timeout time.Duration

	// Stdin, when non-empty, is piped to the process and then closed.
	Stdin string
}

// Result is the outcome of a completed (or failed-to-start) command.
type Result struct {
	Argv     []string
	Dir      string
	ExitCode int
	Duration time.Duration
	Stdout   string
	Stderr   string
}

// OK reports whether the command exited zero.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// DurationMillis returns the run duration in whole milliseconds, the unit
// used by all persisted records.
func (r Result) DurationMillis() int64 {
	return r.Duration.Milliseconds()
}

// Runner runs commands. The production implementation is ExecRunner; tests
// substitute a RunnerFunc.
type Runner interface {
	Run(req Request) Result
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(req Request) Result

// Run calls f(req).
func (f RunnerFunc) Run(req Request) Result {
	return f(req)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

// NewRunner returns the production Runner.
func NewRunner() Runner {
	return ExecRunner{}
}

// Run executes the request and always returns a Result. Expected failures
// (missing binary, timeout, launch errors) are reported through ExitCode and
// Stderr rather than an error. The timeout is the only cancellation
// mechanism; no caller-supplied context crosses this boundary.
func (ExecRunner) Run(req Request) Result {
	start := time.Now()
	res := Result{Argv: append([]string(nil), req.Argv...), Dir: req.Dir}

	if len(req.Argv) == 0 {
		res.ExitCode = ExitOSError
		res.Stderr = "[remedy] empty command"
		res.Duration = time.Since(start)
		return res
	}

	ctx, cancel := context.WithTimeout(context.Background(), req.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, req.Argv[0], req.Argv[1:]...)
	cmd.Dir = req.Dir
	if req.Stdin != "" {
		cmd.Stdin = strings.NewReader(req.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Grandchildren that inherit the pipes can hold them open past the
	// kill; WaitDelay forces Wait to return anyway.
	cmd.WaitDelay = 10 * time.Second

	err := cmd.Run()
	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	switch {
	case err == nil:
		res.ExitCode = 0

	case ctx.Err() == context.DeadlineExceeded:
		// Partial output captured before the kill is kept.
		res.ExitCode = ExitTimeout
		msg := fmt.Sprintf("[remedy] timeout after %gs", req.Timeout.Seconds())
		if res.Stderr != "" {
			res.Stderr += "\n" + msg
		} else {
			res.Stderr = msg
		}

	case isNotFound(err):
		res.ExitCode = ExitNotFound
		res.Stderr = fmt.Sprintf("[remedy] command not found: %s (%v)", req.Argv[0], err)

	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = ExitOSError
			res.Stderr = fmt.Sprintf("[remedy] os error running %v: %v", req.Argv, err)
		}
	}

	return res
}

func isNotFound(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound)
}
