package proc

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesOutput(t *testing.T) {
	r := NewRunner()

	res := r.Run(Request{
		Argv:    []string{"sh", "-c", "echo out; echo err >&2"},
		Timeout: 10 * time.Second,
	})

	if !res.OK() {
		t.Fatalf("expected success, got exit %d (stderr: %q)", res.ExitCode, res.Stderr)
	}
	if res.Stdout != "out\n" {
		t.Errorf("stdout = %q, want %q", res.Stdout, "out\n")
	}
	if res.Stderr != "err\n" {
		t.Errorf("stderr = %q, want %q", res.Stderr, "err\n")
	}
	if res.Duration <= 0 {
		t.Errorf("duration = %v, want > 0", res.Duration)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	r := NewRunner()

	res := r.Run(Request{
		Argv:    []string{"sh", "-c", "exit 3"},
		Timeout: 10 * time.Second,
	})

	if res.OK() {
		t.Fatal("expected failure")
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
}

func TestRunCommandNotFound(t *testing.T) {
	r := NewRunner()

	res := r.Run(Request{
		Argv:    []string{"remedy-no-such-binary-xyz"},
		Timeout: 10 * time.Second,
	})

	if res.ExitCode != ExitNotFound {
		t.Fatalf("exit code = %d, want %d", res.ExitCode, ExitNotFound)
	}
	if !strings.Contains(res.Stderr, "command not found: remedy-no-such-binary-xyz") {
		t.Errorf("stderr = %q, want command-not-found message", res.Stderr)
	}
}

func TestRunTimeoutKeepsPartialOutput(t *testing.T) {
	r := NewRunner()

	start := time.Now()
	res := r.Run(Request{
		Argv:    []string{"sh", "-c", "echo partial; sleep 10"},
		Timeout: 300 * time.Millisecond,
	})
	elapsed := time.Since(start)

	if res.ExitCode != ExitTimeout {
		t.Fatalf("exit code = %d, want %d (stderr: %q)", res.ExitCode, ExitTimeout, res.Stderr)
	}
	if res.Stdout != "partial\n" {
		t.Errorf("stdout = %q, want partial output preserved", res.Stdout)
	}
	if !strings.Contains(res.Stderr, "timeout after") {
		t.Errorf("stderr = %q, want timeout message", res.Stderr)
	}
	if elapsed > 5*time.Second {
		t.Errorf("run took %v, timeout did not kill the child", elapsed)
	}
}

func TestRunPipesStdin(t *testing.T) {
	r := NewRunner()

	res := r.Run(Request{
		Argv:    []string{"cat"},
		Timeout: 10 * time.Second,
		Stdin:   "from stdin",
	})

	if !res.OK() {
		t.Fatalf("expected success, got exit %d", res.ExitCode)
	}
	if res.Stdout != "from stdin" {
		t.Errorf("stdout = %q, want %q", res.Stdout, "from stdin")
	}
}

func TestRunWorkingDirectory(t *testing.T) {
	r := NewRunner()
	dir := t.TempDir()

	res := r.Run(Request{
		Argv:    []string{"pwd"},
		Dir:     dir,
		Timeout: 10 * time.Second,
	})

	if !res.OK() {
		t.Fatalf("expected success, got exit %d (stderr: %q)", res.ExitCode, res.Stderr)
	}
	got, err := filepath.EvalSymlinks(strings.TrimSpace(res.Stdout))
	if err != nil {
		t.Fatalf("eval pwd output: %v", err)
	}
	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("eval temp dir: %v", err)
	}
	if got != want {
		t.Errorf("pwd = %q, want %q", got, want)
	}
}

func TestRunEmptyArgv(t *testing.T) {
	r := NewRunner()

	res := r.Run(Request{Timeout: time.Second})

	if res.ExitCode != ExitOSError {
		t.Errorf("exit code = %d, want %d", res.ExitCode, ExitOSError)
	}
	if res.Stderr == "" {
		t.Error("expected an error message on stderr")
	}
}

func TestRunnerFunc(t *testing.T) {
	var got Request
	r := RunnerFunc(func(req Request) Result {
		got = req
		return Result{Argv: req.Argv, ExitCode: 0, Stdout: "scripted"}
	})

	res := r.Run(Request{Argv: []string{"x", "y"}, Timeout: time.Second})

	if res.Stdout != "scripted" {
		t.Errorf("stdout = %q, want scripted response", res.Stdout)
	}
	if len(got.Argv) != 2 || got.Argv[0] != "x" {
		t.Errorf("request not forwarded: %+v", got)
	}
}
