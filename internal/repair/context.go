package repair

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/remedy-sh/remedy/internal/redact"
)

// collectContext takes a diagnostic snapshot of the target and persists it
// into the attempt directory. Snapshots bracket every escalation tier so the
// trail shows what each tier changed.
func (e *Engine) collectContext(attemptDir string) *Context {
	health := e.probes.Health()
	status := e.probes.Status()
	logs := e.probes.Logs(e.cfg.Monitor.ProbeTimeout())

	e.writeArtifact(attemptDir, "health.stdout.txt", redact.Text(health.Cmd.Stdout))
	e.writeArtifact(attemptDir, "health.stderr.txt", redact.Text(health.Cmd.Stderr))
	e.writeArtifact(attemptDir, "status.stdout.txt", redact.Text(status.Cmd.Stdout))
	e.writeArtifact(attemptDir, "status.stderr.txt", redact.Text(status.Cmd.Stderr))

	logText := logs.Stdout
	if logs.Stderr != "" {
		logText += "\n" + logs.Stderr
	}
	logsPath := e.writeArtifact(attemptDir, "target.logs.txt", redact.Text(logText))

	return &Context{
		Health: health.Redacted(),
		Status: status.Redacted(),
		Logs: LogsCapture{
			OK:         logs.OK(),
			ExitCode:   logs.ExitCode,
			DurationMs: logs.DurationMillis(),
			Argv:       logs.Argv,
			StdoutPath: logsPath,
		},
		AttemptDir: attemptDir,
	}
}

// writeArtifact persists one attempt file. Writes are best effort: losing
// an artifact is logged but never aborts the repair itself. Callers redact
// before passing text in.
func (e *Engine) writeArtifact(attemptDir, name, text string) string {
	path := filepath.Join(attemptDir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		e.log.Warn("failed to write attempt artifact", "path", path, "error", err)
	}
	return path
}

// writeSummary records the machine-readable outcome of the attempt. The
// embedded context snapshots are already redacted.
func (e *Engine) writeSummary(attemptDir string, res Result) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		e.log.Warn("failed to encode attempt summary", "error", err)
		return
	}
	e.writeArtifact(attemptDir, "summary.json", string(data)+"\n")
}
