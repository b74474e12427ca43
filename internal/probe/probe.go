// Package probe asks the target service how it is doing through its own
// CLI: a health probe, a status probe, and a log capture.
package probe

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/remedy-sh/remedy/internal/config"
	"github.com/remedy-sh/remedy/internal/proc"
	"github.com/remedy-sh/remedy/internal/redact"
)

// PayloadKind discriminates the parsed form of a probe's stdout.
type PayloadKind int

const (
	// PayloadNone means stdout was empty, unparsable, or a bare scalar.
	PayloadNone PayloadKind = iota
	PayloadObject
	PayloadArray
)

// Payload is the probe's machine-readable output, when there is one.
// Parsing is best effort: probes are still meaningful when the target
// prints nothing or garbage, so there is no error case.
type Payload struct {
	Kind   PayloadKind
	Object map[string]any
	Array  []any
}

// Value returns the payload as a JSON-marshalable value: the object, the
// array, or nil.
func (p Payload) Value() any {
	switch p.Kind {
	case PayloadObject:
		return p.Object
	case PayloadArray:
		return p.Array
	default:
		return nil
	}
}

// ParsePayload interprets probe stdout as JSON if it looks like JSON.
func ParsePayload(stdout string) Payload {
	s := strings.TrimSpace(stdout)
	if s == "" {
		return Payload{}
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return Payload{}
	}

	switch t := v.(type) {
	case map[string]any:
		return Payload{Kind: PayloadObject, Object: t}
	case []any:
		return Payload{Kind: PayloadArray, Array: t}
	default:
		return Payload{}
	}
}

// Probe is one named check against the target.
type Probe struct {
	Name    string
	Cmd     proc.Result
	Payload Payload
}

// OK reports whether the probe command exited zero.
func (p Probe) OK() bool {
	return p.Cmd.OK()
}

// Redacted returns a copy safe to persist: command output scrubbed of
// likely secrets.
func (p Probe) Redacted() Probe {
	out := p
	out.Cmd.Stdout = redact.Text(p.Cmd.Stdout)
	out.Cmd.Stderr = redact.Text(p.Cmd.Stderr)
	return out
}

type probeJSON struct {
	Name       string   `json:"name"`
	OK         bool     `json:"ok"`
	ExitCode   int      `json:"exit_code"`
	DurationMs int64    `json:"duration_ms"`
	Argv       []string `json:"argv"`
	Stdout     string   `json:"stdout"`
	Stderr     string   `json:"stderr"`
	JSON       any      `json:"json"`
}

// MarshalJSON renders the probe in the wire shape used by --json output and
// attempt records.
func (p Probe) MarshalJSON() ([]byte, error) {
	return json.Marshal(probeJSON{
		Name:       p.Name,
		OK:         p.OK(),
		ExitCode:   p.Cmd.ExitCode,
		DurationMs: p.Cmd.DurationMillis(),
		Argv:       p.Cmd.Argv,
		Stdout:     p.Cmd.Stdout,
		Stderr:     p.Cmd.Stderr,
		JSON:       p.Payload.Value(),
	})
}

// Prober runs probes against the configured target.
type Prober struct {
	// LogFailures controls the warn line on failed probes. The watch loop
	// wants it; the escalation engine probes quietly.
	LogFailures bool

	cfg    *config.Config
	runner proc.Runner
	log    *slog.Logger
}

// New returns a Prober that logs probe failures.
func New(cfg *config.Config, runner proc.Runner, log *slog.Logger) *Prober {
	return &Prober{
		LogFailures: true,
		cfg:         cfg,
		runner:      runner,
		log:         log,
	}
}

// Health probes the target's health endpoint.
func (p *Prober) Health() Probe {
	return p.probe("health", p.cfg.Target.HealthArgv())
}

// Status probes the target's status endpoint.
func (p *Prober) Status() Probe {
	return p.probe("status", p.cfg.Target.StatusArgv())
}

// Logs captures the target's recent log output.
func (p *Prober) Logs(timeout time.Duration) proc.Result {
	return p.runner.Run(proc.Request{
		Argv:    p.cfg.Target.LogsArgv(),
		Dir:     p.cfg.Target.WorkspaceDirIfExists(),
		Timeout: timeout,
	})
}

// IsHealthy runs fresh health and status probes and requires both to pass.
func (p *Prober) IsHealthy() bool {
	return p.Health().OK() && p.Status().OK()
}

func (p *Prober) probe(name string, argv []string) Probe {
	res := p.runner.Run(proc.Request{
		Argv:    argv,
		Dir:     p.cfg.Target.WorkspaceDirIfExists(),
		Timeout: p.cfg.Monitor.ProbeTimeout(),
	})

	if p.LogFailures && !res.OK() {
		out := res.Stderr
		if out == "" {
			out = res.Stdout
		}
		p.log.Warn(name+" probe failed",
			"exit_code", res.ExitCode,
			"output", redact.TruncateForLog(out))
	}

	return Probe{Name: name, Cmd: res, Payload: ParsePayload(res.Stdout)}
}
