package repair

import (
	"github.com/remedy-sh/remedy/internal/probe"
)

// Result is the outcome of one repair attempt. Expected failures are data
// here, never errors: not attempting is a result, not an exception.
type Result struct {
	// Attempted is true once the attempt is marked and work begins.
	Attempted bool `json:"attempted"`

	// Fixed reports the target's health as freshly probed at the end.
	Fixed bool `json:"fixed"`

	// UsedAI is true when at least one AI tier ran.
	UsedAI bool `json:"used_ai"`

	Details Details `json:"details"`
}

// Details is the attempt's evidence trail, filled in as the escalation
// advances. Empty fields stay out of the JSON.
type Details struct {
	AlreadyHealthy           bool         `json:"already_healthy,omitempty"`
	RepairDisabled           bool         `json:"repair_disabled,omitempty"`
	Cooldown                 bool         `json:"cooldown,omitempty"`
	CooldownRemainingSeconds int64        `json:"cooldown_remaining_seconds,omitempty"`
	AttemptID                string       `json:"attempt_id,omitempty"`
	AttemptDir               string       `json:"attempt_dir,omitempty"`
	ContextBefore            *Context     `json:"context_before,omitempty"`
	Official                 []StepResult `json:"official,omitempty"`
	ContextAfterOfficial     *Context     `json:"context_after_official,omitempty"`
	AIStage                  string       `json:"ai_stage,omitempty"`
	AIResultConfig           *AIResult    `json:"ai_result_config,omitempty"`
	ContextAfterAIConfig     *Context     `json:"context_after_ai_config,omitempty"`
	AIResultCode             *AIResult    `json:"ai_result_code,omitempty"`
	ContextAfterAICode       *Context     `json:"context_after_ai_code,omitempty"`
}

// StepResult records one executed official repair step. The step's output
// lives in the referenced artifact files.
type StepResult struct {
	Argv       []string `json:"argv"`
	ExitCode   int      `json:"exit_code"`
	DurationMs int64    `json:"duration_ms"`
	StdoutPath string   `json:"stdout_path"`
	StderrPath string   `json:"stderr_path"`
}

// AIResult records one AI agent invocation, output in artifact files so the
// summary stays free of raw (and possibly secret-bearing) transcripts.
type AIResult struct {
	Argv       []string `json:"argv"`
	ExitCode   int      `json:"exit_code"`
	DurationMs int64    `json:"duration_ms"`
	StdoutPath string   `json:"stdout_path"`
	StderrPath string   `json:"stderr_path"`
}

// Context is a diagnostic snapshot of the target: health and status probes
// plus a log capture, persisted into the attempt directory. Probe output is
// redacted because the snapshot is written to disk.
type Context struct {
	Health     probe.Probe `json:"health"`
	Status     probe.Probe `json:"status"`
	Logs       LogsCapture `json:"logs"`
	AttemptDir string      `json:"attempt_dir"`
}

// LogsCapture summarizes the log probe; the captured text is in the
// artifact file.
type LogsCapture struct {
	OK         bool     `json:"ok"`
	ExitCode   int      `json:"exit_code"`
	DurationMs int64    `json:"duration_ms"`
	Argv       []string `json:"argv"`
	StdoutPath string   `json:"stdout_path"`
}
