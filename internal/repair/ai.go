package repair

import (
	"fmt"
	"strings"

	"github.com/remedy-sh/remedy/internal/proc"
	"github.com/remedy-sh/remedy/internal/redact"
)

// aiStage selects which AI tier runs and which prompt and argv it gets.
type aiStage string

const (
	stageConfig aiStage = "config"
	stageCode   aiStage = "code"
)

// buildAIArgv assembles the agent command line: the configured binary, the
// model flag when a model is pinned, then the stage's rendered arguments.
func (e *Engine) buildAIArgv(stage aiStage, vars map[string]string) []string {
	args := e.cfg.AI.Args
	if stage == stageCode {
		args = e.cfg.AI.ArgsCode
	}

	argv := []string{e.cfg.AI.Command}
	if e.cfg.AI.Model != "" {
		argv = append(argv, "-m", e.cfg.AI.Model)
	}
	return append(argv, renderArgv(args, vars)...)
}

// runAI invokes the AI agent for one stage, feeding the rendered prompt on
// stdin and capturing the transcript into stage-qualified artifact files.
// A failed agent run is an outcome, not an error; the escalation decides
// what happens next by re-probing.
func (e *Engine) runAI(attemptDir string, stage aiStage) *AIResult {
	vars := e.placeholderVars()
	vars["attempt_dir"] = attemptDir
	vars["health_cmd"] = strings.Join(e.cfg.Target.HealthArgv(), " ")
	vars["status_cmd"] = strings.Join(e.cfg.Target.StatusArgv(), " ")
	vars["logs_cmd"] = strings.Join(e.cfg.Target.LogsArgv(), " ")

	tmpl := configPromptTemplate
	if stage == stageCode {
		tmpl = codePromptTemplate
	}
	prompt := renderTemplate(tmpl, vars)
	argv := e.buildAIArgv(stage, vars)

	// AI runs are the loud part of an attempt: they cost money and, in the
	// code stage, touch the workspace.
	e.log.Warn("starting ai repair", "stage", string(stage), "argv", argv)

	res := e.runner.Run(proc.Request{
		Argv:    argv,
		Dir:     e.cfg.Target.WorkspaceDirIfExists(),
		Timeout: e.cfg.AI.Timeout(),
		Stdin:   prompt,
	})

	e.writeArtifact(attemptDir, fmt.Sprintf("ai.%s.argv.txt", stage), strings.Join(argv, " "))
	e.writeArtifact(attemptDir, fmt.Sprintf("ai.%s.prompt.txt", stage), prompt)
	stdoutPath := e.writeArtifact(attemptDir, fmt.Sprintf("ai.%s.stdout.txt", stage), redact.Text(res.Stdout))
	stderrPath := e.writeArtifact(attemptDir, fmt.Sprintf("ai.%s.stderr.txt", stage), redact.Text(res.Stderr))

	e.log.Warn("ai repair finished",
		"stage", string(stage),
		"exit_code", res.ExitCode,
		"duration_ms", res.DurationMillis())
	if !res.OK() && res.Stderr != "" {
		e.log.Warn("ai repair stderr", "stage", string(stage),
			"output", redact.TruncateForLog(redact.Text(res.Stderr)))
	}

	return &AIResult{
		Argv:       res.Argv,
		ExitCode:   res.ExitCode,
		DurationMs: res.DurationMillis(),
		StdoutPath: stdoutPath,
		StderrPath: stderrPath,
	}
}
