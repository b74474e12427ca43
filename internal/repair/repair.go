// Package repair walks the escalation ladder when the target is unhealthy:
// official repair steps first, then an AI agent restricted to configuration
// changes, then, only when explicitly allowed, an AI agent that may change
// code. Every attempt leaves a full evidence trail in its own directory.
package repair

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/remedy-sh/remedy/internal/config"
	"github.com/remedy-sh/remedy/internal/probe"
	"github.com/remedy-sh/remedy/internal/proc"
	"github.com/remedy-sh/remedy/internal/redact"
	"github.com/remedy-sh/remedy/internal/state"
)

// attemptDirLayout names attempt directories by wall-clock start time.
const attemptDirLayout = "20060102-150405"

// Engine runs repair attempts against the configured target.
type Engine struct {
	cfg    *config.Config
	store  *state.Store
	runner proc.Runner
	probes *probe.Prober
	log    *slog.Logger

	// sessionID ties every attempt of one process to a single identity
	// in the logs.
	sessionID string

	now   func() time.Time
	sleep func(time.Duration)
}

// New builds an Engine. Probe failures during an attempt are expected and
// recorded in the attempt's context snapshots, so the engine's prober does
// not log them.
func New(cfg *config.Config, store *state.Store, runner proc.Runner, log *slog.Logger) *Engine {
	probes := probe.New(cfg, runner, log)
	probes.LogFailures = false
	return &Engine{
		cfg:       cfg,
		store:     store,
		runner:    runner,
		probes:    probes,
		log:       log,
		sessionID: uuid.New().String(),
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// SessionID identifies this engine across attempts in the logs.
func (e *Engine) SessionID() string { return e.sessionID }

// Attempt runs one pass of the repair escalation. Expected outcomes,
// including "did not attempt", come back as a Result; the error covers
// only infrastructure failures such as an unwritable state directory.
//
// The caller holds the instance lock; Attempt itself does no locking.
func (e *Engine) Attempt(force bool) (Result, error) {
	if e.probes.IsHealthy() {
		return Result{Fixed: true, Details: Details{AlreadyHealthy: true}}, nil
	}

	if !e.cfg.Repair.Enabled {
		e.log.Info("target unhealthy but repair is disabled")
		return Result{Details: Details{RepairDisabled: true}}, nil
	}

	ok, remaining := e.store.CanAttemptRepair(e.cfg.Monitor.RepairCooldown(), force)
	if !ok {
		secs := int64(math.Ceil(remaining.Seconds()))
		e.log.Info("repair attempt blocked by cooldown", "remaining_seconds", secs)
		return Result{Details: Details{
			Cooldown:                 true,
			CooldownRemainingSeconds: secs,
		}}, nil
	}

	// The cooldown is consumed here and nowhere else. A crash later in
	// the attempt still counts against the budget.
	if err := e.store.MarkRepairAttempt(); err != nil {
		return Result{}, fmt.Errorf("failed to record repair attempt: %w", err)
	}

	e.pruneAttempts()

	attemptDir, err := e.makeAttemptDir()
	if err != nil {
		return Result{}, err
	}

	res := Result{Attempted: true}
	res.Details.AttemptID = uuid.New().String()
	res.Details.AttemptDir = attemptDir

	e.log.Info("starting repair attempt",
		"attempt_id", res.Details.AttemptID,
		"attempt_dir", attemptDir,
		"session_id", e.sessionID,
		"force", force)

	res.Details.ContextBefore = e.collectContext(attemptDir)
	res.Details.Official = e.runOfficialSteps(attemptDir)
	res.Details.ContextAfterOfficial = e.collectContext(attemptDir)

	if e.probes.IsHealthy() {
		res.Fixed = true
		e.log.Info("official repair steps restored health", "attempt_id", res.Details.AttemptID)
		e.writeSummary(attemptDir, res)
		return res, nil
	}

	if e.cfg.AI.Enabled {
		allowed, err := e.store.CanAttemptAI(e.cfg.AI.MaxAttemptsPerDay, e.cfg.AI.Cooldown())
		if err != nil {
			e.writeSummary(attemptDir, res)
			return res, fmt.Errorf("failed to check ai budget: %w", err)
		}
		if allowed {
			if err := e.store.MarkAIAttempt(); err != nil {
				e.writeSummary(attemptDir, res)
				return res, fmt.Errorf("failed to record ai attempt: %w", err)
			}
			res.UsedAI = true

			res.Details.AIStage = string(stageConfig)
			res.Details.AIResultConfig = e.runAI(attemptDir, stageConfig)
			res.Details.ContextAfterAIConfig = e.collectContext(attemptDir)

			if e.probes.IsHealthy() {
				res.Fixed = true
				e.log.Info("ai config repair restored health", "attempt_id", res.Details.AttemptID)
				e.writeSummary(attemptDir, res)
				return res, nil
			}

			if e.cfg.AI.AllowCodeChanges {
				res.Details.AIStage = string(stageCode)
				res.Details.AIResultCode = e.runAI(attemptDir, stageCode)
				res.Details.ContextAfterAICode = e.collectContext(attemptDir)
			} else {
				e.log.Info("ai code repair skipped, code changes not allowed")
			}
		} else {
			e.log.Info("ai repair blocked by daily budget or cooldown")
		}
	}

	res.Fixed = e.probes.IsHealthy()
	e.log.Info("repair attempt finished",
		"attempt_id", res.Details.AttemptID,
		"fixed", res.Fixed,
		"used_ai", res.UsedAI)
	e.writeSummary(attemptDir, res)
	return res, nil
}

// makeAttemptDir creates <state_dir>/attempts/<timestamp> for this attempt.
func (e *Engine) makeAttemptDir() (string, error) {
	dir := filepath.Join(e.cfg.Monitor.StateDir, "attempts", e.now().Format(attemptDirLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create attempt directory %s: %w", dir, err)
	}
	return dir, nil
}

// runOfficialSteps executes the configured repair commands in order. After
// each step it waits, then re-probes, and stops early once the target is
// healthy. Step failures do not stop the ladder; a restart can succeed
// after a failed doctor pass.
func (e *Engine) runOfficialSteps(attemptDir string) []StepResult {
	vars := e.placeholderVars()
	results := make([]StepResult, 0, len(e.cfg.Repair.OfficialSteps))

	for i, step := range e.cfg.Repair.OfficialSteps {
		n := i + 1
		argv := renderArgv(step, vars)
		e.log.Info("running official repair step", "step", n, "argv", argv)

		res := e.runner.Run(proc.Request{
			Argv:    argv,
			Dir:     e.cfg.Target.WorkspaceDirIfExists(),
			Timeout: e.cfg.Repair.StepTimeout(),
		})

		stdoutPath := e.writeArtifact(attemptDir, fmt.Sprintf("official.%d.stdout.txt", n), redact.Text(res.Stdout))
		stderrPath := e.writeArtifact(attemptDir, fmt.Sprintf("official.%d.stderr.txt", n), redact.Text(res.Stderr))
		results = append(results, StepResult{
			Argv:       res.Argv,
			ExitCode:   res.ExitCode,
			DurationMs: res.DurationMillis(),
			StdoutPath: stdoutPath,
			StderrPath: stderrPath,
		})

		e.log.Info("official repair step finished",
			"step", n,
			"exit_code", res.ExitCode,
			"duration_ms", res.DurationMillis())

		// Give the target a moment to settle before judging the step.
		e.sleep(e.cfg.Repair.PostStepWait())
		if e.probes.IsHealthy() {
			e.log.Info("target healthy after official step", "step", n)
			break
		}
	}
	return results
}

// placeholderVars is the substitution set shared by official steps and AI
// prompts. runAI extends it with per-attempt entries.
func (e *Engine) placeholderVars() map[string]string {
	return map[string]string{
		"target_cmd":        e.cfg.Target.Command,
		"workspace_dir":     e.cfg.Target.WorkspaceDir,
		"target_state_dir":  e.cfg.Target.StateDir,
		"monitor_state_dir": e.cfg.Monitor.StateDir,
	}
}
