// Package monitor drives the periodic check-and-repair loop.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/remedy-sh/remedy/internal/config"
	"github.com/remedy-sh/remedy/internal/probe"
	"github.com/remedy-sh/remedy/internal/repair"
	"github.com/remedy-sh/remedy/internal/state"
)

// CheckResult is the outcome of one health check, shaped for --json output.
type CheckResult struct {
	Healthy bool        `json:"healthy"`
	Health  probe.Probe `json:"health"`
	Status  probe.Probe `json:"status"`
}

// Repairer runs one repair attempt. Satisfied by *repair.Engine.
type Repairer interface {
	Attempt(force bool) (repair.Result, error)
}

// RunCheck probes health and status once. A healthy sighting is recorded in
// the state file; the returned error covers only that recording, the check
// result is valid either way.
func RunCheck(prober *probe.Prober, store *state.Store) (CheckResult, error) {
	health := prober.Health()
	status := prober.Status()
	res := CheckResult{
		Healthy: health.OK() && status.OK(),
		Health:  health,
		Status:  status,
	}
	if res.Healthy {
		if err := store.MarkOK(); err != nil {
			return res, fmt.Errorf("failed to record healthy sighting: %w", err)
		}
	}
	return res, nil
}

// Monitor owns the watch loop: check, repair when unhealthy, sleep, repeat.
type Monitor struct {
	cfg    *config.Config
	store  *state.Store
	prober *probe.Prober
	engine Repairer
	log    *slog.Logger

	sleep func(ctx context.Context, d time.Duration)
}

// New assembles a Monitor from already-built parts. The prober should log
// probe failures; the loop is the place where those lines matter.
func New(cfg *config.Config, store *state.Store, prober *probe.Prober, engine Repairer, log *slog.Logger) *Monitor {
	return &Monitor{
		cfg:    cfg,
		store:  store,
		prober: prober,
		engine: engine,
		log:    log,
		sleep:  sleepOrDone,
	}
}

// Run executes the watch loop until ctx is canceled. The loop never stops
// on its own: one bad iteration is logged and the next one proceeds.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("monitor started",
		"interval_seconds", m.cfg.Monitor.IntervalSeconds,
		"target", m.cfg.Target.Command,
		"repair_enabled", m.cfg.Repair.Enabled,
		"ai_enabled", m.cfg.AI.Enabled)

	for {
		if ctx.Err() != nil {
			m.log.Info("monitor stopped")
			return nil
		}
		m.iterate()
		m.sleep(ctx, m.cfg.Monitor.Interval())
	}
}

// iterate runs one check-and-repair pass. Panics are contained here so a
// bug in a single pass cannot kill the watchdog.
func (m *Monitor) iterate() {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("monitor iteration panicked", "panic", r)
		}
	}()

	res, err := RunCheck(m.prober, m.store)
	if err != nil {
		m.log.Error("health check bookkeeping failed", "error", err)
	}
	if res.Healthy {
		m.log.Debug("target healthy")
		return
	}

	m.log.Warn("target unhealthy, starting repair",
		"health_exit", res.Health.Cmd.ExitCode,
		"status_exit", res.Status.Cmd.ExitCode)

	outcome, err := m.engine.Attempt(false)
	switch {
	case err != nil:
		m.log.Error("repair attempt failed", "error", err)
	case outcome.Fixed:
		m.log.Info("target recovered", "used_ai", outcome.UsedAI)
	case outcome.Attempted:
		m.log.Warn("repair did not restore health", "used_ai", outcome.UsedAI,
			"attempt_dir", outcome.Details.AttemptDir)
	default:
		m.log.Info("repair not attempted",
			"cooldown", outcome.Details.Cooldown,
			"disabled", outcome.Details.RepairDisabled)
	}
}

// sleepOrDone waits for d or for ctx cancellation, whichever comes first.
func sleepOrDone(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
