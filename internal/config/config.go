// Package config loads and validates the remedy configuration: a YAML file
// with built-in defaults, overridable per field through REMEDY_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration tree.
type Config struct {
	Monitor MonitorConfig `yaml:"monitor"`
	Target  TargetConfig  `yaml:"target"`
	Repair  RepairConfig  `yaml:"repair"`
	AI      AIConfig      `yaml:"ai"`
}

// MonitorConfig controls the watch loop and the monitor's own housekeeping.
type MonitorConfig struct {
	// IntervalSeconds is the delay between checks in `remedy monitor`.
	IntervalSeconds int `yaml:"interval_seconds" env:"REMEDY_INTERVAL_SECONDS"`

	// ProbeTimeoutSeconds bounds each health/status/logs probe.
	ProbeTimeoutSeconds int `yaml:"probe_timeout_seconds" env:"REMEDY_PROBE_TIMEOUT_SECONDS"`

	// RepairCooldownSeconds is the minimum gap between repair attempts.
	RepairCooldownSeconds int `yaml:"repair_cooldown_seconds" env:"REMEDY_REPAIR_COOLDOWN_SECONDS"`

	// StateDir holds state.json, the lock file and attempt artifacts.
	StateDir string `yaml:"state_dir" env:"REMEDY_STATE_DIR"`

	LogFile  string `yaml:"log_file" env:"REMEDY_LOG_FILE"`
	LogLevel string `yaml:"log_level" env:"REMEDY_LOG_LEVEL"`

	// AttemptMaxAgeHours prunes attempt directories older than this many
	// hours. 0 disables age-based pruning.
	AttemptMaxAgeHours int `yaml:"attempt_max_age_hours" env:"REMEDY_ATTEMPT_MAX_AGE_HOURS"`

	// AttemptKeep is the minimum number of attempt directories always kept,
	// newest first, regardless of age.
	AttemptKeep int `yaml:"attempt_keep" env:"REMEDY_ATTEMPT_KEEP"`
}

// TargetConfig describes the watched service's CLI.
type TargetConfig struct {
	// Command is the target service's CLI binary.
	Command string `yaml:"command" env:"REMEDY_TARGET_COMMAND"`

	// StateDir is the target's own state directory, exposed to the AI agent.
	StateDir string `yaml:"state_dir" env:"REMEDY_TARGET_STATE_DIR"`

	// WorkspaceDir, when it exists, is the working directory for every
	// probe, repair step and AI invocation.
	WorkspaceDir string `yaml:"workspace_dir" env:"REMEDY_TARGET_WORKSPACE_DIR"`

	HealthArgs []string `yaml:"health_args"`
	StatusArgs []string `yaml:"status_args"`
	LogsArgs   []string `yaml:"logs_args"`
}

// RepairConfig controls the official repair tier.
type RepairConfig struct {
	Enabled bool `yaml:"enabled" env:"REMEDY_REPAIR_ENABLED"`

	// OfficialSteps run in order until the target is healthy. Tokens may use
	// the $target_cmd, $workspace_dir, $target_state_dir and
	// $monitor_state_dir placeholders.
	OfficialSteps [][]string `yaml:"official_steps"`

	StepTimeoutSeconds  int `yaml:"step_timeout_seconds" env:"REMEDY_STEP_TIMEOUT_SECONDS"`
	PostStepWaitSeconds int `yaml:"post_step_wait_seconds" env:"REMEDY_POST_STEP_WAIT_SECONDS"`
}

// AIConfig controls the AI repair tiers.
type AIConfig struct {
	Enabled  bool   `yaml:"enabled" env:"REMEDY_AI_ENABLED"`
	Provider string `yaml:"provider" env:"REMEDY_AI_PROVIDER"`
	Command  string `yaml:"command" env:"REMEDY_AI_COMMAND"`

	// Args is the config-only invocation; ArgsCode the code-changing one.
	// Both support the same placeholders as repair steps.
	Args     []string `yaml:"args"`
	ArgsCode []string `yaml:"args_code"`

	// Model, when set, is injected as "-m <model>" ahead of Args.
	Model string `yaml:"model" env:"REMEDY_AI_MODEL"`

	TimeoutSeconds    int  `yaml:"timeout_seconds" env:"REMEDY_AI_TIMEOUT_SECONDS"`
	MaxAttemptsPerDay int  `yaml:"max_attempts_per_day" env:"REMEDY_AI_MAX_ATTEMPTS_PER_DAY"`
	CooldownSeconds   int  `yaml:"cooldown_seconds" env:"REMEDY_AI_COOLDOWN_SECONDS"`
	AllowCodeChanges  bool `yaml:"allow_code_changes" env:"REMEDY_AI_ALLOW_CODE_CHANGES"`
}

// Default returns the built-in configuration. The target defaults describe
// an OpenClaw-style gateway; any service managed through its own CLI works.
func Default() Config {
	return Config{
		Monitor: MonitorConfig{
			IntervalSeconds:       60,
			ProbeTimeoutSeconds:   15,
			RepairCooldownSeconds: 300,
			StateDir:              "~/.remedy",
			LogFile:               "~/.remedy/remedy.log",
			LogLevel:              "INFO",
			AttemptMaxAgeHours:    720,
			AttemptKeep:           10,
		},
		Target: TargetConfig{
			Command:      "openclaw",
			StateDir:     "~/.openclaw",
			WorkspaceDir: "~/.openclaw/workspace",
			HealthArgs:   []string{"gateway", "health", "--json"},
			StatusArgs:   []string{"gateway", "status", "--json"},
			LogsArgs:     []string{"logs", "--tail", "200"},
		},
		Repair: RepairConfig{
			Enabled: true,
			OfficialSteps: [][]string{
				{"$target_cmd", "doctor", "--repair"},
				{"$target_cmd", "gateway", "restart"},
			},
			StepTimeoutSeconds:  600,
			PostStepWaitSeconds: 2,
		},
		AI: AIConfig{
			Enabled:  false,
			Provider: "codex",
			Command:  "codex",
			Args: []string{
				"exec",
				"-s", "workspace-write",
				"-c", `approval_policy="never"`,
				"--skip-git-repo-check",
				"-C", "$workspace_dir",
				"--add-dir", "$target_state_dir",
				"--add-dir", "$monitor_state_dir",
			},
			ArgsCode: []string{
				"exec",
				"-s", "danger-full-access",
				"-c", `approval_policy="never"`,
				"--skip-git-repo-check",
				"-C", "$workspace_dir",
			},
			TimeoutSeconds:    1800,
			MaxAttemptsPerDay: 2,
			CooldownSeconds:   3600,
			AllowCodeChanges:  false,
		},
	}
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	if p := os.Getenv("REMEDY_CONFIG"); p != "" {
		return p
	}
	return "~/.remedy/config.yaml"
}

// Load reads the YAML file at path on top of the defaults, applies REMEDY_*
// environment overrides, expands and absolutizes every path field, and
// validates the result. Absent keys keep their defaults; the environment
// wins over the file.
func Load(path string) (*Config, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", expanded, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", expanded, err)
	}

	return &cfg, nil
}

// Validate checks the invariants that the rest of the program relies on.
func (c *Config) Validate() error {
	if c.Monitor.IntervalSeconds <= 0 {
		return fmt.Errorf("monitor.interval_seconds must be positive, got %d", c.Monitor.IntervalSeconds)
	}
	if c.Monitor.ProbeTimeoutSeconds <= 0 {
		return fmt.Errorf("monitor.probe_timeout_seconds must be positive, got %d", c.Monitor.ProbeTimeoutSeconds)
	}
	if c.Monitor.RepairCooldownSeconds < 0 {
		return fmt.Errorf("monitor.repair_cooldown_seconds must not be negative, got %d", c.Monitor.RepairCooldownSeconds)
	}
	if c.Monitor.StateDir == "" {
		return fmt.Errorf("monitor.state_dir is required")
	}
	if c.Monitor.LogFile == "" {
		return fmt.Errorf("monitor.log_file is required")
	}
	if c.Monitor.AttemptMaxAgeHours < 0 {
		return fmt.Errorf("monitor.attempt_max_age_hours must not be negative, got %d", c.Monitor.AttemptMaxAgeHours)
	}
	if c.Monitor.AttemptKeep < 0 {
		return fmt.Errorf("monitor.attempt_keep must not be negative, got %d", c.Monitor.AttemptKeep)
	}
	if c.Target.Command == "" {
		return fmt.Errorf("target.command is required")
	}
	if c.Repair.StepTimeoutSeconds <= 0 {
		return fmt.Errorf("repair.step_timeout_seconds must be positive, got %d", c.Repair.StepTimeoutSeconds)
	}
	if c.Repair.PostStepWaitSeconds < 0 {
		return fmt.Errorf("repair.post_step_wait_seconds must not be negative, got %d", c.Repair.PostStepWaitSeconds)
	}
	for i, step := range c.Repair.OfficialSteps {
		if len(step) == 0 {
			return fmt.Errorf("repair.official_steps[%d] is empty", i)
		}
	}
	if c.AI.Enabled && c.AI.Command == "" {
		return fmt.Errorf("ai.command is required when ai.enabled is true")
	}
	if c.AI.TimeoutSeconds <= 0 {
		return fmt.Errorf("ai.timeout_seconds must be positive, got %d", c.AI.TimeoutSeconds)
	}
	if c.AI.MaxAttemptsPerDay < 0 {
		return fmt.Errorf("ai.max_attempts_per_day must not be negative, got %d", c.AI.MaxAttemptsPerDay)
	}
	if c.AI.CooldownSeconds < 0 {
		return fmt.Errorf("ai.cooldown_seconds must not be negative, got %d", c.AI.CooldownSeconds)
	}
	return nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{
		&c.Monitor.StateDir,
		&c.Monitor.LogFile,
		&c.Target.StateDir,
		&c.Target.WorkspaceDir,
	} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// ExpandPath expands $VARS and a leading ~, then resolves to an absolute
// path. Empty input stays empty.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}

	p = os.ExpandEnv(p)

	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else {
			p = filepath.Join(home, p[2:])
		}
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", p, err)
	}
	return abs, nil
}

// Interval is the watch-loop delay.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalSeconds) * time.Second
}

// ProbeTimeout bounds one probe command.
func (m MonitorConfig) ProbeTimeout() time.Duration {
	return time.Duration(m.ProbeTimeoutSeconds) * time.Second
}

// RepairCooldown is the minimum gap between repair attempts.
func (m MonitorConfig) RepairCooldown() time.Duration {
	return time.Duration(m.RepairCooldownSeconds) * time.Second
}

// AttemptMaxAge is the pruning threshold for attempt directories.
func (m MonitorConfig) AttemptMaxAge() time.Duration {
	return time.Duration(m.AttemptMaxAgeHours) * time.Hour
}

// StepTimeout bounds one official repair step.
func (r RepairConfig) StepTimeout() time.Duration {
	return time.Duration(r.StepTimeoutSeconds) * time.Second
}

// PostStepWait is the settle delay after each official step.
func (r RepairConfig) PostStepWait() time.Duration {
	return time.Duration(r.PostStepWaitSeconds) * time.Second
}

// Timeout bounds one AI agent invocation.
func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Cooldown is the minimum gap between AI attempts.
func (a AIConfig) Cooldown() time.Duration {
	return time.Duration(a.CooldownSeconds) * time.Second
}

// HealthArgv is the full health-probe command line.
func (t TargetConfig) HealthArgv() []string {
	return append([]string{t.Command}, t.HealthArgs...)
}

// StatusArgv is the full status-probe command line.
func (t TargetConfig) StatusArgv() []string {
	return append([]string{t.Command}, t.StatusArgs...)
}

// LogsArgv is the full log-capture command line.
func (t TargetConfig) LogsArgv() []string {
	return append([]string{t.Command}, t.LogsArgs...)
}

// WorkspaceDirIfExists returns the workspace directory when it is present on
// disk, else "" so commands inherit the parent's working directory.
func (t TargetConfig) WorkspaceDirIfExists() string {
	if fi, err := os.Stat(t.WorkspaceDir); err == nil && fi.IsDir() {
		return t.WorkspaceDir
	}
	return ""
}
