package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultConfigTemplate is what `remedy init` writes. It spells out every
// default so a fresh install is editable without reading docs.
const defaultConfigTemplate = `# remedy configuration.
#
# Every value shown here is the built-in default; delete what you do not
# change. REMEDY_* environment variables override the file, for example
# REMEDY_LOG_LEVEL=DEBUG or REMEDY_AI_ENABLED=true.

monitor:
  interval_seconds: 60          # delay between checks in "remedy monitor"
  probe_timeout_seconds: 15
  repair_cooldown_seconds: 300  # minimum gap between repair attempts
  state_dir: ~/.remedy
  log_file: ~/.remedy/remedy.log
  log_level: INFO               # DEBUG | INFO | WARN | ERROR
  attempt_max_age_hours: 720    # prune attempt dirs older than this; 0 keeps forever
  attempt_keep: 10              # newest attempt dirs never pruned

# The watched service, managed entirely through its own CLI. The defaults
# fit an OpenClaw-style gateway; point them at anything with health/status
# subcommands.
target:
  command: openclaw
  state_dir: ~/.openclaw
  workspace_dir: ~/.openclaw/workspace
  health_args: [gateway, health, --json]
  status_args: [gateway, status, --json]
  logs_args: [logs, --tail, "200"]

repair:
  enabled: true
  # Steps run in order until the target is healthy. $target_cmd expands to
  # target.command above.
  official_steps:
    - [$target_cmd, doctor, --repair]
    - [$target_cmd, gateway, restart]
  step_timeout_seconds: 600
  post_step_wait_seconds: 2

# AI escalation runs only when the official steps leave the target
# unhealthy, and is off until you enable it.
ai:
  enabled: false
  provider: codex               # codex | claude
  command: codex
  # $workspace_dir, $target_state_dir and $monitor_state_dir expand at run
  # time; the diagnostic prompt is piped on stdin.
  args:
    - exec
    - -s
    - workspace-write
    - -c
    - approval_policy="never"
    - --skip-git-repo-check
    - -C
    - $workspace_dir
    - --add-dir
    - $target_state_dir
    - --add-dir
    - $monitor_state_dir
  model: ""                     # passed as "-m <model>" when set
  timeout_seconds: 1800
  max_attempts_per_day: 2
  cooldown_seconds: 3600
  allow_code_changes: false     # gate for the code-changing second tier
  args_code:
    - exec
    - -s
    - danger-full-access
    - -c
    - approval_policy="never"
    - --skip-git-repo-check
    - -C
    - $workspace_dir
`

// WriteDefault writes the starter config to path, creating parent
// directories as needed. An existing file is only replaced with force.
// Returns the expanded path that was written.
func WriteDefault(path string, force bool) (string, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(expanded); err == nil && !force {
		return "", fmt.Errorf("config already exists at %s (use --force to overwrite)", expanded)
	}

	if err := os.MkdirAll(filepath.Dir(expanded), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(expanded, []byte(defaultConfigTemplate), 0644); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}

	return expanded, nil
}
