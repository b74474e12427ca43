package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/remedy-sh/remedy/internal/config"
	"github.com/remedy-sh/remedy/internal/lock"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the remedy installation and environment",
	Long: `Run health checks to diagnose common remedy configuration and
environment issues.

This command checks for:
- Config file presence and validity
- State directory and log file writability
- Target CLI on PATH
- Workspace directory existence
- AI agent availability (when enabled)
- Leftover lock files

Exit codes:
  0 - all checks passed (warnings allowed)
  1 - one or more checks failed
  2 - remedy cannot run at all (no usable config)`,
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("Running remedy health checks...\n\n")

		var failures []string
		var warnings []string

		// Check 1: Config file
		fmt.Printf("%s Config file\n", cyan("→"))
		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Printf("  %s Cannot load config\n", red("✗"))
			if verbose {
				fmt.Printf("    Error: %v\n", err)
			}
			fmt.Printf("    Run 'remedy init' to create one\n")
			fmt.Printf("\n%s remedy cannot run without a config\n", red("✗"))
			os.Exit(2)
		}
		fmt.Printf("  %s Loaded %s\n", green("✓"), cfgPath)

		// Check 2: State directory
		fmt.Printf("%s State directory\n", cyan("→"))
		if err := os.MkdirAll(cfg.Monitor.StateDir, 0o755); err != nil {
			failures = append(failures, fmt.Sprintf("Cannot create state directory: %v", err))
			fmt.Printf("  %s Cannot create %s\n", red("✗"), cfg.Monitor.StateDir)
		} else {
			probeFile := filepath.Join(cfg.Monitor.StateDir, ".doctor-probe")
			if err := os.WriteFile(probeFile, []byte("ok"), 0o644); err != nil {
				failures = append(failures, fmt.Sprintf("State directory not writable: %v", err))
				fmt.Printf("  %s Not writable: %s\n", red("✗"), cfg.Monitor.StateDir)
			} else {
				_ = os.Remove(probeFile)
				fmt.Printf("  %s Writable: %s\n", green("✓"), cfg.Monitor.StateDir)
			}
		}

		// Check 3: Log file
		fmt.Printf("%s Log file\n", cyan("→"))
		if err := os.MkdirAll(filepath.Dir(cfg.Monitor.LogFile), 0o755); err != nil {
			failures = append(failures, fmt.Sprintf("Cannot create log directory: %v", err))
			fmt.Printf("  %s Cannot create log directory\n", red("✗"))
		} else if f, err := os.OpenFile(cfg.Monitor.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err != nil {
			failures = append(failures, fmt.Sprintf("Log file not writable: %v", err))
			fmt.Printf("  %s Not writable: %s\n", red("✗"), cfg.Monitor.LogFile)
		} else {
			_ = f.Close()
			fmt.Printf("  %s Writable: %s\n", green("✓"), cfg.Monitor.LogFile)
		}

		// Check 4: Target CLI
		fmt.Printf("%s Target CLI\n", cyan("→"))
		if path, err := exec.LookPath(cfg.Target.Command); err != nil {
			failures = append(failures, fmt.Sprintf("Target %q not found on PATH", cfg.Target.Command))
			fmt.Printf("  %s %q not found on PATH\n", red("✗"), cfg.Target.Command)
			fmt.Printf("    Probes and repairs will fail with exit 127\n")
		} else {
			fmt.Printf("  %s %s\n", green("✓"), path)
		}

		// Check 5: Workspace directory
		fmt.Printf("%s Workspace directory\n", cyan("→"))
		if cfg.Target.WorkspaceDir == "" {
			fmt.Printf("  %s Not configured (commands run from the current directory)\n", green("✓"))
		} else if fi, err := os.Stat(cfg.Target.WorkspaceDir); err != nil || !fi.IsDir() {
			warnings = append(warnings, "Workspace directory missing (commands run from the current directory)")
			fmt.Printf("  %s Missing: %s\n", yellow("⚠"), cfg.Target.WorkspaceDir)
		} else {
			fmt.Printf("  %s %s\n", green("✓"), cfg.Target.WorkspaceDir)
		}

		// Check 6: AI agent
		fmt.Printf("%s AI agent\n", cyan("→"))
		if !cfg.AI.Enabled {
			fmt.Printf("  %s Disabled\n", green("✓"))
		} else if path, err := exec.LookPath(cfg.AI.Command); err != nil {
			failures = append(failures, fmt.Sprintf("AI agent %q not found on PATH", cfg.AI.Command))
			fmt.Printf("  %s %q not found on PATH\n", red("✗"), cfg.AI.Command)
		} else {
			fmt.Printf("  %s %s\n", green("✓"), path)
			if cfg.AI.AllowCodeChanges {
				fmt.Printf("  %s Code changes are enabled for the AI tier\n", yellow("⚠"))
				warnings = append(warnings, "AI agent may modify code (ai.allow_code_changes)")
			}
		}

		// Check 7: Lock file
		fmt.Printf("%s Lock file\n", cyan("→"))
		lockPath := filepath.Join(cfg.Monitor.StateDir, lock.FileName)
		holder, err := lock.Inspect(lockPath)
		switch {
		case err != nil:
			warnings = append(warnings, fmt.Sprintf("Cannot read lock file: %v", err))
			fmt.Printf("  %s Cannot read %s\n", yellow("⚠"), lockPath)
		case holder == nil:
			fmt.Printf("  %s No lock held\n", green("✓"))
		case holder.Alive:
			fmt.Printf("  %s Held by running instance (pid %d)\n", green("✓"), holder.PID)
		default:
			warnings = append(warnings, "Stale lock file (will be reclaimed on next run)")
			fmt.Printf("  %s Stale lock from pid %d\n", yellow("⚠"), holder.PID)
		}

		// Check 8: State file
		fmt.Printf("%s State file\n", cyan("→"))
		statePath := filepath.Join(cfg.Monitor.StateDir, "state.json")
		if data, err := os.ReadFile(statePath); err != nil {
			fmt.Printf("  %s Not created yet (first run will write it)\n", green("✓"))
		} else if !json.Valid(data) {
			warnings = append(warnings, "State file is corrupt (will be reset on next save)")
			fmt.Printf("  %s Corrupt JSON in %s\n", yellow("⚠"), statePath)
		} else {
			fmt.Printf("  %s %s\n", green("✓"), statePath)
		}

		// Summary
		fmt.Printf("\n%s\n", strings.Repeat("─", 60))

		if len(failures) == 0 && len(warnings) == 0 {
			fmt.Printf("%s All checks passed! remedy is ready to run.\n", green("✓"))
			os.Exit(0)
		}

		if len(failures) > 0 {
			fmt.Printf("\n%s Failures (%d):\n", red("✗"), len(failures))
			for _, failure := range failures {
				fmt.Printf("  • %s\n", failure)
			}
		}

		if len(warnings) > 0 {
			fmt.Printf("\n%s Warnings (%d):\n", yellow("⚠"), len(warnings))
			for _, warning := range warnings {
				fmt.Printf("  • %s\n", warning)
			}
		}

		if len(failures) > 0 {
			fmt.Printf("\n%s remedy may not work correctly. Please address the failures above.\n", yellow("⚠"))
			os.Exit(1)
		}

		fmt.Printf("\n%s remedy should work, but some warnings were detected.\n", green("✓"))
		os.Exit(0)
	},
}

func init() {
	doctorCmd.Flags().BoolP("verbose", "v", false, "Show detailed diagnostic information")
	rootCmd.AddCommand(doctorCmd)
}
