package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/remedy-sh/remedy/internal/config"
	"github.com/remedy-sh/remedy/internal/lock"
	"github.com/remedy-sh/remedy/internal/state"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show monitor state and recent repair attempts",
	Long: `Show what the monitor knows: when the target was last healthy, when
repairs last ran, today's AI budget, who holds the lock, and the most
recent attempt directories.

Example:
  remedy status
  remedy status --json`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		store := mustStore(cfg)
		st := store.Load()

		holder, err := lock.Inspect(filepath.Join(cfg.Monitor.StateDir, lock.FileName))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		attempts := recentAttempts(cfg, 3)

		if statusJSON {
			printStatusJSON(cfg, st, holder, attempts)
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		now := time.Now()
		fmt.Printf("\nTarget:        %s\n", cyan(cfg.Target.Command))
		fmt.Printf("State dir:     %s\n", cfg.Monitor.StateDir)
		fmt.Printf("Last healthy:  %s\n", formatAgo(st.LastOKTs, now))
		fmt.Printf("Last repair:   %s\n", formatAgo(st.LastRepairTs, now))
		fmt.Printf("Last AI run:   %s\n", formatAgo(st.LastAITs, now))
		fmt.Printf("AI budget:     %s\n", formatAIBudget(cfg, st, now))
		fmt.Printf("Lock:          %s\n", formatHolder(holder))

		if len(attempts) > 0 {
			fmt.Printf("\nRecent attempts:\n")
			for _, a := range attempts {
				fmt.Printf("  %s\n", gray(a))
			}
		}
		fmt.Println()
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the status as JSON")
	rootCmd.AddCommand(statusCmd)
}

// recentAttempts lists the newest attempt directories, newest first. The
// timestamp naming makes lexical order chronological.
func recentAttempts(cfg *config.Config, n int) []string {
	dir := filepath.Join(cfg.Monitor.StateDir, "attempts")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, filepath.Join(dir, e.Name()))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// formatAgo renders a unix timestamp as a relative age.
func formatAgo(ts *int64, now time.Time) string {
	if ts == nil {
		return "never"
	}
	return formatDuration(now.Sub(time.Unix(*ts, 0))) + " ago"
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%.1fh", d.Hours())
	}
	return fmt.Sprintf("%.1fd", d.Hours()/24)
}

// formatAIBudget reports today's AI usage against the configured cap.
func formatAIBudget(cfg *config.Config, st state.State, now time.Time) string {
	used := 0
	if st.AIAttemptsDay != nil && *st.AIAttemptsDay == now.Format("2006-01-02") {
		used = st.AIAttemptsCount
	}
	if !cfg.AI.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("%d of %d used today", used, cfg.AI.MaxAttemptsPerDay)
}

func formatHolder(h *lock.Holder) string {
	switch {
	case h == nil:
		return "free"
	case h.PID <= 0:
		return "held (unreadable lock file)"
	case h.Alive:
		return fmt.Sprintf("held by pid %d", h.PID)
	default:
		return fmt.Sprintf("stale (pid %d is gone)", h.PID)
	}
}

func printStatusJSON(cfg *config.Config, st state.State, holder *lock.Holder, attempts []string) {
	var lockOut any
	if holder != nil {
		lockOut = map[string]any{"pid": holder.PID, "alive": holder.Alive}
	}

	out := struct {
		Target          string   `json:"target"`
		StateDir        string   `json:"state_dir"`
		LastOKTs        *int64   `json:"last_ok_ts"`
		LastRepairTs    *int64   `json:"last_repair_ts"`
		LastAITs        *int64   `json:"last_ai_ts"`
		AIAttemptsDay   *string  `json:"ai_attempts_day"`
		AIAttemptsCount int      `json:"ai_attempts_count"`
		Lock            any      `json:"lock"`
		RecentAttempts  []string `json:"recent_attempts"`
	}{
		Target:          cfg.Target.Command,
		StateDir:        cfg.Monitor.StateDir,
		LastOKTs:        st.LastOKTs,
		LastRepairTs:    st.LastRepairTs,
		LastAITs:        st.LastAITs,
		AIAttemptsDay:   st.AIAttemptsDay,
		AIAttemptsCount: st.AIAttemptsCount,
		Lock:            lockOut,
		RecentAttempts:  attempts,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
