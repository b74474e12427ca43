// scripts/prune-attempts.go - Manual attempt directory cleanup tool
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/remedy-sh/remedy/internal/config"
	"github.com/remedy-sh/remedy/internal/repair"
)

func main() {
	cfgPath := flag.String("config", config.DefaultPath(), "Path to the remedy config file")
	keep := flag.Int("keep", -1, "Override monitor.attempt_keep")
	maxAgeHours := flag.Int("max-age-hours", -1, "Override monitor.attempt_max_age_hours")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *keep >= 0 {
		cfg.Monitor.AttemptKeep = *keep
	}
	if *maxAgeHours >= 0 {
		cfg.Monitor.AttemptMaxAgeHours = *maxAgeHours
	}

	attemptsDir := filepath.Join(cfg.Monitor.StateDir, "attempts")
	fmt.Printf("Pruning %s (keep %d, max age %dh)...\n",
		attemptsDir, cfg.Monitor.AttemptKeep, cfg.Monitor.AttemptMaxAgeHours)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	removed := repair.PruneAttempts(attemptsDir, cfg.Monitor.AttemptKeep,
		cfg.Monitor.AttemptMaxAge(), time.Now(), logger)

	if removed > 0 {
		fmt.Printf("✓ Pruned %d attempt director(ies)\n", removed)
	} else {
		fmt.Println("✓ Nothing to prune")
	}
}
