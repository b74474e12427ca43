package repair

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// PruneAttempts removes attempt directories older than maxAge, always
// keeping at least keep of the newest ones. A maxAge of zero disables
// pruning. Entries whose names do not parse as attempt timestamps are left
// alone; they are not ours to delete.
func PruneAttempts(attemptsDir string, keep int, maxAge time.Duration, now time.Time, log *slog.Logger) int {
	if maxAge <= 0 {
		return 0
	}

	entries, err := os.ReadDir(attemptsDir)
	if err != nil {
		return 0
	}

	type attempt struct {
		name    string
		started time.Time
	}
	var attempts []attempt
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		started, perr := time.ParseInLocation(attemptDirLayout, e.Name(), time.Local)
		if perr != nil {
			continue
		}
		attempts = append(attempts, attempt{name: e.Name(), started: started})
	}

	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].started.After(attempts[j].started)
	})

	removed := 0
	for i, a := range attempts {
		if i < keep {
			continue
		}
		if now.Sub(a.started) <= maxAge {
			continue
		}
		path := filepath.Join(attemptsDir, a.name)
		if err := os.RemoveAll(path); err != nil {
			log.Warn("failed to prune attempt directory", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed
}

// pruneAttempts applies the configured retention policy before a new
// attempt adds to the pile.
func (e *Engine) pruneAttempts() {
	dir := filepath.Join(e.cfg.Monitor.StateDir, "attempts")
	removed := PruneAttempts(dir, e.cfg.Monitor.AttemptKeep, e.cfg.Monitor.AttemptMaxAge(), e.now(), e.log)
	if removed > 0 {
		e.log.Info("pruned old attempt directories", "removed", removed)
	}
}
