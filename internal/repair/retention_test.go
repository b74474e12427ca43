package repair

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func makeAttemptDirs(t *testing.T, base string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(base, name), 0o755); err != nil {
			t.Fatalf("mkdir %s failed: %v", name, err)
		}
	}
}

func survivors(t *testing.T, base string) map[string]bool {
	t.Helper()
	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	out := make(map[string]bool)
	for _, e := range entries {
		out[e.Name()] = true
	}
	return out
}

func TestPruneAttemptsRemovesOldKeepsNewest(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

	old1 := now.Add(-100 * time.Hour).Format(attemptDirLayout)
	old2 := now.Add(-90 * time.Hour).Format(attemptDirLayout)
	fresh := now.Add(-1 * time.Hour).Format(attemptDirLayout)
	makeAttemptDirs(t, base, old1, old2, fresh)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	removed := PruneAttempts(base, 1, 48*time.Hour, now, logger)
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	left := survivors(t, base)
	if !left[fresh] || left[old1] || left[old2] {
		t.Fatalf("wrong survivors: %v", left)
	}
}

func TestPruneAttemptsHonorsKeepFloor(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

	names := []string{
		now.Add(-100 * time.Hour).Format(attemptDirLayout),
		now.Add(-90 * time.Hour).Format(attemptDirLayout),
		now.Add(-80 * time.Hour).Format(attemptDirLayout),
	}
	makeAttemptDirs(t, base, names...)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	removed := PruneAttempts(base, 2, 48*time.Hour, now, logger)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	left := survivors(t, base)
	if left[names[0]] {
		t.Fatal("oldest attempt should have been pruned")
	}
	if !left[names[1]] || !left[names[2]] {
		t.Fatalf("keep floor violated: %v", left)
	}
}

func TestPruneAttemptsDisabledByZeroAge(t *testing.T) {
	base := t.TempDir()
	now := time.Now()
	makeAttemptDirs(t, base, now.Add(-1000*time.Hour).Format(attemptDirLayout))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if removed := PruneAttempts(base, 0, 0, now, logger); removed != 0 {
		t.Fatalf("zero max age must disable pruning, removed %d", removed)
	}
}

func TestPruneAttemptsIgnoresForeignEntries(t *testing.T) {
	base := t.TempDir()
	now := time.Now()
	makeAttemptDirs(t, base, "not-an-attempt")
	if err := os.WriteFile(filepath.Join(base, "notes.txt"), []byte("keep me"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if removed := PruneAttempts(base, 0, time.Hour, now, logger); removed != 0 {
		t.Fatalf("foreign entries must be left alone, removed %d", removed)
	}

	left := survivors(t, base)
	if !left["not-an-attempt"] || !left["notes.txt"] {
		t.Fatalf("foreign entries missing: %v", left)
	}
}

func TestPruneAttemptsMissingDir(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if removed := PruneAttempts(filepath.Join(t.TempDir(), "nope"), 1, time.Hour, time.Now(), logger); removed != 0 {
		t.Fatalf("missing dir must be a no-op, removed %d", removed)
	}
}
