package lock

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func lockPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), FileName)
}

func TestAcquireWritesOurPID(t *testing.T) {
	l := New(lockPath(t))

	ok, err := l.Acquire(0)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !ok {
		t.Fatal("expected to acquire a fresh lock")
	}
	defer l.Release()

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	if got := string(data); got != strconv.Itoa(os.Getpid()) {
		t.Errorf("lock body = %q, want our pid %d", got, os.Getpid())
	}
}

func TestAcquireAgainstLiveHolderFailsImmediately(t *testing.T) {
	path := lockPath(t)

	first := New(path)
	ok, err := first.Acquire(0)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	defer first.Release()

	second := New(path)
	start := time.Now()
	ok, err = second.Acquire(0)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second acquire should fail while the first holds the lock")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("zero-timeout acquire took %v, want immediate return", elapsed)
	}
}

func TestAcquireTimeoutAgainstLiveHolder(t *testing.T) {
	path := lockPath(t)

	first := New(path)
	if ok, err := first.Acquire(0); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	defer first.Release()

	second := New(path)
	start := time.Now()
	ok, err := second.Acquire(500 * time.Millisecond)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second acquire should time out")
	}
	if elapsed < 500*time.Millisecond {
		t.Errorf("returned after %v, want the full timeout spent polling", elapsed)
	}
}

func TestAcquireReclaimsUnparsableLock(t *testing.T) {
	path := lockPath(t)
	if err := os.WriteFile(path, []byte("not a pid"), 0600); err != nil {
		t.Fatalf("write junk lock: %v", err)
	}

	l := New(path)
	ok, err := l.Acquire(0)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !ok {
		t.Fatal("unparsable lock should be reclaimed")
	}
	defer l.Release()
}

func TestAcquireReclaimsDeadOwner(t *testing.T) {
	// Run a short-lived process to obtain a PID that is certainly dead.
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Fatalf("run true: %v", err)
	}
	deadPID := cmd.Process.Pid

	path := lockPath(t)
	if err := os.WriteFile(path, []byte(strconv.Itoa(deadPID)), 0600); err != nil {
		t.Fatalf("write stale lock: %v", err)
	}

	l := New(path)
	ok, err := l.Acquire(0)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !ok {
		t.Fatal("dead-owner lock should be reclaimed")
	}
	defer l.Release()

	data, _ := os.ReadFile(path)
	if got := string(data); got != strconv.Itoa(os.Getpid()) {
		t.Errorf("lock body = %q, want our pid after reclaim", got)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	path := lockPath(t)
	l := New(path)

	if ok, err := l.Acquire(0); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}

	l.Release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("lock file should be gone after release")
	}

	// Repeated and unpaired releases must not panic or error.
	l.Release()
	New(filepath.Join(t.TempDir(), FileName)).Release()
}

func TestReacquireAfterRelease(t *testing.T) {
	path := lockPath(t)
	l := New(path)

	if ok, err := l.Acquire(0); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	l.Release()

	if ok, err := l.Acquire(0); err != nil || !ok {
		t.Fatalf("reacquire: ok=%v err=%v", ok, err)
	}
	l.Release()
}

func TestInspect(t *testing.T) {
	path := lockPath(t)

	holder, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect missing: %v", err)
	}
	if holder != nil {
		t.Errorf("missing lock should inspect as nil, got %+v", holder)
	}

	l := New(path)
	if ok, err := l.Acquire(0); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	defer l.Release()

	holder, err = Inspect(path)
	if err != nil {
		t.Fatalf("Inspect held: %v", err)
	}
	if holder == nil || holder.PID != os.Getpid() || !holder.Alive {
		t.Errorf("holder = %+v, want our live pid", holder)
	}
}

func TestInspectUnparsable(t *testing.T) {
	path := lockPath(t)
	if err := os.WriteFile(path, []byte("junk"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	holder, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if holder == nil || holder.PID != 0 {
		t.Errorf("holder = %+v, want PID 0 for unparsable body", holder)
	}
}
