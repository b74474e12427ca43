// Package lock implements the single-instance guarantee: an exclusively
// created PID file that every repair-capable command must hold. A lock
// whose recorded owner is gone is reclaimed automatically.
package lock

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// FileName is the lock file's name under the monitor state directory.
const FileName = "remedy.lock"

const pollInterval = 200 * time.Millisecond

// FileLock is a PID-bearing lock file.
type FileLock struct {
	path string
	file *os.File
}

// New returns an unacquired lock at path.
func New(path string) *FileLock {
	return &FileLock{path: path}
}

// Path returns the lock file location.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire creates the lock file exclusively and writes our PID into it.
// A lock whose recorded PID is unparsable or whose process is gone is
// removed and retried immediately. When a live holder exists: a zero or
// negative timeout returns false at once, otherwise we poll every 200ms
// until the deadline. The error return is for real I/O problems only,
// never for "someone else holds it".
func (l *FileLock) Acquire(timeout time.Duration) (bool, error) {
	start := time.Now()
	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			if _, werr := fmt.Fprintf(f, "%d", os.Getpid()); werr != nil {
				f.Close()
				_ = os.Remove(l.path)
				return false, fmt.Errorf("failed to write lock file: %w", werr)
			}
			l.file = f
			return true, nil
		}
		if !os.IsExist(err) {
			return false, fmt.Errorf("failed to create lock file: %w", err)
		}

		if l.tryBreakStale() {
			continue
		}
		if timeout <= 0 {
			return false, nil
		}
		if time.Since(start) >= timeout {
			return false, nil
		}
		time.Sleep(pollInterval)
	}
}

// Release closes the handle and deletes the lock file. Idempotent, and safe
// without a prior successful Acquire.
func (l *FileLock) Release() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
	_ = os.Remove(l.path)
}

// tryBreakStale removes the lock when its PID is unreadable, unparsable, or
// names a process that no longer exists. Returns true when the caller
// should retry the exclusive create. The window between the liveness check
// and the delete is accepted: this is a single-operator tool, not a
// distributed lock.
func (l *FileLock) tryBreakStale() bool {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return l.removeLock()
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return l.removeLock()
	}
	if processAlive(pid) {
		return false
	}
	return l.removeLock()
}

// removeLock deletes the lock path; losing the race to another remover
// still counts as removed.
func (l *FileLock) removeLock() bool {
	err := os.Remove(l.path)
	return err == nil || os.IsNotExist(err)
}

// Holder describes the lock file's current owner, for status displays.
type Holder struct {
	PID   int
	Alive bool
}

// Inspect reads the lock file without modifying it. No lock file returns
// (nil, nil); an unparsable body returns a Holder with PID 0.
func Inspect(path string) (*Holder, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}

	pid, perr := strconv.Atoi(strings.TrimSpace(string(data)))
	if perr != nil || pid <= 0 {
		return &Holder{}, nil
	}
	return &Holder{PID: pid, Alive: processAlive(pid)}, nil
}

// processAlive is the signal-0 liveness probe. An EPERM answer counts as
// gone: the watchdog only contends with its own user's processes.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
