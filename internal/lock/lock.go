// Package lock serializes work on job sandbox directories, both inside one
// process (SandboxLocks) and across processes (FileLock).
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
)

// LockFileName is the per-sandbox lock file used by long-running watchers.
const LockFileName = ".abiprep.lock"

// SandboxLocks hands out one mutex per sandbox directory. Paths are cleaned
// and made absolute so that "out/a" and "./out/a" share a mutex.
type SandboxLocks struct {
	mu      sync.Mutex
	mutexes map[string]*sync.Mutex
}

func NewSandboxLocks() *SandboxLocks {
	return &SandboxLocks{
		mutexes: make(map[string]*sync.Mutex),
	}
}

// Lock blocks until dir is free and returns the matching unlock function.
func (m *SandboxLocks) Lock(dir string) (unlock func()) {
	mu := m.get(key(dir))
	mu.Lock()
	return mu.Unlock
}

func (m *SandboxLocks) get(k string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mu, ok := m.mutexes[k]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	m.mutexes[k] = mu
	return mu
}

func key(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}

// FileLock is an exclusive flock on a file holding the owner's PID.
type FileLock struct {
	path string
	file *os.File
}

func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// ForSandbox returns the lock guarding dir.
func ForSandbox(dir string) *FileLock {
	return NewFileLock(filepath.Join(dir, LockFileName))
}

func (fl *FileLock) Path() string { return fl.path }

func (fl *FileLock) TryLock() error {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return fmt.Errorf("acquire lock %s (sandbox already in use): %w", fl.path, err)
	}

	release := func(step string, err error) error {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		return fmt.Errorf("%s lock file: %w", step, err)
	}
	if err := f.Truncate(0); err != nil {
		return release("truncate", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return release("seek", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return release("write PID to", err)
	}
	if err := f.Sync(); err != nil {
		return release("sync", err)
	}

	fl.file = f
	return nil
}

// Unlock clears the PID and releases the lock. The file itself stays so
// every waiter locks the same inode.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}
	f := fl.file
	fl.file = nil

	f.Truncate(0)
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		f.Close()
		return fmt.Errorf("release lock: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close lock file: %w", err)
	}
	return nil
}
