package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
)

func TestSandboxLocks_LockUnlock(t *testing.T) {
	m := NewSandboxLocks()

	unlock := m.Lock("out/job-a")
	unlock()

	// Should be able to lock again
	unlock = m.Lock("out/job-a")
	unlock()
}

func TestSandboxLocks_DifferentSandboxes(t *testing.T) {
	m := NewSandboxLocks()

	done := make(chan struct{})

	unlockA := m.Lock("out/job-a")
	go func() {
		// job-b should not be blocked by job-a
		unlock := m.Lock("out/job-b")
		unlock()
		close(done)
	}()

	<-done
	unlockA()
}

func TestSandboxLocks_EquivalentPathsShareMutex(t *testing.T) {
	m := NewSandboxLocks()
	if m.get(key("out/job-a")) != m.get(key("./out/../out/job-a")) {
		t.Error("equivalent paths must map to the same mutex")
	}
}

func TestSandboxLocks_Concurrent(t *testing.T) {
	m := NewSandboxLocks()
	var counter int64

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("shared")
			atomic.AddInt64(&counter, 1)
			unlock()
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("expected counter=100, got %d", counter)
	}
}

func TestFileLock_TryLockWritesPID(t *testing.T) {
	dir := t.TempDir()

	fl := ForSandbox(dir)
	if err := fl.TryLock(); err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	defer fl.Unlock()

	if fl.Path() != filepath.Join(dir, LockFileName) {
		t.Errorf("unexpected lock path %s", fl.Path())
	}
	content, err := os.ReadFile(fl.Path())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if strings.TrimSpace(string(content)) != strconv.Itoa(os.Getpid()) {
		t.Errorf("lock file content = %q, want pid %d", content, os.Getpid())
	}
}

func TestFileLock_DoubleLockRejected(t *testing.T) {
	dir := t.TempDir()

	fl1 := ForSandbox(dir)
	if err := fl1.TryLock(); err != nil {
		t.Fatalf("first TryLock failed: %v", err)
	}
	defer fl1.Unlock()

	fl2 := ForSandbox(dir)
	if err := fl2.TryLock(); err == nil {
		fl2.Unlock()
		t.Fatal("expected second TryLock to fail")
	}
}

func TestFileLock_UnlockAllowsRelock(t *testing.T) {
	dir := t.TempDir()

	fl1 := ForSandbox(dir)
	if err := fl1.TryLock(); err != nil {
		t.Fatalf("first TryLock failed: %v", err)
	}
	if err := fl1.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	info, err := os.Stat(fl1.Path())
	if err != nil {
		t.Fatalf("lock file should remain after unlock: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("PID not cleared on unlock, size %d", info.Size())
	}

	fl2 := ForSandbox(dir)
	if err := fl2.TryLock(); err != nil {
		t.Fatalf("re-lock after unlock failed: %v", err)
	}
	fl2.Unlock()
}

func TestFileLock_WaiterOpenedBeforeUnlockExcludesNewcomers(t *testing.T) {
	dir := t.TempDir()

	fl1 := ForSandbox(dir)
	if err := fl1.TryLock(); err != nil {
		t.Fatalf("first TryLock failed: %v", err)
	}
	waiter, err := os.OpenFile(fl1.Path(), os.O_RDWR, 0600)
	if err != nil {
		t.Fatal(err)
	}
	defer waiter.Close()

	if err := fl1.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if err := syscall.Flock(int(waiter.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		t.Fatalf("waiter flock failed: %v", err)
	}
	defer syscall.Flock(int(waiter.Fd()), syscall.LOCK_UN)

	fl2 := ForSandbox(dir)
	if err := fl2.TryLock(); err == nil {
		fl2.Unlock()
		t.Fatal("newcomer locked the sandbox while the waiter holds it")
	}
}

func TestFileLock_DoubleUnlockSafe(t *testing.T) {
	fl := ForSandbox(t.TempDir())
	fl.TryLock()
	fl.Unlock()
	if err := fl.Unlock(); err != nil {
		t.Fatalf("double unlock should be safe, got: %v", err)
	}
}
