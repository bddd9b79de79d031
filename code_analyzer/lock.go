package code_analyzer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const lockFileName = "lock"

// WorkspaceLock is a single-writer guard around the snapshot and documentation stores.
type WorkspaceLock struct {
	path string
}

// AcquireLock creates <root>/<stateDir>/lock exclusively. It fails with
// ErrLocked when another running process already holds it. A lock left behind
// by a process that is no longer running is removed and taken over.
func AcquireLock(workspaceRoot, stateDir string) (*WorkspaceLock, error) {
	dir := filepath.Join(workspaceRoot, stateDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: dir, Err: err}
	}

	path := filepath.Join(dir, lockFileName)
	lock, err := createLockFile(path)
	if !errors.Is(err, ErrLocked) {
		return lock, err
	}

	pid, ok := lockOwner(path)
	if !ok || processRunning(pid) {
		return nil, err
	}
	if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		return nil, &IOError{Op: "unlock", Path: path, Err: rmErr}
	}
	return createLockFile(path)
}

func createLockFile(path string) (*WorkspaceLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
		}
		return nil, &IOError{Op: "lock", Path: path, Err: err}
	}
	_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, &IOError{Op: "lock", Path: path, Err: err}
	}
	return &WorkspaceLock{path: path}, nil
}

// lockOwner reads the PID recorded in the lock file. An unreadable or empty
// lock may still be in the middle of being written and is reported as unknown.
func lockOwner(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

func processRunning(pid int) bool {
	if pid == os.Getpid() {
		return true
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return !errors.Is(err, os.ErrProcessDone) && !errors.Is(err, syscall.ESRCH)
}

// Release removes the lock file.
func (l *WorkspaceLock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return &IOError{Op: "unlock", Path: l.path, Err: err}
	}
	return nil
}
