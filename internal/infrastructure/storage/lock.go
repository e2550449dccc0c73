package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const lockFileName = ".consolidator.lock"

// RunLock guards against overlapping invocations racing on the shared state
// files. Acquisition is an exclusive create; a held lock is reported, never
// stolen. A crashed run leaves a stale lock for the operator to clear.
type RunLock struct {
	path string
}

// AcquireRunLock creates the lock file or fails if another run holds it.
func AcquireRunLock(dataDir string) (*RunLock, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dataDir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			holder := "unknown"
			if raw, readErr := os.ReadFile(path); readErr == nil {
				holder = strings.TrimSpace(string(raw))
			}
			return nil, fmt.Errorf("another run holds the lock %s (pid %s); remove it if that run crashed", path, holder)
		}
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}

	_, writeErr := f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	closeErr := f.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write lock %s: %w", path, firstErr(writeErr, closeErr))
	}

	return &RunLock{path: path}, nil
}

// Release removes the lock file.
func (l *RunLock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	return os.Remove(l.path)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
