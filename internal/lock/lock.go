// Package lock provides file-based locking so two argonaut processes never
// write the same directory at once.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("lock is held by another process")

// Lock represents a file-based lock.
type Lock struct {
	operation string
	path      string
	file      *os.File
}

// New creates a lock for the given operation on dir. The lock file lives in
// dir/.argonaut/locks.
func New(dir, operation string) *Lock {
	return &Lock{
		operation: operation,
		path:      filepath.Join(dir, ".argonaut", "locks", operation+".lock"),
	}
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Acquire attempts to acquire the lock without blocking.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	if err := lockFile(f); err != nil {
		f.Close()
		l.file = nil
		if errors.Is(err, ErrLocked) {
			return fmt.Errorf("another %s is already running: %w", l.operation, err)
		}
		return fmt.Errorf("acquire lock: %w", err)
	}

	// PID for debugging stale locks
	_ = f.Truncate(0)
	_, _ = f.Seek(0, 0)
	fmt.Fprintf(f, "%d\n", os.Getpid())

	l.file = f
	return nil
}

// Release releases the lock and removes the lock file.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}

	if err := unlockFile(l.file); err != nil {
		l.file.Close()
		l.file = nil
		return fmt.Errorf("release lock: %w", err)
	}

	l.file.Close()
	os.Remove(l.path)
	l.file = nil
	return nil
}

// WithLock executes fn while holding the lock for operation on dir.
func WithLock(dir, operation string, fn func() error) error {
	lock := New(dir, operation)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	return fn()
}
