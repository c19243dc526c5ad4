package fsio

import (
	"fmt"
	"os"
	"time"
)

// Lock is a held advisory lock on a sidecar <path>.lock file. Release with
// Unlock. The lock file itself is never read; only its flock state matters.
type Lock struct {
	file *os.File
}

// Unlock releases the advisory lock and closes the lock file.
func (l *Lock) Unlock() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unlockFile(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if err != nil {
		return err
	}
	return closeErr
}

// WithExclusiveLock acquires an exclusive advisory lock on <path>.lock,
// runs fn, and releases the lock. Blocks until the lock is available.
func WithExclusiveLock(path string, fn func() error) error {
	lock, err := AcquireExclusive(path)
	if err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}

// AcquireExclusive blocks until the exclusive lock on <path>.lock is held.
func AcquireExclusive(path string) (*Lock, error) {
	f, err := openLockFile(path)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f, true); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock %s: %w", path+lockSuffix, err)
	}
	return &Lock{file: f}, nil
}

// AcquireShared blocks until a shared lock on <path>.lock is held. On
// platforms without shared flock semantics this degrades to exclusive.
func AcquireShared(path string) (*Lock, error) {
	f, err := openLockFile(path)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f, false); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock %s: %w", path+lockSuffix, err)
	}
	return &Lock{file: f}, nil
}

const (
	lockSuffix    = ".lock"
	retryAttempts = 5
	retryBase     = 50 * time.Millisecond
	retryCap      = time.Second
)

// TryExclusive attempts a non-blocking exclusive lock with bounded retry:
// 5 attempts, exponential backoff from 50ms capped at 1s. Returns
// (nil, nil) when every attempt found the lock held, so low-priority
// writers can skip silently.
func TryExclusive(path string) (*Lock, error) {
	f, err := openLockFile(path)
	if err != nil {
		return nil, err
	}

	delay := retryBase
	for attempt := 0; attempt < retryAttempts; attempt++ {
		ok, err := tryLockFile(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("lock %s: %w", path+lockSuffix, err)
		}
		if ok {
			return &Lock{file: f}, nil
		}
		time.Sleep(delay)
		delay *= 2
		if delay > retryCap {
			delay = retryCap
		}
	}
	f.Close()
	return nil, nil
}

func openLockFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path+lockSuffix, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path+lockSuffix, err)
	}
	return f, nil
}
