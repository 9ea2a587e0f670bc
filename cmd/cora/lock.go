package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// processLock serializes mutating cora processes on one database.
type processLock struct {
	fl *flock.Flock
}

// acquireLock takes an exclusive advisory lock on path, retrying until
// timeout. A zero timeout tries once.
func acquireLock(ctx context.Context, path string, timeout time.Duration) (*processLock, error) {
	fl := flock.New(path)
	if timeout <= 0 {
		ok, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to lock %s: %w", path, err)
		}
		if !ok {
			return nil, fmt.Errorf("database is in use by another cora process (lock %s)", path)
		}
		return &processLock{fl: fl}, nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ok, err := fl.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("database is in use by another cora process (waited %s for %s)", timeout, path)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("database is in use by another cora process (lock %s)", path)
	}
	return &processLock{fl: fl}, nil
}

// Release drops the lock. The lock file itself stays on disk.
func (l *processLock) Release() {
	if l == nil || l.fl == nil {
		return
	}
	_ = l.fl.Unlock()
}
