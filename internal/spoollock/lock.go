// Package spoollock serializes deliveries that target the same destination.
//
// cupsd may run several backend processes at once. Each delivery takes an
// exclusive flock on a lock file derived from its destination path, so two
// jobs with the same title finish one after the other instead of interleaving
// their renames. The last writer still wins.
package spoollock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const retryDelay = 50 * time.Millisecond

// Lock is a held destination lock.
type Lock struct {
	lock *flock.Flock
	path string
}

// Acquire blocks until the lock for destination is held or ctx is done.
func Acquire(ctx context.Context, dir, destination string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory %s: %w", dir, err)
	}
	path := PathFor(dir, destination)
	fl := flock.New(path)
	ok, err := fl.TryLockContext(ctx, retryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire lock %s: not acquired", path)
	}
	return &Lock{lock: fl, path: path}, nil
}

// PathFor returns the lock file used for destination.
func PathFor(dir, destination string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(destination)))
	return filepath.Join(dir, hex.EncodeToString(sum[:12])+".lock")
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks. Lock files are left in place for reuse by later jobs.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
