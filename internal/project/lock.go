package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dirvault/dirvault/internal/config"
	derrors "github.com/dirvault/dirvault/internal/errors"
)

const lockFile = "lock"

// AcquireLock takes the advisory per-project lock. The plaintext key file
// and bundle files are shared mutable state with no finer-grained locking,
// so two invocations against the same root must not run concurrently.
// The returned release function removes the lock and must be deferred.
func AcquireLock(root string) (func(), error) {
	lockPath := filepath.Join(root, config.MarkerDir, lockFile)

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: lock file %s exists", derrors.ErrLockHeld, lockPath)
		}
		return nil, fmt.Errorf("acquiring project lock: %w", err)
	}

	fmt.Fprintf(f, "%d\n", os.Getpid())
	if err := f.Close(); err != nil {
		_ = os.Remove(lockPath)
		return nil, fmt.Errorf("acquiring project lock: %w", err)
	}

	release := func() {
		_ = os.Remove(lockPath)
	}
	return release, nil
}
