package main

import (
	"fmt"

	"github.com/gofrs/flock"

	"tunekeep/internal/services"
)

// acquireLock takes the catalog's single-writer lock without waiting. The
// returned function releases it.
func acquireLock(path string) (func(), error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConflict, "cli", "lock",
			fmt.Sprintf("another tunekeep command is modifying the catalog (lock %s)", path), nil)
	}
	return func() { _ = lock.Unlock() }, nil
}
