package workflow

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrRunInProgress reports that another invocation holds the artifact lock.
var ErrRunInProgress = errors.New("another fxpipe run is in progress")

// acquireLock takes the single-writer lock on the artifact root without waiting.
func acquireLock(path string) (*flock.Flock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrRunInProgress, path)
	}
	return lock, nil
}
