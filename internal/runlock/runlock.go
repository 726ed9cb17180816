package runlock

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/flock"
)

// ErrBusy is returned by TryAcquire while another run holds the lock.
var ErrBusy = errors.New("runlock: a run is already in progress")

// Lock admits one aggregation run at a time. The in-process flag covers
// callers sharing a Lock; the optional file lock extends that to other
// processes using the same path.
type Lock struct {
	mu      sync.Mutex
	running bool
	file    *flock.Flock
}

// New returns a Lock. An empty path disables the cross-process file lock.
func New(path string) *Lock {
	l := &Lock{}
	if path != "" {
		l.file = flock.New(path)
	}
	return l
}

// TryAcquire takes the lock without blocking. The returned release func must
// be called exactly once; extra calls are no-ops.
func (l *Lock) TryAcquire() (release func(), err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil, ErrBusy
	}
	if l.file != nil {
		ok, err := l.file.TryLock()
		if err != nil {
			return nil, fmt.Errorf("runlock: %s: %w", l.file.Path(), err)
		}
		if !ok {
			return nil, ErrBusy
		}
	}
	l.running = true

	var once sync.Once
	return func() { once.Do(l.release) }, nil
}

func (l *Lock) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Unlock()
	}
	l.running = false
}

// Running reports whether this process currently holds the lock.
func (l *Lock) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}
