package session

import (
	"errors"
	"fmt"
	"time"
)

// ErrLockTimeout is returned when a critical section cannot be entered
// within the bounded wait. A stall this long is a bug to surface, not
// something to hang on.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// DefaultLockTimeout bounds every blocking lock acquisition.
const DefaultLockTimeout = 3 * time.Second

// timedLock is a mutex with a bounded, named acquire. Two of these
// exist: the selection lock (always outer) and the table lock (always
// inner). Callers must never take selection while holding table.
type timedLock struct {
	name string
	ch   chan struct{}
}

func newTimedLock(name string) *timedLock {
	l := &timedLock{name: name, ch: make(chan struct{}, 1)}
	l.ch <- struct{}{}
	return l
}

func (l *timedLock) acquire(timeout time.Duration) error {
	select {
	case <-l.ch:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%w: %q after %v", ErrLockTimeout, l.name, timeout)
	}
}

func (l *timedLock) release() {
	select {
	case l.ch <- struct{}{}:
	default:
		panic("release of unheld lock " + l.name)
	}
}
