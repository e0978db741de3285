// Package timers keeps the three game countdowns (round, decision,
// media) in sync with the host. Nothing here ticks: each timer is
// reconstructed from discrete control events, anchored to the event's
// arrival instant so that delivery delay cannot skew the countdown.
// The renderer pulls remaining time; it is never pushed.
package timers

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Count is the number of independently addressable timers.
const Count = 3

// Decisecond is the unit of every duration argument on the wire.
const Decisecond = 100 * time.Millisecond

// NoPause marks a record with no recorded paused-elapsed value.
const NoPause = -1

var ErrBadIndex = errors.New("timer index out of range")

// Record is the reconstructed state of one timer. MaxTime and PauseTime
// are in deciseconds, matching the wire unit.
type Record struct {
	Enabled     bool
	UserEnabled bool
	StartTime   time.Time
	EndTime     time.Time
	MaxTime     int
	PauseTime   int
}

// Bank owns the three timer records. Safe for concurrent use: the
// network side mutates, the render side reads snapshots.
type Bank struct {
	clock clockwork.Clock

	mu   sync.Mutex
	recs [Count]Record
}

func NewBank(clock clockwork.Clock) *Bank {
	b := &Bank{clock: clock}
	for i := range b.recs {
		b.recs[i].UserEnabled = true
		b.recs[i].PauseTime = NoPause
	}
	return b
}

// Record returns a snapshot of timer i.
func (b *Bank) Record(i int) (Record, error) {
	if i < 0 || i >= Count {
		return Record{}, fmt.Errorf("%w: %d", ErrBadIndex, i)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recs[i], nil
}

// Remaining returns the time left on timer i as of now. Zero when the
// timer is not running.
func (b *Bank) Remaining(i int) (time.Duration, error) {
	rec, err := b.Record(i)
	if err != nil {
		return 0, err
	}
	if !rec.Enabled {
		return 0, nil
	}
	d := rec.EndTime.Sub(b.clock.Now())
	if d < 0 {
		d = 0
	}
	return d, nil
}

// Start begins timer i with maxTime deciseconds from the arrival instant.
func (b *Bank) Start(i, maxTime int) error {
	return b.mutate(i, func(r *Record) {
		now := b.clock.Now()
		r.StartTime = now
		r.EndTime = now.Add(time.Duration(maxTime) * Decisecond)
		r.MaxTime = maxTime
		r.PauseTime = NoPause
		r.Enabled = true
	})
}

// Stop disables timer i and clears any recorded pause.
func (b *Bank) Stop(i int) error {
	return b.mutate(i, func(r *Record) {
		r.Enabled = false
		r.PauseTime = NoPause
	})
}

// Pause disables timer i, recording how much had elapsed (deciseconds)
// according to the host.
func (b *Bank) Pause(i, elapsed int) error {
	return b.mutate(i, func(r *Record) {
		r.Enabled = false
		r.PauseTime = elapsed
	})
}

// UserPause marks timer i paused by the local user. The elapsed value
// is recorded only if the timer was actually running.
func (b *Bank) UserPause(i, elapsed int) error {
	return b.mutate(i, func(r *Record) {
		r.UserEnabled = false
		if r.Enabled {
			r.PauseTime = elapsed
		}
	})
}

// Resume re-enables timer i. If the user has not paused it as well, the
// end time is rebuilt from the recorded elapsed value so that total
// duration is preserved regardless of how long the pause lasted.
func (b *Bank) Resume(i int) error {
	return b.mutate(i, func(r *Record) {
		r.Enabled = true
		if r.UserEnabled {
			b.rebuild(r)
		}
	})
}

// UserResume lifts a user pause. The host-side state decides whether
// the countdown actually continues.
func (b *Bank) UserResume(i int) error {
	return b.mutate(i, func(r *Record) {
		r.UserEnabled = true
		if r.Enabled && r.PauseTime != NoPause {
			b.rebuild(r)
		}
	})
}

// SetMaxTime overwrites the maximum duration without touching the
// running state.
func (b *Bank) SetMaxTime(i, maxTime int) error {
	return b.mutate(i, func(r *Record) {
		r.MaxTime = maxTime
	})
}

// rebuild recomputes absolute start/end from the recorded elapsed
// value, anchored at now. Caller holds the lock.
func (b *Bank) rebuild(r *Record) {
	if r.PauseTime == NoPause {
		return
	}
	now := b.clock.Now()
	r.EndTime = now.Add(time.Duration(r.MaxTime-r.PauseTime) * Decisecond)
	r.StartTime = r.EndTime.Add(-time.Duration(r.MaxTime) * Decisecond)
	r.PauseTime = NoPause
}

func (b *Bank) mutate(i int, fn func(*Record)) error {
	if i < 0 || i >= Count {
		return fmt.Errorf("%w: %d", ErrBadIndex, i)
	}
	b.mu.Lock()
	fn(&b.recs[i])
	rec := b.recs[i]
	b.mu.Unlock()

	log.Debug().
		Int("timer", i).
		Bool("enabled", rec.Enabled).
		Bool("user_enabled", rec.UserEnabled).
		Int("max_time", rec.MaxTime).
		Int("pause_time", rec.PauseTime).
		Msg("timer updated")
	return nil
}
