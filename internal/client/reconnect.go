package client

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// RejoinError reports a failed session-rejoin handshake. Retryable
// failures keep the supervisor cycling; anything else stops it.
type RejoinError struct {
	Err       error
	Retryable bool
}

func (e *RejoinError) Error() string {
	return fmt.Sprintf("rejoin failed (retryable=%v): %v", e.Retryable, e.Err)
}

func (e *RejoinError) Unwrap() error { return e.Err }

// supervisor retries session resumption after link loss. Retries are
// unbounded: the loop is limited only by the fixed delay and by
// session disposal, which is checked at the top of every cycle so a
// retry can never outlive its session.
type supervisor struct {
	clock     clockwork.Clock
	delay     time.Duration
	reconnect func(ctx context.Context) error
	rejoin    func(ctx context.Context) error
	disposed  func() bool

	active atomic.Bool
}

func newSupervisor(clock clockwork.Clock, delay time.Duration,
	reconnect, rejoin func(ctx context.Context) error, disposed func() bool) *supervisor {
	return &supervisor{
		clock:     clock,
		delay:     delay,
		reconnect: reconnect,
		rejoin:    rejoin,
		disposed:  disposed,
	}
}

// onLinkLost starts one reconnection cycle unless one is already in
// flight or the session is gone.
func (s *supervisor) onLinkLost(ctx context.Context) {
	if s.disposed() {
		return
	}
	if !s.active.CompareAndSwap(false, true) {
		return
	}
	go s.loop(ctx)
}

func (s *supervisor) loop(ctx context.Context) {
	defer s.active.Store(false)

	for attempt := 1; ; attempt++ {
		if s.disposed() || ctx.Err() != nil {
			log.Debug().Msg("reconnection abandoned, session gone")
			return
		}

		if err := s.reconnect(ctx); err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("reconnect failed")
			if !s.wait(ctx) {
				return
			}
			continue
		}

		err := s.rejoin(ctx)
		if err == nil {
			log.Info().Int("attempt", attempt).Msg("session resumed")
			return
		}

		var rj *RejoinError
		if errors.As(err, &rj) && rj.Retryable {
			log.Warn().Err(err).Int("attempt", attempt).Msg("rejoin failed, will retry")
			if !s.wait(ctx) {
				return
			}
			continue
		}

		log.Error().Err(err).Msg("rejoin failed permanently")
		return
	}
}

// wait blocks for the fixed delay. Returns false when the wait was cut
// short by cancellation.
func (s *supervisor) wait(ctx context.Context) bool {
	select {
	case <-s.clock.After(s.delay):
		return true
	case <-ctx.Done():
		return false
	}
}
