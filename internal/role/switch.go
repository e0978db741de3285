package role

import (
	"errors"
	"fmt"

	"github.com/quizarena/quizarena/internal/accounts"
	"github.com/rs/zerolog/log"
)

// ErrComputerSwitch is a programming-error condition: a computer seat
// has no remote client to host it, so its role can never be switched.
var ErrComputerSwitch = errors.New("cannot switch role of a computer-controlled account")

// ErrNoSeat is returned when a switch targets a missing seat.
var ErrNoSeat = errors.New("role switch has no target seat")

// Switch replaces the active handler with one of the target category
// bound to the new seat. Order matters: the outgoing bindings are
// detached before anything else so a stale UI command cannot fire into
// a half-replaced handler, and the old handler is disposed only after
// the new one is fully initialized.
func Switch(old Handler, to accounts.Role, seat *accounts.Account, sender Sender) (Handler, error) {
	if seat == nil {
		return nil, ErrNoSeat
	}
	if !seat.IsHuman {
		return nil, fmt.Errorf("%w: %q", ErrComputerSwitch, seat.Name)
	}

	if old != nil {
		old.Detach()
	}

	next := New(to, seat, sender)

	// Session decorations travel with the person, not the role.
	if old != nil && old.Account() != nil && seat.Picture == "" {
		seat.Picture = old.Account().Picture
	}

	next.Init()

	if old != nil {
		from := old.Role()
		old.Dispose()
		log.Debug().
			Stringer("from", from).
			Stringer("to", to).
			Str("seat", seat.Name).
			Msg("role handler switched")
	}

	return next, nil
}
