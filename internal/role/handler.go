// Package role hosts the local identity's role handlers. A handler
// owns the command bindings the UI may fire for the current seat
// category; switching seats replaces the whole handler rather than
// mutating it across types.
package role

import (
	"strconv"

	"github.com/quizarena/quizarena/internal/accounts"
	"github.com/quizarena/quizarena/internal/protocol"
)

// Sender delivers outbound commands to the host. Fire-and-forget; the
// engine assumes no acknowledgement.
type Sender interface {
	Send(command string, args ...string) error
}

// Bindings are the UI-facing command slots a handler may populate.
// A nil field means the current role cannot issue that command.
type Bindings struct {
	SelectQuestion func(theme, question int)
	DeleteTheme    func(theme int)
	SendAnswer     func(text string)
	Pass           func()
	Stake          func(kind string, value int)
	Ready          func()
	RequestInfo    func()
}

// Handler is the active role object for the local identity.
type Handler interface {
	Role() accounts.Role
	Account() *accounts.Account
	Bindings() *Bindings

	// Init issues the role's command bindings.
	Init()
	// Detach unbinds every command so stale UI actions cannot fire
	// into a handler that is about to be replaced.
	Detach()
	// Dispose releases the handler. Idempotent.
	Dispose()
}

type base struct {
	acc    *accounts.Account
	b      Bindings
	sender Sender
}

func (h *base) Account() *accounts.Account { return h.acc }
func (h *base) Bindings() *Bindings        { return &h.b }

func (h *base) Detach() { h.b = Bindings{} }

func (h *base) Dispose() {
	h.b = Bindings{}
	h.acc = nil
}

func (h *base) send(command string, args ...string) {
	if h.sender != nil {
		_ = h.sender.Send(command, args...)
	}
}

// Viewer is the spectator handler.
type Viewer struct{ base }

func (v *Viewer) Role() accounts.Role { return accounts.RoleViewer }

func (v *Viewer) Init() {
	v.b.RequestInfo = func() { v.send(protocol.CmdOutInfo) }
}

// Player is the contestant handler.
type Player struct{ base }

func (p *Player) Role() accounts.Role { return accounts.RolePlayer }

func (p *Player) Init() {
	p.b.RequestInfo = func() { p.send(protocol.CmdOutInfo) }
	p.b.Ready = func() { p.send(protocol.CmdOutReady) }
	p.b.SelectQuestion = func(theme, question int) {
		p.send(protocol.CmdOutChoice, strconv.Itoa(theme), strconv.Itoa(question))
	}
	p.b.DeleteTheme = func(theme int) {
		p.send(protocol.CmdOutDelete, strconv.Itoa(theme))
	}
	p.b.SendAnswer = func(text string) { p.send(protocol.CmdOutAnswer, text) }
	p.b.Pass = func() { p.send(protocol.CmdOutPass) }
	p.b.Stake = func(kind string, value int) {
		p.send(protocol.CmdOutStake, kind, strconv.Itoa(value))
	}
}

// Showman is the presenter handler.
type Showman struct{ base }

func (s *Showman) Role() accounts.Role { return accounts.RoleShowman }

func (s *Showman) Init() {
	s.b.RequestInfo = func() { s.send(protocol.CmdOutInfo) }
	s.b.Ready = func() { s.send(protocol.CmdOutReady) }
	s.b.SelectQuestion = func(theme, question int) {
		s.send(protocol.CmdOutChoice, strconv.Itoa(theme), strconv.Itoa(question))
	}
	s.b.DeleteTheme = func(theme int) {
		s.send(protocol.CmdOutDelete, strconv.Itoa(theme))
	}
}

// New constructs an uninitialized handler for the given seat category.
func New(r accounts.Role, acc *accounts.Account, s Sender) Handler {
	b := base{acc: acc, sender: s}
	switch r {
	case accounts.RolePlayer:
		return &Player{base: b}
	case accounts.RoleShowman:
		return &Showman{base: b}
	default:
		return &Viewer{base: b}
	}
}
