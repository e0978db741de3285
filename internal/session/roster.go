package session

import (
	"fmt"
	"slices"

	"github.com/quizarena/quizarena/internal/accounts"
	"github.com/rs/zerolog/log"
)

// BeginTransaction opens a roster transaction. The roster may be
// temporarily inconsistent until EndTransaction, which recomputes the
// derived caches exactly once. The reason and a snapshot of the roster
// are appended to the bounded diagnostic log.
func (s *State) BeginTransaction(reason string) error {
	if err := s.tableLock.acquire(DefaultLockTimeout); err != nil {
		return fmt.Errorf("roster transaction %q: %w", reason, err)
	}
	s.inTx = true
	s.txReason = reason
	s.pend = pending{}
	s.history.add(reason, s.rosterNamesLocked())
	return nil
}

// EndTransaction recomputes the derived caches, validates the roster
// invariants, and releases the table lock. Listener callbacks fire
// strictly after the critical section ends. An invariant violation is
// fatal for the session and carries the transaction history.
func (s *State) EndTransaction() error {
	s.recomputeLocked()

	ferr := s.validateLocked()
	if ferr == nil {
		ferr = s.pend.fatal
	}
	if ferr != nil {
		ferr = fmt.Errorf("roster transaction %q: %w\n%s", s.txReason, ferr, s.history.dump())
	}

	p := s.pend
	s.pend = pending{}
	s.inTx = false
	s.txReason = ""
	s.tableLock.release()

	if ferr != nil {
		s.events.EmitFatal(ferr)
		return ferr
	}
	if p.roleSwitched {
		s.events.EmitRoleSwitched(p.from, p.to)
	}
	if p.identity {
		s.events.EmitIdentityResolved(s.me, p.identityRole)
	}
	s.events.EmitRosterChanged()
	return nil
}

// ReplaceAll ingests a full roster snapshot (join and rejoin). The
// session is marked initialized and the local identity's role handler
// is built for whatever seat it occupies.
func (s *State) ReplaceAll(showman *accounts.Account, players, viewers []*accounts.Account) error {
	if err := s.BeginTransaction("snapshot"); err != nil {
		return err
	}
	if showman == nil {
		showman = accounts.FreeSeat(accounts.RoleShowman)
	}
	showman.Role = accounts.RoleShowman
	for _, p := range players {
		p.Role = accounts.RolePlayer
	}
	for _, v := range viewers {
		v.Role = accounts.RoleViewer
	}
	s.showman = showman
	s.players = players
	s.viewers = viewers
	s.initialized = true

	if seat := s.findLocked(s.me); seat != nil {
		s.switchLocked(seat.Role, seat)
		s.pend.identity = true
		s.pend.identityRole = seat.Role
	}
	return s.EndTransaction()
}

// Connect occupies a seat (or adds a viewer) for a newly connected
// human participant.
func (s *State) Connect(r accounts.Role, index int, name string, isMale bool) error {
	if err := s.BeginTransaction(fmt.Sprintf("connect %s as %s[%d]", name, r, index)); err != nil {
		return err
	}
	acc := accounts.NewHuman(r, name, isMale)
	switch r {
	case accounts.RoleShowman:
		s.showman.Identity = acc.Identity
	case accounts.RolePlayer:
		if index < 0 || index >= len(s.players) {
			log.Warn().Int("index", index).Msg("connect targets unknown player seat, ignored")
			break
		}
		s.players[index].Identity = acc.Identity
	default:
		s.viewers = append(s.viewers, acc)
	}
	return s.EndTransaction()
}

// Disconnect removes a viewer or marks a seated participant offline.
func (s *State) Disconnect(name string) error {
	if err := s.BeginTransaction("disconnect " + name); err != nil {
		return err
	}
	if i := slices.IndexFunc(s.viewers, func(v *accounts.Account) bool { return v.Name == name }); i >= 0 {
		s.viewers = slices.Delete(s.viewers, i, i+1)
		return s.EndTransaction()
	}
	if seat := s.findLocked(name); seat != nil {
		seat.Connected = false
		seat.Person.Ready = false
	} else {
		log.Warn().Str("name", name).Msg("disconnect for unknown participant, ignored")
	}
	return s.EndTransaction()
}

// AddPlayerSeat appends a player seat. The seat count is bounded by
// the platform maximum; an overflow is a protocol malformation, not an
// invariant violation.
func (s *State) AddPlayerSeat(name string, human, connected, ready, isMale bool) error {
	if err := s.BeginTransaction("add table " + name); err != nil {
		return err
	}
	if len(s.players) >= MaxPlayers {
		log.Warn().Int("players", len(s.players)).Msg("player seat limit reached, add ignored")
		return s.EndTransaction()
	}
	acc := &accounts.Account{
		Identity: accounts.Identity{Name: name, IsHuman: human, IsMale: isMale, Connected: connected},
		Role:     accounts.RolePlayer,
	}
	acc.Person.Ready = ready
	s.players = append(s.players, acc)
	return s.EndTransaction()
}

// FreeSeat replaces a seat's occupant with the free-seat placeholder.
// A human occupant who was online becomes a viewer; if that was the
// local identity, the role handler is switched inside the transaction.
func (s *State) FreeSeat(r accounts.Role, index int) error {
	if err := s.BeginTransaction(fmt.Sprintf("free %s[%d]", r, index)); err != nil {
		return err
	}
	seat := s.seatLocked(r, index)
	if seat == nil {
		log.Warn().Stringer("role", r).Int("index", index).Msg("free targets unknown seat, ignored")
		return s.EndTransaction()
	}
	if seat.IsFreeSeat() {
		return s.EndTransaction()
	}

	occupant := seat.Clone()
	s.replaceSeatLocked(r, index, accounts.FreeSeat(r))

	if occupant.IsHuman && occupant.Connected {
		v := occupant.AsViewer()
		s.viewers = append(s.viewers, v)
		if occupant.Name == s.me {
			s.switchLocked(accounts.RoleViewer, v)
		}
	}
	return s.EndTransaction()
}

// DeletePlayerSeat removes a player seat and compacts the indices. The
// vacated identity becomes a viewer when it was a connected human, or
// a computer account that shares the local identity's name.
func (s *State) DeletePlayerSeat(index int) error {
	if err := s.BeginTransaction(fmt.Sprintf("delete player[%d]", index)); err != nil {
		return err
	}
	if index < 0 || index >= len(s.players) {
		log.Warn().Int("index", index).Msg("delete targets unknown player seat, ignored")
		return s.EndTransaction()
	}
	seat := s.players[index]
	s.players = slices.Delete(s.players, index, index+1)

	if !seat.IsFreeSeat() {
		keep := (seat.IsHuman && seat.Connected) || (!seat.IsHuman && seat.Name == s.me)
		if keep {
			v := seat.AsViewer()
			s.viewers = append(s.viewers, v)
			if seat.IsHuman && seat.Name == s.me {
				s.switchLocked(accounts.RoleViewer, v)
			}
		}
	}
	return s.EndTransaction()
}

// SetSeat exchanges identity, connectivity, and readiness between a
// seat and the participant named replacer, who may currently be in any
// category. Either side being the local identity triggers a role
// switch inside the same transaction.
func (s *State) SetSeat(r accounts.Role, index int, replacer string) error {
	if err := s.BeginTransaction(fmt.Sprintf("set %s[%d]=%s", r, index, replacer)); err != nil {
		return err
	}
	seat := s.seatLocked(r, index)
	if seat == nil {
		log.Warn().Stringer("role", r).Int("index", index).Msg("set targets unknown seat, ignored")
		return s.EndTransaction()
	}
	rep := s.findLocked(replacer)
	if rep == nil {
		log.Warn().Str("replacer", replacer).Msg("set names unknown participant, ignored")
		return s.EndTransaction()
	}
	if rep == seat {
		return s.EndTransaction()
	}

	seat.Identity, rep.Identity = rep.Identity, seat.Identity
	seat.Person.Ready, rep.Person.Ready = rep.Person.Ready, seat.Person.Ready

	// A viewer slot that received the free-seat placeholder is noise.
	s.viewers = slices.DeleteFunc(s.viewers, func(v *accounts.Account) bool { return v.IsFreeSeat() })

	if seat.Name == s.me && seat.IsHuman {
		s.switchLocked(r, seat)
	} else if rep.Name == s.me && rep.IsHuman {
		s.switchLocked(rep.Role, rep)
	}
	return s.EndTransaction()
}

// ChangeSeatType toggles a seat between human and computer control. A
// human seat taken over by a computer frees its occupant to the
// viewers; if that occupant was the local identity, the role handler
// switches to viewer.
func (s *State) ChangeSeatType(r accounts.Role, index int) error {
	if err := s.BeginTransaction(fmt.Sprintf("change type %s[%d]", r, index)); err != nil {
		return err
	}
	seat := s.seatLocked(r, index)
	if seat == nil {
		log.Warn().Stringer("role", r).Int("index", index).Msg("change type targets unknown seat, ignored")
		return s.EndTransaction()
	}

	if seat.IsHuman {
		occupant := seat.Clone()
		s.replaceSeatLocked(r, index, accounts.NewComputer(r, s.botNameLocked(index)))
		if occupant.Connected && !occupant.IsFreeSeat() {
			v := occupant.AsViewer()
			s.viewers = append(s.viewers, v)
			if occupant.Name == s.me {
				s.switchLocked(accounts.RoleViewer, v)
			}
		}
	} else {
		// A computer seat opening up for a human starts vacant.
		s.replaceSeatLocked(r, index, accounts.FreeSeat(r))
	}
	return s.EndTransaction()
}

// UpdatePlayer applies a field-level mutation to one player seat and
// notifies listeners. Not a roster transaction: the roster shape is
// unchanged, so the derived caches stay valid.
func (s *State) UpdatePlayer(index int, fn func(*accounts.Account)) error {
	if err := s.tableLock.acquire(DefaultLockTimeout); err != nil {
		return err
	}
	if index < 0 || index >= len(s.players) {
		s.tableLock.release()
		log.Warn().Int("index", index).Msg("update targets unknown player seat, ignored")
		return nil
	}
	fn(s.players[index])
	s.tableLock.release()

	s.events.EmitRosterChanged()
	return nil
}

// UpdatePerson applies a field-level mutation to any participant found
// in the all-persons index.
func (s *State) UpdatePerson(name string, fn func(*accounts.Account)) error {
	if err := s.tableLock.acquire(DefaultLockTimeout); err != nil {
		return err
	}
	a, ok := s.byName[name]
	if !ok {
		s.tableLock.release()
		log.Warn().Str("name", name).Msg("update names unknown participant, ignored")
		return nil
	}
	fn(a)
	s.tableLock.release()

	s.events.EmitRosterChanged()
	return nil
}

// EachPlayer applies a field-level mutation to every player seat.
func (s *State) EachPlayer(fn func(index int, p *accounts.Account)) error {
	if err := s.tableLock.acquire(DefaultLockTimeout); err != nil {
		return err
	}
	for i, p := range s.players {
		fn(i, p)
	}
	s.tableLock.release()

	s.events.EmitRosterChanged()
	return nil
}

// seatLocked resolves an addressable seat. Viewers are not addressable
// by index.
func (s *State) seatLocked(r accounts.Role, index int) *accounts.Account {
	switch r {
	case accounts.RoleShowman:
		return s.showman
	case accounts.RolePlayer:
		if index >= 0 && index < len(s.players) {
			return s.players[index]
		}
	}
	return nil
}

// replaceSeatLocked swaps the account object occupying a seat.
func (s *State) replaceSeatLocked(r accounts.Role, index int, acc *accounts.Account) {
	acc.Role = r
	switch r {
	case accounts.RoleShowman:
		s.showman = acc
	case accounts.RolePlayer:
		s.players[index] = acc
	}
}

// findLocked searches every collection for a named participant,
// skipping free seats. Searches live collections rather than the
// cache: mid-transaction the cache may be stale.
func (s *State) findLocked(name string) *accounts.Account {
	if s.showman.Name == name && !s.showman.IsFreeSeat() {
		return s.showman
	}
	for _, p := range s.players {
		if p.Name == name && !p.IsFreeSeat() {
			return p
		}
	}
	for _, v := range s.viewers {
		if v.Name == name && !v.IsFreeSeat() {
			return v
		}
	}
	return nil
}

// botNameLocked picks a computer name that collides with nobody.
func (s *State) botNameLocked(index int) string {
	for n := index + 1; ; n++ {
		name := fmt.Sprintf("Bot %d", n)
		if s.findLocked(name) == nil {
			return name
		}
	}
}

// switchLocked hands the local identity's seat change to the
// role-switch engine. A failure (switching a computer seat) is a
// programming error and is recorded as fatal for the transaction.
func (s *State) switchLocked(to accounts.Role, seat *accounts.Account) {
	if s.switchFn == nil {
		return
	}
	from := accounts.RoleViewer
	if s.handler != nil {
		from = s.handler.Role()
	}
	h, err := s.switchFn(s.handler, to, seat)
	if err != nil {
		s.pend.fatal = fmt.Errorf("role switch to %s: %w", to, err)
		return
	}
	s.handler = h
	s.pend.roleSwitched = true
	s.pend.from = from
	s.pend.to = to
}
