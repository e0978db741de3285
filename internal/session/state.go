// Package session owns the client's view of the game: roster, stage,
// selection, and the local role handler. It is the single source of
// truth shared by the network-receive goroutine (writer) and the
// rendering layer (reader).
//
// Two named critical sections exist. The selection lock guards stage
// and theme/question selection; the table lock guards the roster and
// its derived caches. When both are needed the selection lock is
// always taken first. Callbacks never run while either lock is held.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quizarena/quizarena/internal/accounts"
	"github.com/quizarena/quizarena/internal/protocol"
	"github.com/quizarena/quizarena/internal/role"
	"github.com/rs/zerolog/log"
)

// MaxPlayers is the platform bound on player seats.
const MaxPlayers = 12

var (
	// ErrDuplicateName means two connected participants share a name.
	// Continuing would silently corrupt the roster, so it is fatal.
	ErrDuplicateName = errors.New("duplicate connected name in roster")

	// ErrIdentityLost means the local identity vanished from the
	// all-persons index after the session was initialized.
	ErrIdentityLost = errors.New("local identity is not resolvable in the roster")
)

// SwitchFunc rebuilds the local role handler when the local identity's
// seat category changes. It runs inside the roster transaction so no
// message can observe a half-switched handler.
type SwitchFunc func(old role.Handler, to accounts.Role, seat *accounts.Account) (role.Handler, error)

type pending struct {
	roleSwitched bool
	from, to     accounts.Role
	identity     bool
	identityRole accounts.Role
	fatal        error
}

// State is the shared session state.
type State struct {
	me       string
	events   *Events
	switchFn SwitchFunc

	selLock   *timedLock
	tableLock *timedLock

	// Guarded by selLock.
	stage         Stage
	themeIndex    int
	questionIndex int
	qType         string

	// Guarded by tableLock.
	initialized bool
	hostName    string
	showman     *accounts.Account
	players     []*accounts.Account
	viewers     []*accounts.Account
	byName      map[string]*accounts.Account
	main        []*accounts.Account
	handler     role.Handler
	inTx        bool
	txReason    string
	pend        pending
	dupName     string
	history     txLog
}

// NewState creates the session state for the local identity me.
func NewState(me string, events *Events) *State {
	s := &State{
		me:            me,
		events:        events,
		selLock:       newTimedLock("selection"),
		tableLock:     newTimedLock("table"),
		themeIndex:    protocol.NotSet,
		questionIndex: protocol.NotSet,
		showman:       accounts.FreeSeat(accounts.RoleShowman),
	}
	s.recomputeLocked()
	return s
}

// SetSwitchFunc installs the role-switch engine hook.
func (s *State) SetSwitchFunc(fn SwitchFunc) { s.switchFn = fn }

// Me returns the local identity's name.
func (s *State) Me() string { return s.me }

// Stage returns the current game stage.
func (s *State) Stage() Stage {
	if err := s.selLock.acquire(DefaultLockTimeout); err != nil {
		log.Error().Err(err).Msg("stage read abandoned")
		return StageBefore
	}
	defer s.selLock.release()
	return s.stage
}

// SetStage moves the game to a new stage and notifies listeners.
func (s *State) SetStage(st Stage) error {
	if err := s.selLock.acquire(DefaultLockTimeout); err != nil {
		return err
	}
	changed := s.stage != st
	s.stage = st
	s.selLock.release()

	if changed {
		s.events.EmitStageChanged(st)
	}
	return nil
}

// SetSelection updates the current theme/question indices. A NotSet
// field leaves the corresponding index untouched.
func (s *State) SetSelection(theme, question int) error {
	if err := s.selLock.acquire(DefaultLockTimeout); err != nil {
		return err
	}
	defer s.selLock.release()
	if theme != protocol.NotSet {
		s.themeIndex = theme
	}
	if question != protocol.NotSet {
		s.questionIndex = question
	}
	return nil
}

// Selection returns the current theme/question indices.
func (s *State) Selection() (theme, question int, err error) {
	if err := s.selLock.acquire(DefaultLockTimeout); err != nil {
		return protocol.NotSet, protocol.NotSet, err
	}
	defer s.selLock.release()
	return s.themeIndex, s.questionIndex, nil
}

// SetQType records the current question-type tag.
func (s *State) SetQType(t string) error {
	if err := s.selLock.acquire(DefaultLockTimeout); err != nil {
		return err
	}
	defer s.selLock.release()
	s.qType = t
	return nil
}

// QType returns the current question-type tag.
func (s *State) QType() string {
	if err := s.selLock.acquire(DefaultLockTimeout); err != nil {
		log.Error().Err(err).Msg("qtype read abandoned")
		return ""
	}
	defer s.selLock.release()
	return s.qType
}

// SetHostName records the game host's display name.
func (s *State) SetHostName(name string) error {
	if err := s.tableLock.acquire(DefaultLockTimeout); err != nil {
		return err
	}
	defer s.tableLock.release()
	s.hostName = name
	return nil
}

// HostName returns the game host's display name.
func (s *State) HostName() string {
	if err := s.tableLock.acquire(DefaultLockTimeout); err != nil {
		log.Error().Err(err).Msg("host name read abandoned")
		return ""
	}
	defer s.tableLock.release()
	return s.hostName
}

// Initialized reports whether the full roster snapshot has been
// ingested for this connection.
func (s *State) Initialized() bool {
	if err := s.tableLock.acquire(DefaultLockTimeout); err != nil {
		log.Error().Err(err).Msg("initialized read abandoned")
		return false
	}
	defer s.tableLock.release()
	return s.initialized
}

// Handler returns the active role handler for the local identity.
func (s *State) Handler() role.Handler {
	if err := s.tableLock.acquire(DefaultLockTimeout); err != nil {
		log.Error().Err(err).Msg("handler read abandoned")
		return nil
	}
	defer s.tableLock.release()
	return s.handler
}

// Showman returns a snapshot of the showman seat.
func (s *State) Showman() accounts.Account {
	if err := s.tableLock.acquire(DefaultLockTimeout); err != nil {
		log.Error().Err(err).Msg("showman read abandoned")
		return accounts.Account{}
	}
	defer s.tableLock.release()
	return *s.showman
}

// Players returns a snapshot of the player seats in order.
func (s *State) Players() []accounts.Account {
	if err := s.tableLock.acquire(DefaultLockTimeout); err != nil {
		log.Error().Err(err).Msg("players read abandoned")
		return nil
	}
	defer s.tableLock.release()
	out := make([]accounts.Account, len(s.players))
	for i, p := range s.players {
		out[i] = *p
	}
	return out
}

// Viewers returns a snapshot of the spectators.
func (s *State) Viewers() []accounts.Account {
	if err := s.tableLock.acquire(DefaultLockTimeout); err != nil {
		log.Error().Err(err).Msg("viewers read abandoned")
		return nil
	}
	defer s.tableLock.release()
	out := make([]accounts.Account, len(s.viewers))
	for i, v := range s.viewers {
		out[i] = *v
	}
	return out
}

// MainPersons returns a snapshot of the derived showman+players array.
func (s *State) MainPersons() []accounts.Account {
	if err := s.tableLock.acquire(DefaultLockTimeout); err != nil {
		log.Error().Err(err).Msg("main persons read abandoned")
		return nil
	}
	defer s.tableLock.release()
	out := make([]accounts.Account, len(s.main))
	for i, a := range s.main {
		out[i] = *a
	}
	return out
}

// FindPerson looks a participant up in the derived all-persons index.
func (s *State) FindPerson(name string) (accounts.Account, bool) {
	if err := s.tableLock.acquire(DefaultLockTimeout); err != nil {
		log.Error().Err(err).Msg("person lookup abandoned")
		return accounts.Account{}, false
	}
	defer s.tableLock.release()
	a, ok := s.byName[name]
	if !ok {
		return accounts.Account{}, false
	}
	return *a, true
}

// recomputeLocked rebuilds both derived caches: the main-persons array
// and the all-persons-by-name index. Records the first duplicate
// connected name seen for validation. Caller holds the table lock.
func (s *State) recomputeLocked() {
	s.main = make([]*accounts.Account, 0, len(s.players)+1)
	s.main = append(s.main, s.showman)
	s.main = append(s.main, s.players...)

	s.dupName = ""
	s.byName = make(map[string]*accounts.Account, len(s.main)+len(s.viewers))
	index := func(a *accounts.Account) {
		if a == nil || a.IsFreeSeat() {
			return
		}
		if prev, ok := s.byName[a.Name]; ok {
			if prev.Connected && a.Connected && s.dupName == "" {
				s.dupName = a.Name
			}
			return
		}
		s.byName[a.Name] = a
	}
	for _, a := range s.main {
		index(a)
	}
	for _, a := range s.viewers {
		index(a)
	}
}

// validateLocked checks the roster invariants after recomputation.
func (s *State) validateLocked() error {
	if s.dupName != "" {
		return fmt.Errorf("%w: %q", ErrDuplicateName, s.dupName)
	}
	if s.initialized {
		if _, ok := s.byName[s.me]; !ok {
			return fmt.Errorf("%w: %q", ErrIdentityLost, s.me)
		}
	}
	return nil
}

// rosterNamesLocked renders the roster for the transaction log.
func (s *State) rosterNamesLocked() []string {
	names := make([]string, 0, len(s.players)+len(s.viewers)+1)
	names = append(names, fmt.Sprintf("showman=%s(%s)", s.showman.Name, protocol.Flag(s.showman.Connected)))
	for i, p := range s.players {
		names = append(names, fmt.Sprintf("player[%d]=%s(%s)", i, p.Name, protocol.Flag(p.Connected)))
	}
	for i, v := range s.viewers {
		names = append(names, fmt.Sprintf("viewer[%d]=%s(%s)", i, v.Name, protocol.Flag(v.Connected)))
	}
	return names
}

// DumpRoster renders the current roster and transaction history for a
// diagnostic report.
func (s *State) DumpRoster() string {
	if err := s.tableLock.acquire(DefaultLockTimeout); err != nil {
		return "roster unavailable: " + err.Error()
	}
	defer s.tableLock.release()
	return strings.Join(s.rosterNamesLocked(), ", ") + "\n" + s.history.dump()
}
