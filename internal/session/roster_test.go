package session

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/quizarena/quizarena/internal/accounts"
	"github.com/quizarena/quizarena/internal/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSender struct{}

func (nopSender) Send(command string, args ...string) error { return nil }

type recorder struct {
	rosterChanged int
	switches      [][2]accounts.Role
	identity      []accounts.Role
	fatals        []error
	stages        []Stage
}

func (r *recorder) events() *Events {
	return &Events{
		RosterChanged:    func() { r.rosterChanged++ },
		RoleSwitched:     func(from, to accounts.Role) { r.switches = append(r.switches, [2]accounts.Role{from, to}) },
		IdentityResolved: func(name string, ro accounts.Role) { r.identity = append(r.identity, ro) },
		Fatal:            func(err error) { r.fatals = append(r.fatals, err) },
		StageChanged:     func(s Stage) { r.stages = append(r.stages, s) },
	}
}

func human(r accounts.Role, name string) *accounts.Account {
	return accounts.NewHuman(r, name, false)
}

// newTestState builds an initialized session: showman Olivia, players
// [Alice, me], viewer Vera.
func newTestState(t *testing.T, me string) (*State, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := NewState(me, rec.events())
	s.SetSwitchFunc(func(old role.Handler, to accounts.Role, seat *accounts.Account) (role.Handler, error) {
		return role.Switch(old, to, seat, nopSender{})
	})
	require.NoError(t, s.ReplaceAll(
		human(accounts.RoleShowman, "Olivia"),
		[]*accounts.Account{human(accounts.RolePlayer, "Alice"), human(accounts.RolePlayer, me)},
		[]*accounts.Account{human(accounts.RoleViewer, "Vera")},
	))
	return s, rec
}

func TestSnapshotResolvesIdentity(t *testing.T) {
	s, rec := newTestState(t, "Nora")

	assert.True(t, s.Initialized())
	require.Len(t, rec.identity, 1)
	assert.Equal(t, accounts.RolePlayer, rec.identity[0])
	require.NotNil(t, s.Handler())
	assert.Equal(t, accounts.RolePlayer, s.Handler().Role())

	got, ok := s.FindPerson("Nora")
	require.True(t, ok)
	assert.Equal(t, accounts.RolePlayer, got.Role)
}

func TestAddPlayerSeat(t *testing.T) {
	s, rec := newTestState(t, "Nora")
	before := len(s.Players())
	mainBefore := len(s.MainPersons())
	changes := rec.rosterChanged

	require.NoError(t, s.AddPlayerSeat("Bob", true, true, true, false))

	players := s.Players()
	require.Len(t, players, before+1)
	assert.Equal(t, "Bob", players[before].Name)
	assert.True(t, players[before].Connected)
	assert.True(t, players[before].Person.Ready)
	assert.Len(t, s.MainPersons(), mainBefore+1)
	assert.Equal(t, changes+1, rec.rosterChanged)
}

func TestAddPlayerSeatBounded(t *testing.T) {
	s, _ := newTestState(t, "Nora")
	for i := len(s.Players()); i < MaxPlayers; i++ {
		require.NoError(t, s.AddPlayerSeat(fmt.Sprintf("P%d", i), true, true, false, false))
	}
	require.NoError(t, s.AddPlayerSeat("Overflow", true, true, false, false))
	assert.Len(t, s.Players(), MaxPlayers)
}

func TestDeletePlayerSeatSwitchesLocalIdentityToViewer(t *testing.T) {
	s, rec := newTestState(t, "Nora")
	old := s.Handler()
	require.Equal(t, accounts.RolePlayer, old.Role())

	// Nora sits at player[1].
	require.NoError(t, s.DeletePlayerSeat(1))

	players := s.Players()
	require.Len(t, players, 1)
	assert.Equal(t, "Alice", players[0].Name)

	require.Len(t, rec.switches, 1)
	assert.Equal(t, accounts.RolePlayer, rec.switches[0][0])
	assert.Equal(t, accounts.RoleViewer, rec.switches[0][1])

	require.NotNil(t, s.Handler())
	assert.Equal(t, accounts.RoleViewer, s.Handler().Role())

	// The old handler's bindings are all unbound.
	b := old.Bindings()
	assert.Nil(t, b.SelectQuestion)
	assert.Nil(t, b.SendAnswer)
	assert.Nil(t, b.Pass)
	assert.Nil(t, b.Stake)
	assert.Nil(t, b.Ready)
	assert.Nil(t, b.DeleteTheme)
	assert.Nil(t, b.RequestInfo)

	// The new handler carries its own bindings.
	assert.NotNil(t, s.Handler().Bindings().RequestInfo)

	// And Nora is still resolvable, now as a viewer.
	got, ok := s.FindPerson("Nora")
	require.True(t, ok)
	assert.Equal(t, accounts.RoleViewer, got.Role)
	assert.Empty(t, rec.fatals)
}

func TestDeletePlayerSeatDropsOfflineHuman(t *testing.T) {
	s, _ := newTestState(t, "Nora")
	require.NoError(t, s.UpdatePlayer(0, func(p *accounts.Account) { p.Connected = false }))
	viewersBefore := len(s.Viewers())

	require.NoError(t, s.DeletePlayerSeat(0))

	assert.Len(t, s.Viewers(), viewersBefore)
	_, ok := s.FindPerson("Alice")
	assert.False(t, ok)
}

func TestFreeSeatClonesHumanToViewers(t *testing.T) {
	s, _ := newTestState(t, "Nora")
	viewersBefore := len(s.Viewers())

	require.NoError(t, s.FreeSeat(accounts.RolePlayer, 0))

	players := s.Players()
	require.Len(t, players, 2)
	assert.True(t, players[0].IsFreeSeat())

	viewers := s.Viewers()
	require.Len(t, viewers, viewersBefore+1)
	assert.Equal(t, "Alice", viewers[viewersBefore].Name)
}

func TestFreeShowmanSeat(t *testing.T) {
	s, _ := newTestState(t, "Nora")

	require.NoError(t, s.FreeSeat(accounts.RoleShowman, 0))

	showman := s.Showman()
	assert.True(t, showman.IsFreeSeat())
	got, ok := s.FindPerson("Olivia")
	require.True(t, ok)
	assert.Equal(t, accounts.RoleViewer, got.Role)
}

func TestSetSeatSwapsViewerIntoPlayerSeat(t *testing.T) {
	s, _ := newTestState(t, "Nora")

	require.NoError(t, s.SetSeat(accounts.RolePlayer, 0, "Vera"))

	assert.Equal(t, "Vera", s.Players()[0].Name)
	got, ok := s.FindPerson("Alice")
	require.True(t, ok)
	assert.Equal(t, accounts.RoleViewer, got.Role)
}

func TestSetSeatMovesLocalIdentityToShowman(t *testing.T) {
	s, rec := newTestState(t, "Nora")

	require.NoError(t, s.SetSeat(accounts.RoleShowman, 0, "Nora"))

	assert.Equal(t, "Nora", s.Showman().Name)
	require.Len(t, rec.switches, 1)
	assert.Equal(t, accounts.RoleShowman, rec.switches[0][1])
	assert.Equal(t, accounts.RoleShowman, s.Handler().Role())

	// Olivia took Nora's old player seat.
	assert.Equal(t, "Olivia", s.Players()[1].Name)
}

func TestChangeSeatTypeHumanBecomesComputer(t *testing.T) {
	s, _ := newTestState(t, "Nora")
	viewersBefore := len(s.Viewers())

	require.NoError(t, s.ChangeSeatType(accounts.RolePlayer, 0))

	seat := s.Players()[0]
	assert.False(t, seat.IsHuman)
	assert.NotEqual(t, "Alice", seat.Name)

	viewers := s.Viewers()
	require.Len(t, viewers, viewersBefore+1)
	assert.Equal(t, "Alice", viewers[viewersBefore].Name)
}

func TestChangeSeatTypeOnLocalIdentity(t *testing.T) {
	s, rec := newTestState(t, "Nora")

	require.NoError(t, s.ChangeSeatType(accounts.RolePlayer, 1))

	require.Len(t, rec.switches, 1)
	assert.Equal(t, accounts.RoleViewer, rec.switches[0][1])
	got, ok := s.FindPerson("Nora")
	require.True(t, ok)
	assert.Equal(t, accounts.RoleViewer, got.Role)
	assert.Empty(t, rec.fatals)
}

func TestChangeSeatTypeComputerBecomesFreeSeat(t *testing.T) {
	s, _ := newTestState(t, "Nora")
	require.NoError(t, s.ChangeSeatType(accounts.RolePlayer, 0))
	require.NoError(t, s.ChangeSeatType(accounts.RolePlayer, 0))
	assert.True(t, s.Players()[0].IsFreeSeat())
}

func TestDuplicateConnectedNameIsFatal(t *testing.T) {
	s, rec := newTestState(t, "Nora")

	err := s.AddPlayerSeat("Alice", true, true, false, false)

	require.ErrorIs(t, err, ErrDuplicateName)
	require.Len(t, rec.fatals, 1)
	assert.Contains(t, rec.fatals[0].Error(), "transaction history")
}

func TestIdentityLossIsFatal(t *testing.T) {
	s, rec := newTestState(t, "Nora")

	// The host should never drop the local identity while the session
	// is alive; if it does, fail loudly with diagnostics.
	err := s.ReplaceAll(
		human(accounts.RoleShowman, "Olivia"),
		[]*accounts.Account{human(accounts.RolePlayer, "Alice")},
		nil,
	)

	require.ErrorIs(t, err, ErrIdentityLost)
	require.Len(t, rec.fatals, 1)
}

func TestConnectAndDisconnect(t *testing.T) {
	s, _ := newTestState(t, "Nora")
	require.NoError(t, s.FreeSeat(accounts.RolePlayer, 0))

	require.NoError(t, s.Connect(accounts.RolePlayer, 0, "Boris", true))
	seat := s.Players()[0]
	assert.Equal(t, "Boris", seat.Name)
	assert.True(t, seat.Connected)

	require.NoError(t, s.Disconnect("Boris"))
	seat = s.Players()[0]
	assert.Equal(t, "Boris", seat.Name)
	assert.False(t, seat.Connected)

	// Viewers disappear entirely on disconnect.
	require.NoError(t, s.Disconnect("Vera"))
	for _, v := range s.Viewers() {
		assert.NotEqual(t, "Vera", v.Name)
	}
}

func TestStageChangeNotifiesOnce(t *testing.T) {
	s, rec := newTestState(t, "Nora")

	require.NoError(t, s.SetStage(StageRound))
	require.NoError(t, s.SetStage(StageRound))

	assert.Equal(t, []Stage{StageRound}, rec.stages)
}

func TestSelection(t *testing.T) {
	s, _ := newTestState(t, "Nora")

	require.NoError(t, s.SetSelection(3, 1))
	theme, question, err := s.Selection()
	require.NoError(t, err)
	assert.Equal(t, 3, theme)
	assert.Equal(t, 1, question)

	// NotSet leaves a field untouched.
	require.NoError(t, s.SetSelection(-1, 2))
	theme, question, err = s.Selection()
	require.NoError(t, err)
	assert.Equal(t, 3, theme)
	assert.Equal(t, 2, question)
}

// Property: over arbitrary mutation sequences, connected names stay
// pairwise distinct and the local identity stays resolvable after
// every transaction.
func TestRosterInvariantsUnderRandomMutations(t *testing.T) {
	s, rec := newTestState(t, "Nora")
	rng := rand.New(rand.NewSource(7))
	next := 0

	freshName := func() string {
		next++
		return fmt.Sprintf("Guest%d", next)
	}

	for step := 0; step < 500; step++ {
		players := s.Players()
		switch rng.Intn(6) {
		case 0:
			_ = s.AddPlayerSeat(freshName(), true, true, false, false)
		case 1:
			if len(players) > 1 {
				_ = s.DeletePlayerSeat(rng.Intn(len(players)))
			}
		case 2:
			if len(players) > 0 {
				_ = s.FreeSeat(accounts.RolePlayer, rng.Intn(len(players)))
			}
		case 3:
			if len(players) > 0 {
				_ = s.ChangeSeatType(accounts.RolePlayer, rng.Intn(len(players)))
			}
		case 4:
			viewers := s.Viewers()
			if len(players) > 0 && len(viewers) > 0 {
				_ = s.SetSeat(accounts.RolePlayer, rng.Intn(len(players)), viewers[rng.Intn(len(viewers))].Name)
			}
		case 5:
			_ = s.Connect(accounts.RoleViewer, 0, freshName(), false)
		}

		require.Empty(t, rec.fatals, "step %d produced a fatal error", step)

		seen := map[string]bool{}
		check := func(a accounts.Account) {
			if a.IsFreeSeat() || !a.Connected {
				return
			}
			require.False(t, seen[a.Name], "step %d: duplicate connected name %q", step, a.Name)
			seen[a.Name] = true
		}
		check(s.Showman())
		for _, p := range s.Players() {
			check(p)
		}
		for _, v := range s.Viewers() {
			check(v)
		}

		_, ok := s.FindPerson("Nora")
		require.True(t, ok, "step %d: local identity lost", step)
	}
}
