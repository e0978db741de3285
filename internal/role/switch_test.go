package role

import (
	"testing"

	"github.com/quizarena/quizarena/internal/accounts"
	"github.com/quizarena/quizarena/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	commands [][]string
}

func (c *captureSender) Send(command string, args ...string) error {
	c.commands = append(c.commands, append([]string{command}, args...))
	return nil
}

func TestNewHandlerPerRole(t *testing.T) {
	acc := accounts.NewHuman(accounts.RolePlayer, "Nora", false)

	cases := []struct {
		role accounts.Role
	}{
		{accounts.RoleViewer},
		{accounts.RolePlayer},
		{accounts.RoleShowman},
	}
	for _, tc := range cases {
		h := New(tc.role, acc, &captureSender{})
		assert.Equal(t, tc.role, h.Role())
		assert.Same(t, acc, h.Account())
	}
}

func TestPlayerBindings(t *testing.T) {
	sender := &captureSender{}
	acc := accounts.NewHuman(accounts.RolePlayer, "Nora", false)
	h := New(accounts.RolePlayer, acc, sender)
	h.Init()

	b := h.Bindings()
	require.NotNil(t, b.SelectQuestion)
	require.NotNil(t, b.SendAnswer)
	require.NotNil(t, b.Pass)
	require.NotNil(t, b.Stake)
	require.NotNil(t, b.Ready)
	require.NotNil(t, b.DeleteTheme)
	require.NotNil(t, b.RequestInfo)

	b.SelectQuestion(2, 4)
	b.SendAnswer("42")
	b.Pass()
	b.Stake("stake", 500)

	assert.Equal(t, [][]string{
		{protocol.CmdOutChoice, "2", "4"},
		{protocol.CmdOutAnswer, "42"},
		{protocol.CmdOutPass},
		{protocol.CmdOutStake, "stake", "500"},
	}, sender.commands)
}

func TestViewerBindingsAreMinimal(t *testing.T) {
	h := New(accounts.RoleViewer, accounts.NewHuman(accounts.RoleViewer, "Vera", false), &captureSender{})
	h.Init()

	b := h.Bindings()
	assert.NotNil(t, b.RequestInfo)
	assert.Nil(t, b.SelectQuestion)
	assert.Nil(t, b.SendAnswer)
	assert.Nil(t, b.Pass)
	assert.Nil(t, b.Stake)
	assert.Nil(t, b.Ready)
}

func TestShowmanCannotAnswer(t *testing.T) {
	h := New(accounts.RoleShowman, accounts.NewHuman(accounts.RoleShowman, "Olivia", false), &captureSender{})
	h.Init()

	b := h.Bindings()
	assert.NotNil(t, b.SelectQuestion)
	assert.NotNil(t, b.Ready)
	assert.Nil(t, b.SendAnswer)
	assert.Nil(t, b.Pass)
	assert.Nil(t, b.Stake)
}

func TestSwitchDetachesOldBeforeNewIsLive(t *testing.T) {
	sender := &captureSender{}
	oldSeat := accounts.NewHuman(accounts.RolePlayer, "Nora", false)
	old := New(accounts.RolePlayer, oldSeat, sender)
	old.Init()
	oldBindings := old.Bindings()

	newSeat := accounts.NewHuman(accounts.RoleViewer, "Nora", false)
	next, err := Switch(old, accounts.RoleViewer, newSeat, sender)
	require.NoError(t, err)

	assert.Equal(t, accounts.RoleViewer, next.Role())
	assert.NotNil(t, next.Bindings().RequestInfo)

	// The retired handler fires nothing.
	assert.Nil(t, oldBindings.SendAnswer)
	assert.Nil(t, oldBindings.RequestInfo)
	assert.Nil(t, old.Account())
}

func TestSwitchTransplantsPicture(t *testing.T) {
	sender := &captureSender{}
	oldSeat := accounts.NewHuman(accounts.RolePlayer, "Nora", false)
	oldSeat.Picture = "https://example.com/nora.png"
	old := New(accounts.RolePlayer, oldSeat, sender)
	old.Init()

	newSeat := accounts.NewHuman(accounts.RoleShowman, "Nora", false)
	_, err := Switch(old, accounts.RoleShowman, newSeat, sender)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/nora.png", newSeat.Picture)
}

func TestSwitchKeepsExistingPicture(t *testing.T) {
	sender := &captureSender{}
	oldSeat := accounts.NewHuman(accounts.RolePlayer, "Nora", false)
	oldSeat.Picture = "old.png"
	old := New(accounts.RolePlayer, oldSeat, sender)
	old.Init()

	newSeat := accounts.NewHuman(accounts.RoleViewer, "Nora", false)
	newSeat.Picture = "new.png"
	_, err := Switch(old, accounts.RoleViewer, newSeat, sender)
	require.NoError(t, err)
	assert.Equal(t, "new.png", newSeat.Picture)
}

func TestSwitchToComputerSeatFails(t *testing.T) {
	sender := &captureSender{}
	old := New(accounts.RolePlayer, accounts.NewHuman(accounts.RolePlayer, "Nora", false), sender)
	old.Init()

	bot := accounts.NewComputer(accounts.RolePlayer, "Bot 1")
	_, err := Switch(old, accounts.RolePlayer, bot, sender)
	assert.ErrorIs(t, err, ErrComputerSwitch)
}

func TestSwitchWithoutSeatFails(t *testing.T) {
	_, err := Switch(nil, accounts.RoleViewer, nil, &captureSender{})
	assert.ErrorIs(t, err, ErrNoSeat)
}

func TestSwitchFromNilBuildsFreshHandler(t *testing.T) {
	seat := accounts.NewHuman(accounts.RolePlayer, "Nora", false)
	h, err := Switch(nil, accounts.RolePlayer, seat, &captureSender{})
	require.NoError(t, err)
	assert.Equal(t, accounts.RolePlayer, h.Role())
	assert.NotNil(t, h.Bindings().SendAnswer)
}

func TestDisposeIsIdempotent(t *testing.T) {
	h := New(accounts.RoleViewer, accounts.NewHuman(accounts.RoleViewer, "Vera", false), &captureSender{})
	h.Init()
	h.Dispose()
	h.Dispose()
	assert.Nil(t, h.Account())
}
