package client

import (
	"strings"

	"github.com/quizarena/quizarena/internal/accounts"
	"github.com/quizarena/quizarena/internal/protocol"
	"github.com/quizarena/quizarena/internal/session"
	"github.com/quizarena/quizarena/internal/timers"
	"github.com/rs/zerolog/log"
)

// registerHandlers builds the static command→handler mapping. Each
// handler validates its own argument count and numeric fields; a
// malformed field degrades to skipping the update.
func (c *Client) registerHandlers() {
	r := c.router

	r.Register(protocol.CmdConnected, c.onConnected)
	r.Register(protocol.CmdDisconnected, c.onDisconnected)
	r.Register(protocol.CmdInfo, c.onInfo)
	r.Register(protocol.CmdConfig, c.onConfig)
	r.Register(protocol.CmdStage, c.onStage)
	r.Register(protocol.CmdStageInfo, c.onStage)
	r.Register(protocol.CmdTimer, c.onTimer)
	r.Register(protocol.CmdChoice, c.onChoice)
	r.Register(protocol.CmdTheme, c.display("theme"))
	r.Register(protocol.CmdQuestion, c.display("question"))
	r.Register(protocol.CmdQType, c.onQType)
	r.Register(protocol.CmdSums, c.onSums)
	r.Register(protocol.CmdPerson, c.onPerson)
	r.Register(protocol.CmdPersonStake, c.onPersonStake)
	r.Register(protocol.CmdPass, c.onPass)
	r.Register(protocol.CmdSetChooser, c.onSetChooser)
	r.Register(protocol.CmdReady, c.onReady)
	r.Register(protocol.CmdReplic, c.onReplic)
	r.Register(protocol.CmdTry, c.display("try"))
	r.Register(protocol.CmdEndTry, c.display("endtry"))
	r.Register(protocol.CmdAnswer, c.display("answer"))
	r.Register(protocol.CmdRightAnswer, c.display("rightanswer"))
	r.Register(protocol.CmdStop, c.display("stop"))
	r.Register(protocol.CmdOut, c.onOut)
	r.Register(protocol.CmdFinalRound, c.display("finalround"))
	r.Register(protocol.CmdFinalThink, c.display("finalthink"))
	r.Register(protocol.CmdPause, c.onPause)
	r.Register(protocol.CmdCancel, c.display("cancel"))
	r.Register(protocol.CmdHostname, c.onHostname)
	r.Register(protocol.CmdPackLogo, c.display("packlogo"))
	r.Register(protocol.CmdGameThemes, c.display("gamethemes"))
	r.Register(protocol.CmdRoundThemes, c.display("roundthemes"))
	r.Register(protocol.CmdQuestionCaption, c.display("questioncaption"))
	r.Register(protocol.CmdShowTable, c.display("showtable"))
	r.Register(protocol.CmdTimeout, c.display("timeout"))
	r.Register(protocol.CmdAtom, c.display("atom"))
	r.Register(protocol.CmdWinner, c.display("winner"))
	r.Register(protocol.CmdPicture, c.onPicture)
	r.Register(protocol.CmdBanned, c.display("banned"))
	r.Register(protocol.CmdWrongTry, c.display("wrongtry"))
}

// display forwards pre-extracted content strings to the rendering
// layer unexamined.
func (c *Client) display(kind string) func(args []string) error {
	return func(args []string) error {
		c.events.EmitDisplay(kind, args)
		return nil
	}
}

func parseRole(s string) (accounts.Role, bool) {
	switch s {
	case protocol.WireShowman:
		return accounts.RoleShowman, true
	case protocol.WirePlayer:
		return accounts.RolePlayer, true
	case protocol.WireViewer:
		return accounts.RoleViewer, true
	}
	return accounts.RoleViewer, false
}

// CONNECTED <role> <index> <name> <male>
func (c *Client) onConnected(args []string) error {
	if len(args) < 3 {
		log.Warn().Strs("args", args).Msg("CONNECTED too short, ignored")
		return nil
	}
	r, ok := parseRole(args[0])
	if !ok {
		log.Warn().Str("role", args[0]).Msg("CONNECTED names unknown role, ignored")
		return nil
	}
	index := protocol.ParseInt(args[1])
	name := args[2]
	isMale := len(args) > 3 && protocol.ParseFlag(args[3])
	return c.state.Connect(r, index, name, isMale)
}

// DISCONNECTED <name>
func (c *Client) onDisconnected(args []string) error {
	if len(args) < 1 {
		return nil
	}
	return c.state.Disconnect(args[0])
}

// personBlockLen is the argument stride of one seated person in INFO2:
// name, human, connected, ready, male.
const personBlockLen = 5

// INFO2 <playerCount> <showman block> <player blocks…> <viewer triples…>
// Rebuilds the whole roster in one transaction; used on join and rejoin.
func (c *Client) onInfo(args []string) error {
	if len(args) < 1+personBlockLen {
		log.Warn().Int("args", len(args)).Msg("INFO2 too short, ignored")
		return nil
	}
	count := protocol.ParseInt(args[0])
	if count == protocol.NotSet || count < 0 || count > session.MaxPlayers {
		log.Warn().Str("count", args[0]).Msg("INFO2 player count malformed, ignored")
		return nil
	}
	need := 1 + personBlockLen*(count+1)
	if len(args) < need {
		log.Warn().Int("args", len(args)).Int("need", need).Msg("INFO2 truncated, ignored")
		return nil
	}

	person := func(r accounts.Role, block []string) *accounts.Account {
		acc := &accounts.Account{
			Identity: accounts.Identity{
				Name:      block[0],
				IsHuman:   protocol.ParseFlag(block[1]),
				Connected: protocol.ParseFlag(block[2]),
				IsMale:    protocol.ParseFlag(block[4]),
			},
			Role: r,
		}
		acc.Person.Ready = protocol.ParseFlag(block[3])
		return acc
	}

	showman := person(accounts.RoleShowman, args[1:1+personBlockLen])
	players := make([]*accounts.Account, 0, count)
	for i := 0; i < count; i++ {
		at := 1 + personBlockLen*(i+1)
		players = append(players, person(accounts.RolePlayer, args[at:at+personBlockLen]))
	}

	var viewers []*accounts.Account
	for at := need; at+3 <= len(args); at += 3 {
		viewers = append(viewers, &accounts.Account{
			Identity: accounts.Identity{
				Name:      args[at],
				IsHuman:   protocol.ParseFlag(args[at+1]),
				IsMale:    protocol.ParseFlag(args[at+2]),
				Connected: true,
			},
			Role: accounts.RoleViewer,
		})
	}

	return c.state.ReplaceAll(showman, players, viewers)
}

// CONFIG <subcommand> <args…>
func (c *Client) onConfig(args []string) error {
	if len(args) < 1 {
		return nil
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case protocol.ConfigAddTable:
		// ADDTABLE <name> <human> <connected> <ready> <male>
		if len(rest) < 4 {
			log.Warn().Strs("args", rest).Msg("CONFIG ADDTABLE too short, ignored")
			return nil
		}
		isMale := len(rest) > 4 && protocol.ParseFlag(rest[4])
		return c.state.AddPlayerSeat(rest[0],
			protocol.ParseFlag(rest[1]), protocol.ParseFlag(rest[2]), protocol.ParseFlag(rest[3]), isMale)

	case protocol.ConfigFree:
		// FREE <role> <index>
		if len(rest) < 2 {
			return nil
		}
		r, ok := parseRole(rest[0])
		if !ok {
			return nil
		}
		index := protocol.ParseInt(rest[1])
		if index == protocol.NotSet && r == accounts.RolePlayer {
			return nil
		}
		return c.state.FreeSeat(r, index)

	case protocol.ConfigDeleteTable:
		// DELETETABLE <playerCount> <index>
		if len(rest) < 2 {
			return nil
		}
		index := protocol.ParseInt(rest[1])
		if index == protocol.NotSet {
			return nil
		}
		return c.state.DeletePlayerSeat(index)

	case protocol.ConfigSet:
		// SET <role> <index> <replacer>
		if len(rest) < 3 {
			return nil
		}
		r, ok := parseRole(rest[0])
		if !ok {
			return nil
		}
		index := protocol.ParseInt(rest[1])
		if index == protocol.NotSet && r == accounts.RolePlayer {
			return nil
		}
		return c.state.SetSeat(r, index, rest[2])

	case protocol.ConfigChangeType:
		// CHANGETYPE <role> <index>
		if len(rest) < 2 {
			return nil
		}
		r, ok := parseRole(rest[0])
		if !ok {
			return nil
		}
		index := protocol.ParseInt(rest[1])
		if index == protocol.NotSet && r == accounts.RolePlayer {
			return nil
		}
		return c.state.ChangeSeatType(r, index)

	default:
		log.Debug().Str("subcommand", sub).Msg("unknown CONFIG subcommand ignored")
		return nil
	}
}

// STAGE <name> [<round name>] [<round index>]
func (c *Client) onStage(args []string) error {
	if len(args) < 1 {
		return nil
	}
	stage, ok := session.ParseStage(args[0])
	if !ok {
		log.Warn().Str("stage", args[0]).Msg("unknown stage, ignored")
		return nil
	}
	if err := c.state.SetStage(stage); err != nil {
		return err
	}
	if len(args) > 1 {
		c.events.EmitDisplay("round", args[1:])
	}
	return nil
}

// TIMER <index> <command> [<arg>] [<person>]
func (c *Client) onTimer(args []string) error {
	if len(args) < 2 {
		log.Warn().Strs("args", args).Msg("TIMER too short, ignored")
		return nil
	}
	index := protocol.ParseInt(args[0])
	if index == protocol.NotSet {
		return nil
	}
	command := args[1]
	arg := protocol.NotSet
	if len(args) > 2 {
		arg = protocol.ParseInt(args[2])
	}
	person := ""
	if len(args) > 3 && args[3] != "-1" {
		person = args[3]
	}

	var err error
	switch command {
	case protocol.TimerGo:
		if arg == protocol.NotSet {
			return nil
		}
		err = c.bank.Start(index, arg)
	case protocol.TimerStop:
		err = c.bank.Stop(index)
	case protocol.TimerPause:
		if arg == protocol.NotSet {
			return nil
		}
		err = c.bank.Pause(index, arg)
	case protocol.TimerUserPause:
		if arg == protocol.NotSet {
			return nil
		}
		err = c.bank.UserPause(index, arg)
	case protocol.TimerResume:
		err = c.bank.Resume(index)
	case protocol.TimerUserResume:
		err = c.bank.UserResume(index)
	case protocol.TimerMaxTime:
		if arg == protocol.NotSet {
			return nil
		}
		err = c.bank.SetMaxTime(index, arg)
	default:
		log.Debug().Str("command", command).Msg("unknown timer command ignored")
		return nil
	}
	if err != nil {
		log.Warn().Err(err).Int("index", index).Msg("timer control ignored")
		return nil
	}

	c.events.EmitTimerChanged(index, command, arg, person)
	return nil
}

// CHOICE <themeIndex> <questionIndex>
func (c *Client) onChoice(args []string) error {
	if len(args) < 2 {
		return nil
	}
	theme := protocol.ParseInt(args[0])
	question := protocol.ParseInt(args[1])
	if err := c.state.SetSelection(theme, question); err != nil {
		return err
	}
	c.events.EmitDisplay("choice", args)
	return nil
}

// QTYPE <tag>
func (c *Client) onQType(args []string) error {
	if len(args) < 1 {
		return nil
	}
	return c.state.SetQType(args[0])
}

// SUMS <sum0> <sum1> … — bulk score update; a malformed field leaves
// that player's score untouched.
func (c *Client) onSums(args []string) error {
	return c.state.EachPlayer(func(i int, p *accounts.Account) {
		if i >= len(args) {
			return
		}
		if n := protocol.ParseInt(args[i]); n != protocol.NotSet {
			p.Player.Sum = n
		}
	})
}

// PERSON <+|-> <playerIndex> <amount>
func (c *Client) onPerson(args []string) error {
	if len(args) < 3 {
		log.Warn().Strs("args", args).Msg("PERSON too short, ignored")
		return nil
	}
	right := protocol.ParseFlag(args[0])
	index := protocol.ParseInt(args[1])
	amount := protocol.ParseInt(args[2])
	if index == protocol.NotSet || amount == protocol.NotSet {
		return nil
	}
	return c.state.UpdatePlayer(index, func(p *accounts.Account) {
		if right {
			p.Player.Right++
			p.Player.Sum += amount
		} else {
			p.Player.Wrong++
			p.Player.Sum -= amount
		}
	})
}

// PERSONSTAKE <playerIndex> <kind> [<amount>]
func (c *Client) onPersonStake(args []string) error {
	if len(args) < 2 {
		return nil
	}
	index := protocol.ParseInt(args[0])
	if index == protocol.NotSet {
		return nil
	}
	amount := protocol.NotSet
	if len(args) > 2 {
		amount = protocol.ParseInt(args[2])
	}
	if err := c.state.UpdatePlayer(index, func(p *accounts.Account) {
		if amount != protocol.NotSet {
			p.Player.Stake = amount
		}
		p.Person.IsDeciding = false
	}); err != nil {
		return err
	}
	c.events.EmitDisplay("stake", args)
	return nil
}

// PASS <playerIndex>
func (c *Client) onPass(args []string) error {
	if len(args) < 1 {
		return nil
	}
	index := protocol.ParseInt(args[0])
	if index == protocol.NotSet {
		return nil
	}
	return c.state.UpdatePlayer(index, func(p *accounts.Account) {
		p.Player.Passed = true
	})
}

// SETCHOOSER <playerIndex>
func (c *Client) onSetChooser(args []string) error {
	if len(args) < 1 {
		return nil
	}
	index := protocol.ParseInt(args[0])
	if index == protocol.NotSet {
		return nil
	}
	return c.state.EachPlayer(func(i int, p *accounts.Account) {
		p.Player.IsChooser = i == index
	})
}

// READY <name> [<+|->]
func (c *Client) onReady(args []string) error {
	if len(args) < 1 {
		return nil
	}
	ready := len(args) < 2 || protocol.ParseFlag(args[1])
	return c.state.UpdatePerson(args[0], func(a *accounts.Account) {
		a.Person.Ready = ready
	})
}

// REPLIC <speaker> <text…> — speaker codes: "s" showman, "p<N>"
// player N, anything else a literal name.
func (c *Client) onReplic(args []string) error {
	if len(args) < 2 {
		return nil
	}
	speaker := args[0]
	text := strings.Join(args[1:], " ")
	switch {
	case speaker == "s":
		c.events.EmitChat(c.state.Showman().Name, text)
	case strings.HasPrefix(speaker, "p"):
		index := protocol.ParseInt(speaker[1:])
		players := c.state.Players()
		if index < 0 || index >= len(players) {
			c.events.EmitChat(speaker, text)
			return nil
		}
		c.events.EmitChat(players[index].Name, text)
	default:
		c.events.EmitChat(speaker, text)
	}
	return nil
}

// OUT <themeIndex> — a final-round theme was removed.
func (c *Client) onOut(args []string) error {
	if len(args) < 1 {
		return nil
	}
	if protocol.ParseInt(args[0]) == protocol.NotSet {
		return nil
	}
	c.events.EmitDisplay("out", args)
	return nil
}

// PAUSE <+|-> [<elapsed0> <elapsed1> <elapsed2>] — the host paused or
// resumed the game; fan the state out to every timer.
func (c *Client) onPause(args []string) error {
	if len(args) < 1 {
		return nil
	}
	paused := protocol.ParseFlag(args[0])
	for i := 0; i < timers.Count; i++ {
		if paused {
			elapsed := protocol.NotSet
			if len(args) > i+1 {
				elapsed = protocol.ParseInt(args[i+1])
			}
			if elapsed == protocol.NotSet {
				continue
			}
			if err := c.bank.Pause(i, elapsed); err != nil {
				return err
			}
			c.events.EmitTimerChanged(i, protocol.TimerPause, elapsed, "")
		} else {
			if err := c.bank.Resume(i); err != nil {
				return err
			}
			c.events.EmitTimerChanged(i, protocol.TimerResume, protocol.NotSet, "")
		}
	}
	c.events.EmitDisplay("pause", args[:1])
	return nil
}

// HOSTNAME <name>
func (c *Client) onHostname(args []string) error {
	if len(args) < 1 {
		return nil
	}
	return c.state.SetHostName(args[0])
}

// PICTURE <name> <uri>
func (c *Client) onPicture(args []string) error {
	if len(args) < 2 {
		return nil
	}
	return c.state.UpdatePerson(args[0], func(a *accounts.Account) {
		a.Picture = args[1]
	})
}
