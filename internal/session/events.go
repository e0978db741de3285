package session

import "github.com/quizarena/quizarena/internal/accounts"

// Events is the set of callbacks the rendering layer subscribes to.
// Any field may be nil. Callbacks are always invoked outside the
// session's critical sections, on the network-receive goroutine.
type Events struct {
	RosterChanged    func()
	IdentityResolved func(name string, role accounts.Role)
	RoleSwitched     func(from, to accounts.Role)
	StageChanged     func(stage Stage)
	TimerChanged     func(index int, command string, arg int, person string)
	Chat             func(sender, text string)
	Display          func(kind string, args []string)
	Notify           func(text string)
	Fatal            func(err error)
}

// Reset unhooks every subscription. Used during session disposal so a
// late message cannot call back into a torn-down rendering layer.
func (e *Events) Reset() {
	if e == nil {
		return
	}
	*e = Events{}
}

func (e *Events) EmitRosterChanged() {
	if e != nil && e.RosterChanged != nil {
		e.RosterChanged()
	}
}

func (e *Events) EmitIdentityResolved(name string, role accounts.Role) {
	if e != nil && e.IdentityResolved != nil {
		e.IdentityResolved(name, role)
	}
}

func (e *Events) EmitRoleSwitched(from, to accounts.Role) {
	if e != nil && e.RoleSwitched != nil {
		e.RoleSwitched(from, to)
	}
}

func (e *Events) EmitStageChanged(stage Stage) {
	if e != nil && e.StageChanged != nil {
		e.StageChanged(stage)
	}
}

func (e *Events) EmitTimerChanged(index int, command string, arg int, person string) {
	if e != nil && e.TimerChanged != nil {
		e.TimerChanged(index, command, arg, person)
	}
}

func (e *Events) EmitChat(sender, text string) {
	if e != nil && e.Chat != nil {
		e.Chat(sender, text)
	}
}

func (e *Events) EmitDisplay(kind string, args []string) {
	if e != nil && e.Display != nil {
		e.Display(kind, args)
	}
}

func (e *Events) EmitNotify(text string) {
	if e != nil && e.Notify != nil {
		e.Notify(text)
	}
}

func (e *Events) EmitFatal(err error) {
	if e != nil && e.Fatal != nil {
		e.Fatal(err)
	}
}
