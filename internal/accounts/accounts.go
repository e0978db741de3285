// Package accounts models everyone at the game table. A single Account
// struct tagged with a Role replaces the deep showman/player/viewer
// hierarchy of older clients; role-specific behavior is a switch over
// the tag.
package accounts

// Role is the seat category an account currently occupies.
type Role int

const (
	RoleViewer Role = iota
	RolePlayer
	RoleShowman
)

func (r Role) String() string {
	switch r {
	case RolePlayer:
		return "player"
	case RoleShowman:
		return "showman"
	default:
		return "viewer"
	}
}

// FreeSeatName marks a seat with no occupant. It never collides with a
// real participant because connected names are validated on join.
const FreeSeatName = "(free)"

// Identity is the part of an account shared by every role.
type Identity struct {
	Name      string
	IsHuman   bool
	IsMale    bool
	Connected bool
	Picture   string
}

// PersonState applies to seats at the table (players and the showman).
type PersonState struct {
	Ready       bool
	GameStarted bool
	IsDeciding  bool
	Extended    bool
}

// PlayerState applies only to player seats.
type PlayerState struct {
	Sum       int
	Right     int
	Wrong     int
	Stake     int
	Passed    bool
	IsChooser bool
}

// Account is one participant. Person is meaningful for players and the
// showman; Player only for players.
type Account struct {
	Identity
	Role   Role
	Person PersonState
	Player PlayerState
}

// NewHuman returns a connected human account with the given role.
func NewHuman(role Role, name string, isMale bool) *Account {
	return &Account{
		Identity: Identity{Name: name, IsHuman: true, IsMale: isMale, Connected: true},
		Role:     role,
	}
}

// NewComputer returns a computer-controlled account. Computer seats are
// always "connected": there is no remote client behind them.
func NewComputer(role Role, name string) *Account {
	return &Account{
		Identity: Identity{Name: name, Connected: true},
		Role:     role,
	}
}

// FreeSeat returns the placeholder occupying a vacated seat.
func FreeSeat(role Role) *Account {
	return &Account{
		Identity: Identity{Name: FreeSeatName},
		Role:     role,
	}
}

// IsFreeSeat reports whether the account is the vacant-seat placeholder.
func (a *Account) IsFreeSeat() bool {
	return a.Name == FreeSeatName
}

// Clone returns a deep copy. Accounts hold no reference fields, so a
// value copy is sufficient.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// AsViewer returns a copy of the account demoted to a spectator, with
// seat-specific state cleared.
func (a *Account) AsViewer() *Account {
	c := a.Clone()
	c.Role = RoleViewer
	c.Person = PersonState{}
	c.Player = PlayerState{}
	return c
}
