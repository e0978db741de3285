package protocol

import (
	"strconv"
	"strings"
)

// ArgSep is the reserved separator between a command name and its
// arguments. Arguments are not escaped: an argument that contains the
// separator corrupts framing. The host fixes this format, so the codec
// splits blindly and never tries to repair it.
const ArgSep = "\n"

// NotSet is the sentinel for a numeric argument that is absent or
// failed to parse.
const NotSet = -1

// Message is one unit received from (or sent to) the game host.
// System messages carry protocol commands; everything else is chat.
type Message struct {
	IsSystem bool   `json:"sys"`
	Sender   string `json:"sender,omitempty"`
	Text     string `json:"text"`
}

// System builds an outbound system message from a command and its arguments.
func System(command string, args ...string) Message {
	if len(args) == 0 {
		return Message{IsSystem: true, Text: command}
	}
	return Message{IsSystem: true, Text: command + ArgSep + strings.Join(args, ArgSep)}
}

// Chat builds an outbound chat message.
func Chat(text string) Message {
	return Message{Text: text}
}

// Parts splits the message body into the command name followed by its
// positional arguments. Always returns at least one element.
func (m Message) Parts() []string {
	return strings.Split(m.Text, ArgSep)
}

// ParseInt parses a numeric argument, returning NotSet when the field
// is empty or malformed. Handlers treat NotSet as "skip this update".
func ParseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return NotSet
	}
	return n
}

// ParseIntOr parses a numeric argument with an explicit fallback.
func ParseIntOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

// ParseFlag reports whether a "+"/"-" argument is set. Anything other
// than "+" counts as unset.
func ParseFlag(s string) bool {
	return s == "+"
}

// Flag renders a boolean as the wire "+"/"-" form.
func Flag(b bool) string {
	if b {
		return "+"
	}
	return "-"
}
