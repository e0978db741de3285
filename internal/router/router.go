// Package router decodes inbound protocol messages and dispatches them
// to named handlers. Dispatch is a static map built at startup; the
// per-command argument validation lives in each handler, not here.
package router

import (
	"fmt"
	"strings"

	"github.com/quizarena/quizarena/internal/protocol"
	"github.com/rs/zerolog/log"
)

// HandlerFunc processes the positional arguments of one command.
// Handlers re-check argument count and numeric parse success before
// mutating state; a malformed field skips the update rather than
// failing the message.
type HandlerFunc func(args []string) error

// CommandError wraps a handler failure with the raw arguments attached
// so the original message can be reconstructed in diagnostics.
type CommandError struct {
	Command string
	Args    []string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s [%s]: %v", e.Command, strings.Join(e.Args, "|"), e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Router routes system messages to command handlers and everything
// else to the chat sink.
type Router struct {
	handlers map[string]HandlerFunc
	chat     func(sender, text string)
}

// New creates a router with the given chat sink.
func New(chat func(sender, text string)) *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
		chat:     chat,
	}
}

// Register binds a command name to its handler. Later registrations
// replace earlier ones.
func (r *Router) Register(command string, h HandlerFunc) {
	r.handlers[command] = h
}

// Dispatch handles one message to completion or reports the failure as
// the returned error; it never lets one bad message stop processing of
// subsequent messages. Unknown commands are ignored. This is the
// outermost catch boundary: a panicking handler is recovered and
// reported with the raw arguments attached.
func (r *Router) Dispatch(msg protocol.Message) (err error) {
	if !msg.IsSystem {
		if r.chat != nil {
			r.chat(msg.Sender, msg.Text)
		}
		return nil
	}

	parts := msg.Parts()
	command, args := parts[0], parts[1:]

	h, ok := r.handlers[command]
	if !ok {
		log.Debug().Str("command", command).Msg("unknown command ignored")
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = &CommandError{Command: command, Args: args, Err: fmt.Errorf("handler panic: %v", rec)}
		}
	}()

	if herr := h(args); herr != nil {
		return &CommandError{Command: command, Args: args, Err: herr}
	}
	return nil
}
