// Package client is the game-session synchronization engine: it feeds
// inbound protocol messages through the router into the shared session
// state and timer bank, hot-swaps the local role handler when the
// host moves this client between seats, and supervises reconnection.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/quizarena/quizarena/internal/accounts"
	"github.com/quizarena/quizarena/internal/protocol"
	"github.com/quizarena/quizarena/internal/role"
	"github.com/quizarena/quizarena/internal/router"
	"github.com/quizarena/quizarena/internal/session"
	"github.com/quizarena/quizarena/internal/timers"
	"github.com/quizarena/quizarena/internal/transport"
	"github.com/rs/zerolog/log"
)

// DefaultReconnectDelay is the fixed wait between reconnection cycles.
const DefaultReconnectDelay = 5 * time.Second

// ErrDisposed is returned by operations on a disposed client.
var ErrDisposed = errors.New("client disposed")

// Config describes the local identity joining the game.
type Config struct {
	Name           string
	IsMale         bool
	ReconnectDelay time.Duration
}

// Client is one game-session client.
type Client struct {
	id    string
	cfg   Config
	clock clockwork.Clock

	tr     transport.Transport
	events *session.Events
	state  *session.State
	bank   *timers.Bank
	router *router.Router
	super  *supervisor

	disposed    atomic.Bool
	disposeOnce sync.Once
	cancel      context.CancelFunc
}

// New assembles a client around a transport. events may be nil when no
// rendering layer is attached.
func New(cfg Config, tr transport.Transport, events *session.Events, clock clockwork.Clock) *Client {
	if events == nil {
		events = &session.Events{}
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	c := &Client{
		id:     uuid.NewString(),
		cfg:    cfg,
		clock:  clock,
		tr:     tr,
		events: events,
		bank:   timers.NewBank(clock),
	}
	c.state = session.NewState(cfg.Name, events)
	c.state.SetSwitchFunc(func(old role.Handler, to accounts.Role, seat *accounts.Account) (role.Handler, error) {
		return role.Switch(old, to, seat, c)
	})
	c.router = router.New(func(sender, text string) {
		events.EmitChat(sender, text)
	})
	c.registerHandlers()
	c.super = newSupervisor(clock, cfg.ReconnectDelay, c.reconnectTransport, c.rejoin, c.disposed.Load)
	return c
}

// State exposes the shared session state for the rendering layer.
func (c *Client) State() *session.State { return c.state }

// Timers exposes the timer bank for the rendering layer's pull reads.
func (c *Client) Timers() *timers.Bank { return c.bank }

// Send issues one outbound system command. Fire-and-forget; transport
// failures are transient and surfaced as a notification.
func (c *Client) Send(command string, args ...string) error {
	if c.disposed.Load() {
		return ErrDisposed
	}
	if err := c.tr.Send(protocol.System(command, args...)); err != nil {
		log.Warn().Err(err).Str("command", command).Msg("outbound send failed")
		c.events.EmitNotify(fmt.Sprintf("could not reach the game host: %v", err))
		return err
	}
	return nil
}

// SendChat sends a chat line.
func (c *Client) SendChat(text string) error {
	if c.disposed.Load() {
		return ErrDisposed
	}
	return c.tr.Send(protocol.Chat(text))
}

// Run joins the game and processes inbound messages until the context
// is cancelled, the client is disposed, or a fatal invariant violation
// tears the session down.
func (c *Client) Run(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)
	defer c.cancel()

	if err := c.join(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.tr.LinkLost():
			log.Warn().Str("client_id", c.id).Msg("link lost, starting reconnection")
			c.super.onLinkLost(ctx)
		case msg, ok := <-c.tr.Messages():
			if !ok {
				return transport.ErrClosed
			}
			if err := c.Handle(msg); err != nil && isFatal(err) {
				return err
			}
		}
	}
}

// Handle processes one inbound message to completion. A fatal roster
// invariant violation tears the session down and is returned; any
// other failure is reported and the stream continues.
func (c *Client) Handle(msg protocol.Message) error {
	err := c.router.Dispatch(msg)
	if err == nil {
		return nil
	}
	if isFatal(err) {
		// Session state can no longer be trusted.
		log.Error().Err(err).Str("client_id", c.id).Msg("fatal invariant violation, session torn down")
		c.Dispose()
		return err
	}
	log.Error().Err(err).Str("client_id", c.id).Msg("message handler failed")
	return err
}

// join replays the session-entry handshake: announce the identity and
// request a full roster snapshot.
func (c *Client) join() error {
	if err := c.Send(protocol.CmdOutI, c.cfg.Name, protocol.Flag(c.cfg.IsMale)); err != nil {
		return err
	}
	return c.Send(protocol.CmdOutInfo)
}

func (c *Client) reconnectTransport(ctx context.Context) error {
	rc, ok := c.tr.(transport.Reconnector)
	if !ok {
		return fmt.Errorf("transport cannot reconnect")
	}
	return rc.Reconnect(ctx)
}

// rejoin replays the join handshake after a reconnect.
func (c *Client) rejoin(ctx context.Context) error {
	if err := c.join(); err != nil {
		return &RejoinError{Err: err, Retryable: true}
	}
	return nil
}

// Dispose tears the client down: event subscriptions are unhooked
// before the role handler goes away so a message arriving mid-disposal
// cannot resurrect state. Idempotent.
func (c *Client) Dispose() {
	c.disposeOnce.Do(func() {
		c.disposed.Store(true)
		c.events.Reset()
		if c.cancel != nil {
			c.cancel()
		}
		if h := c.state.Handler(); h != nil {
			h.Detach()
			h.Dispose()
		}
		if err := c.tr.Close(); err != nil {
			log.Warn().Err(err).Str("client_id", c.id).Msg("transport close failed")
		}
		log.Info().Str("client_id", c.id).Msg("client disposed")
	})
}

// isFatal classifies roster invariant violations, which terminate the
// session rather than being retried or ignored.
func isFatal(err error) bool {
	return errors.Is(err, session.ErrDuplicateName) ||
		errors.Is(err, session.ErrIdentityLost) ||
		errors.Is(err, role.ErrComputerSwitch)
}
