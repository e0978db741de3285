// Package transport carries protocol messages between the client and
// the game host. The engine depends only on the Transport interface;
// WebSocket and NATS implementations are provided.
package transport

import (
	"context"
	"errors"

	"github.com/quizarena/quizarena/internal/protocol"
)

// ErrClosed is returned by Send after the transport is closed.
var ErrClosed = errors.New("transport closed")

// Transport is a bidirectional message link to the game host. Sends
// are fire-and-forget: no acknowledgement is assumed.
type Transport interface {
	// Send delivers one outbound message.
	Send(msg protocol.Message) error
	// Messages yields inbound messages in arrival order. The channel
	// survives reconnects.
	Messages() <-chan protocol.Message
	// LinkLost signals that the link dropped and needs reconnection.
	LinkLost() <-chan struct{}
	// Close tears the link down for good.
	Close() error
}

// Reconnector is implemented by transports that can re-establish a
// dropped link in place.
type Reconnector interface {
	Reconnect(ctx context.Context) error
}
