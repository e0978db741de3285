package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/quizarena/quizarena/internal/protocol"
	"github.com/rs/zerolog/log"
)

// WebSocketConfig holds the connection settings for the WebSocket link.
type WebSocketConfig struct {
	URL            string
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	DialTimeout    time.Duration
}

// DefaultWebSocketConfig returns the settings used unless overridden.
func DefaultWebSocketConfig(url string) WebSocketConfig {
	return WebSocketConfig{
		URL:            url,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 64 * 1024,
		DialTimeout:    10 * time.Second,
	}
}

// WebSocket is a Transport over a single WebSocket connection, with
// read/write pumps, ping keepalive, and in-place reconnection.
type WebSocket struct {
	id  string
	cfg WebSocketConfig

	recv     chan protocol.Message
	linkLost chan struct{}

	mu     sync.Mutex
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	closed bool
}

// DialWebSocket connects to the host and starts the pumps.
func DialWebSocket(ctx context.Context, cfg WebSocketConfig) (*WebSocket, error) {
	ws := &WebSocket{
		id:       uuid.NewString(),
		cfg:      cfg,
		recv:     make(chan protocol.Message, 256),
		linkLost: make(chan struct{}, 1),
	}
	if err := ws.dial(ctx); err != nil {
		return nil, err
	}
	return ws, nil
}

func (ws *WebSocket) dial(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, ws.cfg.DialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, ws.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", ws.cfg.URL, err)
	}

	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	ws.conn = conn
	ws.send = make(chan []byte, 256)
	ws.done = make(chan struct{})
	send, done := ws.send, ws.done
	ws.mu.Unlock()

	go ws.writePump(conn, send, done)
	go ws.readPump(conn, done)

	log.Info().Str("connection_id", ws.id).Str("url", ws.cfg.URL).Msg("websocket connected")
	return nil
}

// Send marshals and queues one outbound message.
func (ws *WebSocket) Send(msg protocol.Message) error {
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return ErrClosed
	}
	send := ws.send
	ws.mu.Unlock()

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	select {
	case send <- payload:
		return nil
	default:
		return fmt.Errorf("send buffer full")
	}
}

func (ws *WebSocket) Messages() <-chan protocol.Message { return ws.recv }

func (ws *WebSocket) LinkLost() <-chan struct{} { return ws.linkLost }

// Reconnect drops the old connection (if any) and dials again. The
// message channel is preserved so the receive loop keeps its place.
func (ws *WebSocket) Reconnect(ctx context.Context) error {
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return ErrClosed
	}
	if ws.conn != nil {
		ws.conn.Close()
		close(ws.done)
		ws.conn = nil
	}
	ws.mu.Unlock()

	return ws.dial(ctx)
}

// Close tears the transport down. Idempotent.
func (ws *WebSocket) Close() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return nil
	}
	ws.closed = true
	if ws.conn != nil {
		ws.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
		ws.conn.Close()
		close(ws.done)
		ws.conn = nil
	}
	return nil
}

// writePump owns all writes on one connection: queued messages plus
// the ping keepalive.
func (ws *WebSocket) writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(ws.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case payload := <-send:
			conn.SetWriteDeadline(time.Now().Add(ws.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Error().Err(err).Str("connection_id", ws.id).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(ws.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("connection_id", ws.id).Msg("websocket ping failed")
				return
			}
		}
	}
}

// readPump decodes inbound frames onto the message channel and signals
// link loss when the connection dies.
func (ws *WebSocket) readPump(conn *websocket.Conn, done <-chan struct{}) {
	conn.SetReadLimit(ws.cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(ws.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(ws.cfg.ReadTimeout))
		return nil
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("connection_id", ws.id).Msg("websocket closed unexpectedly")
			}
			ws.signalLinkLost()
			return
		}
		conn.SetReadDeadline(time.Now().Add(ws.cfg.ReadTimeout))

		var msg protocol.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Warn().Err(err).Str("connection_id", ws.id).Msg("undecodable frame dropped")
			continue
		}
		select {
		case ws.recv <- msg:
		case <-done:
			return
		}
	}
}

func (ws *WebSocket) signalLinkLost() {
	ws.mu.Lock()
	closed := ws.closed
	ws.mu.Unlock()
	if closed {
		return
	}
	select {
	case ws.linkLost <- struct{}{}:
	default:
	}
}
