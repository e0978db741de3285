package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/quizarena/quizarena/internal/protocol"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds the settings for the NATS-bridged link. The host
// publishes on <prefix>.<game>.out plus a per-client subject; the
// client publishes on <prefix>.<game>.in.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	GameID        string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns the settings used unless overridden.
// Reconnects are unbounded; the NATS client handles its own retry.
func DefaultNATSConfig(url, gameID string) NATSConfig {
	return NATSConfig{
		URL:           url,
		SubjectPrefix: "quizarena.games",
		GameID:        gameID,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATS is a Transport bridged over NATS subjects.
type NATS struct {
	id  string
	cfg NATSConfig

	recv     chan protocol.Message
	linkLost chan struct{}

	mu     sync.Mutex
	nc     *nats.Conn
	subs   []*nats.Subscription
	closed bool
}

// DialNATS connects and subscribes to the game's outbound subjects.
func DialNATS(cfg NATSConfig) (*NATS, error) {
	t := &NATS{
		id:       uuid.NewString(),
		cfg:      cfg,
		recv:     make(chan protocol.Message, 256),
		linkLost: make(chan struct{}, 1),
	}

	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
			t.signalLinkLost()
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	t.nc = nc

	if err := t.subscribe(); err != nil {
		nc.Close()
		return nil, err
	}

	log.Info().Str("connection_id", t.id).Str("game_id", cfg.GameID).Msg("NATS transport ready")
	return t, nil
}

func (t *NATS) subscribe() error {
	handle := func(m *nats.Msg) {
		var msg protocol.Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			log.Warn().Err(err).Str("subject", m.Subject).Msg("undecodable NATS message dropped")
			return
		}
		select {
		case t.recv <- msg:
		default:
			log.Warn().Str("subject", m.Subject).Msg("receive buffer full, message dropped")
		}
	}

	for _, subject := range []string{
		fmt.Sprintf("%s.%s.out", t.cfg.SubjectPrefix, t.cfg.GameID),
		fmt.Sprintf("%s.%s.out.%s", t.cfg.SubjectPrefix, t.cfg.GameID, t.id),
	} {
		sub, err := t.nc.Subscribe(subject, handle)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		t.subs = append(t.subs, sub)
	}
	return nil
}

// Send publishes one outbound message on the game's inbound subject.
func (t *NATS) Send(msg protocol.Message) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	nc := t.nc
	t.mu.Unlock()

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	subject := fmt.Sprintf("%s.%s.in", t.cfg.SubjectPrefix, t.cfg.GameID)
	if err := nc.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (t *NATS) Messages() <-chan protocol.Message { return t.recv }

func (t *NATS) LinkLost() <-chan struct{} { return t.linkLost }

// Reconnect verifies the NATS client re-established the link; the
// client library performs the actual retry internally.
func (t *NATS) Reconnect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if !t.nc.IsConnected() {
		return fmt.Errorf("NATS not reconnected yet (status %s)", t.nc.Status())
	}
	return nil
}

// Close drains the subscriptions and closes the connection. Idempotent.
func (t *NATS) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	for _, sub := range t.subs {
		_ = sub.Unsubscribe()
	}
	t.nc.Close()
	return nil
}

func (t *NATS) signalLinkLost() {
	select {
	case t.linkLost <- struct{}{}:
	default:
	}
}
