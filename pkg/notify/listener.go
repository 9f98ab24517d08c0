package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Listener keeps a Socket.IO session with the backend open and publishes
// every event to a Hub.
type Listener struct {
	url    string
	userID string
	hub    *Hub
	log    zerolog.Logger
	dialer websocket.Dialer
	hook   func(Event)

	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// ListenerOption customizes a Listener.
type ListenerOption func(*Listener)

// WithListenerLogger sets the logger.
func WithListenerLogger(log zerolog.Logger) ListenerOption {
	return func(l *Listener) { l.log = log }
}

// WithEventHook is called for every decoded event before it is published.
func WithEventHook(fn func(Event)) ListenerOption {
	return func(l *Listener) { l.hook = fn }
}

// WithReconnectBackoff overrides the reconnect schedule (1s growing by 1.8x
// up to 30s).
func WithReconnectBackoff(initial, ceiling time.Duration) ListenerOption {
	return func(l *Listener) {
		l.initialBackoff = initial
		l.maxBackoff = ceiling
	}
}

// NewListener creates a listener for the Socket.IO server at host (http,
// https, ws or wss). userID is announced with NEW_USER on every connect.
func NewListener(host, userID string, hub *Hub, opts ...ListenerOption) (*Listener, error) {
	u, err := SocketURL(host)
	if err != nil {
		return nil, err
	}
	l := &Listener{
		url:            u,
		userID:         userID,
		hub:            hub,
		log:            zerolog.Nop(),
		dialer:         websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		initialBackoff: time.Second,
		maxBackoff:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Run connects and reconnects until ctx ends.
func (l *Listener) Run(ctx context.Context) error {
	backoff := l.initialBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		connected, err := l.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = l.initialBackoff
		}
		l.log.Warn().Err(err).Dur("retry_in", backoff).Msg("push channel disconnected, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = time.Duration(math.Min(float64(l.maxBackoff), float64(backoff)*1.8))
	}
}

// session runs one connection. connected reports whether the namespace
// handshake completed.
func (l *Listener) session(ctx context.Context) (connected bool, err error) {
	conn, _, err := l.dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", l.url, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	defer func() {
		if connected {
			l.publish(Event{Tag: TagDisconnect, Success: true, At: time.Now()})
		}
	}()

	conn.SetReadLimit(1 << 20)
	hs := handshake{}
	conn.SetReadDeadline(time.Now().Add(hs.deadline()))

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return connected, err
		}
		conn.SetReadDeadline(time.Now().Add(hs.deadline()))

		p, err := parsePacket(msg)
		if err != nil {
			l.log.Warn().Err(err).Msg("bad push packet")
			continue
		}

		switch p.eio {
		case eioOpen:
			if err := json.Unmarshal(p.data, &hs); err != nil {
				return connected, fmt.Errorf("decode handshake: %w", err)
			}
			conn.SetReadDeadline(time.Now().Add(hs.deadline()))
			if err := l.write(conn, []byte{eioMessage, sioConnect}); err != nil {
				return connected, err
			}
		case eioPing:
			if err := l.write(conn, []byte{eioPong}); err != nil {
				return connected, err
			}
		case eioClose:
			return connected, errors.New("server closed the session")
		case eioMessage:
			switch p.sio {
			case sioConnect:
				frame, err := encodeEvent(emitNewUser, l.userID)
				if err != nil {
					return connected, err
				}
				if err := l.write(conn, frame); err != nil {
					return connected, err
				}
				connected = true
				l.log.Info().Msg("push channel connected")
				l.publish(Event{Tag: TagConnect, Success: true, At: time.Now()})
			case sioDisconnect:
				return connected, errors.New("namespace disconnected")
			case sioConnectError:
				return connected, fmt.Errorf("namespace connect rejected: %s", p.data)
			case sioEvent:
				l.handleEvent(p.data)
			}
		}
	}
}

func (l *Listener) handleEvent(data []byte) {
	name, args, err := parseEvent(data)
	if err != nil {
		l.log.Warn().Err(err).Msg("bad push event")
		return
	}
	var arg json.RawMessage
	if len(args) > 0 {
		arg = args[0]
	}
	ev, err := DecodeEvent(name, arg)
	if err != nil {
		l.log.Warn().Err(err).Str("tag", name).Msg("undecodable push event")
		ev.Success = false
		ev.Error = err.Error()
	}
	if ev.Tag == TagLog {
		l.log.Info().Str("server", ev.Text).Msg("backend log")
	} else {
		l.log.Debug().Str("tag", ev.Tag).Bool("success", ev.Success).Msg("push event")
	}
	l.publish(ev)
}

func (l *Listener) publish(ev Event) {
	if l.hook != nil {
		l.hook(ev)
	}
	l.hub.Publish(ev)
}

func (l *Listener) write(conn *websocket.Conn, frame []byte) error {
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("write push frame: %w", err)
	}
	return nil
}
