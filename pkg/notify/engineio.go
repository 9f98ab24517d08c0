package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Engine.IO v4 packet types.
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
)

// Socket.IO v5 packet types carried in Engine.IO messages.
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioConnectError = '4'
)

type handshake struct {
	SID          string `json:"sid"`
	PingInterval int64  `json:"pingInterval"`
	PingTimeout  int64  `json:"pingTimeout"`
}

// deadline is how long the server may stay silent before the link is
// considered dead.
func (h handshake) deadline() time.Duration {
	d := time.Duration(h.PingInterval+h.PingTimeout) * time.Millisecond
	if d <= 0 {
		return 45 * time.Second
	}
	return d
}

type packet struct {
	eio  byte
	sio  byte
	data []byte
}

func parsePacket(msg []byte) (packet, error) {
	if len(msg) == 0 {
		return packet{}, fmt.Errorf("empty engine.io packet")
	}
	p := packet{eio: msg[0], data: msg[1:]}
	if p.eio == eioMessage {
		if len(p.data) == 0 {
			return packet{}, fmt.Errorf("empty socket.io packet")
		}
		p.sio = p.data[0]
		p.data = p.data[1:]
	}
	return p, nil
}

// parseEvent splits the body of a "42" packet into the event name and its
// arguments. An optional namespace and ack id precede the array.
func parseEvent(data []byte) (string, []json.RawMessage, error) {
	if len(data) > 0 && data[0] == '/' {
		i := bytes.IndexByte(data, ',')
		if i < 0 {
			return "", nil, fmt.Errorf("malformed namespace in event")
		}
		data = data[i+1:]
	}
	for len(data) > 0 && data[0] >= '0' && data[0] <= '9' {
		data = data[1:]
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return "", nil, fmt.Errorf("decode event array: %w", err)
	}
	if len(items) == 0 {
		return "", nil, fmt.Errorf("event without name")
	}
	var name string
	if err := json.Unmarshal(items[0], &name); err != nil {
		return "", nil, fmt.Errorf("decode event name: %w", err)
	}
	return name, items[1:], nil
}

func encodeEvent(name string, args ...interface{}) ([]byte, error) {
	items := make([]interface{}, 0, len(args)+1)
	items = append(items, name)
	items = append(items, args...)
	body, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", name, err)
	}
	return append([]byte{eioMessage, sioEvent}, body...), nil
}

// SocketURL builds the websocket endpoint of a Socket.IO server at host.
func SocketURL(host string) (string, error) {
	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("parse socket host: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported socket scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/socket.io/"
	u.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()
	return u.String(), nil
}
