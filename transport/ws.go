package transport

import (
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	mqtt "github.com/gonzalop/mqtt-embedded"
)

// WSTransport dials MQTT-over-WebSocket brokers, a standard deployment
// mode when a raw TCP port isn't reachable (browsers, restrictive
// firewalls, load balancers that only speak HTTP). It satisfies the same
// mqtt.Transport contract as TCPTransport by wrapping the gorilla/websocket
// connection's binary message stream behind a byte-oriented Send/Receive.
type WSTransport struct {
	Dialer *websocket.Dialer
	Logger *slog.Logger
	Path   string // e.g. "/mqtt"; defaults to "/mqtt"
	Secure bool   // wss:// instead of ws://
}

// NewWSTransport returns a WebSocket transport using gorilla/websocket's
// default dialer and the "mqtt" subprotocol required by most brokers.
func NewWSTransport() *WSTransport {
	return &WSTransport{
		Dialer: &websocket.Dialer{
			Subprotocols:     []string{"mqtt"},
			HandshakeTimeout: 10 * time.Second,
		},
		Logger: discard,
		Path:   "/mqtt",
	}
}

func (t *WSTransport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return discard
}

type wsSocket struct {
	conn     *websocket.Conn
	dialDone chan struct{}
	dialErr  error
	dialing  bool
	addr     string
	secure   bool
	path     string
	dialer   *websocket.Dialer

	pending []byte // leftover bytes from a partial Receive of one WS message
}

func (t *WSTransport) Open() (mqtt.Socket, error) {
	return &wsSocket{dialer: t.Dialer, secure: t.Secure, path: t.Path}, nil
}

func (t *WSTransport) Connect(sock mqtt.Socket, addr string) (mqtt.Poll, error) {
	s := sock.(*wsSocket)
	if s.conn != nil {
		return mqtt.PollReady, nil
	}
	if !s.dialing {
		scheme := "ws"
		if s.secure {
			scheme = "wss"
		}
		u := url.URL{Scheme: scheme, Host: addr, Path: s.path}
		s.addr = u.String()
		s.dialDone = make(chan struct{})
		s.dialing = true
		go func() {
			defer close(s.dialDone)
			conn, _, err := s.dialer.Dial(s.addr, nil)
			s.conn = conn
			s.dialErr = err
		}()
	}
	select {
	case <-s.dialDone:
		s.dialing = false
		if s.dialErr != nil {
			t.logger().Warn("transport: websocket dial failed", "url", s.addr, "error", s.dialErr)
			return mqtt.PollReady, s.dialErr
		}
		t.logger().Debug("transport: websocket dialed", "url", s.addr)
		return mqtt.PollReady, nil
	default:
		return mqtt.PollPending, nil
	}
}

func (t *WSTransport) IsConnected(sock mqtt.Socket) (bool, error) {
	s := sock.(*wsSocket)
	return s.conn != nil, nil
}

func (t *WSTransport) Send(sock mqtt.Socket, b []byte) (int, mqtt.Poll, error) {
	s := sock.(*wsSocket)
	if s.conn == nil {
		return 0, mqtt.PollReady, errors.New("transport: send before connect")
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(pollTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		if isTimeout(err) {
			return 0, mqtt.PollPending, nil
		}
		return 0, mqtt.PollReady, err
	}
	return len(b), mqtt.PollReady, nil
}

// Receive copies one binary WebSocket message's payload into buf, a
// message at a time; anything that doesn't fit is held in s.pending for
// the next call, since the MQTT decode buffer expects a plain byte stream
// rather than message-framed chunks.
func (t *WSTransport) Receive(sock mqtt.Socket, buf []byte) (int, mqtt.Poll, error) {
	s := sock.(*wsSocket)
	if s.conn == nil {
		return 0, mqtt.PollReady, errors.New("transport: receive before connect")
	}

	if len(s.pending) > 0 {
		n := copy(buf, s.pending)
		s.pending = s.pending[n:]
		return n, mqtt.PollReady, nil
	}

	_ = s.conn.SetReadDeadline(time.Now().Add(pollTimeout))
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		if isTimeout(err) {
			return 0, mqtt.PollPending, nil
		}
		return 0, mqtt.PollReady, err
	}

	n := copy(buf, data)
	if n < len(data) {
		s.pending = data[n:]
	}
	return n, mqtt.PollReady, nil
}

func (t *WSTransport) Close(sock mqtt.Socket) {
	s := sock.(*wsSocket)
	if s.conn != nil {
		t.logger().Debug("transport: websocket closing", "url", s.addr)
		_ = s.conn.Close()
	}
}
