// Package transport provides reference implementations of the event
// loop's injected collaborators (Transport, Resolver, Timer) over real
// operating-system sockets, a WebSocket framer, and a monotonic clock.
// These are the "external collaborator" layer the event loop treats as
// opaque.
package transport

import (
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	mqtt "github.com/gonzalop/mqtt-embedded"
)

// discard is the fallback logger for transports constructed without one.
var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// pollTimeout bounds how long a Send/Receive call may block the calling
// goroutine before reporting PollPending. It is deliberately short: the
// event loop calls Step() in a tight poll and must never stall on a dead
// peer.
const pollTimeout = 2 * time.Millisecond

// TCPTransport dials net.Conn sockets, optionally wrapped in TLS. It
// satisfies the mqtt.Transport contract by giving Send/Receive a short
// deadline on every call and translating a deadline-exceeded error into
// mqtt.PollPending rather than a hard failure.
type TCPTransport struct {
	TLSConfig *tls.Config
	Logger    *slog.Logger
	dialer    net.Dialer
}

// NewTCPTransport returns a plain-TCP transport. Set TLSConfig after
// construction to upgrade to TLS, and Logger for dial/close diagnostics.
func NewTCPTransport() *TCPTransport {
	return &TCPTransport{Logger: discard}
}

func (t *TCPTransport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return discard
}

type tcpSocket struct {
	conn     net.Conn
	tlsCfg   *tls.Config
	dialer   *net.Dialer
	addr     string
	dialDone chan struct{}
	dialErr  error
	dialing  bool
}

func (t *TCPTransport) Open() (mqtt.Socket, error) {
	return &tcpSocket{dialer: &t.dialer, tlsCfg: t.TLSConfig}, nil
}

func (t *TCPTransport) Connect(sock mqtt.Socket, addr string) (mqtt.Poll, error) {
	s := sock.(*tcpSocket)
	if s.conn != nil {
		return mqtt.PollReady, nil
	}
	if !s.dialing {
		s.addr = addr
		s.dialDone = make(chan struct{})
		s.dialing = true
		go func() {
			defer close(s.dialDone)
			var conn net.Conn
			var err error
			if s.tlsCfg != nil {
				conn, err = tls.DialWithDialer(s.dialer, "tcp", addr, s.tlsCfg)
			} else {
				conn, err = s.dialer.Dial("tcp", addr)
			}
			s.conn = conn
			s.dialErr = err
		}()
	}
	select {
	case <-s.dialDone:
		s.dialing = false
		if s.dialErr != nil {
			t.logger().Warn("transport: dial failed", "addr", s.addr, "error", s.dialErr)
			return mqtt.PollReady, s.dialErr
		}
		t.logger().Debug("transport: dialed", "addr", s.addr, "tls", s.tlsCfg != nil)
		return mqtt.PollReady, nil
	default:
		return mqtt.PollPending, nil
	}
}

func (t *TCPTransport) IsConnected(sock mqtt.Socket) (bool, error) {
	s := sock.(*tcpSocket)
	return s.conn != nil, nil
}

func (t *TCPTransport) Send(sock mqtt.Socket, b []byte) (int, mqtt.Poll, error) {
	s := sock.(*tcpSocket)
	if s.conn == nil {
		return 0, mqtt.PollReady, errors.New("transport: send before connect")
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(pollTimeout))
	n, err := s.conn.Write(b)
	if err != nil {
		if isTimeout(err) {
			return n, mqtt.PollPending, nil
		}
		return n, mqtt.PollReady, err
	}
	return n, mqtt.PollReady, nil
}

func (t *TCPTransport) Receive(sock mqtt.Socket, buf []byte) (int, mqtt.Poll, error) {
	s := sock.(*tcpSocket)
	if s.conn == nil {
		return 0, mqtt.PollReady, errors.New("transport: receive before connect")
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(pollTimeout))
	n, err := s.conn.Read(buf)
	if err != nil {
		if isTimeout(err) {
			return 0, mqtt.PollPending, nil
		}
		return n, mqtt.PollReady, err
	}
	return n, mqtt.PollReady, nil
}

func (t *TCPTransport) Close(sock mqtt.Socket) {
	s := sock.(*tcpSocket)
	if s.conn != nil {
		t.logger().Debug("transport: closing", "addr", s.addr)
		_ = s.conn.Close()
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}
