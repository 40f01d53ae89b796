package mqtt

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/gonzalop/mqtt-embedded/internal/packet"
	"github.com/gonzalop/mqtt-embedded/model"
	"github.com/gonzalop/mqtt-embedded/session"
)

// Poll mirrors the three-valued Poll<T,E> the loop is specified against:
// every potentially-blocking operation reports whether it completed or
// would have blocked, instead of blocking the calling goroutine.
type Poll int

const (
	PollPending Poll = iota
	PollReady
)

// Socket is an opaque handle a Transport hands back from Open. The loop
// never inspects it directly.
type Socket any

// Transport is the injected, non-blocking byte-transport collaborator.
// Implementations live in package transport; net.Conn-backed sockets
// dial in the background and report readiness through IsConnected.
type Transport interface {
	Open() (Socket, error)
	Connect(sock Socket, addr string) (Poll, error)
	IsConnected(sock Socket) (bool, error)
	// Send may return a short write; the loop retries until len(b) bytes
	// are committed, since MQTT framing requires atomic packet writes.
	Send(sock Socket, b []byte) (n int, poll Poll, err error)
	// Receive returns (0, PollPending, nil) when no data is yet available.
	Receive(sock Socket, buf []byte) (n int, poll Poll, err error)
	Close(sock Socket)
}

// Resolver is the injected DNS collaborator.
type Resolver interface {
	ResolveHostname(host string) (net.IP, error)
	ResolveAddr(ip net.IP) (string, error)
}

// Timer is the injected monotonic countdown collaborator. Start is
// idempotent and rearms the deadline; TryWait reports expiry exactly once
// per Start call.
type Timer interface {
	Start(d time.Duration)
	TryWait() bool
}

// RequestQueue is the consumer endpoint of the application's SPSC request
// ring; the loop owns this side exclusively.
type RequestQueue interface {
	Peek() (Request, bool)
	Dequeue() (Request, bool)
	Ready() bool
}

// Loop is the cooperative event loop (C5): it orchestrates the codec and
// session state machine over an injected transport, resolver, and pair of
// timers. All of its methods are safe to call only from the single
// execution context driving step(); nothing here is safe for concurrent
// use.
type Loop struct {
	opts *Options
	sess *session.Session
	log  *slog.Logger

	transport      Transport
	resolver       Resolver
	keepAliveTimer Timer
	handshakeTimer Timer
	queue          RequestQueue

	sock Socket

	decodeBuf [1024]byte
	decodeLen int
}

// NewLoop wires the session state machine to its collaborators. The
// session starts Disconnected; call Connect to begin the handshake.
func NewLoop(opts *Options, transport Transport, resolver Resolver, keepAliveTimer, handshakeTimer Timer, queue RequestQueue) *Loop {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loop{
		opts:           opts,
		sess:           session.New(opts.CleanSession, opts.InflightCap),
		log:            log,
		transport:      transport,
		resolver:       resolver,
		keepAliveTimer: keepAliveTimer,
		handshakeTimer: handshakeTimer,
		queue:          queue,
	}
}

// Connect ensures the transport is open and drives the MQTT handshake.
// It returns (true, PollReady, nil) on a freshly completed handshake,
// (false, PollReady, nil) if the session was already Connected, and
// (false, PollPending, nil) while still in progress. Any error closes the
// socket; the loop is safe to Connect again afterwards.
func (l *Loop) Connect() (bool, Poll, error) {
	poll, err := l.networkConnect()
	if err != nil {
		return false, PollReady, err
	}
	if poll == PollPending {
		return false, PollPending, nil
	}

	if l.sess.Status == session.Connected {
		return false, PollReady, nil
	}

	poll, err = l.mqttConnect()
	if err != nil {
		l.closeSocket()
		return false, PollReady, err
	}
	if poll == PollPending {
		return false, PollPending, nil
	}
	return true, PollReady, nil
}

// Disconnect sends DISCONNECT if a socket is open, closes the transport,
// and returns the session to Disconnected. The in-flight tables are
// discarded only when the session was connected with clean_session=true.
func (l *Loop) Disconnect() {
	if l.sock != nil {
		_ = l.sendPacket(packet.DisconnectPacket{})
	}
	l.closeSocket()
	l.sess.TransportClosed()
	l.log.Debug("mqtt: disconnected", "client_id", l.opts.ClientID)
}

// Step performs exactly one unit of forward progress: an outbound
// request, an inbound packet, or a keep-alive expiry, in that priority
// order, or PollPending if none is ready. Step itself never fails; any
// underlying error is reported as a Notification with Abort set, and the
// connection is torn down before Step returns.
func (l *Loop) Step() (*model.Notification, Poll) {
	if l.shouldHandleRequest() {
		req, ok := l.queue.Dequeue()
		if ok {
			notif, pkt, err := l.sess.HandleOutgoingRequest(req)
			if err != nil {
				return l.abort("outgoing request", err), PollReady
			}
			if pkt != nil {
				if err := l.sendPacket(pkt); err != nil {
					return l.abort("send", err), PollReady
				}
			}
			return notif, PollReady
		}
	}

	notif, consumed, err := l.receiveAndHandle()
	if err != nil {
		return l.abort("inbound packet", err), PollReady
	}
	if consumed {
		return notif, PollReady
	}

	if l.keepAliveTimer.TryWait() {
		pkt, err := l.sess.KeepAliveExpired()
		if err != nil {
			return l.abort("keep-alive", err), PollReady
		}
		if err := l.sendPacket(pkt); err != nil {
			return l.abort("send", err), PollReady
		}
		return nil, PollReady
	}

	return nil, PollPending
}

// shouldHandleRequest reports whether the queued request can be handled
// right now: nothing but CONNECT may be serialized before the handshake
// completes; once connected, a QoS 0 publish is always eligible and
// anything else needs inflight capacity.
func (l *Loop) shouldHandleRequest() bool {
	if l.sess.Status != session.Connected {
		return false
	}
	req, ok := l.queue.Peek()
	if !ok {
		return false
	}
	if req.Publish != nil && req.Publish.QoS == packet.AtMostOnce {
		return true
	}
	return l.sess.HasCapacity()
}

func (l *Loop) abort(op string, err error) *model.Notification {
	l.log.Warn("mqtt: aborting", "op", op, "error", err)
	l.closeSocket()
	l.sess.TransportClosed()
	return &model.Notification{Abort: wrapEvent(op, err)}
}

func (l *Loop) closeSocket() {
	if l.sock != nil {
		l.transport.Close(l.sock)
		l.sock = nil
	}
}

// networkConnect reuses a live socket if one exists, otherwise tears down
// and opens a fresh one, resolves the broker, and connects.
func (l *Loop) networkConnect() (Poll, error) {
	if l.sock != nil {
		connected, err := l.transport.IsConnected(l.sock)
		if err != nil {
			l.closeSocket()
			return PollReady, fmt.Errorf("%w: %v", ErrSocketClosed, err)
		}
		if connected {
			return PollReady, nil
		}
	}

	l.sess.TransportClosed()
	l.closeSocket()

	l.log.Debug("mqtt: opening socket", "broker", l.opts.Broker, "port", l.opts.Port)
	sock, err := l.transport.Open()
	if err != nil {
		return PollReady, fmt.Errorf("%w: %v", ErrSocketOpen, err)
	}
	l.sock = sock

	addr, err := l.resolveAddr()
	if err != nil {
		l.closeSocket()
		return PollReady, err
	}

	poll, err := l.transport.Connect(sock, addr)
	if err != nil {
		l.closeSocket()
		return PollReady, fmt.Errorf("%w: %v", ErrSocketConnect, err)
	}
	return poll, nil
}

func (l *Loop) resolveAddr() (string, error) {
	port := strconv.Itoa(int(l.opts.Port))
	if ip := net.ParseIP(l.opts.Broker); ip != nil {
		if _, err := l.resolver.ResolveAddr(ip); err != nil {
			return "", fmt.Errorf("%w: %v", ErrDNSLookupFailed, err)
		}
		return net.JoinHostPort(l.opts.Broker, port), nil
	}
	ip, err := l.resolver.ResolveHostname(l.opts.Broker)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDNSLookupFailed, err)
	}
	return net.JoinHostPort(ip.String(), port), nil
}

// mqttConnect drives the CONNECT/CONNACK handshake state machine.
func (l *Loop) mqttConnect() (Poll, error) {
	switch l.sess.Status {
	case session.Disconnected:
		pkt := l.sess.HandleOutgoingConnect(session.ConnectOptions{
			ClientID:         l.opts.ClientID,
			CleanSession:     l.opts.CleanSession,
			KeepAliveSeconds: uint16(l.opts.KeepAlive / time.Second),
			HasCredentials:   l.opts.HasCredentials,
			Username:         l.opts.Username,
			Password:         l.opts.Password,
			Will:             l.opts.Will,
		})
		if err := l.sendPacket(pkt); err != nil {
			return PollReady, err
		}
		l.handshakeTimer.Start(50 * time.Second)
		l.log.Debug("mqtt: handshake started", "client_id", l.opts.ClientID, "clean_session", l.opts.CleanSession)
		return PollPending, nil

	case session.Handshake:
		if l.handshakeTimer.TryWait() {
			l.sess.Status = session.Disconnected
			return PollReady, ErrHandshakeTimeout
		}
		notif, consumed, err := l.receiveAndHandle()
		if err != nil {
			return PollReady, err
		}
		if !consumed {
			return PollPending, nil
		}
		if notif != nil && notif.ConnAck != nil {
			l.log.Debug("mqtt: connected", "session_present", notif.ConnAck.SessionPresent)
			if err := l.resumeSession(notif.ConnAck.SessionPresent); err != nil {
				return PollReady, err
			}
			return PollReady, nil
		}
		return PollPending, nil

	default: // Connected
		return PollReady, nil
	}
}

// resumeSession applies the MQTT session-resumption policy once a CONNACK
// has arrived: republishes every still-outstanding QoS>=1 PUBLISH with
// dup=true and re-sends PUBREL for every QoS 2 packet awaiting PUBCOMP,
// but only when the broker reports it kept our prior session; otherwise
// the tables were already cleared by Session.Resume and there is nothing
// to resend.
func (l *Loop) resumeSession(sessionPresent bool) error {
	republish, pubrel := l.sess.Resume(sessionPresent)
	if len(republish) > 0 || len(pubrel) > 0 {
		l.log.Debug("mqtt: resuming session", "republish", len(republish), "pubrel", len(pubrel))
	}
	for _, pkt := range republish {
		if err := l.sendPacket(pkt); err != nil {
			return err
		}
	}
	for _, pid := range pubrel {
		if err := l.sendPacket(packet.PubrelPacket{Pid: uint16(pid)}); err != nil {
			return err
		}
	}
	return nil
}

// sendPacket encodes pkt and writes it to the socket, looping on
// WouldBlock until the full buffer is committed (framing requires atomic
// packet writes), then rearms the keep-alive timer.
func (l *Loop) sendPacket(pkt packet.Packet) error {
	if l.sock == nil {
		return ErrNoSocket
	}
	buf, err := packet.Encode(pkt, nil)
	if err != nil {
		return err
	}

	sent := 0
	for sent < len(buf) {
		n, poll, err := l.transport.Send(l.sock, buf[sent:])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNetworkWrite, err)
		}
		if poll == PollPending {
			continue
		}
		sent += n
	}

	l.keepAliveTimer.Start(l.opts.KeepAlive)
	return nil
}

// receiveAndHandle reads whatever bytes are available into the fixed
// decode buffer, attempts to decode exactly one packet, and if one
// decodes, routes it through the session. It returns consumed=false when
// no complete packet is yet available. Bytes left over from a previous
// call are decoded even when the transport has nothing new, so back-to-
// back packets arriving in one read drain one per Step.
func (l *Loop) receiveAndHandle() (*model.Notification, bool, error) {
	if l.sock == nil {
		return nil, false, nil
	}

	if l.decodeLen < len(l.decodeBuf) {
		n, poll, err := l.transport.Receive(l.sock, l.decodeBuf[l.decodeLen:])
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrNetworkRead, err)
		}
		if poll != PollPending {
			l.decodeLen += n
		}
	}
	if l.decodeLen == 0 {
		return nil, false, nil
	}

	pkt, consumedBytes, err := packet.Decode(l.decodeBuf[:l.decodeLen])
	if err != nil {
		return nil, false, err
	}
	if pkt == nil {
		if l.decodeLen == len(l.decodeBuf) {
			return nil, false, ErrBufferSize
		}
		return nil, false, nil
	}

	copy(l.decodeBuf[:], l.decodeBuf[consumedBytes:l.decodeLen])
	l.decodeLen -= consumedBytes

	notif, reply, err := l.sess.HandleIncoming(pkt)
	if err != nil {
		return nil, true, err
	}
	if reply != nil {
		if err := l.sendPacket(reply); err != nil {
			return nil, true, err
		}
	}
	return notif, true, nil
}
