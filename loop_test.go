package mqtt

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/gonzalop/mqtt-embedded/internal/packet"
	"github.com/gonzalop/mqtt-embedded/model"
	"github.com/gonzalop/mqtt-embedded/session"
)

// fakeTransport is a loopback Transport: everything written via Send is
// captured in Sent, and bytes queued via Feed are handed back one Receive
// call at a time (whatever fits in the caller's buffer).
type fakeTransport struct {
	connected bool
	openErr   error

	Sent [][]byte
	in   []byte
}

func (f *fakeTransport) Open() (Socket, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return struct{}{}, nil
}

func (f *fakeTransport) Connect(Socket, string) (Poll, error) {
	f.connected = true
	return PollReady, nil
}

func (f *fakeTransport) IsConnected(Socket) (bool, error) { return f.connected, nil }

func (f *fakeTransport) Send(_ Socket, b []byte) (int, Poll, error) {
	cp := append([]byte(nil), b...)
	f.Sent = append(f.Sent, cp)
	return len(b), PollReady, nil
}

func (f *fakeTransport) Receive(_ Socket, buf []byte) (int, Poll, error) {
	if len(f.in) == 0 {
		return 0, PollPending, nil
	}
	n := copy(buf, f.in)
	f.in = f.in[n:]
	return n, PollReady, nil
}

func (f *fakeTransport) Close(Socket) { f.connected = false }

// Feed appends pkt's wire encoding to the transport's inbound stream, as if
// the broker had sent it.
func (f *fakeTransport) Feed(t *testing.T, pkt packet.Packet) {
	t.Helper()
	buf, err := packet.Encode(pkt, nil)
	if err != nil {
		t.Fatalf("encode fixture packet: %v", err)
	}
	f.in = append(f.in, buf...)
}

func (f *fakeTransport) lastSent() []byte {
	if len(f.Sent) == 0 {
		return nil
	}
	return f.Sent[len(f.Sent)-1]
}

type fakeResolver struct{}

func (fakeResolver) ResolveHostname(string) (net.IP, error) { return net.IPv4(127, 0, 0, 1), nil }
func (fakeResolver) ResolveAddr(net.IP) (string, error)     { return "localhost", nil }

// fakeTimer is a manually-driven Timer: TryWait reports true only after the
// test calls Expire.
type fakeTimer struct {
	started bool
	fired   bool
}

func (t *fakeTimer) Start(time.Duration) { t.started = true; t.fired = false }
func (t *fakeTimer) TryWait() bool {
	if t.fired {
		t.fired = false
		return true
	}
	return false
}
func (t *fakeTimer) Expire() { t.fired = true }

// fakeQueue is an unbounded slice-backed RequestQueue, good enough to drive
// requests through Step in FIFO order.
type fakeQueue struct {
	pending []model.Request
}

func (q *fakeQueue) Peek() (model.Request, bool) {
	if len(q.pending) == 0 {
		return model.Request{}, false
	}
	return q.pending[0], true
}

func (q *fakeQueue) Dequeue() (model.Request, bool) {
	if len(q.pending) == 0 {
		return model.Request{}, false
	}
	req := q.pending[0]
	q.pending = q.pending[1:]
	return req, true
}

func (q *fakeQueue) Ready() bool { return len(q.pending) > 0 }

func (q *fakeQueue) push(r model.Request) { q.pending = append(q.pending, r) }

func newTestLoop(t *testing.T) (*Loop, *fakeTransport, *fakeQueue, *fakeTimer) {
	t.Helper()
	opts := NewOptions("client-1", WithBroker("127.0.0.1", 1883), WithInflightCap(10))
	tr := &fakeTransport{}
	q := &fakeQueue{}
	keepAlive := &fakeTimer{}
	handshake := &fakeTimer{}
	l := NewLoop(opts, tr, fakeResolver{}, keepAlive, handshake, q)
	return l, tr, q, keepAlive
}

// connectLoop drives Connect to completion against a transport that accepts
// whatever CONNACK is fed to it.
func connectLoop(t *testing.T, l *Loop, tr *fakeTransport, sessionPresent bool) {
	t.Helper()
	fresh, poll, err := l.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if poll != PollPending {
		t.Fatalf("Connect poll = %v, want PollPending before CONNACK", poll)
	}
	if fresh {
		t.Fatalf("Connect reported fresh success before CONNACK arrived")
	}

	tr.Feed(t, packet.ConnackPacket{SessionPresent: sessionPresent, ReturnCode: packet.Accepted})

	fresh, poll, err = l.Connect()
	if err != nil {
		t.Fatalf("Connect after CONNACK: %v", err)
	}
	if poll != PollReady || !fresh {
		t.Fatalf("Connect after CONNACK = (fresh=%v, poll=%v), want (true, PollReady)", fresh, poll)
	}
}

// Handshake completes and leaves the session connected.
func TestLoopHandshake(t *testing.T) {
	l, tr, _, _ := newTestLoop(t)
	connectLoop(t, l, tr, false)

	if l.sess.Status.String() != "connected" {
		t.Fatalf("status = %s, want connected", l.sess.Status)
	}
}

// A QoS 0 publish request produces the exact MQTT 3.1.1 wire bytes.
func TestLoopQoS0PublishWireFormat(t *testing.T) {
	l, tr, q, _ := newTestLoop(t)
	connectLoop(t, l, tr, false)
	tr.Sent = nil

	q.push(model.Request{Publish: &model.PublishRequest{
		QoS:     packet.AtMostOnce,
		Topic:   "a/b",
		Payload: []byte{0xDE, 0xAD},
	}})

	notif, poll := l.Step()
	if poll != PollReady {
		t.Fatalf("Step poll = %v, want PollReady", poll)
	}
	if notif != nil {
		t.Fatalf("expected no notification for outbound QoS 0 publish, got %v", notif)
	}

	want := []byte{0x30, 0x07, 0x00, 0x03, 0x61, 0x2F, 0x62, 0xDE, 0xAD}
	if string(tr.lastSent()) != string(want) {
		t.Fatalf("wire bytes = % X, want % X", tr.lastSent(), want)
	}
}

// A QoS 1 publish gets acked and clears the inflight table.
func TestLoopQoS1PublishAcked(t *testing.T) {
	l, tr, q, _ := newTestLoop(t)
	connectLoop(t, l, tr, false)

	q.push(model.Request{Publish: &model.PublishRequest{QoS: packet.AtLeastOnce, Topic: "t"}})
	if _, poll := l.Step(); poll != PollReady {
		t.Fatalf("publish step: want PollReady")
	}
	if l.sess.OutgoingLen() != 1 {
		t.Fatalf("outgoing_pub len = %d, want 1", l.sess.OutgoingLen())
	}

	pub := tr.lastSent()
	decoded, _, err := packet.Decode(pub)
	if err != nil {
		t.Fatalf("decode sent PUBLISH: %v", err)
	}
	sentPid := decoded.(packet.PublishPacket).QosPid.Pid

	tr.Feed(t, packet.PubackPacket{Pid: sentPid})
	notif, poll := l.Step()
	if poll != PollReady {
		t.Fatalf("puback step: want PollReady")
	}
	if notif == nil || notif.Puback == nil || uint16(*notif.Puback) != sentPid {
		t.Fatalf("expected Puback(%d), got %v", sentPid, notif)
	}
	if l.sess.OutgoingLen() != 0 {
		t.Fatalf("outgoing_pub must be empty after PUBACK")
	}
}

// A full QoS 2 handshake ends with a Pubcomp notification.
func TestLoopQoS2FullHandshake(t *testing.T) {
	l, tr, q, _ := newTestLoop(t)
	connectLoop(t, l, tr, false)

	q.push(model.Request{Publish: &model.PublishRequest{QoS: packet.ExactlyOnce, Topic: "t"}})
	if _, poll := l.Step(); poll != PollReady {
		t.Fatalf("publish step: want PollReady")
	}
	decoded, _, err := packet.Decode(tr.lastSent())
	if err != nil {
		t.Fatalf("decode PUBLISH: %v", err)
	}
	pid := decoded.(packet.PublishPacket).QosPid.Pid

	tr.Feed(t, packet.PubrecPacket{Pid: pid})
	notif, poll := l.Step()
	if poll != PollReady || notif == nil || notif.Pubrec == nil {
		t.Fatalf("expected Pubrec notification, got %v poll=%v", notif, poll)
	}
	rel, _, err := packet.Decode(tr.lastSent())
	if err != nil || rel.Type() != packet.Pubrel {
		t.Fatalf("expected PUBREL sent in reply to PUBREC, got %v err=%v", rel, err)
	}

	tr.Feed(t, packet.PubcompPacket{Pid: pid})
	notif, poll = l.Step()
	if poll != PollReady {
		t.Fatalf("pubcomp step: want PollReady")
	}
	if notif == nil || notif.Pubcomp == nil || uint16(*notif.Pubcomp) != pid {
		t.Fatalf("expected Pubcomp(%d), got %v", pid, notif)
	}
	if l.sess.OutgoingLen() != 0 {
		t.Fatalf("outgoing_pub must be empty after the QoS 2 handshake completes")
	}
}

// The first keep-alive expiry sends one PINGREQ and sets await_pingresp;
// a second consecutive expiry without a PINGRESP aborts with PingTimeout.
func TestLoopKeepAlivePingTimeout(t *testing.T) {
	l, tr, _, keepAlive := newTestLoop(t)
	connectLoop(t, l, tr, false)
	tr.Sent = nil

	keepAlive.Expire()
	notif, poll := l.Step()
	if poll != PollReady || notif != nil {
		t.Fatalf("first expiry: want (nil, PollReady), got (%v, %v)", notif, poll)
	}
	ping, _, err := packet.Decode(tr.lastSent())
	if err != nil || ping.Type() != packet.Pingreq {
		t.Fatalf("expected PINGREQ on first expiry, got %v err=%v", ping, err)
	}
	if !l.sess.AwaitPingResp {
		t.Fatalf("await_pingresp must be true after PINGREQ sent")
	}

	keepAlive.Expire()
	notif, poll = l.Step()
	if poll != PollReady {
		t.Fatalf("second expiry: want PollReady")
	}
	if notif == nil || notif.Abort == nil {
		t.Fatalf("second consecutive expiry without PINGRESP must abort, got %v", notif)
	}
	if !errors.Is(notif.Abort, session.ErrPingTimeout) {
		t.Fatalf("abort error = %v, want one wrapping session.ErrPingTimeout", notif.Abort)
	}
}

// An unsolicited PUBACK aborts the connection and closes the socket.
func TestLoopUnsolicitedAckAborts(t *testing.T) {
	l, tr, _, _ := newTestLoop(t)
	connectLoop(t, l, tr, false)

	tr.Feed(t, packet.PubackPacket{Pid: 42})
	notif, poll := l.Step()
	if poll != PollReady {
		t.Fatalf("want PollReady")
	}
	if notif == nil || notif.Abort == nil {
		t.Fatalf("expected Abort notification, got %v", notif)
	}
	if tr.connected {
		t.Fatalf("socket must be closed after an unsolicited-ack abort")
	}
	if l.sess.Status.String() != "disconnected" {
		t.Fatalf("status = %s, want disconnected after abort", l.sess.Status)
	}
}

// Reconnecting with clean_session=false and session_present=true
// retransmits outstanding QoS>=1 work.
func TestLoopResumeRetransmitsOnReconnect(t *testing.T) {
	opts := NewOptions("client-1", WithBroker("127.0.0.1", 1883), WithCleanSession(false), WithInflightCap(10))
	tr := &fakeTransport{}
	q := &fakeQueue{}
	keepAlive := &fakeTimer{}
	handshake := &fakeTimer{}
	l := NewLoop(opts, tr, fakeResolver{}, keepAlive, handshake, q)

	connectLoop(t, l, tr, false)
	q.push(model.Request{Publish: &model.PublishRequest{QoS: packet.AtLeastOnce, Topic: "t"}})
	if _, poll := l.Step(); poll != PollReady {
		t.Fatalf("publish step: want PollReady")
	}
	if l.sess.OutgoingLen() != 1 {
		t.Fatalf("expected one inflight publish before disconnect")
	}

	// Simulate a dropped connection: the transport reports not-connected.
	tr.connected = false
	tr.Sent = nil

	connectLoop(t, l, tr, true) // broker reports session_present=true

	// Sent now holds the reconnect CONNECT followed by the retransmission.
	var pub *packet.PublishPacket
	for _, raw := range tr.Sent {
		decoded, _, err := packet.Decode(raw)
		if err != nil {
			t.Fatalf("decode sent packet: %v", err)
		}
		if p, ok := decoded.(packet.PublishPacket); ok {
			pub = &p
			break
		}
	}
	if pub == nil {
		t.Fatalf("expected a retransmitted PUBLISH after resuming the session")
	}
	if !pub.Dup {
		t.Fatalf("expected dup=true on the retransmitted PUBLISH, got %+v", pub)
	}
}

// Two packets arriving in a single transport read drain one Step at a
// time: the second must come out of the decode buffer even though the
// transport has nothing new to hand over.
func TestLoopDrainsBufferedPackets(t *testing.T) {
	l, tr, _, _ := newTestLoop(t)
	connectLoop(t, l, tr, false)

	tr.Feed(t, packet.PublishPacket{QosPid: packet.AtMostOnceQP(), Topic: "a", Payload: []byte("1")})
	tr.Feed(t, packet.PublishPacket{QosPid: packet.AtMostOnceQP(), Topic: "b", Payload: []byte("2")})

	notif, poll := l.Step()
	if poll != PollReady || notif == nil || notif.Publish == nil || notif.Publish.Topic != "a" {
		t.Fatalf("first step: expected Publish on topic a, got %v poll=%v", notif, poll)
	}

	notif, poll = l.Step()
	if poll != PollReady || notif == nil || notif.Publish == nil || notif.Publish.Topic != "b" {
		t.Fatalf("second step: expected Publish on topic b, got %v poll=%v", notif, poll)
	}

	if notif, poll = l.Step(); poll != PollPending || notif != nil {
		t.Fatalf("third step: expected PollPending on a drained loop, got %v poll=%v", notif, poll)
	}
}
