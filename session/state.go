package session

import "github.com/gonzalop/mqtt-embedded/internal/packet"

// ConnectionStatus tracks where the session sits in the MQTT connection
// lifecycle.
type ConnectionStatus uint8

const (
	Disconnected ConnectionStatus = iota
	Handshake
	Connected
)

func (s ConnectionStatus) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Handshake:
		return "handshake"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// inflightEntry pairs a Pid with the PublishPacket sent under it. A dense
// small-vector is used rather than a map since the inflight cap is small
// (typically <= 10) and the scan cost is negligible next to a map's
// allocator pressure.
type inflightEntry struct {
	pid Pid
	pkt packet.PublishPacket
}

// Session holds all server-facing MQTT state for one connection: the
// connection status, the monotonic Pid generator, the inflight publish
// tables, and the keep-alive/ping bookkeeping.
type Session struct {
	Status ConnectionStatus

	CleanSession bool
	InflightCap  int

	lastPid Pid

	outgoingPub []inflightEntry // Pid -> outstanding QoS>=1 PUBLISH awaiting ack
	outgoingRel []Pid           // Pid -> QoS2 PUBREC received, PUBCOMP pending
	incomingPub []Pid           // Pid -> QoS2 PUBLISH received, PUBREL pending

	AwaitPingResp bool
}

// New returns a Session ready for its first CONNECT.
func New(cleanSession bool, inflightCap int) *Session {
	return &Session{
		Status:       Disconnected,
		CleanSession: cleanSession,
		InflightCap:  inflightCap,
		lastPid:      0, // Next() yields 1 first
	}
}

// nextPid advances and returns the next packet identifier.
func (s *Session) nextPid() Pid {
	s.lastPid = s.lastPid.Next()
	return s.lastPid
}

// OutgoingLen reports the current size of the outgoing_pub table.
func (s *Session) OutgoingLen() int { return len(s.outgoingPub) }

// HasCapacity reports whether another QoS>=1 PUBLISH can be admitted
// without exceeding InflightCap.
func (s *Session) HasCapacity() bool { return len(s.outgoingPub) < s.InflightCap }

func (s *Session) findOutgoingPub(pid Pid) int {
	for i, e := range s.outgoingPub {
		if e.pid == pid {
			return i
		}
	}
	return -1
}

func (s *Session) removeOutgoingPub(i int) packet.PublishPacket {
	pkt := s.outgoingPub[i].pkt
	s.outgoingPub = append(s.outgoingPub[:i], s.outgoingPub[i+1:]...)
	return pkt
}

func containsPid(s []Pid, pid Pid) int {
	for i, p := range s {
		if p == pid {
			return i
		}
	}
	return -1
}

func removeAt(s []Pid, i int) []Pid {
	return append(s[:i], s[i+1:]...)
}

// Reset clears all per-connection state as if the session had never
// connected. Used by HandleOutgoingConnect to discard the tables before a
// fresh CONNECT with clean_session=true.
func (s *Session) Reset() {
	s.Status = Disconnected
	s.AwaitPingResp = false
	s.outgoingPub = nil
	s.outgoingRel = nil
	s.incomingPub = nil
}

// TransportClosed handles an unexpected transport error or disconnect:
// outgoing_pub survives so it can be retransmitted on reconnect,
// await_pingresp clears, and outgoing_rel/incoming_pub survive iff
// CleanSession is false.
func (s *Session) TransportClosed() {
	s.Status = Disconnected
	s.AwaitPingResp = false
	if s.CleanSession {
		s.outgoingRel = nil
		s.incomingPub = nil
	}
}

// Resume applies the MQTT session-resumption policy once a CONNACK has
// arrived: when the broker reports no existing session, every table derived
// from the prior session is meaningless to it and is cleared, incoming_pub
// included (a stale entry there would dedup a QoS 2 PUBLISH the new session
// has never seen); otherwise the caller should retransmit the packets
// Resume hands back (PUBLISH with dup=true for each outgoing_pub entry,
// PUBREL for each outgoing_rel pid).
func (s *Session) Resume(sessionPresent bool) (republish []packet.PublishPacket, pubrel []Pid) {
	if !sessionPresent {
		s.outgoingPub = nil
		s.outgoingRel = nil
		s.incomingPub = nil
		return nil, nil
	}
	republish = make([]packet.PublishPacket, 0, len(s.outgoingPub))
	for _, e := range s.outgoingPub {
		p := e.pkt
		p.Dup = true
		republish = append(republish, p)
	}
	pubrel = append([]Pid(nil), s.outgoingRel...)
	return republish, pubrel
}
