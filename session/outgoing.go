package session

import (
	"github.com/gonzalop/mqtt-embedded/internal/packet"
	"github.com/gonzalop/mqtt-embedded/model"
)

// HandleOutgoingRequest validates and mutates state for one application
// Request, returning the notification (if any) and the wire packet to send
// (if any). Callers must gate QoS>=1 Publish requests on HasCapacity first;
// a request that arrives when the table is already full is a programming
// error on the loop's part and returns ErrMaxInflight.
//
// Callers must not invoke this while Status != Connected except for
// the very first HandleOutgoingConnect.
func (s *Session) HandleOutgoingRequest(req model.Request) (*model.Notification, packet.Packet, error) {
	switch {
	case req.Publish != nil:
		return s.handleOutgoingPublish(req.Publish)
	case req.Subscribe != nil:
		return s.handleOutgoingSubscribe(req.Subscribe)
	case req.Unsubscribe != nil:
		return s.handleOutgoingUnsubscribe(req.Unsubscribe)
	default:
		return nil, nil, nil
	}
}

func (s *Session) handleOutgoingPublish(r *model.PublishRequest) (*model.Notification, packet.Packet, error) {
	pub := packet.PublishPacket{
		Topic:   r.Topic,
		Payload: r.Payload,
		Retain:  r.Retain,
	}

	if r.QoS == packet.AtMostOnce {
		pub.QosPid = packet.AtMostOnceQP()
		return nil, pub, nil
	}

	if !s.HasCapacity() {
		return nil, nil, ErrMaxInflight
	}

	pid := s.nextPid()
	if r.QoS == packet.ExactlyOnce {
		pub.QosPid = packet.ExactlyOnceQP(uint16(pid))
	} else {
		pub.QosPid = packet.AtLeastOnceQP(uint16(pid))
	}
	s.outgoingPub = append(s.outgoingPub, inflightEntry{pid: pid, pkt: pub})
	return nil, pub, nil
}

func (s *Session) handleOutgoingSubscribe(r *model.SubscribeRequest) (*model.Notification, packet.Packet, error) {
	pid := s.nextPid()
	subs := make([]packet.Subscription, len(r.Topics))
	for i, t := range r.Topics {
		subs[i] = packet.Subscription{Filter: t.Filter, QoS: t.QoS}
	}
	return nil, packet.SubscribePacket{Pid: uint16(pid), Subscriptions: subs}, nil
}

func (s *Session) handleOutgoingUnsubscribe(r *model.UnsubscribeRequest) (*model.Notification, packet.Packet, error) {
	pid := s.nextPid()
	return nil, packet.UnsubscribePacket{Pid: uint16(pid), Filters: append([]string(nil), r.Topics...)}, nil
}

// HandleOutgoingConnect builds the CONNECT packet and transitions
// Disconnected -> Handshake. It is the one request permitted while
// Status != Connected.
func (s *Session) HandleOutgoingConnect(opts ConnectOptions) packet.Packet {
	s.Status = Handshake
	if opts.CleanSession {
		s.Reset()
		s.Status = Handshake
		s.CleanSession = true
	}

	pkt := packet.ConnectPacket{
		ProtocolName:  "MQTT",
		ProtocolLevel: 4,
		CleanSession:  opts.CleanSession,
		KeepAlive:     opts.KeepAliveSeconds,
		ClientID:      opts.ClientID,
	}
	if opts.Will != nil {
		pkt.Will = opts.Will
	}
	if opts.Username != "" || opts.HasCredentials {
		pkt.HasUsername = true
		pkt.Username = opts.Username
		if opts.Password != "" {
			pkt.HasPassword = true
			pkt.Password = opts.Password
		}
	}
	return pkt
}

// ConnectOptions is the subset of mqtt.Options HandleOutgoingConnect
// needs to build a CONNECT packet, kept separate so session has no
// dependency on the root package's Options type.
type ConnectOptions struct {
	ClientID         string
	CleanSession     bool
	KeepAliveSeconds uint16
	HasCredentials   bool
	Username         string
	Password         string
	Will             *packet.Will
}
