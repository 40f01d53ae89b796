package session

import (
	"github.com/gonzalop/mqtt-embedded/internal/packet"
	"github.com/gonzalop/mqtt-embedded/model"
)

// HandleIncoming validates pkt against the current state and in-flight
// tables, returning the notification (if any) and the reply packet to send
// (if any). An inbound packet that doesn't correlate with anything the
// session is tracking returns a *UnsolicitedError or *ConnectError; the
// loop must abort and tear down the connection on any non-nil error.
func (s *Session) HandleIncoming(pkt packet.Packet) (*model.Notification, packet.Packet, error) {
	switch p := pkt.(type) {
	case packet.ConnackPacket:
		return s.handleConnack(p)
	case packet.PublishPacket:
		return s.handlePublish(p)
	case packet.PubackPacket:
		return s.handlePuback(p)
	case packet.PubrecPacket:
		return s.handlePubrec(p)
	case packet.PubrelPacket:
		return s.handlePubrel(p)
	case packet.PubcompPacket:
		return s.handlePubcomp(p)
	case packet.SubackPacket:
		return s.handleSuback(p)
	case packet.UnsubackPacket:
		return s.handleUnsuback(p)
	case packet.PingrespPacket:
		return s.handlePingresp()
	case packet.PingreqPacket:
		return s.handlePingreq()
	case packet.DisconnectPacket:
		return nil, nil, &UnsolicitedError{Kind: packet.Disconnect}
	default:
		return nil, nil, &UnsolicitedError{Kind: pkt.Type()}
	}
}

func (s *Session) handleConnack(p packet.ConnackPacket) (*model.Notification, packet.Packet, error) {
	if s.Status != Handshake {
		return nil, nil, &UnsolicitedError{Kind: packet.Connack}
	}
	if p.ReturnCode != packet.Accepted {
		s.Status = Disconnected
		return nil, nil, &ConnectError{Code: p.ReturnCode}
	}
	s.Status = Connected
	return &model.Notification{ConnAck: &model.ConnAckNotification{SessionPresent: p.SessionPresent}}, nil, nil
}

func (s *Session) handlePublish(p packet.PublishPacket) (*model.Notification, packet.Packet, error) {
	if s.Status != Connected {
		return nil, nil, &UnsolicitedError{Kind: packet.Publish}
	}
	if len(p.Topic) > model.MaxTopicLen || len(p.Payload) > model.MaxPayloadLen {
		return nil, nil, ErrPayloadEncoding
	}

	notif := &model.PublishNotification{
		Dup:     p.Dup,
		QoS:     p.QosPid.QoS,
		Retain:  p.Retain,
		Topic:   p.Topic,
		Payload: append([]byte(nil), p.Payload...),
	}

	switch p.QosPid.QoS {
	case packet.AtMostOnce:
		return &model.Notification{Publish: notif}, nil, nil
	case packet.AtLeastOnce:
		return &model.Notification{Publish: notif}, packet.PubackPacket{Pid: p.QosPid.Pid}, nil
	case packet.ExactlyOnce:
		pid := Pid(p.QosPid.Pid)
		reply := packet.PubrecPacket{Pid: p.QosPid.Pid}
		if containsPid(s.incomingPub, pid) >= 0 {
			// Broker retransmission prior to our PUBREL: re-ack, no
			// duplicate notification.
			return nil, reply, nil
		}
		s.incomingPub = append(s.incomingPub, pid)
		return &model.Notification{Publish: notif}, reply, nil
	default:
		return nil, nil, &packet.QoSError{Value: uint8(p.QosPid.QoS)}
	}
}

func (s *Session) handlePuback(p packet.PubackPacket) (*model.Notification, packet.Packet, error) {
	pid := Pid(p.Pid)
	i := s.findOutgoingPub(pid)
	if i < 0 {
		return nil, nil, &UnsolicitedError{Kind: packet.Puback, Pid: pid}
	}
	s.removeOutgoingPub(i)
	return &model.Notification{Puback: &pid}, nil, nil
}

func (s *Session) handlePubrec(p packet.PubrecPacket) (*model.Notification, packet.Packet, error) {
	pid := Pid(p.Pid)
	i := s.findOutgoingPub(pid)
	if i < 0 {
		return nil, nil, &UnsolicitedError{Kind: packet.Pubrec, Pid: pid}
	}
	s.removeOutgoingPub(i)
	s.outgoingRel = append(s.outgoingRel, pid)
	return &model.Notification{Pubrec: &pid}, packet.PubrelPacket{Pid: p.Pid}, nil
}

func (s *Session) handlePubrel(p packet.PubrelPacket) (*model.Notification, packet.Packet, error) {
	pid := Pid(p.Pid)
	i := containsPid(s.incomingPub, pid)
	if i < 0 {
		return nil, nil, &UnsolicitedError{Kind: packet.Pubrel, Pid: pid}
	}
	s.incomingPub = removeAt(s.incomingPub, i)
	return nil, packet.PubcompPacket{Pid: p.Pid}, nil
}

func (s *Session) handlePubcomp(p packet.PubcompPacket) (*model.Notification, packet.Packet, error) {
	pid := Pid(p.Pid)
	i := containsPid(s.outgoingRel, pid)
	if i < 0 {
		return nil, nil, &UnsolicitedError{Kind: packet.Pubcomp, Pid: pid}
	}
	s.outgoingRel = removeAt(s.outgoingRel, i)
	return &model.Notification{Pubcomp: &pid}, nil, nil
}

func (s *Session) handleSuback(p packet.SubackPacket) (*model.Notification, packet.Packet, error) {
	if s.Status != Connected {
		return nil, nil, &UnsolicitedError{Kind: packet.Suback, Pid: Pid(p.Pid)}
	}
	return &model.Notification{Suback: &model.SubackNotification{Pid: model.Pid(p.Pid), Results: p.Results}}, nil, nil
}

func (s *Session) handleUnsuback(p packet.UnsubackPacket) (*model.Notification, packet.Packet, error) {
	if s.Status != Connected {
		return nil, nil, &UnsolicitedError{Kind: packet.Unsuback, Pid: Pid(p.Pid)}
	}
	pid := model.Pid(p.Pid)
	return &model.Notification{Unsuback: &pid}, nil, nil
}

func (s *Session) handlePingresp() (*model.Notification, packet.Packet, error) {
	if s.Status != Connected {
		return nil, nil, &UnsolicitedError{Kind: packet.Pingresp}
	}
	s.AwaitPingResp = false
	return nil, nil, nil
}

func (s *Session) handlePingreq() (*model.Notification, packet.Packet, error) {
	if s.Status != Connected {
		return nil, nil, &UnsolicitedError{Kind: packet.Pingreq}
	}
	return nil, packet.PingrespPacket{}, nil
}
