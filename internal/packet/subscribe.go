package packet

// Subscription is a single (topic filter, requested QoS) pair within a
// SUBSCRIBE packet.
type Subscription struct {
	Filter string
	QoS    QoS
}

// SubscribePacket requests one or more topic subscriptions.
type SubscribePacket struct {
	Pid           uint16
	Subscriptions []Subscription
}

func (SubscribePacket) Type() Type { return Subscribe }

func (p SubscribePacket) appendTo(dst []byte) ([]byte, uint8, error) {
	if p.Pid == 0 {
		return dst, 0, ErrInvalidPid
	}
	if len(p.Subscriptions) == 0 {
		return dst, 0, ErrInvalidHeader
	}
	dst = appendUint16(dst, p.Pid)
	for _, s := range p.Subscriptions {
		if !s.QoS.valid() {
			return dst, 0, &QoSError{Value: uint8(s.QoS)}
		}
		dst = appendString(dst, s.Filter)
		dst = append(dst, byte(s.QoS))
	}
	return dst, 0b0010, nil
}

func decodeSubscribe(body []byte) (Packet, error) {
	if len(body) < 2 {
		return nil, ErrInvalidPid
	}
	pid, err := decodePidOnlyBody(body[:2])
	if err != nil {
		return nil, err
	}
	offset := 2

	var subs []Subscription
	for offset < len(body) {
		filter, n, err := decodeString(body[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		if offset >= len(body) {
			return nil, ErrInvalidHeader
		}
		qos := QoS(body[offset])
		offset++
		if !qos.valid() {
			return nil, &QoSError{Value: uint8(qos)}
		}
		subs = append(subs, Subscription{Filter: filter, QoS: qos})
	}
	if len(subs) == 0 {
		return nil, ErrInvalidHeader
	}
	return SubscribePacket{Pid: pid, Subscriptions: subs}, nil
}

// UnsubscribePacket requests removal of one or more topic subscriptions.
type UnsubscribePacket struct {
	Pid     uint16
	Filters []string
}

func (UnsubscribePacket) Type() Type { return Unsubscribe }

func (p UnsubscribePacket) appendTo(dst []byte) ([]byte, uint8, error) {
	if p.Pid == 0 {
		return dst, 0, ErrInvalidPid
	}
	if len(p.Filters) == 0 {
		return dst, 0, ErrInvalidHeader
	}
	dst = appendUint16(dst, p.Pid)
	for _, f := range p.Filters {
		dst = appendString(dst, f)
	}
	return dst, 0b0010, nil
}

func decodeUnsubscribe(body []byte) (Packet, error) {
	if len(body) < 2 {
		return nil, ErrInvalidPid
	}
	pid, err := decodePidOnlyBody(body[:2])
	if err != nil {
		return nil, err
	}
	offset := 2

	var filters []string
	for offset < len(body) {
		filter, n, err := decodeString(body[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		filters = append(filters, filter)
	}
	if len(filters) == 0 {
		return nil, ErrInvalidHeader
	}
	return UnsubscribePacket{Pid: pid, Filters: filters}, nil
}
