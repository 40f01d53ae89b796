package packet

// PublishPacket transports an application message.
type PublishPacket struct {
	Dup     bool
	QosPid  QosPid
	Retain  bool
	Topic   string
	Payload []byte
}

func (PublishPacket) Type() Type { return Publish }

func (p PublishPacket) appendTo(dst []byte) ([]byte, uint8, error) {
	if !p.QosPid.QoS.valid() {
		return dst, 0, &QoSError{Value: uint8(p.QosPid.QoS)}
	}
	if p.QosPid.QoS != AtMostOnce && p.QosPid.Pid == 0 {
		return dst, 0, &InvalidPidError{Value: p.QosPid.Pid}
	}

	dst = appendString(dst, p.Topic)
	if p.QosPid.QoS != AtMostOnce {
		var ferr error
		dst, _, ferr = appendPid(dst, p.QosPid.Pid)
		if ferr != nil {
			return dst, 0, ferr
		}
	}
	dst = append(dst, p.Payload...)

	var flags uint8
	if p.Dup {
		flags |= 0x08
	}
	flags |= uint8(p.QosPid.QoS&0x03) << 1
	if p.Retain {
		flags |= 0x01
	}
	return dst, flags, nil
}

func decodePublish(h FixedHeader, body []byte) (Packet, error) {
	topic, n, err := decodeString(body)
	if err != nil {
		return nil, err
	}
	offset := n

	qp := QosPid{QoS: h.QoS}
	if h.QoS != AtMostOnce {
		if len(body) < offset+2 {
			return nil, ErrInvalidPid
		}
		pid, perr := decodePidOnlyBody(body[offset : offset+2])
		if perr != nil {
			return nil, perr
		}
		qp.Pid = pid
		offset += 2
	}

	return PublishPacket{
		Dup:     h.Dup,
		QosPid:  qp,
		Retain:  h.Retain,
		Topic:   topic,
		Payload: append([]byte(nil), body[offset:]...),
	}, nil
}
