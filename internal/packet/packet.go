package packet

// Packet is the closed sum type of all MQTT 3.1.1 control packets. Dispatch
// is by Type()/type-switch, not dynamic method overrides; every variant is
// a plain value struct.
type Packet interface {
	Type() Type
	// appendTo appends the variable header + payload (not the fixed header)
	// to dst and returns (dst, flags, error).
	appendTo(dst []byte) ([]byte, uint8, error)
}

// Will describes the CONNECT Last Will and Testament.
type Will struct {
	Topic   string
	Payload []byte
	QoS     QoS
	Retain  bool
}

// QosPid is the sum of "no packet id" (QoS 0) and "packet id" (QoS 1/2)
// carried by a PUBLISH packet.
type QosPid struct {
	QoS QoS
	Pid uint16 // zero and ignored when QoS == AtMostOnce
}

func AtMostOnceQP() QosPid            { return QosPid{QoS: AtMostOnce} }
func AtLeastOnceQP(pid uint16) QosPid { return QosPid{QoS: AtLeastOnce, Pid: pid} }
func ExactlyOnceQP(pid uint16) QosPid { return QosPid{QoS: ExactlyOnce, Pid: pid} }

// Encode serializes pkt, appending the fixed header followed by the
// variable header and payload to dst, and returns the extended slice. Use
// EncodeInto to encode into a fixed-capacity buffer instead.
func Encode(pkt Packet, dst []byte) ([]byte, error) {
	body, flags, err := pkt.appendTo(nil)
	if err != nil {
		return dst, err
	}
	out, err := appendFixedHeader(dst, pkt.Type(), flags, len(body))
	if err != nil {
		return dst, err
	}
	return append(out, body...), nil
}

// EncodeInto encodes pkt into the fixed-capacity buffer buf[:0:cap(buf)].
// It returns the number of bytes written, or ErrWriteZero if buf is too
// small to hold the encoded packet (no partial write is retained in that
// case from the caller's point of view: the returned n is 0).
func EncodeInto(pkt Packet, buf []byte) (int, error) {
	out, err := Encode(pkt, buf[:0])
	if err != nil {
		return 0, err
	}
	if len(out) > cap(buf) {
		return 0, ErrWriteZero
	}
	return len(out), nil
}

// Decode attempts to parse exactly one complete packet from the start of
// buf. It returns (packet, bytesConsumed, nil) on success, (nil, 0, nil) if
// buf does not yet contain a complete packet, or (nil, 0, err) on a
// malformed packet. Trailing bytes beyond the decoded packet are never
// consumed.
func Decode(buf []byte) (Packet, int, error) {
	header, headerLen, ok, err := decodeFixedHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, nil
	}
	total := headerLen + header.RemainingLength
	if len(buf) < total {
		return nil, 0, nil
	}
	body := buf[headerLen:total]

	pkt, err := decodeBody(header, body)
	if err != nil {
		return nil, 0, err
	}
	return pkt, total, nil
}

func decodeBody(h FixedHeader, body []byte) (Packet, error) {
	switch h.Type {
	case Connect:
		return decodeConnect(body)
	case Connack:
		return decodeConnack(body)
	case Publish:
		return decodePublish(h, body)
	case Puback:
		pid, err := decodePidOnlyBody(body)
		return PubackPacket{Pid: pid}, err
	case Pubrec:
		pid, err := decodePidOnlyBody(body)
		return PubrecPacket{Pid: pid}, err
	case Pubrel:
		pid, err := decodePidOnlyBody(body)
		return PubrelPacket{Pid: pid}, err
	case Pubcomp:
		pid, err := decodePidOnlyBody(body)
		return PubcompPacket{Pid: pid}, err
	case Subscribe:
		return decodeSubscribe(body)
	case Suback:
		return decodeSuback(body)
	case Unsubscribe:
		return decodeUnsubscribe(body)
	case Unsuback:
		pid, err := decodePidOnlyBody(body)
		return UnsubackPacket{Pid: pid}, err
	case Pingreq:
		return PingreqPacket{}, nil
	case Pingresp:
		return PingrespPacket{}, nil
	case Disconnect:
		return DisconnectPacket{}, nil
	default:
		return nil, ErrUnknownType
	}
}
