package packet

// ConnectPacket opens an MQTT session.
type ConnectPacket struct {
	// ProtocolName/ProtocolLevel select 3.1.1 ("MQTT", 4) or 3.1 ("MQIsdp", 3).
	ProtocolName  string
	ProtocolLevel uint8

	CleanSession bool
	KeepAlive    uint16
	ClientID     string

	Will *Will // nil iff no Last Will and Testament

	Username    string // used iff HasUsername
	Password    string // used iff HasPassword
	HasUsername bool
	HasPassword bool
}

func (ConnectPacket) Type() Type { return Connect }

func (p ConnectPacket) appendTo(dst []byte) ([]byte, uint8, error) {
	if p.Will != nil && !p.Will.QoS.valid() {
		return dst, 0, &QoSError{Value: uint8(p.Will.QoS)}
	}

	var flags uint8
	if p.CleanSession {
		flags |= 0x02
	}
	if p.Will != nil {
		flags |= 0x04
		flags |= uint8(p.Will.QoS&0x03) << 3
		if p.Will.Retain {
			flags |= 0x20
		}
	}
	if p.HasPassword {
		flags |= 0x40
	}
	if p.HasUsername {
		flags |= 0x80
	}

	dst = appendString(dst, p.ProtocolName)
	dst = append(dst, p.ProtocolLevel, flags)
	dst = appendUint16(dst, p.KeepAlive)
	dst = appendString(dst, p.ClientID)
	if p.Will != nil {
		dst = appendString(dst, p.Will.Topic)
		dst = appendBinary(dst, p.Will.Payload)
	}
	if p.HasUsername {
		dst = appendString(dst, p.Username)
	}
	if p.HasPassword {
		dst = appendString(dst, p.Password)
	}
	return dst, 0, nil
}

func decodeConnect(body []byte) (Packet, error) {
	name, n, err := decodeString(body)
	if err != nil {
		return nil, err
	}
	offset := n

	if len(body) < offset+4 {
		return nil, ErrInvalidProtocol
	}
	level := body[offset]
	flags := body[offset+1]
	keepAlive := uint16(body[offset+2])<<8 | uint16(body[offset+3])
	offset += 4

	if (name != "MQTT" || level != 4) && (name != "MQIsdp" || level != 3) {
		return nil, &ProtocolError{Name: name, Level: level}
	}
	if flags&0x01 != 0 {
		return nil, ErrInvalidHeader // reserved bit must be 0
	}

	p := ConnectPacket{
		ProtocolName:  name,
		ProtocolLevel: level,
		CleanSession:  flags&0x02 != 0,
		KeepAlive:     keepAlive,
		HasUsername:   flags&0x80 != 0,
		HasPassword:   flags&0x40 != 0,
	}

	clientID, n, err := decodeString(body[offset:])
	if err != nil {
		return nil, err
	}
	p.ClientID = clientID
	offset += n

	if flags&0x04 != 0 {
		qos := QoS((flags >> 3) & 0x03)
		if !qos.valid() {
			return nil, &QoSError{Value: uint8(qos)}
		}
		topic, n, err := decodeString(body[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		payload, n, err := decodeBinary(body[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		p.Will = &Will{
			Topic:   topic,
			Payload: append([]byte(nil), payload...),
			QoS:     qos,
			Retain:  flags&0x20 != 0,
		}
	}

	if p.HasUsername {
		username, n, err := decodeString(body[offset:])
		if err != nil {
			return nil, err
		}
		p.Username = username
		offset += n
	}
	if p.HasPassword {
		password, _, err := decodeString(body[offset:])
		if err != nil {
			return nil, err
		}
		p.Password = password
	}

	return p, nil
}
