package packet

// SubackPacket reports the negotiated (or refused) QoS for each
// subscription in the corresponding SUBSCRIBE, in order.
type SubackPacket struct {
	Pid     uint16
	Results []SubscribeResult
}

func (SubackPacket) Type() Type { return Suback }

func (p SubackPacket) appendTo(dst []byte) ([]byte, uint8, error) {
	if p.Pid == 0 {
		return dst, 0, ErrInvalidPid
	}
	if len(p.Results) == 0 {
		return dst, 0, ErrInvalidHeader
	}
	dst = appendUint16(dst, p.Pid)
	for _, r := range p.Results {
		if !r.valid() {
			return dst, 0, ErrInvalidSubscribeResult
		}
		dst = append(dst, byte(r))
	}
	return dst, 0, nil
}

func decodeSuback(body []byte) (Packet, error) {
	if len(body) < 3 {
		return nil, ErrInvalidPid
	}
	pid, err := decodePidOnlyBody(body[:2])
	if err != nil {
		return nil, err
	}
	results := make([]SubscribeResult, 0, len(body)-2)
	for _, b := range body[2:] {
		r := SubscribeResult(b)
		if !r.valid() {
			return nil, ErrInvalidSubscribeResult
		}
		results = append(results, r)
	}
	return SubackPacket{Pid: pid, Results: results}, nil
}
