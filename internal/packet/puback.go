package packet

import "encoding/binary"

// PubackPacket acknowledges a QoS 1 PUBLISH.
type PubackPacket struct{ Pid uint16 }

func (PubackPacket) Type() Type { return Puback }

func (p PubackPacket) appendTo(dst []byte) ([]byte, uint8, error) {
	return appendPid(dst, p.Pid)
}

// PubrecPacket is the first reply in the QoS 2 handshake.
type PubrecPacket struct{ Pid uint16 }

func (PubrecPacket) Type() Type { return Pubrec }

func (p PubrecPacket) appendTo(dst []byte) ([]byte, uint8, error) {
	return appendPid(dst, p.Pid)
}

// PubrelPacket is the second reply in the QoS 2 handshake.
type PubrelPacket struct{ Pid uint16 }

func (PubrelPacket) Type() Type { return Pubrel }

func (p PubrelPacket) appendTo(dst []byte) ([]byte, uint8, error) {
	dst, _, err := appendPid(dst, p.Pid)
	return dst, 0b0010, err
}

// PubcompPacket is the final reply in the QoS 2 handshake.
type PubcompPacket struct{ Pid uint16 }

func (PubcompPacket) Type() Type { return Pubcomp }

func (p PubcompPacket) appendTo(dst []byte) ([]byte, uint8, error) {
	return appendPid(dst, p.Pid)
}

// UnsubackPacket acknowledges an UNSUBSCRIBE.
type UnsubackPacket struct{ Pid uint16 }

func (UnsubackPacket) Type() Type { return Unsuback }

func (p UnsubackPacket) appendTo(dst []byte) ([]byte, uint8, error) {
	return appendPid(dst, p.Pid)
}

func appendPid(dst []byte, pid uint16) ([]byte, uint8, error) {
	if pid == 0 {
		return dst, 0, &InvalidPidError{Value: pid}
	}
	return binary.BigEndian.AppendUint16(dst, pid), 0, nil
}

func decodePidOnlyBody(body []byte) (uint16, error) {
	if len(body) != 2 {
		return 0, ErrInvalidPid
	}
	pid := binary.BigEndian.Uint16(body)
	if pid == 0 {
		return 0, &InvalidPidError{Value: pid}
	}
	return pid, nil
}
