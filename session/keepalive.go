package session

import "github.com/gonzalop/mqtt-embedded/internal/packet"

// KeepAliveExpired is invoked by the loop when the keep-alive timer fires.
// It returns the PINGREQ to send, or ErrPingTimeout if a PINGREQ was
// already outstanding.
func (s *Session) KeepAliveExpired() (packet.Packet, error) {
	if s.AwaitPingResp {
		return nil, ErrPingTimeout
	}
	s.AwaitPingResp = true
	return packet.PingreqPacket{}, nil
}
