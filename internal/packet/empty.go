package packet

// PingreqPacket keeps the connection alive; no variable header or payload.
type PingreqPacket struct{}

func (PingreqPacket) Type() Type                                 { return Pingreq }
func (PingreqPacket) appendTo(dst []byte) ([]byte, uint8, error) { return dst, 0, nil }

// PingrespPacket answers a PingreqPacket; no variable header or payload.
type PingrespPacket struct{}

func (PingrespPacket) Type() Type                                 { return Pingresp }
func (PingrespPacket) appendTo(dst []byte) ([]byte, uint8, error) { return dst, 0, nil }

// DisconnectPacket is the client's graceful termination notice.
type DisconnectPacket struct{}

func (DisconnectPacket) Type() Type                                 { return Disconnect }
func (DisconnectPacket) appendTo(dst []byte) ([]byte, uint8, error) { return dst, 0, nil }
