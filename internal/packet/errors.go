package packet

import (
	"errors"
	"fmt"
)

// Sentinel codec errors: one var block, one sentinel per malformed-wire-
// format condition.
var (
	ErrWriteZero              = errors.New("packet: buffer too small to encode")
	ErrInvalidHeader          = errors.New("packet: invalid fixed header flags")
	ErrInvalidLength          = errors.New("packet: remaining length out of range")
	ErrInvalidQoS             = errors.New("packet: invalid QoS level")
	ErrInvalidConnectRetCode  = errors.New("packet: invalid CONNACK return code")
	ErrInvalidProtocol        = errors.New("packet: unsupported protocol name/level")
	ErrInvalidPid             = errors.New("packet: packet identifier must not be zero")
	ErrInvalidString          = errors.New("packet: malformed UTF-8 string")
	ErrInvalidSubscribeResult = errors.New("packet: invalid SUBACK return code")
	ErrUnknownType            = errors.New("packet: unknown control packet type")
)

// ProtocolError reports the offending protocol name/level pair for
// ErrInvalidProtocol.
type ProtocolError struct {
	Name  string
	Level uint8
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("packet: invalid protocol %q level %d", e.Name, e.Level)
}

func (e *ProtocolError) Unwrap() error { return ErrInvalidProtocol }

// ConnectRetCodeError reports the invalid byte value for ErrInvalidConnectRetCode.
type ConnectRetCodeError struct{ Code uint8 }

func (e *ConnectRetCodeError) Error() string {
	return fmt.Sprintf("packet: invalid CONNACK return code 0x%02x", e.Code)
}

func (e *ConnectRetCodeError) Unwrap() error { return ErrInvalidConnectRetCode }

// InvalidPidError reports the offending packet identifier for ErrInvalidPid.
type InvalidPidError struct{ Value uint16 }

func (e *InvalidPidError) Error() string {
	return fmt.Sprintf("packet: invalid packet identifier %d", e.Value)
}

func (e *InvalidPidError) Unwrap() error { return ErrInvalidPid }

// QoSError reports the invalid QoS bit pattern for ErrInvalidQoS.
type QoSError struct{ Value uint8 }

func (e *QoSError) Error() string {
	return fmt.Sprintf("packet: invalid QoS %d", e.Value)
}

func (e *QoSError) Unwrap() error { return ErrInvalidQoS }
