package session

import (
	"errors"
	"fmt"

	"github.com/gonzalop/mqtt-embedded/internal/packet"
)

// Sentinel session-rule errors.
var (
	ErrMaxInflight     = errors.New("session: inflight capacity exceeded")
	ErrPayloadEncoding = errors.New("session: payload exceeds compile-time bound")
	ErrPingTimeout     = errors.New("session: PINGRESP not received before next keep-alive expiry")
)

// UnsolicitedError reports an inbound acknowledgement that did not
// correlate with anything the session is tracking.
type UnsolicitedError struct {
	Kind packet.Type
	Pid  Pid
}

func (e *UnsolicitedError) Error() string {
	return fmt.Sprintf("session: unsolicited %s for pid %d", e.Kind, uint16(e.Pid))
}

// ConnectError reports a non-Accepted CONNACK return code.
type ConnectError struct {
	Code packet.ConnectReturnCode
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("session: connect refused: %s", e.Code)
}
