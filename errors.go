package mqtt

import (
	"errors"
	"fmt"
)

// Network and Loop sentinel errors (session-rule and codec errors live in
// the session and internal/packet packages respectively and are surfaced
// unwrapped through EventError).
var (
	ErrNoSocket        = errors.New("mqtt: no socket open")
	ErrSocketOpen      = errors.New("mqtt: failed to open socket")
	ErrSocketConnect   = errors.New("mqtt: failed to connect socket")
	ErrSocketClosed    = errors.New("mqtt: socket closed by peer")
	ErrDNSLookupFailed = errors.New("mqtt: DNS lookup failed")
	ErrNetworkRead     = errors.New("mqtt: transport read failed")
	ErrNetworkWrite    = errors.New("mqtt: transport write failed")

	ErrHandshakeTimeout = errors.New("mqtt: CONNACK not received before handshake timeout")
	ErrBufferSize       = errors.New("mqtt: incoming packet exceeds the decode buffer")
)

// EventError wraps whatever codec, session, or network error aborted the
// loop with the operation that was in flight when it happened. Step()
// surfaces it as Notification.Abort rather than returning it, so driving
// the loop never fails outright.
type EventError struct {
	Op  string
	Err error
}

func (e *EventError) Error() string { return fmt.Sprintf("mqtt: %s: %v", e.Op, e.Err) }
func (e *EventError) Unwrap() error { return e.Err }

func wrapEvent(op string, err error) error {
	if err == nil {
		return nil
	}
	return &EventError{Op: op, Err: err}
}
