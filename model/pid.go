// Package model holds the value types shared between the application and
// the event loop: packet identifiers, outbound Requests, and inbound
// Notifications.
package model

// Pid is a non-zero 16-bit MQTT packet identifier.
type Pid uint16

// Add returns p shifted forward by delta packet identifiers, wrapping
// around the [1, 65535] range and always skipping zero.
func (p Pid) Add(delta uint16) Pid {
	return Pid((uint32(p)+uint32(delta)-1)%65535) + 1
}

// Sub returns p shifted backward by delta packet identifiers, the inverse
// of Add: p.Add(d).Sub(d) == p for all p in [1, 65535] and all d.
func (p Pid) Sub(delta uint16) Pid {
	return Pid((uint32(p)+65535-1-uint32(delta)%65535)%65535) + 1
}

// Next returns the next packet identifier after p (Add(1)).
func (p Pid) Next() Pid { return p.Add(1) }
