package model

import "github.com/gonzalop/mqtt-embedded/internal/packet"

// PublishNotification is a PUBLISH the loop surfaced to the application. Its
// Topic and Payload are owned copies, bounded by MaxTopicLen/MaxPayloadLen;
// exceeding either during decode aborts the connection with
// ErrPayloadEncoding.
type PublishNotification struct {
	Dup     bool
	QoS     packet.QoS
	Retain  bool
	Topic   string
	Payload []byte
}

// Notification is the closed sum of events the loop's Step surfaces to the
// application. Exactly one field is set, or Abort is non-nil.
type Notification struct {
	ConnAck  *ConnAckNotification
	Publish  *PublishNotification
	Puback   *Pid
	Pubrec   *Pid
	Pubcomp  *Pid
	Suback   *SubackNotification
	Unsuback *Pid
	Abort    error
}

// ConnAckNotification reports a successful handshake.
type ConnAckNotification struct {
	SessionPresent bool
}

// SubackNotification reports the server's per-filter subscribe results.
type SubackNotification struct {
	Pid     Pid
	Results []packet.SubscribeResult
}
