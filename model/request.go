package model

import "github.com/gonzalop/mqtt-embedded/internal/packet"

// MaxTopicLen and MaxPayloadLen are the compile-time bounds on an inbound
// PublishNotification's copied topic and payload. They are
// package-level variables rather than untyped constants so an embedder can
// tune them for its target's available RAM before the first Session is
// constructed.
var (
	MaxTopicLen   = 256
	MaxPayloadLen = 2048
)

// PublishRequest is the application's intent to publish a message.
type PublishRequest struct {
	Dup     bool
	QoS     packet.QoS
	Retain  bool
	Topic   string
	Payload []byte
}

// SubscribeTopic is one (filter, requested QoS) pair of a SubscribeRequest.
type SubscribeTopic struct {
	Filter string
	QoS    packet.QoS
}

// SubscribeRequest is the application's intent to subscribe to one or more
// topic filters.
type SubscribeRequest struct {
	Topics []SubscribeTopic
}

// UnsubscribeRequest is the application's intent to remove one or more
// existing subscriptions.
type UnsubscribeRequest struct {
	Topics []string
}

// Request is the closed sum of outbound application intents. Exactly one
// of the fields is non-nil.
type Request struct {
	Publish     *PublishRequest
	Subscribe   *SubscribeRequest
	Unsubscribe *UnsubscribeRequest
}
