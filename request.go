package mqtt

import (
	"github.com/gonzalop/mqtt-embedded/internal/packet"
	"github.com/gonzalop/mqtt-embedded/model"
)

// Pid, Request and their constituents are re-exported from model so
// application code only ever imports the root package.
type (
	Pid                = model.Pid
	Request            = model.Request
	PublishRequest     = model.PublishRequest
	SubscribeTopic     = model.SubscribeTopic
	SubscribeRequest   = model.SubscribeRequest
	UnsubscribeRequest = model.UnsubscribeRequest
)

// Wire-level value types that appear in requests and options are
// re-exported from the codec so applications never import it directly.
type (
	QoS  = packet.QoS
	Will = packet.Will
)

const (
	AtMostOnce  = packet.AtMostOnce
	AtLeastOnce = packet.AtLeastOnce
	ExactlyOnce = packet.ExactlyOnce
)
