package mqtt

import (
	"github.com/gonzalop/mqtt-embedded/internal/packet"
	"github.com/gonzalop/mqtt-embedded/model"
)

// Notification and its payload types are re-exported from model so
// application code only ever imports the root package.
type (
	Notification        = model.Notification
	PublishNotification = model.PublishNotification
	ConnAckNotification = model.ConnAckNotification
	SubackNotification  = model.SubackNotification
)

// SubscribeResult is the per-filter outcome byte of a SUBACK.
type SubscribeResult = packet.SubscribeResult

const (
	SubackQoS0    = packet.SubackQoS0
	SubackQoS1    = packet.SubackQoS1
	SubackQoS2    = packet.SubackQoS2
	SubackFailure = packet.SubackFailure
)
