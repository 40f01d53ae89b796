package mqtt

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gonzalop/mqtt-embedded/internal/packet"
)

// Options is the immutable, loop-facing connection configuration built by
// NewOptions. Once constructed it is never mutated; the builder panics on
// any value that cannot be corrected at runtime, since such a value is a
// programming error rather than something callers should handle at runtime.
type Options struct {
	ClientID     string
	Broker       string
	Port         uint16
	KeepAlive    time.Duration
	CleanSession bool

	HasCredentials bool
	Username       string
	Password       string

	Will *packet.Will

	InflightCap int

	Logger *slog.Logger
}

// Option is a functional option for NewOptions, mirroring the WithXxx
// pattern used throughout the rest of this codebase's configuration layer.
type Option func(*Options)

// WithBroker sets the broker hostname or IP literal and TCP port.
func WithBroker(host string, port uint16) Option {
	return func(o *Options) {
		o.Broker = host
		o.Port = port
	}
}

// WithKeepAlive sets the keep-alive interval. Values below 5 seconds are
// rejected at construction time: anything shorter starves the handshake
// and ping cadence.
func WithKeepAlive(d time.Duration) Option {
	return func(o *Options) {
		if d < 5*time.Second {
			panic("mqtt: keep_alive must be >= 5s")
		}
		o.KeepAlive = d
	}
}

// WithCleanSession sets the CONNECT clean-session flag.
func WithCleanSession(clean bool) Option {
	return func(o *Options) {
		o.CleanSession = clean
	}
}

// WithCredentials sets the username/password carried in CONNECT.
func WithCredentials(username, password string) Option {
	return func(o *Options) {
		o.HasCredentials = true
		o.Username = username
		o.Password = password
	}
}

// WithWill sets the Last Will and Testament published by the broker if the
// connection drops without a graceful DISCONNECT.
func WithWill(will *packet.Will) Option {
	return func(o *Options) {
		o.Will = will
	}
}

// WithInflightCap bounds the number of concurrent QoS >= 1 publishes.
// Must be at least 1.
func WithInflightCap(n int) Option {
	return func(o *Options) {
		if n < 1 {
			panic("mqtt: inflight_cap must be >= 1")
		}
		o.InflightCap = n
	}
}

// WithLogger sets the logger used by the event loop and its transports.
// If not provided, a discard logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// NewOptions validates clientID and applies opts over sensible defaults.
// An empty client id, or one starting with a space, is a programming error
// and panics immediately rather than surfacing as a runtime Err.
func NewOptions(clientID string, opts ...Option) *Options {
	if clientID == "" {
		panic("mqtt: client_id must not be empty")
	}
	if strings.HasPrefix(clientID, " ") {
		panic("mqtt: client_id must not start with a space")
	}

	o := &Options{
		ClientID:     clientID,
		Port:         1883,
		KeepAlive:    60 * time.Second,
		CleanSession: true,
		InflightCap:  10,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
