// Package config loads an mqtt.Options from a YAML file, the same shape
// used by other deployments in this ecosystem for broker configuration:
// flat, defaulted, and read once at process start rather than watched.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	mqtt "github.com/gonzalop/mqtt-embedded"
)

// File is the on-disk shape consumed by Load.
type File struct {
	Broker struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"broker"`

	ClientID      string `yaml:"client_id"`
	KeepAliveSecs int    `yaml:"keepalive_secs"`
	CleanSession  *bool  `yaml:"clean_session"`
	InflightCap   int    `yaml:"inflight_cap"`

	Credentials struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"credentials"`

	Will *struct {
		Topic   string `yaml:"topic"`
		Payload string `yaml:"payload"`
		QoS     uint8  `yaml:"qos"`
		Retain  bool   `yaml:"retain"`
	} `yaml:"will"`
}

// Load reads path, applies defaults for any zero-valued field, and
// returns the resulting mqtt.Options. Validation errors from mqtt.NewOptions
// (empty client_id, keep_alive below 5s, ...) propagate as a panic, per
// that constructor's contract: Load only supplies the values, it does not
// relax their rules.
func Load(path string) (*mqtt.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if f.Broker.Port == 0 {
		f.Broker.Port = 1883
	}
	if f.KeepAliveSecs == 0 {
		f.KeepAliveSecs = 60
	}
	if f.InflightCap == 0 {
		f.InflightCap = 10
	}
	clean := true
	if f.CleanSession != nil {
		clean = *f.CleanSession
	}

	opts := []mqtt.Option{
		mqtt.WithBroker(f.Broker.Host, uint16(f.Broker.Port)),
		mqtt.WithKeepAlive(time.Duration(f.KeepAliveSecs) * time.Second),
		mqtt.WithCleanSession(clean),
		mqtt.WithInflightCap(f.InflightCap),
	}
	if f.Credentials.Username != "" {
		opts = append(opts, mqtt.WithCredentials(f.Credentials.Username, f.Credentials.Password))
	}
	if f.Will != nil {
		opts = append(opts, mqtt.WithWill(&mqtt.Will{
			Topic:   f.Will.Topic,
			Payload: []byte(f.Will.Payload),
			QoS:     mqtt.QoS(f.Will.QoS),
			Retain:  f.Will.Retain,
		}))
	}

	return mqtt.NewOptions(f.ClientID, opts...), nil
}
