package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	particle "github.com/tj-smith47/particle-go"
	"github.com/tj-smith47/particle-go/internal/config"
)

const (
	mqttConnectTimeout    = 10 * time.Second
	mqttDisconnectQuiesce = 250 // milliseconds

	// accountSegment replaces the device segment for events without a coreid.
	accountSegment = "account"
)

// ErrMQTTConnect is returned when the broker cannot be reached.
var ErrMQTTConnect = errors.New("mqtt: connection failed")

// MQTTSink publishes each event as JSON on <prefix>/<coreid>/<event name>.
type MQTTSink struct {
	client   pahomqtt.Client
	prefix   string
	qos      byte
	retained bool
}

// ConnectMQTT connects to the broker in cfg and returns a sink using it.
func ConnectMQTT(cfg config.MQTTConfig) (*MQTTSink, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrMQTTConnect, mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMQTTConnect, err)
	}

	return NewMQTTSink(client, cfg), nil
}

// NewMQTTSink wraps an already connected client.
func NewMQTTSink(client pahomqtt.Client, cfg config.MQTTConfig) *MQTTSink {
	return &MQTTSink{
		client:   client,
		prefix:   strings.TrimRight(cfg.TopicPrefix, "/"),
		qos:      byte(cfg.QoS),
		retained: cfg.Retained,
	}
}

// Topic returns the topic ev is published on.
func (s *MQTTSink) Topic(ev particle.Event) string {
	device := coreID(ev)
	if device == "" {
		device = accountSegment
	}
	return s.prefix + "/" + topicSegment(device) + "/" + topicName(ev.Name)
}

// Write publishes ev and waits for the broker to acknowledge it.
func (s *MQTTSink) Write(ctx context.Context, ev particle.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("mqtt: encode event %q: %w", ev.Name, err)
	}

	token := s.client.Publish(s.Topic(ev), s.qos, s.retained, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt: publish %q: %w", ev.Name, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(mqttDisconnectQuiesce)
	return nil
}

// topicSegment makes s safe as a single topic level.
func topicSegment(s string) string {
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(s)
}

// topicName keeps the slashes of hierarchical event names such as
// "hook-response/weather" but strips wildcards.
func topicName(s string) string {
	s = strings.NewReplacer("+", "_", "#", "_").Replace(strings.Trim(s, "/"))
	if s == "" {
		return "_"
	}
	return s
}
