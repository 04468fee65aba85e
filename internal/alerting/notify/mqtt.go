package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/oshokin/alarm-manager/internal/logger"
)

const (
	// mqttQoS delivers notices at least once.
	mqttQoS = 1
	// mqttDisconnectQuiesce is how long Close lets pending work finish, in milliseconds.
	mqttDisconnectQuiesce = 250
)

// ErrPublishTimeout indicates the broker did not confirm a notice in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// MQTTOptions configures the MQTT notifier.
type MQTTOptions struct {
	// Broker is the broker URL, e.g. tcp://127.0.0.1:1883.
	Broker string
	// Topic receives the notices.
	Topic string
	// ClientID identifies the publisher.
	ClientID string
	// Timeout bounds connecting and publishing.
	Timeout time.Duration
	// Origin is attached to every message.
	Origin Origin
}

// Message is the JSON payload published for every notice.
type Message struct {
	// Title is the notice title.
	Title string `json:"title"`
	// Body is the notice text.
	Body string `json:"body"`
	// Origin identifies the sender.
	Origin Origin `json:"origin"`
	// RaisedAt is when the notice was raised.
	RaisedAt time.Time `json:"raised_at"`
}

// MQTTNotifier publishes notices to an MQTT topic.
type MQTTNotifier struct {
	// client is the connected broker client.
	client mqtt.Client
	// topic receives the notices.
	topic string
	// timeout bounds each publish.
	timeout time.Duration
	// origin is attached to every message.
	origin Origin
}

// NewMQTT connects to the broker and returns a notifier publishing to opts.Topic.
func NewMQTT(ctx context.Context, opts *MQTTOptions) (*MQTTNotifier, error) {
	ctx = logger.WithName(ctx, "mqtt")

	clientOptions := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetConnectTimeout(opts.Timeout).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.InfoKV(ctx, "Connected to MQTT broker", "broker", opts.Broker)
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.WarnKV(ctx, "MQTT connection lost", "broker", opts.Broker, "error", err)
		})

	client := mqtt.NewClient(clientOptions)

	token := client.Connect()
	if !token.WaitTimeout(opts.Timeout) {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", opts.Broker, ErrPublishTimeout)
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", opts.Broker, err)
	}

	return NewMQTTWithClient(client, opts.Topic, opts.Timeout, opts.Origin), nil
}

// NewMQTTWithClient wraps an existing client.
func NewMQTTWithClient(client mqtt.Client, topic string, timeout time.Duration, origin Origin) *MQTTNotifier {
	return &MQTTNotifier{
		client:  client,
		topic:   topic,
		timeout: timeout,
		origin:  origin,
	}
}

// Raise publishes the notice and waits for the broker within the timeout.
func (n *MQTTNotifier) Raise(ctx context.Context, title, body string) error {
	payload, err := json.Marshal(&Message{
		Title:    title,
		Body:     body,
		Origin:   n.origin,
		RaisedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("encode MQTT message: %w", err)
	}

	token := n.client.Publish(n.topic, mqttQoS, false, payload)

	var timeout <-chan time.Time

	if n.timeout > 0 {
		timer := time.NewTimer(n.timeout)
		defer timer.Stop()

		timeout = timer.C
	}

	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", n.topic, ctx.Err())
	case <-timeout:
		return fmt.Errorf("publish to %s: %w", n.topic, ErrPublishTimeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", n.topic, err)
	}

	return nil
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(mqttDisconnectQuiesce)
}
