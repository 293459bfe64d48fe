package mqttbus

import (
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes payloads on a fixed topic.
type IPublisher interface {
	Publish(payload []byte) error
	Close()
}

type Publisher struct {
	client mqtt.Client
	topic  string
}

func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// Publish sends payload to the publisher topic. QoS follows the topic class
// (events at-least-once, raw readings at-most-once).
func (p *Publisher) Publish(payload []byte) error {
	token := p.client.Publish(p.topic, QoSFor(p.topic), false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("publish on %s: %w", p.topic, token.Error())
	}
	return nil
}

func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// QoSFor maps a topic to its delivery class. Notification-bearing events and
// aggregated readings must survive a flaky broker hop; raw readings are
// high-rate and may be dropped.
func QoSFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "event/") || strings.HasPrefix(t, "sensor/aggregated") {
		return 1
	}
	return 0
}
