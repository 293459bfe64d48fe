package mqttbus

import (
	"context"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/agrovive/greenhouse-live/pkg/logging"
)

// IConsumer consumes messages from one or more topics until the context is
// cancelled.
type IConsumer interface {
	Consume(ctx context.Context)
	SetHandler(handler func(topic string, message mqtt.Message) error)
}

// Consumer subscribes to a single topic filter.
type Consumer struct {
	client  mqtt.Client
	topic   string
	handler func(topic string, message mqtt.Message) error
}

func NewConsumer(client mqtt.Client, topic string, handler func(topic string, message mqtt.Message) error) *Consumer {
	return &Consumer{client: client, topic: topic, handler: handler}
}

func (c *Consumer) SetHandler(handler func(topic string, message mqtt.Message) error) {
	c.handler = handler
}

// Consume subscribes and blocks until ctx is done, then unsubscribes.
func (c *Consumer) Consume(ctx context.Context) {
	log := logging.Component("mqttbus")
	token := c.client.Subscribe(c.topic, QoSFor(c.topic), func(_ mqtt.Client, message mqtt.Message) {
		if c.handler == nil {
			log.Warn().Str("topic", c.topic).Msg("no handler set")
			return
		}
		if err := c.handler(message.Topic(), message); err != nil {
			log.Error().Err(err).Str("topic", message.Topic()).Msg("message handler error")
		}
	})
	if token.Wait() && token.Error() != nil {
		log.Error().Err(token.Error()).Str("topic", c.topic).Msg("subscribe error")
		return
	}
	log.Info().Str("topic", c.topic).Msg("subscribed")

	<-ctx.Done()

	unsub := c.client.Unsubscribe(c.topic)
	unsub.Wait()
}

// MultiConsumer subscribes to several topic filters with one handler.
type MultiConsumer struct {
	client  mqtt.Client
	topics  []string
	handler func(topic string, message mqtt.Message) error
}

func NewMultiConsumer(client mqtt.Client, topics []string, handler func(topic string, message mqtt.Message) error) *MultiConsumer {
	return &MultiConsumer{client: client, topics: topics, handler: handler}
}

func (m *MultiConsumer) SetHandler(handler func(topic string, message mqtt.Message) error) {
	m.handler = handler
}

func (m *MultiConsumer) Consume(ctx context.Context) {
	log := logging.Component("mqttbus")
	for _, topic := range m.topics {
		topic := topic
		token := m.client.Subscribe(topic, QoSFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			if m.handler == nil {
				log.Warn().Str("topic", topic).Msg("no handler set")
				return
			}
			if err := m.handler(msg.Topic(), msg); err != nil {
				log.Error().Err(err).Str("topic", msg.Topic()).Msg("message handler error")
			}
		})
		token.Wait()
		if token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", topic).Msg("subscribe error")
		} else {
			log.Info().Str("topic", topic).Msg("subscribed")
		}
	}

	<-ctx.Done()

	for _, topic := range m.topics {
		m.client.Unsubscribe(topic)
	}
}
