// Package mqttbus wraps the paho MQTT client used as the event bus between
// greenhouse services and dashboard feeds.
package mqttbus

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/agrovive/greenhouse-live/pkg/logging"
)

type BrokerConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string
}

// NewConn connects to the MQTT broker, retrying with exponential backoff.
// The connection is closed when ctx is cancelled.
func NewConn(cfg *BrokerConfig, ctx context.Context) (mqtt.Client, error) {
	log := logging.Component("mqttbus")
	addr := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(addr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	maxRetries := 5

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Str("broker", addr).Msg("mqtt connect failed, retrying")
			return token.Error()
		}
		return nil
	}, backoff.WithMaxRetries(bo, uint64(maxRetries-1)))
	if err != nil {
		return nil, fmt.Errorf("could not establish MQTT connection after retries: %w", err)
	}

	log.Info().Str("broker", addr).Str("client_id", cfg.ClientID).Msg("connected to MQTT broker")

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
		log.Info().Msg("mqtt connection closed")
	}()

	return client, nil
}

// CloseConn disconnects the client if still connected.
func CloseConn(client mqtt.Client) {
	if client.IsConnected() {
		client.Disconnect(250)
	}
}
