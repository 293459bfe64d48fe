package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrovive/greenhouse-live/internal/services/notifier"
	"github.com/agrovive/greenhouse-live/internal/ws"
	"github.com/agrovive/greenhouse-live/pkg/dedup"
	"github.com/agrovive/greenhouse-live/pkg/logging"
	"github.com/agrovive/greenhouse-live/pkg/mqttbus"
)

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	logging.Init(logging.Config{
		Level:      envStr("LOG_LEVEL", "info"),
		JSONOutput: envStr("LOG_FORMAT", "json") == "json",
	})
	log := logging.Component("notifier")

	cfg := struct {
		Broker   mqttbus.BrokerConfig
		Topics   []string
		StoreMax int
		HTTPPort int
	}{
		Broker: mqttbus.BrokerConfig{
			Host:     envStr("MQTT_HOST", "localhost"),
			Port:     envInt("MQTT_PORT", 1883),
			User:     envStr("MQTT_USER", "guest"),
			Password: envStr("MQTT_PASSWORD", "guest"),
			ClientID: envStr("HOSTNAME", "notifier"),
		},
		Topics: func() []string {
			raw := envStr("NOTIFY_SUB_TOPICS",
				"event/visit/#,event/hardwareAlert/#,event/schedule/#,event/sensorAlert/#")
			parts := strings.Split(raw, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if s := strings.TrimSpace(p); s != "" {
					out = append(out, s)
				}
			}
			return out
		}(),
		StoreMax: envInt("NOTIFY_STORE_MAX", 200),
		HTTPPort: envInt("HTTP_PORT", 8080),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === MQTT ===
	client, err := mqttbus.NewConn(&cfg.Broker, ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connection error")
	}
	defer mqttbus.CloseConn(client)

	// === Fan-out state ===
	hub := ws.NewHub()
	go hub.Run(ctx)
	store := notifier.NewStore(cfg.StoreMax)
	metrics := notifier.NewMetrics(prometheus.DefaultRegisterer, hub.ClientCount)

	// QoS1 event topics can be redelivered; dedupe by producer event id.
	d := dedup.New(10*time.Minute, 20000)

	handle := func(topic string, m mqtt.Message) error {
		n, ok, err := notifier.Decode(topic, m.Payload())
		if err != nil {
			metrics.Unknown.Inc()
			return err
		}
		if !ok {
			metrics.Unknown.Inc()
			return nil
		}
		if d.Seen(n.ID) || !store.Insert(n) {
			metrics.Duplicates.Inc()
			return nil
		}
		metrics.Ingested.WithLabelValues(string(n.Kind)).Inc()
		hub.Broadcast(ws.Scope{GreenhouseID: n.GreenhouseID, ZoneID: n.ZoneID}, ws.MessageTypeNotification, n)
		return nil
	}

	consumer := mqttbus.NewMultiConsumer(client, cfg.Topics, handle)
	go consumer.Consume(ctx)

	// Live telemetry rides the same socket as notifications.
	readingTopics := []string{
		envStr("READING_SUB_TOPIC", "sensor/reading/#"),
		envStr("AGGREGATED_SUB_TOPIC", "sensor/aggregated/#"),
	}
	readings := mqttbus.NewMultiConsumer(client, readingTopics, notifier.NewReadingHandler(hub, metrics))
	go readings.Consume(ctx)

	// === HTTP ===
	mux := notifier.NewHTTPMux(store)
	mux.Handle("/ws", ws.Handler(hub))
	mux.Handle("/healthz", notifier.NewHealthHandler(client, store))
	mux.Handle("/readyz", notifier.NewReadyHandler(client))
	mux.Handle("/metrics", promhttp.Handler())

	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutting down")

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = hs.Shutdown(shCtx)
}
