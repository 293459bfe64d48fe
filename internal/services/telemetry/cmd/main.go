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
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/agrovive/greenhouse-live/internal/services/telemetry"
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
	log := logging.Component("telemetry")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- MQTT ---
	brokerCfg := &mqttbus.BrokerConfig{
		Host:     envStr("MQTT_HOST", "localhost"),
		Port:     envInt("MQTT_PORT", 1883),
		User:     envStr("MQTT_USER", "guest"),
		Password: envStr("MQTT_PASSWORD", "guest"),
		ClientID: envStr("MQTT_CLIENT_ID", "telemetry-service"),
	}
	client, err := mqttbus.NewConn(brokerCfg, ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connect failed")
	}
	defer mqttbus.CloseConn(client)

	// --- InfluxDB ---
	influxCfg := telemetry.InfluxConfig{
		URL:         envStr("INFLUX_URL", "http://localhost:8086"),
		Token:       os.Getenv("INFLUX_TOKEN"),
		Org:         envStr("INFLUX_ORG", "agrovive"),
		Bucket:      envStr("INFLUX_BUCKET", "greenhouse"),
		Measurement: envStr("MEASUREMENT", "zone_reading"),
	}
	influxClient := influxdb2.NewClient(influxCfg.URL, influxCfg.Token)
	defer influxClient.Close()

	svc, err := telemetry.NewService(influxClient, influxCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetry init failed")
	}

	// --- Zone aggregator ---
	agg := telemetry.NewZoneAggregator(func(topic string) mqttbus.IPublisher {
		return mqttbus.NewPublisher(client, topic)
	}, time.Duration(envInt("AGGREGATION_INTERVAL_S", 60))*time.Second)
	go agg.Start(ctx)

	// One subscription feeds both persistence and aggregation; a topic
	// filter can only carry one callback per MQTT client.
	topics := []string{
		envStr("READING_SUB_TOPIC", "sensor/reading/#"),
		envStr("AGGREGATED_SUB_TOPIC", "sensor/aggregated/#"),
	}
	consumer := mqttbus.NewMultiConsumer(client, topics, func(topic string, m mqtt.Message) error {
		reading, err := telemetry.DecodeReading(topic, m.Payload())
		if err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("invalid reading payload")
			return nil // non bloccare lo stream
		}
		agg.Offer(reading)
		return svc.Ingest(ctx, reading)
	})
	go consumer.Consume(ctx)

	// --- HTTP ---
	mux := telemetry.NewHTTPMux(svc)
	srv := &http.Server{
		Addr:              ":" + envStr("PORT", "8081"),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	log.Info().Msg("shutdown complete")
}
