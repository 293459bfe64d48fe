package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	greenhouseSimulator "github.com/agrovive/greenhouse-live/internal/greenhouse-simulator"
	"github.com/agrovive/greenhouse-live/pkg/logging"
	"github.com/agrovive/greenhouse-live/pkg/mqttbus"
)

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	greenhouseID := flag.String("greenhouse-id", "gh1", "greenhouse identifier")
	zoneID := flag.String("zone-id", "z1", "zone identifier")
	clientID := flag.String("client-id", "", "MQTT client ID")
	interval := flag.Duration("interval", 10*time.Second, "publish interval")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random walk seed")
	flag.Parse()

	logging.Init(logging.Config{
		Level:      envStr("LOG_LEVEL", "info"),
		JSONOutput: envStr("LOG_FORMAT", "json") == "json",
	})
	log := logging.Component("greenhouse-simulator")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	id := *clientID
	if id == "" {
		id = fmt.Sprintf("sim-%s-%s", *greenhouseID, *zoneID)
	}
	client, err := mqttbus.NewConn(&mqttbus.BrokerConfig{
		Host:     envStr("MQTT_HOST", "localhost"),
		Port:     1883,
		User:     envStr("MQTT_USER", "guest"),
		Password: envStr("MQTT_PASSWORD", "guest"),
		ClientID: id,
	}, ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connect failed")
	}
	defer mqttbus.CloseConn(client)

	scheduleTopic := fmt.Sprintf("event/schedule/%s/%s", *greenhouseID, *zoneID)
	sim := greenhouseSimulator.NewZoneSimulator(
		*greenhouseID, *zoneID,
		greenhouseSimulator.NewDataGenerator(*seed),
		func(topic string) mqttbus.IPublisher { return mqttbus.NewPublisher(client, topic) },
		mqttbus.NewConsumer(client, scheduleTopic, nil),
	)

	log.Info().Str("greenhouse", *greenhouseID).Str("zone", *zoneID).Msg("simulator running")
	sim.Start(ctx, *interval)
}
