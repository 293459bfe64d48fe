package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/agrovive/greenhouse-live/internal/services/scheduler"
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
	log := logging.Component("scheduler")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plans, err := scheduler.LoadPlans(envStr("PLANS_PATH", "/etc/agrovive/plans.json"))
	if err != nil {
		log.Fatal().Err(err).Msg("load plans failed")
	}

	brokerCfg := &mqttbus.BrokerConfig{
		Host:     envStr("MQTT_HOST", "localhost"),
		Port:     envInt("MQTT_PORT", 1883),
		User:     envStr("MQTT_USER", "guest"),
		Password: envStr("MQTT_PASSWORD", "guest"),
		ClientID: envStr("MQTT_CLIENT_ID", "scheduler-service"),
	}
	client, err := mqttbus.NewConn(brokerCfg, ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connect failed")
	}
	defer mqttbus.CloseConn(client)

	s := scheduler.NewScheduler(plans, func(topic string) mqttbus.IPublisher {
		return mqttbus.NewPublisher(client, topic)
	}, time.Duration(envInt("TICK_INTERVAL_S", 30))*time.Second)

	log.Info().Int("plans", len(plans)).Msg("scheduler running")
	s.Start(ctx)
	log.Info().Msg("shutdown complete")
}
