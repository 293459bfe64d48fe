// Package greenhouse_simulator feeds a development stack with realistic
// traffic: zone readings on a fixed interval plus occasional visit and
// hardware alert events. It listens to the scheduler's window events so
// the synthetic humidity actually rises while irrigation runs.
package greenhouse_simulator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/agrovive/greenhouse-live/internal/model/messages"
	"github.com/agrovive/greenhouse-live/pkg/dedup"
	"github.com/agrovive/greenhouse-live/pkg/logging"
	"github.com/agrovive/greenhouse-live/pkg/mqttbus"
)

// PublisherFactory builds a publisher bound to one topic.
type PublisherFactory func(topic string) mqttbus.IPublisher

type ZoneSimulator struct {
	greenhouseID string
	zoneID       string
	generator    *DataGenerator
	factory      PublisherFactory
	consumer     mqttbus.IConsumer
	deduper      *dedup.Deduper

	pubs map[string]mqttbus.IPublisher

	// every Nth tick emits a synthetic event alongside the readings
	eventEvery int
	tick       int
}

func NewZoneSimulator(greenhouseID, zoneID string, gen *DataGenerator,
	factory PublisherFactory, consumer mqttbus.IConsumer) *ZoneSimulator {
	s := &ZoneSimulator{
		greenhouseID: greenhouseID,
		zoneID:       zoneID,
		generator:    gen,
		factory:      factory,
		consumer:     consumer,
		deduper:      dedup.New(2*time.Minute, 10000),
		pubs:         make(map[string]mqttbus.IPublisher),
		eventEvery:   30,
	}
	if consumer != nil {
		consumer.SetHandler(s.handleSchedule)
	}
	return s
}

// Start publishes until ctx is done.
func (s *ZoneSimulator) Start(ctx context.Context, interval time.Duration) {
	log := logging.Component("greenhouse-simulator")
	if s.consumer != nil {
		go s.consumer.Consume(ctx)
	}

	readingTopic := fmt.Sprintf("sensor/reading/%s/%s", s.greenhouseID, s.zoneID)
	for {
		select {
		case <-ctx.Done():
			for _, p := range s.pubs {
				p.Close()
			}
			return
		case <-time.After(interval):
			for _, r := range s.generator.Next(s.greenhouseID, s.zoneID) {
				payload, _ := json.Marshal(r)
				if err := s.publish(readingTopic, payload); err != nil {
					log.Error().Err(err).Msg("reading publish failed")
				}
			}
			s.tick++
			if s.tick%s.eventEvery == 0 {
				s.publishSyntheticEvent()
			}
		}
	}
}

func (s *ZoneSimulator) publish(topic string, payload []byte) error {
	pub, ok := s.pubs[topic]
	if !ok {
		pub = s.factory(topic)
		s.pubs[topic] = pub
	}
	return pub.Publish(payload)
}

// handleSchedule reacts to the scheduler's window transitions. QoS1
// redeliveries carry the same payload, so the hash dedupe drops them.
func (s *ZoneSimulator) handleSchedule(_ string, msg mqtt.Message) error {
	h := sha256.Sum256(msg.Payload())
	if s.deduper.Seen(hex.EncodeToString(h[:])) {
		return nil
	}

	var ev messages.ScheduleEvent
	if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
		return fmt.Errorf("invalid schedule event: %w", err)
	}
	if ev.ZoneID != s.zoneID {
		return nil
	}

	on := ev.Phase == messages.PhaseStart
	switch ev.System {
	case messages.SystemIrrigation:
		s.generator.SetIrrigating(on)
	case messages.SystemLighting:
		s.generator.SetLighting(on)
	}
	return nil
}

// publishSyntheticEvent alternates visits and hardware alerts so both
// notification paths see traffic.
func (s *ZoneSimulator) publishSyntheticEvent() {
	log := logging.Component("greenhouse-simulator")
	now := time.Now().UTC()

	var (
		topic   string
		payload []byte
	)
	if (s.tick/s.eventEvery)%2 == 0 {
		ev := messages.VisitEvent{
			ID:           uuid.NewString(),
			GreenhouseID: s.greenhouseID,
			VisitorName:  visitors[(s.tick/s.eventEvery)%len(visitors)],
			Timestamp:    now,
		}
		payload, _ = json.Marshal(ev)
		topic = "event/visit/" + s.greenhouseID
	} else {
		ev := messages.HardwareAlertEvent{
			ID:           uuid.NewString(),
			GreenhouseID: s.greenhouseID,
			ZoneID:       s.zoneID,
			Severity:     "warning",
			Message:      "Lectura intermitente del sensor de humedad",
			Timestamp:    now,
		}
		payload, _ = json.Marshal(ev)
		topic = fmt.Sprintf("event/hardwareAlert/%s/%s", s.greenhouseID, s.zoneID)
	}

	if err := s.publish(topic, payload); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("event publish failed")
	}
}

var visitors = []string{"Ana", "Luis", "Marta", "Jorge"}
