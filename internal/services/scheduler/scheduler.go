// Package scheduler drives the irrigation and lighting windows: it opens
// and closes each configured window and announces the transitions on
// event/schedule/{greenhouse}/{zone} so dashboards see them live.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrovive/greenhouse-live/internal/model/messages"
	"github.com/agrovive/greenhouse-live/pkg/logging"
	"github.com/agrovive/greenhouse-live/pkg/mqttbus"
)

const defaultTZ = "America/Mexico_City"

// Window is one daily activation: System at Start (HH:MM local) for
// Duration minutes.
type Window struct {
	System   string `json:"system"` // irrigation | lighting
	Start    string `json:"start"`  // "06:30"
	Duration int    `json:"duration_minutes"`
}

// ZonePlan is the configured schedule for one zone.
type ZonePlan struct {
	GreenhouseID string   `json:"greenhouse_id"`
	ZoneID       string   `json:"zone_id"`
	Windows      []Window `json:"windows"`
}

// LoadPlans reads the zone schedule file.
func LoadPlans(path string) ([]ZonePlan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plans: %w", err)
	}
	var plans []ZonePlan
	if err := json.Unmarshal(raw, &plans); err != nil {
		return nil, fmt.Errorf("parse plans: %w", err)
	}
	for _, p := range plans {
		for _, w := range p.Windows {
			if w.System != messages.SystemIrrigation && w.System != messages.SystemLighting {
				return nil, fmt.Errorf("zone %s: unknown system %q", p.ZoneID, w.System)
			}
			if _, err := parseClock(w.Start); err != nil {
				return nil, fmt.Errorf("zone %s: %w", p.ZoneID, err)
			}
		}
	}
	return plans, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("bad window start %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// PublisherFactory builds a publisher bound to one topic.
type PublisherFactory func(topic string) mqttbus.IPublisher

// Scheduler evaluates every plan once per tick and publishes start/end
// events on window transitions. State is per window so overlapping
// irrigation and lighting windows on the same zone stay independent.
type Scheduler struct {
	plans    []ZonePlan
	factory  PublisherFactory
	tz       *time.Location
	interval time.Duration

	mu   sync.Mutex
	pubs map[string]mqttbus.IPublisher
	// key = zone|system|start, value = end of the running window;
	// zero time means the window is closed
	active map[string]time.Time
}

func NewScheduler(plans []ZonePlan, factory PublisherFactory, interval time.Duration) *Scheduler {
	tzName := strings.TrimSpace(os.Getenv("TZ"))
	if tzName == "" {
		tzName = defaultTZ
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log := logging.Component("scheduler")
		log.Warn().Str("tz", tzName).Err(err).Msg("invalid TZ, using local")
		loc = time.Local
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		plans:    plans,
		factory:  factory,
		tz:       loc,
		interval: interval,
		pubs:     make(map[string]mqttbus.IPublisher),
		active:   make(map[string]time.Time),
	}
}

// Start ticks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closePublishers()
			return
		case now := <-ticker.C:
			s.Evaluate(now)
		}
	}
}

// Evaluate applies one tick at the given wall time. Exported so tests can
// drive the clock.
func (s *Scheduler) Evaluate(now time.Time) {
	now = now.In(s.tz)
	log := logging.Component("scheduler")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, plan := range s.plans {
		for _, w := range plan.Windows {
			offset, err := parseClock(w.Start)
			if err != nil {
				continue // validated at load, unreachable for loaded plans
			}
			dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.tz)
			open := dayStart.Add(offset)
			if now.Before(open) {
				// a window that opened yesterday may still cross midnight
				open = open.AddDate(0, 0, -1)
			}
			windowEnd := open.Add(time.Duration(w.Duration) * time.Minute)
			key := plan.ZoneID + "|" + w.System + "|" + w.Start

			endAt, running := s.active[key]
			inWindow := !now.Before(open) && now.Before(windowEnd)

			switch {
			case inWindow && !running:
				s.active[key] = windowEnd
				s.publishLocked(plan, w, messages.PhaseStart, now)
				log.Info().Str("zone", plan.ZoneID).Str("system", w.System).
					Time("until", windowEnd).Msg("window opened")
			case running && !now.Before(endAt):
				delete(s.active, key)
				s.publishLocked(plan, w, messages.PhaseEnd, now)
				log.Info().Str("zone", plan.ZoneID).Str("system", w.System).Msg("window closed")
			}
		}
	}
}

func (s *Scheduler) publishLocked(plan ZonePlan, w Window, phase string, now time.Time) {
	ev := messages.ScheduleEvent{
		ID:           uuid.NewString(),
		GreenhouseID: plan.GreenhouseID,
		ZoneID:       plan.ZoneID,
		System:       w.System,
		Phase:        phase,
		Duration:     time.Duration(w.Duration) * time.Minute,
		Timestamp:    now.UTC(),
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	topic := fmt.Sprintf("event/schedule/%s/%s", plan.GreenhouseID, plan.ZoneID)
	pub, ok := s.pubs[topic]
	if !ok {
		pub = s.factory(topic)
		s.pubs[topic] = pub
	}
	if err := pub.Publish(payload); err != nil {
		log := logging.Component("scheduler")
		log.Error().Err(err).Str("topic", topic).Msg("publish failed")
	}
}

func (s *Scheduler) closePublishers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pubs {
		p.Close()
	}
	s.pubs = make(map[string]mqttbus.IPublisher)
}
