// Package telemetry persists zone readings to InfluxDB and keeps the
// latest-per-zone cache served to dashboards as the REST fallback.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/agrovive/greenhouse-live/internal/model"
	"github.com/agrovive/greenhouse-live/internal/model/messages"
	"github.com/agrovive/greenhouse-live/pkg/logging"
)

type InfluxConfig struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string // es. "zone_reading"
}

type Service struct {
	writeAPI    api.WriteAPIBlocking
	queryAPI    api.QueryAPI
	bucket      string
	measurement string

	mu     sync.RWMutex
	latest map[string]model.Reading // key greenhouse|zone|metric
}

func NewService(client influxdb2.Client, cfg InfluxConfig) (*Service, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}
	measurement := cfg.Measurement
	if measurement == "" {
		measurement = "zone_reading"
	}
	return &Service{
		writeAPI:    client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		queryAPI:    client.QueryAPI(cfg.Org),
		bucket:      cfg.Bucket,
		measurement: measurement,
		latest:      make(map[string]model.Reading),
	}, nil
}

// DecodeReading parses a bus payload into a Reading, recovering scope ids
// from "sensor/<class>/{greenhouse}/{zone}" when the body omits them and
// applying the fallback display range.
func DecodeReading(topic string, payload []byte) (model.Reading, error) {
	var ev messages.ReadingEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return model.Reading{}, fmt.Errorf("reading on %s: %w", topic, err)
	}

	r := model.Reading{
		GreenhouseID: ev.GreenhouseID,
		ZoneID:       ev.ZoneID,
		Metric:       ev.Metric,
		Value:        ev.Value,
		Unit:         ev.Unit,
		Min:          ev.Min,
		Max:          ev.Max,
		Aggregated:   ev.Aggregated || strings.HasPrefix(topic, "sensor/aggregated/"),
		Timestamp:    ev.Timestamp,
	}
	if r.GreenhouseID == "" || r.ZoneID == "" {
		parts := strings.Split(topic, "/")
		if len(parts) >= 4 {
			if r.GreenhouseID == "" {
				r.GreenhouseID = parts[2]
			}
			if r.ZoneID == "" {
				r.ZoneID = parts[3]
			}
		}
	}
	if r.Metric == "" {
		r.Metric = "humidity"
	}
	if !ev.HasBounds {
		r.Min, r.Max = model.DefaultReadingMin, model.DefaultReadingMax
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	return r, nil
}

// Ingest writes the reading to Influx and refreshes the latest cache. The
// cache is updated even when the write fails, so /readings/latest keeps
// answering while Influx is down.
func (s *Service) Ingest(ctx context.Context, r model.Reading) error {
	s.mu.Lock()
	s.latest[cacheKey(r)] = r
	s.mu.Unlock()
	readingsIngested.WithLabelValues(r.Metric).Inc()

	tags := map[string]string{
		"greenhouse_id": r.GreenhouseID,
		"zone_id":       r.ZoneID,
		"metric":        r.Metric,
	}
	fields := map[string]interface{}{
		"value":      r.Value,
		"min":        r.Min,
		"max":        r.Max,
		"aggregated": r.Aggregated,
	}
	point := influxdb2.NewPoint(s.measurement, tags, fields, r.Timestamp)
	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		influxWriteErrors.Inc()
		log := logging.Component("telemetry")
		log.Error().Err(err).Str("zone", r.ZoneID).Msg("influx write error")
		return err
	}
	return nil
}

// LatestCache returns the most recent reading per (zone, metric), sorted by
// zone then metric for stable output.
func (s *Service) LatestCache() []model.Reading {
	s.mu.RLock()
	out := make([]model.Reading, 0, len(s.latest))
	for _, r := range s.latest {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZoneID != out[j].ZoneID {
			return out[i].ZoneID < out[j].ZoneID
		}
		return out[i].Metric < out[j].Metric
	})
	return out
}

func cacheKey(r model.Reading) string {
	return r.GreenhouseID + "|" + r.ZoneID + "|" + r.Metric
}
