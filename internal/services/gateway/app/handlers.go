package app

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/agrovive/greenhouse-live/internal/model"
)

// HandleDashboard serves the dashboard bootstrap payload: latest readings
// per zone plus the notification snapshot, fetched in parallel. Each
// upstream fails independently, falling back to the last good response.
func (g *Gateway) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.HTTPTimeout)
	defer cancel()

	zone := r.URL.Query().Get("zone_id")

	type res struct {
		key string
		val any
		err error
	}
	ch := make(chan res, 2)

	go func() {
		var readings []ZoneReading
		err := g.telemetry.GetJSON(ctx, latestPath(zone), &readings)
		ch <- res{"readings", readings, err}
	}()
	go func() {
		var notifs []model.Notification
		err := g.notifier.GetJSON(ctx, "/notifications", &notifs)
		ch <- res{"notifications", notifs, err}
	}()

	data := DashboardData{
		Readings:      []ZoneReading{},
		Notifications: []model.Notification{},
	}

	for i := 0; i < 2; i++ {
		rv := <-ch
		switch rv.key {
		case "readings":
			if rv.err == nil {
				data.Readings = rv.val.([]ZoneReading)
				g.lastGood.setReadings(data.Readings)
				continue
			}
			g.log.Warn().Err(rv.err).Msg("telemetry fetch failed, serving last good")
			data.Readings = g.lastGood.getReadings()
			data.Degraded = append(data.Degraded, "telemetry")
		case "notifications":
			if rv.err == nil {
				data.Notifications = rv.val.([]model.Notification)
				g.lastGood.setNotifications(data.Notifications)
				continue
			}
			g.log.Warn().Err(rv.err).Msg("notifier fetch failed, serving last good")
			data.Notifications = g.lastGood.getNotifications()
			data.Degraded = append(data.Degraded, "notifier")
		}
	}

	sort.Slice(data.Readings, func(i, j int) bool {
		if data.Readings[i].ZoneID != data.Readings[j].ZoneID {
			return data.Readings[i].ZoneID < data.Readings[j].ZoneID
		}
		return data.Readings[i].Metric < data.Readings[j].Metric
	})
	for _, n := range data.Notifications {
		if !n.Read {
			data.Unread++
		}
	}
	data.Stats = statsByMetric(data.Readings)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)

	g.log.Debug().
		Dur("elapsed", time.Since(start)).
		Str("cb_telemetry", g.telemetry.State().String()).
		Str("cb_notifier", g.notifier.State().String()).
		Int("readings", len(data.Readings)).
		Int("notifications", len(data.Notifications)).
		Msg("dashboard data served")
}

func latestPath(zone string) string {
	if zone == "" {
		return "/readings/latest"
	}
	return "/readings/latest?zone_id=" + zone
}

func (g *Gateway) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":       "ok",
		"cb_telemetry": g.telemetry.State().String(),
		"cb_notifier":  g.notifier.State().String(),
	})
}

// Routes wires the gateway endpoints onto a fresh mux.
func (g *Gateway) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard/data", g.HandleDashboard)
	mux.HandleFunc("/healthz", g.HandleHealth)
	return mux
}
