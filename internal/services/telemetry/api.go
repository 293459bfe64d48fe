package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrovive/greenhouse-live/internal/model"
)

type recentQueryParams struct {
	Minutes   int
	Limit     int
	ZoneID    string
	Metric    string
	TimeoutMS int
}

func parseRecent(r *http.Request, defMin, defLim, defTOms int) recentQueryParams {
	q := r.URL.Query()
	get := func(k string, def, min, max int) int {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				if n < min {
					return min
				}
				if max > 0 && n > max {
					return max
				}
				return n
			}
		}
		return def
	}
	return recentQueryParams{
		Minutes:   get("minutes", defMin, 1, 7*24*60),
		Limit:     get("limit", defLim, 1, 500),
		ZoneID:    strings.TrimSpace(q.Get("zone_id")),
		Metric:    strings.TrimSpace(q.Get("metric")),
		TimeoutMS: get("timeout_ms", defTOms, 200, 5000),
	}
}

func buildFlux(bucket, measurement string, p recentQueryParams) string {
	var filters []string
	filters = append(filters, fmt.Sprintf(`r._measurement == %q and r._field == "value"`, measurement))
	if p.ZoneID != "" {
		filters = append(filters, fmt.Sprintf(`r.zone_id == %q`, p.ZoneID))
	}
	if p.Metric != "" {
		filters = append(filters, fmt.Sprintf(`r.metric == %q`, p.Metric))
	}
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => %s)
  |> keep(columns: ["_time","_value","greenhouse_id","zone_id","metric"])
  |> sort(columns: ["_time"], desc: true)
  |> limit(n:%d)
`, bucket, p.Minutes, strings.Join(filters, " and "), p.Limit)
}

// NewHTTPMux exposes the reading snapshots:
//
//	GET /readings/latest?zone_id=   → latest per (zone, metric), from cache
//	GET /readings/recent?minutes=&limit=&zone_id=&metric= → Influx window
func NewHTTPMux(svc *Service) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/readings/latest", func(w http.ResponseWriter, r *http.Request) {
		zone := strings.TrimSpace(r.URL.Query().Get("zone_id"))
		list := svc.LatestCache()
		if zone != "" {
			filtered := list[:0]
			for _, v := range list {
				if v.ZoneID == zone {
					filtered = append(filtered, v)
				}
			}
			list = filtered
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Data-Source", "cache")
		_ = json.NewEncoder(w).Encode(list)
	})

	mux.HandleFunc("/readings/recent", func(w http.ResponseWriter, r *http.Request) {
		p := parseRecent(r, 1440, 100, 2000)

		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(p.TimeoutMS)*time.Millisecond)
		defer cancel()

		res, err := svc.queryAPI.Query(ctx, buildFlux(svc.bucket, svc.measurement, p))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Error", "influx-query-error")
			_, _ = w.Write([]byte("[]"))
			return
		}
		defer func() { _ = res.Close() }()

		out := make([]model.Reading, 0, p.Limit)
		for res.Next() {
			rec := res.Record()

			var value float64
			switch v := rec.Value().(type) {
			case float64:
				value = v
			case int64:
				value = float64(v)
			}

			getTag := func(key string) string {
				if v := rec.ValueByKey(key); v != nil {
					if s, ok := v.(string); ok {
						return s
					}
				}
				return ""
			}

			out = append(out, model.Reading{
				GreenhouseID: getTag("greenhouse_id"),
				ZoneID:       getTag("zone_id"),
				Metric:       getTag("metric"),
				Value:        value,
				Timestamp:    rec.Time().UTC(),
			})
		}
		if res.Err() != nil {
			w.Header().Set("X-Error", "influx-iter-error")
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})

	return mux
}
