package messages

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Producers never agreed on field names (title vs titulo, fecha vs
// timestamp, id vs id_visita). Decoding goes through a generic map and picks
// the first alias present; this is the backward-compatibility shim for the
// mixed-dialect wire format.

func pickString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch x := v.(type) {
			case string:
				if s := strings.TrimSpace(x); s != "" {
					return s
				}
			case float64:
				// numeric ids arrive as JSON numbers
				if x == math.Trunc(x) {
					return strconv.FormatInt(int64(x), 10)
				}
				return strconv.FormatFloat(x, 'f', -1, 64)
			}
		}
	}
	return ""
}

func pickFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch x := v.(type) {
			case float64:
				return x, true
			case string:
				if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
					return f, true
				}
			}
		}
	}
	return 0, false
}

func pickBool(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := m[k].(bool); ok {
			return v
		}
	}
	return false
}

// pickTime returns the first parseable timestamp among the alias keys, or
// the zero time when none is present. Callers decide the fallback (receipt
// time at normalization).
func pickTime(m map[string]any, keys ...string) time.Time {
	for _, k := range keys {
		s, ok := m[k].(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func toMap(b []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
