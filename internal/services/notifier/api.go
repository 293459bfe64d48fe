package notifier

import (
	"encoding/json"
	"net/http"
	"strings"
)

// NewHTTPMux serves the REST snapshot API consumed by dashboard views on
// load and by the read-state actions:
//
//	GET /notifications            → full snapshot, newest first
//	PUT /notifications/read-all   → mark every notification read
//	PUT /notifications/{id}/read  → mark one notification read
func NewHTTPMux(store *Store) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(store.List())
	})

	mux.HandleFunc("/notifications/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut && r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/notifications/"), "/")

		w.Header().Set("Content-Type", "application/json")

		if rest == "read-all" {
			store.MarkAllRead()
			_ = json.NewEncoder(w).Encode(map[string]any{"read": true, "unread": 0})
			return
		}

		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[1] != "read" || parts[0] == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if !store.MarkRead(parts[0]) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "unknown notification id"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"read": true, "unread": store.Unread()})
	})

	return mux
}
