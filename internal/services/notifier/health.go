package notifier

import (
	"encoding/json"
	"net/http"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type healthHandler struct {
	mqtt  mqtt.Client
	store *Store
}

func NewHealthHandler(m mqtt.Client, s *Store) http.Handler {
	return &healthHandler{mqtt: m, store: s}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status        string `json:"status"`
		MQTTConnected bool   `json:"mqtt_connected"`
		Notifications int    `json:"notifications"`
		Unread        int    `json:"unread"`
	}
	st := status{
		MQTTConnected: h.mqtt != nil && h.mqtt.IsConnectionOpen(),
		Notifications: h.store.Len(),
		Unread:        h.store.Unread(),
	}
	if st.MQTTConnected {
		st.Status = "ok"
	} else {
		st.Status = "down"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

type readyHandler struct {
	mqtt mqtt.Client
}

func NewReadyHandler(m mqtt.Client) http.Handler {
	return &readyHandler{mqtt: m}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	ready := h.mqtt != nil && h.mqtt.IsConnectionOpen()
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ready": ready})
}
