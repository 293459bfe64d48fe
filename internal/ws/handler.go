package ws

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/agrovive/greenhouse-live/pkg/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from another origin in development.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler upgrades HTTP requests to WebSocket connections attached to hub.
// An optional ?greenhouse_id=&zone_id= query pre-scopes the client; a join
// message can still narrow it afterwards.
func Handler(hub *Hub) http.HandlerFunc {
	log := logging.Component("ws-handler")
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("upgrade failed")
			return
		}

		client := NewClient(hub, conn)
		q := r.URL.Query()
		if gh, zone := q.Get("greenhouse_id"), q.Get("zone_id"); gh != "" || zone != "" {
			client.setScope(Scope{GreenhouseID: gh, ZoneID: zone})
		}
		// queued before the pumps start so the frame is first on the wire
		// and the channel cannot be closed under us; diagnostics only,
		// views do not depend on it
		client.send <- Message{Type: MessageTypeConnected}
		client.Start()
	}
}
