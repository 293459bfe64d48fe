// Package ws implements the socket channel that fans out notifications and
// live readings to connected dashboard views.
package ws

import (
	"context"
	"sync"

	"github.com/agrovive/greenhouse-live/pkg/logging"
)

// Message types on the wire.
const (
	MessageTypeConnected    = "connected"
	MessageTypeReading      = "reading"
	MessageTypeNotification = "notification"
	MessageTypeJoin         = "join"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
)

// Message is one WebSocket frame: a discriminator plus a kind-specific
// payload.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Scope restricts which events a client receives. Empty fields match
// everything (the admin overview joins unscoped).
type Scope struct {
	GreenhouseID string `json:"greenhouse_id,omitempty"`
	ZoneID       string `json:"zone_id,omitempty"`
}

// Admits reports whether a client with scope s should receive an event
// scoped to ev. Events without a scope are global and reach every client.
func (s Scope) Admits(ev Scope) bool {
	if s.GreenhouseID != "" && ev.GreenhouseID != "" && s.GreenhouseID != ev.GreenhouseID {
		return false
	}
	if s.ZoneID != "" && ev.ZoneID != "" && s.ZoneID != ev.ZoneID {
		return false
	}
	return true
}

type envelope struct {
	scope Scope
	msg   Message
}

// Hub owns the set of connected clients and broadcasts scoped messages to
// them. Filtering happens here, server side, so a zone view never sees
// another zone's traffic.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes lifecycle and broadcast events until ctx is done, then
// closes every client so no connection leaks past shutdown.
func (h *Hub) Run(ctx context.Context) {
	log := logging.Component("ws-hub")
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			log.Info().Msg("hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			log.Info().Int("clients", n).Msg("client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Info().Int("clients", n).Msg("client disconnected")

		case env := <-h.broadcast:
			h.fanOut(env)
		}
	}
}

// Broadcast queues a scoped message for delivery to matching clients. It
// never blocks the producer; when the queue is full the message is dropped
// (live feed only, the REST snapshot remains the source of truth).
func (h *Hub) Broadcast(scope Scope, msgType string, data any) {
	select {
	case h.broadcast <- envelope{scope: scope, msg: Message{Type: msgType, Data: data}}:
	default:
		log := logging.Component("ws-hub")
		log.Warn().Str("type", msgType).Msg("broadcast queue full, dropping message")
	}
}

func (h *Hub) fanOut(env envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var stale []*Client
	for c := range h.clients {
		if !c.ScopeValue().Admits(env.scope) {
			continue
		}
		select {
		case c.send <- env.msg:
		default:
			// slow consumer, disconnect it
			stale = append(stale, c)
		}
	}
	for _, c := range stale {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
