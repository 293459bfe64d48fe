package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agrovive/greenhouse-live/pkg/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client sits between one WebSocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message

	mu    sync.RWMutex
	scope Scope
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan Message, 64),
	}
}

// ScopeValue returns the scope announced by the client's join message, or
// the zero scope (receive everything) if none arrived yet.
func (c *Client) ScopeValue() Scope {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scope
}

func (c *Client) setScope(s Scope) {
	c.mu.Lock()
	c.scope = s
	c.mu.Unlock()
}

// Start registers the client and begins both pumps.
func (c *Client) Start() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		return
	}
	go c.writePump()
	go c.readPump()
}

// detach hands the client back to the hub, or gives up when the hub has
// already stopped (closeAll removed every client then).
func (c *Client) detach() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// inbound is the frame shape read from the browser; data stays raw until
// the type is known.
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) readPump() {
	log := logging.Component("ws-client")
	defer func() {
		c.detach()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("unexpected close")
			}
			return
		}

		switch msg.Type {
		case MessageTypeJoin:
			var s Scope
			if err := json.Unmarshal(msg.Data, &s); err != nil {
				log.Warn().Err(err).Msg("bad join payload")
				continue
			}
			c.setScope(s)
			log.Info().Str("greenhouse", s.GreenhouseID).Str("zone", s.ZoneID).Msg("client joined scope")
		case MessageTypePing:
			select {
			case c.send <- Message{Type: MessageTypePong}:
			default:
			}
		default:
			// unknown client frames are ignored
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
