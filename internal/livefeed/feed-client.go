package livefeed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/agrovive/greenhouse-live/pkg/logging"
)

const (
	reconnectInitial = 500 * time.Millisecond
	reconnectMax     = 30 * time.Second
	feedPongWait     = 60 * time.Second
)

// FeedConfig binds a client to one view's scope. Empty scope fields mean
// "all greenhouses" / "all zones" (admin view).
type FeedConfig struct {
	URL          string
	GreenhouseID string
	ZoneID       string
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type joinScope struct {
	GreenhouseID string `json:"greenhouse_id,omitempty"`
	ZoneID       string `json:"zone_id,omitempty"`
}

// FeedClient owns one websocket subscription and feeds the view state: the
// notification list and the per-zone readings buffer. It reconnects with
// capped exponential backoff until its context is cancelled.
type FeedClient struct {
	cfg      FeedConfig
	list     *NotificationList
	readings *ReadingsBuffer

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewFeedClient(cfg FeedConfig, list *NotificationList, readings *ReadingsBuffer) *FeedClient {
	return &FeedClient{
		cfg:      cfg,
		list:     list,
		readings: readings,
		done:     make(chan struct{}),
	}
}

// Start runs the connect/read loop until ctx is cancelled or Close is
// called. It always returns after teardown is complete.
func (f *FeedClient) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)
	defer close(f.done)

	log := logging.Component("feed-client")

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = reconnectInitial
	bo.MaxInterval = reconnectMax
	bo.MaxElapsedTime = 0 // retry until ctx done

	for {
		if ctx.Err() != nil {
			return
		}
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.cfg.URL, nil)
		if err != nil {
			wait := bo.NextBackOff()
			log.Warn().Err(err).Dur("retry_in", wait).Msg("feed connect failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()
		log.Info().Str("url", f.cfg.URL).Msg("feed connected")

		if err := f.join(conn); err != nil {
			log.Warn().Err(err).Msg("join failed")
			conn.Close()
			continue
		}
		f.readLoop(ctx, conn)
		conn.Close()
	}
}

// join scopes the subscription server side so the socket only carries
// events this view renders.
func (f *FeedClient) join(conn *websocket.Conn) error {
	if f.cfg.GreenhouseID == "" && f.cfg.ZoneID == "" {
		return nil
	}
	data, err := json.Marshal(joinScope{GreenhouseID: f.cfg.GreenhouseID, ZoneID: f.cfg.ZoneID})
	if err != nil {
		return err
	}
	return conn.WriteJSON(frame{Type: "join", Data: data})
}

func (f *FeedClient) readLoop(ctx context.Context, conn *websocket.Conn) {
	log := logging.Component("feed-client")

	conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(feedPongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	// the dialer goroutine cannot interrupt ReadMessage; force-close the
	// socket when the context goes
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("feed read error, reconnecting")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(feedPongWait))

		var fr frame
		if err := json.Unmarshal(payload, &fr); err != nil {
			log.Warn().Err(err).Msg("malformed feed frame")
			continue
		}
		f.dispatch(fr)
	}
}

// dispatch routes one frame by its discriminator. Unknown types are dropped
// without logging noise; producers ship new types before views learn them.
func (f *FeedClient) dispatch(fr frame) {
	switch fr.Type {
	case "notification":
		var raw map[string]any
		if err := json.Unmarshal(fr.Data, &raw); err != nil {
			return
		}
		if n, ok := Normalize(raw); ok {
			f.list.Insert(n)
		}
	case "reading":
		var raw map[string]any
		if err := json.Unmarshal(fr.Data, &raw); err != nil {
			return
		}
		r, ok := NormalizeReading(raw)
		if !ok {
			return
		}
		// the server already filters by scope; this guards against frames
		// sent before the join was processed
		if f.cfg.ZoneID != "" && r.ZoneID != f.cfg.ZoneID {
			return
		}
		if f.cfg.GreenhouseID != "" && r.GreenhouseID != "" && r.GreenhouseID != f.cfg.GreenhouseID {
			return
		}
		f.readings.Append(r)
	case "connected", "pong":
		// diagnostic frames, nothing to do
	}
}

// Close tears the client down: stops the read loop, waits for it to exit,
// then freezes the notification list so nothing mutates a dead view.
func (f *FeedClient) Close() {
	f.once.Do(func() {
		if f.cancel != nil {
			f.cancel()
			<-f.done
		}
		f.list.Close()
	})
}
