package livefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/agrovive/greenhouse-live/internal/model"
)

// ReadStateClient persists read-state mutations and serves the snapshot a
// view loads before live events take over.
type ReadStateClient interface {
	Fetch(ctx context.Context) ([]model.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

// SnapshotClient talks to the notifier REST API, guarded by a circuit
// breaker so a dead backend degrades the view instead of hanging it.
type SnapshotClient struct {
	base    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewSnapshotClient(base string, timeout time.Duration) *SnapshotClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &SnapshotClient{
		base: strings.TrimRight(strings.TrimSpace(base), "/"),
		http: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "notifier",
			Timeout: 10 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
		}),
	}
}

func (c *SnapshotClient) Fetch(ctx context.Context) ([]model.Notification, error) {
	res, err := c.breaker.Execute(func() (any, error) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/notifications", nil)
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("notifier status %d", resp.StatusCode)
		}
		var list []model.Notification
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			return nil, fmt.Errorf("notifier decode: %w", err)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]model.Notification), nil
}

func (c *SnapshotClient) MarkRead(ctx context.Context, id string) error {
	return c.put(ctx, "/notifications/"+id+"/read")
}

func (c *SnapshotClient) MarkAllRead(ctx context.Context) error {
	return c.put(ctx, "/notifications/read-all")
}

func (c *SnapshotClient) put(ctx context.Context, path string) error {
	_, err := c.breaker.Execute(func() (any, error) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodPut, c.base+path, nil)
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("notifier status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}

// NotificationList is the per-view notification state: deduplicated by id
// (first arrival wins), presented newest first, with an unread counter.
// All mutations after Close are no-ops, so nothing writes into a torn-down
// view.
type NotificationList struct {
	mu     sync.RWMutex
	items  []model.Notification // newest first
	ids    map[string]struct{}
	unread int
	closed bool
	rest   ReadStateClient
}

func NewNotificationList(rest ReadStateClient) *NotificationList {
	return &NotificationList{ids: make(map[string]struct{}), rest: rest}
}

// Insert merges one notification. Re-delivery of an id already present is
// a no-op: no duplicate entry, no double-counted unread.
func (l *NotificationList) Insert(n model.Notification) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	if _, dup := l.ids[n.ID]; dup {
		return false
	}
	l.ids[n.ID] = struct{}{}
	l.items = append([]model.Notification{n}, l.items...)
	if !n.Read {
		l.unread++
	}
	sort.SliceStable(l.items, func(i, j int) bool {
		return l.items[i].CreatedAt.After(l.items[j].CreatedAt)
	})
	return true
}

// LoadSnapshot fetches the REST snapshot and merges it. Events that already
// arrived live keep their first-arrival state.
func (l *NotificationList) LoadSnapshot(ctx context.Context) error {
	if l.rest == nil {
		return nil
	}
	list, err := l.rest.Fetch(ctx)
	if err != nil {
		return err
	}
	for _, n := range list {
		l.Insert(n)
	}
	return nil
}

// MarkRead flips one notification to read optimistically, persists, and
// rolls the flip back when persistence fails. Marking an already-read
// notification is a no-op.
func (l *NotificationList) MarkRead(ctx context.Context, id string) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	flipped := false
	for i := range l.items {
		if l.items[i].ID == id {
			if !l.items[i].Read {
				l.items[i].Read = true
				l.unread--
				flipped = true
			}
			break
		}
	}
	l.mu.Unlock()

	if !flipped {
		return nil
	}
	if l.rest == nil {
		return nil
	}
	if err := l.rest.MarkRead(ctx, id); err != nil {
		l.rollbackOne(id)
		return fmt.Errorf("mark read %s: %w", id, err)
	}
	return nil
}

// MarkAllRead flips every notification to read, persists once, and restores
// the previous flags when persistence fails.
func (l *NotificationList) MarkAllRead(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	prev := make(map[string]bool, len(l.items))
	changed := false
	for i := range l.items {
		prev[l.items[i].ID] = l.items[i].Read
		if !l.items[i].Read {
			l.items[i].Read = true
			changed = true
		}
	}
	prevUnread := l.unread
	l.unread = 0
	l.mu.Unlock()

	if l.rest == nil {
		return nil
	}
	if err := l.rest.MarkAllRead(ctx); err != nil {
		if changed {
			l.rollbackAll(prev, prevUnread)
		}
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

func (l *NotificationList) rollbackOne(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	for i := range l.items {
		if l.items[i].ID == id && l.items[i].Read {
			l.items[i].Read = false
			l.unread++
			return
		}
	}
}

func (l *NotificationList) rollbackAll(prev map[string]bool, prevUnread int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	for i := range l.items {
		if was, ok := prev[l.items[i].ID]; ok {
			l.items[i].Read = was
		}
	}
	l.unread = prevUnread
}

// Items returns a copy of the list, newest first.
func (l *NotificationList) Items() []model.Notification {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Notification, len(l.items))
	copy(out, l.items)
	return out
}

func (l *NotificationList) Unread() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.unread
}

func (l *NotificationList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Close freezes the list. Every later mutation, including in-flight
// persistence callbacks, becomes a no-op.
func (l *NotificationList) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}
