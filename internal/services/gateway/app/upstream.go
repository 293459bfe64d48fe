package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/agrovive/greenhouse-live/internal/model"
)

func newBreaker(name string, fails int, openFor time.Duration) *gobreaker.CircuitBreaker {
	if fails < 1 {
		fails = 3
	}
	if openFor <= 0 {
		openFor = 10 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(fails)
		},
	})
}

// Upstream incapsula le chiamate HTTP verso un servizio a monte, con breaker.
type Upstream struct {
	name    string
	base    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewUpstream(name, base string, timeout time.Duration, breaker *gobreaker.CircuitBreaker) *Upstream {
	return &Upstream{
		name:    name,
		base:    strings.TrimRight(strings.TrimSpace(base), "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

// GetJSON runs the GET through the breaker and decodes into out. An
// unconfigured upstream is not an error; out stays untouched.
func (u *Upstream) GetJSON(ctx context.Context, path string, out any) error {
	if u == nil || u.base == "" {
		return nil
	}
	_, err := u.breaker.Execute(func() (any, error) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.base+path, nil)
		resp, err := u.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s request error: %w", u.name, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%s upstream status %d", u.name, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("%s decode error: %w", u.name, err)
		}
		return nil, nil
	})
	return err
}

func (u *Upstream) State() gobreaker.State {
	if u == nil || u.breaker == nil {
		return gobreaker.StateClosed
	}
	return u.breaker.State()
}

// lastGoodCache keeps the last successful responses so a flapping upstream
// degrades to stale data instead of an empty dashboard.
type lastGoodCache struct {
	mu            sync.RWMutex
	readings      []ZoneReading
	notifications []model.Notification
}

func (c *lastGoodCache) setReadings(r []ZoneReading) {
	c.mu.Lock()
	c.readings = r
	c.mu.Unlock()
}

func (c *lastGoodCache) setNotifications(n []model.Notification) {
	c.mu.Lock()
	c.notifications = n
	c.mu.Unlock()
}

func (c *lastGoodCache) getReadings() []ZoneReading {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.readings
}

func (c *lastGoodCache) getNotifications() []model.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notifications
}
