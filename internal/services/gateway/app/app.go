package app

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agrovive/greenhouse-live/pkg/logging"
)

type Config struct {
	TelemetryBaseURL string
	NotifierBaseURL  string
	HTTPTimeout      time.Duration

	BreakerFailures int
	BreakerOpenFor  time.Duration
}

// Gateway fans the dashboard bootstrap call out to the backend services and
// degrades per upstream: a dead notifier still leaves the charts alive.
type Gateway struct {
	cfg       Config
	telemetry *Upstream
	notifier  *Upstream
	log       zerolog.Logger

	lastGood lastGoodCache
}

func NewGateway(cfg Config) *Gateway {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 3 * time.Second
	}
	// un breaker per ciascun upstream
	tb := newBreaker("telemetry", cfg.BreakerFailures, cfg.BreakerOpenFor)
	nb := newBreaker("notifier", cfg.BreakerFailures, cfg.BreakerOpenFor)

	return &Gateway{
		cfg:       cfg,
		telemetry: NewUpstream("telemetry", cfg.TelemetryBaseURL, cfg.HTTPTimeout, tb),
		notifier:  NewUpstream("notifier", cfg.NotifierBaseURL, cfg.HTTPTimeout, nb),
		log:       logging.Component("gateway"),
	}
}
