package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/agrovive/greenhouse-live/internal/services/gateway/app"
	"github.com/agrovive/greenhouse-live/pkg/logging"
)

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	logging.Init(logging.Config{
		Level:      envStr("LOG_LEVEL", "info"),
		JSONOutput: envStr("LOG_FORMAT", "json") == "json",
	})
	log := logging.Component("gateway")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw := app.NewGateway(app.Config{
		TelemetryBaseURL: envStr("TELEMETRY_URL", "http://telemetry:8081"),
		NotifierBaseURL:  envStr("NOTIFIER_URL", "http://notifier:8080"),
		HTTPTimeout:      time.Duration(envInt("TIMEOUT_MS", 3000)) * time.Millisecond,
		BreakerFailures:  envInt("CB_FAILS", 3),
		BreakerOpenFor:   time.Duration(envInt("CB_OPEN_MS", 10000)) * time.Millisecond,
	})

	srv := &http.Server{
		Addr:              ":" + envStr("PORT", "8090"),
		Handler:           gw.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	log.Info().Msg("shutdown complete")
}
