package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cyclemap.dev/internal/config"
)

func TestNewWiresDependencies(t *testing.T) {
	app := newTestApplication(t)

	if app.Networks == nil {
		t.Error("expected a CityBikes client")
	}
	if app.Backoff == nil {
		t.Error("expected a backoff store")
	}
	if app.Logger == nil {
		t.Error("expected a logger")
	}

	if _, ready := app.refreshState(); ready {
		t.Error("a fresh application must not report ready")
	}
}

func TestRefreshNetworksMarksReady(t *testing.T) {
	app := newTestApplication(t)

	app.refreshNetworks(context.Background())

	count, ready := app.refreshState()
	if !ready {
		t.Fatal("expected ready after a successful refresh")
	}
	if count != 3 {
		t.Errorf("expected 3 networks, got %d", count)
	}
	if _, backing := app.Backoff.NextRetryAt("networks"); backing {
		t.Error("a successful refresh must clear any backoff")
	}
}

func TestRefreshNetworksBacksOffOnFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		Port:            4000,
		Env:             "testing",
		APIBaseURL:      upstream.URL,
		RefreshInterval: time.Minute,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := New(cfg, logger, upstream.Client(), "test-version")

	app.refreshNetworks(context.Background())

	if _, ready := app.refreshState(); ready {
		t.Error("a failed refresh must not mark the application ready")
	}
	next, ok := app.Backoff.NextRetryAt("networks")
	if !ok {
		t.Fatal("expected a backoff after a failed refresh")
	}
	if !next.After(time.Now().UTC()) {
		t.Errorf("next retry %v should be in the future", next)
	}

	// The next attempt inside the backoff window is skipped entirely.
	app.refreshNetworks(context.Background())
	if _, ready := app.refreshState(); ready {
		t.Error("a skipped refresh must not change readiness")
	}
}
