package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestGatherer(t *testing.T) prometheus.Gatherer {
	t.Helper()

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_requests_total",
		Help: "Test counter.",
	})
	reg.MustRegister(counter)
	counter.Add(3)
	return reg
}

func serveMetrics(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
	t.Helper()

	rr := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	if err != nil {
		t.Fatal(err)
	}
	h.ServeHTTP(rr, req)
	return rr
}

func TestCachedPromHandlerServesLiveBeforeFirstRefresh(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewCachedPromHandler(ctx, newTestGatherer(t), time.Hour)

	rr := serveMetrics(t, h)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "test_requests_total 3") {
		t.Errorf("expected live exposition before the first refresh, got: %s", rr.Body.String())
	}
}

func TestCachedPromHandlerRefreshPopulatesCache(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewCachedPromHandler(ctx, newTestGatherer(t), 15*time.Millisecond)

	// Let the background refresh fire several times. The refresh
	// gathers through the real promhttp handler, so a malformed
	// synthetic request would crash this test process.
	time.Sleep(80 * time.Millisecond)

	h.mu.RLock()
	cached := len(h.cache)
	h.mu.RUnlock()
	if cached == 0 {
		t.Fatal("expected the refresh loop to populate the cache")
	}

	rr := serveMetrics(t, h)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "test_requests_total 3") {
		t.Errorf("expected cached exposition, got: %s", rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Errorf("expected text exposition content type, got %q", ct)
	}
}

func TestCachedPromHandlerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := NewCachedPromHandler(ctx, newTestGatherer(t), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	cancel()
	time.Sleep(30 * time.Millisecond)

	// The handler keeps serving its last cache after shutdown.
	rr := serveMetrics(t, h)
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 after cancel, got %d", rr.Code)
	}
}
