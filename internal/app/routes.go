package app

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"

	"cyclemap.dev/internal/middleware"
)

// Routes builds the router and returns the final http.Handler.
//
// Registered routes:
//   - GET /v1/healthcheck: health and readiness snapshot.
//   - GET /v1/networks: filtered, paginated network list.
//   - GET /v1/networks/:id: one network with a sorted station page.
//   - GET /metrics: Prometheus exposition, served from a cache
//     refreshed every 10 seconds to keep scrape cost flat.
//
// The router is wrapped with the Sentry middleware for panic capture
// and with the security headers middleware.
func (app *Application) Routes(ctx context.Context) http.Handler {
	router := httprouter.New()

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)
	router.HandlerFunc(http.MethodGet, "/v1/networks", app.listNetworksHandler)
	router.HandlerFunc(http.MethodGet, "/v1/networks/:id", app.getNetworkHandler)
	router.Handler(http.MethodGet, "/metrics", middleware.NewCachedPromHandler(ctx, prometheus.DefaultGatherer, 10*time.Second))

	handler := middleware.SentryMiddleware(router)
	return middleware.SecurityHeaders(handler)
}
