package app

import (
	"log/slog"
	"net/http"
	"sync"

	"cyclemap.dev/internal/citybikes"
	"cyclemap.dev/internal/config"
)

// Application wires the configuration, the CityBikes client, the
// logger, and the application version together, and tracks whether the
// initial network list has been fetched. It is the receiver for every
// HTTP handler.
type Application struct {
	Config   *config.Config
	Networks *citybikes.Client
	Backoff  *citybikes.BackoffStore
	Logger   *slog.Logger
	Version  string

	mu           sync.RWMutex
	networkCount int
	ready        bool
}

// New creates and wires all dependencies for the Application.
func New(cfg *config.Config, logger *slog.Logger, client *http.Client, version string) *Application {
	return &Application{
		Config:   cfg,
		Networks: citybikes.NewClient(cfg.APIBaseURL, client, logger),
		Backoff:  citybikes.NewBackoffStore(),
		Logger:   logger,
		Version:  version,
	}
}

// markRefreshed records the outcome of the latest network list fetch.
// The application reports ready once a fetch has succeeded.
func (app *Application) markRefreshed(count int) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.networkCount = count
	app.ready = true
}

// refreshState returns the last fetched network count and readiness.
func (app *Application) refreshState() (int, bool) {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.networkCount, app.ready
}
