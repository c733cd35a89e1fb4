package app

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"cyclemap.dev/internal/report"
)

// networksEndpoint keys the refresh loop's backoff state.
const networksEndpoint = "networks"

// StartNetworkRefresh runs the network list refresh loop in the
// background: an immediate fetch at startup, then one per configured
// interval. Failures back off exponentially instead of retrying at full
// rate; the loop stops when ctx is cancelled.
func (app *Application) StartNetworkRefresh(ctx context.Context) {
	go func() {
		app.refreshNetworks(ctx)

		ticker := time.NewTicker(app.Config.RefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				app.Logger.Info("Stopping network refresh routine")
				return
			case <-ticker.C:
				app.refreshNetworks(ctx)
			}
		}
	}()
}

// refreshNetworks fetches the network list once, honoring any active
// backoff window from a previous failure.
func (app *Application) refreshNetworks(ctx context.Context) {
	if next, ok := app.Backoff.NextRetryAt(networksEndpoint); ok && time.Now().UTC().Before(next) {
		app.Logger.Info("Skipping network refresh during backoff", "next_retry_at", next)
		return
	}

	networks, err := app.Networks.ListNetworks(ctx)
	if err != nil {
		app.Backoff.UpdateBackoff(networksEndpoint)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags: map[string]string{
				"endpoint": networksEndpoint,
			},
			Level: sentry.LevelError,
		})
		app.Logger.Error("Failed to refresh network list", "error", err)
		return
	}

	app.Backoff.ResetBackoff(networksEndpoint)
	app.markRefreshed(len(networks))
	app.Logger.Info("Refreshed network list", "count", len(networks))
}
