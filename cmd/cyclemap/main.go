package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"cyclemap.dev/internal/app"
	"cyclemap.dev/internal/config"
	"cyclemap.dev/internal/report"
)

const version = "1.0.0"

func main() {
	var cfg config.Config
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Println("Error:", err)
		flag.Usage()
		os.Exit(1)
	}

	report.SetupSentry()
	defer report.FlushSentry()
	report.ConfigureScope(cfg.Env, version)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	client := app.NewPooledClient()
	application := app.New(&cfg, logger, client, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial fetch plus the periodic refresh loop. A failed first
	// fetch is not fatal: the healthcheck reports not-ready until a
	// refresh succeeds.
	application.StartNetworkRefresh(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      application.Routes(ctx),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env)
	err := srv.ListenAndServe()
	report.ReportError(err, sentry.LevelFatal)
	report.FlushSentry()
	logger.Error(err.Error())
	os.Exit(1)
}
