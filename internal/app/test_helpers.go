package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cyclemap.dev/internal/config"
)

// fakeUpstream serves canned CityBikes API payloads.
func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/networks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"networks":[
			{"id":"bicimad","name":"BiciMAD","company":["EMT Madrid"],"location":{"city":"Madrid","country":"ES","latitude":40.4168,"longitude":-3.7038}},
			{"id":"bicing","name":"Bicing","company":null,"location":{"city":"Barcelona","country":"ES","latitude":41.3888,"longitude":2.159}},
			{"id":"velib","name":"Velib Metropole","company":["JCDecaux"],"location":{"city":"Paris","country":"FR","latitude":48.8566,"longitude":2.3522}}
		]}`))
	})
	mux.HandleFunc("/networks/bicimad", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"network":{"id":"bicimad","name":"BiciMAD","company":["EMT Madrid"],"location":{"city":"Madrid","country":"ES","latitude":40.4168,"longitude":-3.7038},"stations":[
			{"id":"st-far","name":"30 - San Quintin","latitude":40.9,"longitude":-3.9,"free_bikes":2,"empty_slots":8},
			{"id":"st-near","name":"12 Puerta del Sol","latitude":40.4169,"longitude":-3.7035,"free_bikes":7,"empty_slots":null},
			{"id":"st-mid","name":"Callao","latitude":40.45,"longitude":-3.71,"free_bikes":4,"empty_slots":1}
		]}}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newTestApplication wires an Application against the fake upstream.
func newTestApplication(t *testing.T) *Application {
	t.Helper()

	upstream := fakeUpstream(t)

	cfg := &config.Config{
		Port:            4000,
		Env:             "testing",
		APIBaseURL:      upstream.URL,
		RefreshInterval: time.Minute,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(cfg, logger, upstream.Client(), "test-version")
}
