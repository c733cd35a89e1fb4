package app

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"cyclemap.dev/internal/metrics"
)

// latencyTrackingRoundTripper wraps another RoundTripper to measure the
// latency of each outgoing HTTP request and export it as a Prometheus
// histogram labeled by URL, method, and response status. Wrapping the
// transport keeps instrumentation out of every individual API call.
type latencyTrackingRoundTripper struct {
	next http.RoundTripper
}

func (rt *latencyTrackingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	duration := time.Since(start).Seconds()

	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	// Normalized URL label without query params, to keep cardinality low.
	safeURL := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path

	metrics.OutgoingLatency.WithLabelValues(
		safeURL,
		req.Method,
		status,
	).Observe(duration)

	return resp, err
}

// NewPooledClient returns an HTTP client tuned for periodically polling
// the CityBikes API:
//
//   - MaxIdleConns / MaxIdleConnsPerHost keep connections to
//     api.citybik.es alive between refresh cycles, avoiding repeated
//     TCP/TLS handshakes.
//   - IdleConnTimeout of 90s outlives the refresh interval so warm
//     connections are actually reused.
//   - Dial and TLS handshake timeouts of 5s fail fast when the upstream
//     is unreachable.
//   - The overall 10s client timeout bounds the full request lifecycle.
//
// The transport is wrapped with latencyTrackingRoundTripper so every
// outgoing request feeds the latency histogram.
func NewPooledClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	instrumentedTransport := &latencyTrackingRoundTripper{next: transport}

	client := &http.Client{
		Transport: instrumentedTransport,
		Timeout:   10 * time.Second,
	}
	return client
}
