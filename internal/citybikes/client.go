// Package citybikes fetches bike-sharing networks and stations from the
// CityBikes API (https://api.citybik.es/v2) with response caching and
// payload validation.
package citybikes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"cyclemap.dev/internal/metrics"
	"cyclemap.dev/internal/models"
	"cyclemap.dev/internal/report"
)

// DefaultBaseURL is the public CityBikes API root.
const DefaultBaseURL = "https://api.citybik.es/v2"

// ErrNotFound marks an upstream 404, typically an unknown network id.
var ErrNotFound = errors.New("citybikes: not found")

// Upstream data changes slowly for the list and quickly for station
// counts, hence the asymmetric TTLs.
const (
	ListCacheTTL   = 5 * time.Minute
	DetailCacheTTL = time.Minute
)

type cachedList struct {
	networks  []models.Network
	fetchedAt time.Time
}

type cachedDetail struct {
	detail    models.NetworkDetail
	fetchedAt time.Time
}

// Client is a caching CityBikes API client. It is safe for concurrent
// use.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger

	mu      sync.RWMutex
	list    *cachedList
	details map[string]*cachedDetail

	// now is replaced in tests to control cache expiry.
	now func() time.Time
}

// NewClient creates a Client against baseURL using the given HTTP
// client. An empty baseURL selects the public API.
func NewClient(baseURL string, client *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
		details: make(map[string]*cachedDetail),
		now:     time.Now,
	}
}

// listPayload mirrors the /v2/networks response envelope.
type listPayload struct {
	Networks []networkPayload `json:"networks"`
}

// detailPayload mirrors the /v2/networks/:id response envelope.
type detailPayload struct {
	Network *detailNetworkPayload `json:"network"`
}

type networkPayload struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Href     string           `json:"href"`
	Location *models.Location `json:"location"`
	Company  companyList      `json:"company"`
	GbfsHref string           `json:"gbfs_href"`
}

type detailNetworkPayload struct {
	networkPayload
	Stations []models.Station `json:"stations"`
	Ebikes   bool             `json:"ebikes"`
}

// companyList tolerates the three shapes the API emits for company:
// null, a single string, or an array of strings. null and absence both
// decode to an empty slice so callers never see nil.
type companyList []string

func (c *companyList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*c = []string{}
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*c = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	if many == nil {
		many = []string{}
	}
	*c = many
	return nil
}

// ListNetworks returns every known network, served from cache when the
// last fetch is younger than ListCacheTTL.
func (c *Client) ListNetworks(ctx context.Context) ([]models.Network, error) {
	c.mu.RLock()
	cached := c.list
	c.mu.RUnlock()

	if cached != nil && c.now().Sub(cached.fetchedAt) < ListCacheTTL {
		metrics.ResponseCacheHits.WithLabelValues("networks").Inc()
		return append([]models.Network(nil), cached.networks...), nil
	}
	metrics.ResponseCacheMisses.WithLabelValues("networks").Inc()

	var payload listPayload
	if err := c.get(ctx, c.baseURL+"/networks", "networks", &payload); err != nil {
		return nil, err
	}

	networks := make([]models.Network, 0, len(payload.Networks))
	for _, n := range payload.Networks {
		network, err := n.toModel()
		if err != nil {
			return nil, fmt.Errorf("invalid network in list response: %w", err)
		}
		networks = append(networks, network)
	}

	c.mu.Lock()
	c.list = &cachedList{networks: networks, fetchedAt: c.now()}
	c.mu.Unlock()

	metrics.NetworksCount.Set(float64(len(networks)))
	return append([]models.Network(nil), networks...), nil
}

// GetNetwork returns one network with its stations, served from cache
// when the last fetch for that id is younger than DetailCacheTTL.
func (c *Client) GetNetwork(ctx context.Context, id string) (models.NetworkDetail, error) {
	if id == "" {
		return models.NetworkDetail{}, fmt.Errorf("network id is required")
	}

	c.mu.RLock()
	cached := c.details[id]
	c.mu.RUnlock()

	if cached != nil && c.now().Sub(cached.fetchedAt) < DetailCacheTTL {
		metrics.ResponseCacheHits.WithLabelValues("network_detail").Inc()
		return cached.detail, nil
	}
	metrics.ResponseCacheMisses.WithLabelValues("network_detail").Inc()

	var payload detailPayload
	if err := c.get(ctx, c.baseURL+"/networks/"+id, "network_detail", &payload); err != nil {
		return models.NetworkDetail{}, err
	}
	if payload.Network == nil {
		return models.NetworkDetail{}, fmt.Errorf("network detail response missing network object")
	}

	network, err := payload.Network.toModel()
	if err != nil {
		return models.NetworkDetail{}, fmt.Errorf("invalid network %q: %w", id, err)
	}

	detail := models.NetworkDetail{
		Network:  network,
		Stations: payload.Network.Stations,
		Ebikes:   payload.Network.Ebikes,
	}
	if detail.Stations == nil {
		detail.Stations = []models.Station{}
	}

	c.mu.Lock()
	c.details[id] = &cachedDetail{detail: detail, fetchedAt: c.now()}
	c.mu.Unlock()

	metrics.StationsCount.WithLabelValues(id).Set(float64(len(detail.Stations)))
	return detail, nil
}

// get performs one GET and decodes the JSON body into out, updating the
// API status gauge and reporting failures.
func (c *Client) get(ctx context.Context, url, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.reportFailure(err, url, endpoint)
		return fmt.Errorf("citybikes request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Not an upstream outage, so the status gauge stays up.
		metrics.CityBikesApiStatus.WithLabelValues(endpoint).Set(1)
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("citybikes returned status %d for %s", resp.StatusCode, url)
		c.reportFailure(statusErr, url, endpoint)
		return statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.reportFailure(err, url, endpoint)
		return fmt.Errorf("failed to read citybikes response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.reportFailure(err, url, endpoint)
		return fmt.Errorf("failed to decode citybikes response: %w", err)
	}

	metrics.CityBikesApiStatus.WithLabelValues(endpoint).Set(1)
	return nil
}

func (c *Client) reportFailure(err error, url, endpoint string) {
	metrics.CityBikesApiStatus.WithLabelValues(endpoint).Set(0)
	report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
		Tags: map[string]string{
			"endpoint": endpoint,
		},
		ExtraContext: map[string]interface{}{
			"url": url,
		},
		Level: sentry.LevelError,
	})
	if c.logger != nil {
		c.logger.Error("citybikes request failed", "endpoint", endpoint, "url", url, "error", err)
	}
}

// toModel validates the wire payload and converts it. A network without
// an id, name, or location is structurally invalid.
func (n networkPayload) toModel() (models.Network, error) {
	if n.ID == "" {
		return models.Network{}, fmt.Errorf("missing id")
	}
	if n.Name == "" {
		return models.Network{}, fmt.Errorf("network %q missing name", n.ID)
	}
	if n.Location == nil {
		return models.Network{}, fmt.Errorf("network %q missing location", n.ID)
	}

	company := n.Company
	if company == nil {
		company = []string{}
	}

	return models.Network{
		ID:       n.ID,
		Name:     n.Name,
		Href:     n.Href,
		Location: *n.Location,
		Company:  company,
		GbfsHref: n.GbfsHref,
	}, nil
}

// FilterNetworks narrows networks by country and free-text search. The
// country filter matches the location country code exactly; the search
// term matches the network name or any operating company,
// case-insensitively.
func FilterNetworks(networks []models.Network, filters models.NetworkFilters) []models.Network {
	country := strings.TrimSpace(filters.Country)
	search := strings.ToLower(strings.TrimSpace(filters.Search))

	out := make([]models.Network, 0, len(networks))
	for _, n := range networks {
		if country != "" && n.Location.Country != country {
			continue
		}
		if search != "" && !matchesSearch(n, search) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func matchesSearch(n models.Network, search string) bool {
	if strings.Contains(strings.ToLower(n.Name), search) {
		return true
	}
	for _, company := range n.Company {
		if strings.Contains(strings.ToLower(company), search) {
			return true
		}
	}
	return false
}
