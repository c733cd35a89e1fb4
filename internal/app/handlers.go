package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"cyclemap.dev/internal/citybikes"
	"cyclemap.dev/internal/geo"
	"cyclemap.dev/internal/models"
	"cyclemap.dev/internal/names"
	"cyclemap.dev/internal/paging"
	"cyclemap.dev/internal/stationsync"
)

// HealthStatus is the JSON body of /v1/healthcheck. Ready means the
// initial network list fetch has succeeded at least once; until then
// the handler answers 500 so orchestrators hold traffic.
type HealthStatus struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Networks    int    `json:"networks"`
	Ready       bool   `json:"ready"`
}

func (app *Application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	count, ready := app.refreshState()

	status := HealthStatus{
		Status:      "available",
		Environment: app.Config.Env,
		Version:     app.Version,
		Networks:    count,
		Ready:       ready,
	}

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(status)
}

// networksResponse is the JSON body of /v1/networks. Countries is the
// sorted set of country codes across the whole unfiltered list, for
// populating the country filter.
type networksResponse struct {
	Networks   []models.Network `json:"networks"`
	Countries  []string         `json:"countries"`
	Pagination paging.Info      `json:"pagination"`
}

// listNetworksHandler serves the filtered, paginated network list.
// Query parameters: country (exact code), search (name/company,
// case-insensitive), page.
func (app *Application) listNetworksHandler(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		app.badRequest(w, err)
		return
	}

	networks, err := app.Networks.ListNetworks(r.Context())
	if err != nil {
		app.upstreamError(w, err)
		return
	}

	filtered := citybikes.FilterNetworks(networks, models.NetworkFilters{
		Country: r.URL.Query().Get("country"),
		Search:  r.URL.Query().Get("search"),
	})

	result := paging.Paginate(filtered, page, paging.DefaultPageSize)
	app.writeJSON(w, http.StatusOK, networksResponse{
		Networks:   result.Items,
		Countries:  names.UniqueCountries(networks),
		Pagination: result.Info,
	})
}

// networkDetailResponse is the JSON body of /v1/networks/:id. Stations
// holds one page of the sorted station list.
type networkDetailResponse struct {
	Network    models.Network   `json:"network"`
	Stations   []models.Station `json:"stations"`
	Pagination paging.Info      `json:"pagination"`
}

// getNetworkHandler serves one network with a sorted, paginated station
// page. Query parameters: sort (free_bikes|empty_slots) with dir
// (asc|desc, default desc), page, and lat/lon overriding the distance
// sort center (default: the network's registered location).
func (app *Application) getNetworkHandler(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())
	id := params.ByName("id")

	page, err := queryPage(r)
	if err != nil {
		app.badRequest(w, err)
		return
	}
	columnSort, err := querySort(r)
	if err != nil {
		app.badRequest(w, err)
		return
	}

	detail, err := app.Networks.GetNetwork(r.Context(), id)
	if err != nil {
		if errors.Is(err, citybikes.ErrNotFound) {
			app.writeJSON(w, http.StatusNotFound, map[string]string{"error": "network not found"})
			return
		}
		app.upstreamError(w, err)
		return
	}

	center, err := queryCenter(r, detail.Location)
	if err != nil {
		app.badRequest(w, err)
		return
	}

	stations := make([]models.Station, len(detail.Stations))
	for i, st := range detail.Stations {
		st.Name = names.CleanStationName(st.Name)
		stations[i] = st
	}

	sorted := stationsync.Sorted(stations, center, columnSort)
	result := paging.Paginate(sorted, page, paging.DefaultPageSize)

	app.writeJSON(w, http.StatusOK, networkDetailResponse{
		Network:    detail.Network,
		Stations:   result.Items,
		Pagination: result.Info,
	})
}

func (app *Application) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		app.Logger.Error("Failed to encode response", "error", err)
	}
}

func (app *Application) badRequest(w http.ResponseWriter, err error) {
	app.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func (app *Application) upstreamError(w http.ResponseWriter, err error) {
	app.Logger.Error("Upstream request failed", "error", err)
	app.writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream API unavailable"})
}

// queryPage parses the page parameter, defaulting to 1. Out-of-range
// pages are left to the pagination layer's clamping.
func queryPage(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("page must be an integer")
	}
	return page, nil
}

// querySort parses sort/dir. An absent sort selects distance ordering
// (nil); dir defaults to desc, matching the first state of the column
// sort cycle.
func querySort(r *http.Request) (*models.StationSort, error) {
	raw := r.URL.Query().Get("sort")
	if raw == "" {
		return nil, nil
	}

	field := models.SortField(raw)
	switch field {
	case models.SortFreeBikes, models.SortEmptySlots:
	default:
		return nil, errors.New("sort must be free_bikes or empty_slots")
	}

	direction := models.SortDesc
	switch dir := r.URL.Query().Get("dir"); dir {
	case "", "desc":
	case "asc":
		direction = models.SortAsc
	default:
		return nil, errors.New("dir must be asc or desc")
	}

	return &models.StationSort{Field: field, Direction: direction}, nil
}

// queryCenter parses lat/lon. Both must be given together; with
// neither, the network's registered location is the sort center.
func queryCenter(r *http.Request, fallback models.Location) (models.MapCenter, error) {
	rawLat := r.URL.Query().Get("lat")
	rawLon := r.URL.Query().Get("lon")

	if rawLat == "" && rawLon == "" {
		return models.MapCenter{Latitude: fallback.Latitude, Longitude: fallback.Longitude}, nil
	}
	if rawLat == "" || rawLon == "" {
		return models.MapCenter{}, errors.New("lat and lon must be provided together")
	}

	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return models.MapCenter{}, errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return models.MapCenter{}, errors.New("lon must be a number")
	}
	if !geo.IsValidLatLon(lat, lon) {
		return models.MapCenter{}, errors.New("lat/lon out of range")
	}
	return models.MapCenter{Latitude: lat, Longitude: lon}, nil
}
