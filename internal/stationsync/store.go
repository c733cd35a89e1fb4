// Package stationsync keeps the station list and the map viewport in
// sync: the list order follows the camera (distance sort) unless the
// user pins an explicit column sort, list clicks move the camera, and
// pagination collapses back to page one whenever the ordering changes.
package stationsync

import (
	"sort"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"cyclemap.dev/internal/geo"
	"cyclemap.dev/internal/mapengine"
	"cyclemap.dev/internal/models"
	"cyclemap.dev/internal/paging"
	"cyclemap.dev/internal/sched"
)

// CenterDebounceInterval bounds how often continuous map panning can
// re-sort the station list. Move events coalesce to the last center
// observed within this window.
const CenterDebounceInterval = 150 * time.Millisecond

// Store owns the station collection and the view state derived from it:
// viewport center, sort mode, pagination cursor, and selection. One
// Store is constructed per network detail view and torn down with it.
//
// The station snapshot is immutable per cycle; the Store never mutates
// station attributes, only derives orderings over them. All methods are
// safe for concurrent use.
type Store struct {
	mu sync.Mutex

	stations []models.Station
	lookup   map[string]models.Station

	center      models.MapCenter
	columnSort  *models.StationSort
	currentPage int
	pageSize    int
	selectedID  string

	handle   *mapengine.HandleHolder
	debounce *sched.Debouncer
}

// New creates a Store over the given station snapshot. The initial
// viewport center is supplied by the caller, typically the network's
// registered location.
func New(stations []models.Station, initialCenter models.MapCenter) *Store {
	s := &Store{
		center:      initialCenter,
		currentPage: 1,
		pageSize:    paging.DefaultPageSize,
		handle:      mapengine.NewHandleHolder(),
		debounce:    sched.NewDebouncer(CenterDebounceInterval),
	}
	s.setStationsLocked(stations)
	return s
}

// setStationsLocked installs a new station snapshot and rebuilds the
// id lookup. Callers hold s.mu (or are the constructor).
func (s *Store) setStationsLocked(stations []models.Station) {
	s.stations = stations
	s.lookup = make(map[string]models.Station, len(stations))
	for _, st := range stations {
		s.lookup[st.ID] = st
	}
}

// SetStations replaces the station collection, e.g. after a refresh or
// when navigating to a different network. Sort and pagination state
// reset to their defaults; the selection is dropped if the selected id
// no longer exists.
func (s *Store) SetStations(stations []models.Station) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setStationsLocked(stations)
	s.columnSort = nil
	s.currentPage = 1
	if _, ok := s.lookup[s.selectedID]; !ok {
		s.selectedID = ""
	}
}

// Stations returns the current station snapshot in supply order.
func (s *Store) Stations() []models.Station {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stations
}

// Close releases the debounce timer. A pending center update is
// discarded so no stale callback mutates the store after teardown.
func (s *Store) Close() {
	s.debounce.Stop()
}

// RegisterMap stores the live engine handle used by FlyToStation.
// Passing nil disables flying until a new handle registers.
func (s *Store) RegisterMap(m mapengine.Map) {
	s.handle.Set(m)
}

// UpdateMapCenter routes a viewport move into the store. Updates are
// debounced (trailing edge): rapid calls during a drag coalesce to the
// last center, applied once the gesture quiets. This is the only path
// by which panning affects sort order.
func (s *Store) UpdateMapCenter(center models.MapCenter) {
	s.debounce.Trigger(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.center = center
	})
}

// MapCenter returns the currently applied viewport center.
func (s *Store) MapCenter() models.MapCenter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center
}

// ColumnSort returns the active explicit column sort, or nil when the
// list is in distance mode.
func (s *Store) ColumnSort() *models.StationSort {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.columnSort == nil {
		return nil
	}
	cp := *s.columnSort
	return &cp
}

// SetColumnSort advances the three-state sort cycle for the given
// column: unsorted -> desc -> asc -> unsorted. Clicking a different
// column starts its cycle at desc. Any sort change synchronously resets
// pagination to page one; there is no observable state where the order
// changed but the page did not reset.
func (s *Store) SetColumnSort(field models.SortField) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.columnSort == nil || s.columnSort.Field != field:
		s.columnSort = &models.StationSort{Field: field, Direction: models.SortDesc}
	case s.columnSort.Direction == models.SortDesc:
		s.columnSort = &models.StationSort{Field: field, Direction: models.SortAsc}
	default:
		s.columnSort = nil
	}
	s.currentPage = 1
}

// SetPage moves the pagination cursor. Out-of-range values are clamped
// when the page is read, so any input is accepted here.
func (s *Store) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 1 {
		page = 1
	}
	s.currentPage = page
}

// CurrentPage returns the pagination cursor as last set.
func (s *Store) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPage
}

// SortedStations returns the full collection ordered per the current
// sort state: ascending distance to the viewport center by default, or
// the explicit column sort when one is active. Stations with an unknown
// column value sort to the end regardless of direction; NaN distances
// sort last.
func (s *Store) SortedStations() []models.Station {
	s.mu.Lock()
	stations := s.stations
	center := s.center
	columnSort := s.columnSort
	s.mu.Unlock()

	return Sorted(stations, center, columnSort)
}

// Sorted returns a sorted copy of stations without going through a
// Store: ascending distance to center when columnSort is nil, the
// explicit column sort otherwise. Store.SortedStations and the HTTP
// layer share this ordering.
func Sorted(stations []models.Station, center models.MapCenter, columnSort *models.StationSort) []models.Station {
	sorted := make([]models.Station, len(stations))
	copy(sorted, stations)

	if columnSort != nil {
		sortByColumn(sorted, *columnSort)
		return sorted
	}

	sortByDistance(sorted, center)
	return sorted
}

// stationDistance pairs a station with its precomputed distance so the
// sort moves both together.
type stationDistance struct {
	station models.Station
	km      float64
}

// sortByDistance orders stations ascending by great-circle distance to
// the viewport center. Distances are computed once per station, not per
// comparison.
func sortByDistance(stations []models.Station, center models.MapCenter) {
	pairs := make([]stationDistance, len(stations))
	for i, st := range stations {
		pairs[i] = stationDistance{
			station: st,
			km:      geo.DistanceKm(center.Latitude, center.Longitude, st.Latitude, st.Longitude),
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return geo.SortsAfter(pairs[j].km, pairs[i].km)
	})

	for i, p := range pairs {
		stations[i] = p.station
	}
}

// PaginatedStations returns the current page of the sorted collection.
func (s *Store) PaginatedStations() paging.Result[models.Station] {
	sorted := s.SortedStations()
	s.mu.Lock()
	page := s.currentPage
	size := s.pageSize
	s.mu.Unlock()
	return paging.Paginate(sorted, page, size)
}

// FlyToStation resolves the station, marks it selected, and issues an
// animated camera move to it at close zoom. Unknown ids and a missing
// map handle are normal boundary conditions: the call is a silent
// no-op, not an error, and camera commands issued before the map is
// ready are dropped rather than queued.
func (s *Store) FlyToStation(stationID string) {
	s.mu.Lock()
	station, ok := s.lookup[stationID]
	s.mu.Unlock()
	if !ok {
		return
	}

	m, ok := s.handle.Get()
	if !ok {
		return
	}

	s.mu.Lock()
	s.selectedID = stationID
	s.mu.Unlock()

	m.FlyTo(mapengine.CameraOptions{
		Center:   orb.Point{station.Longitude, station.Latitude},
		Zoom:     mapengine.StationZoom,
		Duration: mapengine.AnimationDuration,
	})
}

// SelectStation marks a station selected without moving the camera,
// for map-click interactions that already moved it.
func (s *Store) SelectStation(stationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup[stationID]; ok {
		s.selectedID = stationID
	}
}

// SelectedStationID returns the selected station id, or "" when none.
func (s *Store) SelectedStationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// ClearSelection drops the selection, e.g. on a map background click.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = ""
}

// columnValue extracts the sortable numeric value of a station for the
// given field. ok is false when the value is unknown (nil empty_slots).
func columnValue(st models.Station, field models.SortField) (float64, bool) {
	switch field {
	case models.SortFreeBikes:
		return float64(st.FreeBikes), true
	case models.SortEmptySlots:
		if st.EmptySlots == nil {
			return 0, false
		}
		return float64(*st.EmptySlots), true
	}
	return 0, false
}

// sortByColumn orders stations by the explicit column sort. Unknown
// values sort to the end regardless of direction; two unknowns compare
// equal, and the stable sort preserves their supply order.
func sortByColumn(stations []models.Station, cs models.StationSort) {
	sort.SliceStable(stations, func(i, j int) bool {
		vi, okI := columnValue(stations[i], cs.Field)
		vj, okJ := columnValue(stations[j], cs.Field)

		if !okI || !okJ {
			return okI
		}
		if cs.Direction == models.SortDesc {
			return vi > vj
		}
		return vi < vj
	})
}
