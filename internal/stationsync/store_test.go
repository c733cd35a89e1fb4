package stationsync

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyclemap.dev/internal/geo"
	"cyclemap.dev/internal/mapengine"
	"cyclemap.dev/internal/models"
)

// madrid is the default viewport center used across these tests.
var madrid = models.MapCenter{Latitude: 40.4168, Longitude: -3.7038}

func intPtr(v int) *int { return &v }

func testStations() []models.Station {
	return []models.Station{
		{ID: "1", Name: "Sol", Latitude: 41.40, Longitude: -3.70, FreeBikes: 5, EmptySlots: intPtr(5)},
		{ID: "2", Name: "Gran Vía", Latitude: 41.42, Longitude: -3.71, FreeBikes: 10, EmptySlots: intPtr(10)},
		{ID: "3", Name: "Atocha", Latitude: 40.50, Longitude: -3.80, FreeBikes: 2, EmptySlots: nil},
	}
}

func ids(stations []models.Station) []string {
	out := make([]string, len(stations))
	for i, s := range stations {
		out[i] = s.ID
	}
	return out
}

// fakeMap records camera commands issued against it.
type fakeMap struct {
	mu     sync.Mutex
	flyTos []mapengine.CameraOptions
}

func (f *fakeMap) IsStyleLoaded() bool                                  { return true }
func (f *fakeMap) EaseTo(mapengine.CameraOptions)                       {}
func (f *fakeMap) FitBounds(orb.Bound, mapengine.FitBoundsOptions)      {}
func (f *fakeMap) QueryRenderedFeatures(mapengine.ScreenPoint, []string) []mapengine.Feature {
	return nil
}
func (f *fakeMap) QuerySourceFeatures(string, bool) []mapengine.Feature { return nil }
func (f *fakeMap) ClusterExpansionZoom(string, int64) (float64, error)  { return 0, nil }
func (f *fakeMap) SetCursor(string)                                     {}

func (f *fakeMap) FlyTo(opts mapengine.CameraOptions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flyTos = append(f.flyTos, opts)
}

func (f *fakeMap) flyToCalls() []mapengine.CameraOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mapengine.CameraOptions(nil), f.flyTos...)
}

func TestSortedStationsByDistance(t *testing.T) {
	s := New(testStations(), madrid)
	defer s.Close()

	got := ids(s.SortedStations())

	// Station 3 is ~10 km from the center, stations 1 and 2 are ~110 km.
	assert.Equal(t, []string{"3", "1", "2"}, got)
}

func TestSortedStationsNaNCoordinatesLast(t *testing.T) {
	stations := append(testStations(),
		models.Station{ID: "broken", Name: "Broken", Latitude: math.NaN(), Longitude: -3.70, FreeBikes: 99},
	)
	s := New(stations, madrid)
	defer s.Close()

	got := ids(s.SortedStations())

	// A station whose distance cannot be computed goes to the end;
	// the rest keep their distance order.
	assert.Equal(t, []string{"3", "1", "2", "broken"}, got)
}

func TestDistanceSortMonotonic(t *testing.T) {
	s := New(testStations(), madrid)
	defer s.Close()

	sorted := s.SortedStations()
	for i := 1; i < len(sorted); i++ {
		prev := geo.DistanceKm(madrid.Latitude, madrid.Longitude, sorted[i-1].Latitude, sorted[i-1].Longitude)
		cur := geo.DistanceKm(madrid.Latitude, madrid.Longitude, sorted[i].Latitude, sorted[i].Longitude)
		assert.LessOrEqual(t, prev, cur, "station %s should not precede %s", sorted[i-1].ID, sorted[i].ID)
	}
}

func TestColumnSortCycle(t *testing.T) {
	s := New(testStations(), madrid)
	defer s.Close()

	require.Nil(t, s.ColumnSort())

	s.SetColumnSort(models.SortFreeBikes)
	cs := s.ColumnSort()
	require.NotNil(t, cs)
	assert.Equal(t, models.SortFreeBikes, cs.Field)
	assert.Equal(t, models.SortDesc, cs.Direction)

	s.SetColumnSort(models.SortFreeBikes)
	cs = s.ColumnSort()
	require.NotNil(t, cs)
	assert.Equal(t, models.SortAsc, cs.Direction)

	s.SetColumnSort(models.SortFreeBikes)
	assert.Nil(t, s.ColumnSort(), "third click resets to distance mode")

	s.SetColumnSort(models.SortFreeBikes)
	cs = s.ColumnSort()
	require.NotNil(t, cs, "fourth click restarts the cycle")
	assert.Equal(t, models.SortDesc, cs.Direction)
}

func TestColumnSortSwitchingColumnsStartsDesc(t *testing.T) {
	s := New(testStations(), madrid)
	defer s.Close()

	s.SetColumnSort(models.SortFreeBikes)
	s.SetColumnSort(models.SortEmptySlots)

	cs := s.ColumnSort()
	require.NotNil(t, cs)
	assert.Equal(t, models.SortEmptySlots, cs.Field)
	assert.Equal(t, models.SortDesc, cs.Direction)
}

func TestColumnSortOrdering(t *testing.T) {
	s := New(testStations(), madrid)
	defer s.Close()

	s.SetColumnSort(models.SortFreeBikes)
	assert.Equal(t, []string{"2", "1", "3"}, ids(s.SortedStations()), "free_bikes desc")

	s.SetColumnSort(models.SortFreeBikes)
	assert.Equal(t, []string{"3", "1", "2"}, ids(s.SortedStations()), "free_bikes asc")
}

func TestColumnSortNullsAlwaysLast(t *testing.T) {
	stations := []models.Station{
		{ID: "a", EmptySlots: intPtr(5)},
		{ID: "b", EmptySlots: nil},
		{ID: "c", EmptySlots: intPtr(10)},
	}
	s := New(stations, madrid)
	defer s.Close()

	s.SetColumnSort(models.SortEmptySlots)
	assert.Equal(t, []string{"c", "a", "b"}, ids(s.SortedStations()), "desc keeps null last")

	s.SetColumnSort(models.SortEmptySlots)
	assert.Equal(t, []string{"a", "c", "b"}, ids(s.SortedStations()), "asc keeps null last")
}

func TestColumnSortBothNullKeepSupplyOrder(t *testing.T) {
	stations := []models.Station{
		{ID: "a", EmptySlots: nil},
		{ID: "b", EmptySlots: nil},
		{ID: "c", EmptySlots: intPtr(1)},
	}
	s := New(stations, madrid)
	defer s.Close()

	s.SetColumnSort(models.SortEmptySlots)
	assert.Equal(t, []string{"c", "a", "b"}, ids(s.SortedStations()))
}

func TestSortChangeResetsPage(t *testing.T) {
	stations := make([]models.Station, 25)
	for i := range stations {
		stations[i] = models.Station{ID: string(rune('a' + i)), FreeBikes: i}
	}
	s := New(stations, madrid)
	defer s.Close()

	s.SetPage(2)
	require.Equal(t, 2, s.CurrentPage())

	s.SetColumnSort(models.SortFreeBikes)
	assert.Equal(t, 1, s.CurrentPage(), "sort change must reset pagination")
}

func TestPaginatedStations(t *testing.T) {
	stations := make([]models.Station, 25)
	for i := range stations {
		stations[i] = models.Station{ID: string(rune('a' + i)), Latitude: 40, Longitude: -3}
	}
	s := New(stations, madrid)
	defer s.Close()

	s.SetPage(3)
	page := s.PaginatedStations()

	assert.Equal(t, 3, page.Info.CurrentPage)
	assert.Equal(t, 3, page.Info.TotalPages)
	assert.Len(t, page.Items, 5)
}

func TestUpdateMapCenterDebounced(t *testing.T) {
	s := New(testStations(), madrid)
	defer s.Close()

	// A burst of centers: only the last should apply.
	s.UpdateMapCenter(models.MapCenter{Latitude: 10, Longitude: 10})
	s.UpdateMapCenter(models.MapCenter{Latitude: 20, Longitude: 20})
	near2 := models.MapCenter{Latitude: 41.42, Longitude: -3.71}
	s.UpdateMapCenter(near2)

	// Before the window elapses the original center still rules.
	assert.Equal(t, madrid, s.MapCenter())

	time.Sleep(CenterDebounceInterval + 100*time.Millisecond)

	assert.Equal(t, near2, s.MapCenter())
	assert.Equal(t, []string{"2", "1", "3"}, ids(s.SortedStations()),
		"sort order should follow the debounced center")
}

func TestFlyToStation(t *testing.T) {
	s := New(testStations(), madrid)
	defer s.Close()

	// Before a map handle registers, fly commands are dropped silently.
	s.FlyToStation("1")
	assert.Empty(t, s.SelectedStationID())

	m := &fakeMap{}
	s.RegisterMap(m)

	s.FlyToStation("1")
	assert.Equal(t, "1", s.SelectedStationID())

	calls := m.flyToCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, orb.Point{-3.70, 41.40}, calls[0].Center)
	assert.Equal(t, mapengine.StationZoom, calls[0].Zoom)
	assert.Equal(t, mapengine.AnimationDuration, calls[0].Duration)
}

func TestFlyToUnknownStationIsNoop(t *testing.T) {
	s := New(testStations(), madrid)
	defer s.Close()

	m := &fakeMap{}
	s.RegisterMap(m)

	s.FlyToStation("does-not-exist")

	assert.Empty(t, s.SelectedStationID())
	assert.Empty(t, m.flyToCalls())
}

func TestRegisterNilMapDisablesFlying(t *testing.T) {
	s := New(testStations(), madrid)
	defer s.Close()

	m := &fakeMap{}
	s.RegisterMap(m)
	s.RegisterMap(nil)

	s.FlyToStation("1")
	assert.Empty(t, m.flyToCalls())
}

func TestClearSelection(t *testing.T) {
	s := New(testStations(), madrid)
	defer s.Close()

	s.RegisterMap(&fakeMap{})
	s.FlyToStation("2")
	require.Equal(t, "2", s.SelectedStationID())

	s.ClearSelection()
	assert.Empty(t, s.SelectedStationID())
}

func TestSetStationsResetsViewState(t *testing.T) {
	s := New(testStations(), madrid)
	defer s.Close()

	s.RegisterMap(&fakeMap{})
	s.SetColumnSort(models.SortFreeBikes)
	s.SetPage(2)
	s.FlyToStation("1")

	s.SetStations([]models.Station{
		{ID: "x", Latitude: 40, Longitude: -3},
	})

	assert.Nil(t, s.ColumnSort())
	assert.Equal(t, 1, s.CurrentPage())
	assert.Empty(t, s.SelectedStationID(), "selection referencing a removed station is dropped")
}

// End-to-end scenario: distance order first, then an explicit column
// sort overrides it regardless of distance.
func TestDistanceThenColumnSortScenario(t *testing.T) {
	s := New(testStations(), madrid)
	defer s.Close()

	require.Equal(t, []string{"3", "1", "2"}, ids(s.SortedStations()))

	s.SetColumnSort(models.SortFreeBikes)
	assert.Equal(t, []string{"2", "1", "3"}, ids(s.SortedStations()))
}
