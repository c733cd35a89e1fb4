package models

// Location is the registered home position of a bike-sharing network.
type Location struct {
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Network represents one bike-sharing network as returned by the
// CityBikes list endpoint. The ID is stable across refreshes; every
// other field may change between fetches.
type Network struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Href     string   `json:"href"`
	Location Location `json:"location"`
	Company  []string `json:"company"`
	GbfsHref string   `json:"gbfs_href,omitempty"`
}

// NetworkDetail is a Network plus its stations, as returned by the
// CityBikes detail endpoint.
type NetworkDetail struct {
	Network
	Stations []Station `json:"stations"`
	Ebikes   bool      `json:"ebikes,omitempty"`
}

// Station is a single dock within a network. EmptySlots is a pointer
// because many networks do not report slot counts; nil means unknown,
// which is distinct from zero.
type Station struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Latitude   float64                `json:"latitude"`
	Longitude  float64                `json:"longitude"`
	FreeBikes  int                    `json:"free_bikes"`
	EmptySlots *int                   `json:"empty_slots"`
	Timestamp  string                 `json:"timestamp"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// NetworkFilters narrows a network list. Country matches the location
// country code exactly; Search matches network name or operating
// company, case-insensitively.
type NetworkFilters struct {
	Country string
	Search  string
}

// SortField names a sortable station column.
type SortField string

const (
	SortFreeBikes  SortField = "free_bikes"
	SortEmptySlots SortField = "empty_slots"
)

// SortDirection is the direction of a column sort.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// StationSort is an explicit column sort. A nil *StationSort means the
// list falls back to distance-to-viewport-center ordering.
type StationSort struct {
	Field     SortField
	Direction SortDirection
}

// MapCenter is the map camera's current focal point.
type MapCenter struct {
	Latitude  float64
	Longitude float64
}
