// Package names holds the small string transforms applied to raw
// CityBikes data before it reaches list rows and filters.
package names

import (
	"regexp"
	"sort"
	"strings"

	"cyclemap.dev/internal/models"
)

// stationPrefix matches the numeric dock-number prefixes many operators
// embed in station names: "30 - San Quintín", "04. Municipio",
// "42 Station". A bare number with no separator ("123") is not a prefix.
var stationPrefix = regexp.MustCompile(`^\d+\s*(?:[-.]\s*|\s+)`)

// CleanStationName strips a leading dock-number prefix and surrounding
// whitespace from a raw station name. Names without a numeric prefix are
// returned trimmed but otherwise unchanged.
func CleanStationName(name string) string {
	trimmed := strings.TrimSpace(name)
	return strings.TrimSpace(stationPrefix.ReplaceAllString(trimmed, ""))
}

// UniqueCountries returns the sorted set of country codes present in the
// given networks.
func UniqueCountries(networks []models.Network) []string {
	seen := make(map[string]struct{}, len(networks))
	for _, n := range networks {
		seen[n.Location.Country] = struct{}{}
	}

	countries := make([]string, 0, len(seen))
	for c := range seen {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	return countries
}
