package cluster

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"cyclemap.dev/internal/models"
)

// NetworksToGeoJSON builds the clustered point source for the
// worldwide network map. Feature ids carry the network id so rendered
// features can be joined back to application state.
func NetworksToGeoJSON(networks []models.Network) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, n := range networks {
		f := geojson.NewFeature(orb.Point{n.Location.Longitude, n.Location.Latitude})
		f.ID = n.ID
		f.Properties = geojson.Properties{
			"id":      n.ID,
			"name":    n.Name,
			"city":    n.Location.City,
			"country": n.Location.Country,
		}
		fc.Append(f)
	}
	return fc
}

// StationsToGeoJSON builds the clustered point source for a single
// network's station map.
func StationsToGeoJSON(stations []models.Station) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range stations {
		f := geojson.NewFeature(orb.Point{s.Longitude, s.Latitude})
		f.ID = s.ID
		props := geojson.Properties{
			"id":         s.ID,
			"name":       s.Name,
			"free_bikes": s.FreeBikes,
		}
		if s.EmptySlots != nil {
			props["empty_slots"] = *s.EmptySlots
		}
		f.Properties = props
		fc.Append(f)
	}
	return fc
}
