// Package cluster keeps application marker state in sync with the map
// engine's clustering. The engine owns all cluster geometry; this
// package only asks it which entities are currently rendered as
// individual markers, and orchestrates the query-then-zoom sequence
// when a cluster is clicked.
package cluster

import "time"

// SourceDataDebounce bounds how often high-frequency source-data events
// can schedule a recompute. Pan/zoom/style-load triggers bypass it.
const SourceDataDebounce = 100 * time.Millisecond

// Config describes one clustered source: the engine-side clustering
// parameters and the layer ids used for cluster hit-testing.
type Config struct {
	SourceID        string
	ClusterMaxZoom  float64
	ClusterRadiusPx float64
	ClusterLayerIDs []string

	// SizeThresholds split clusters into small/medium/large styling
	// buckets by point count.
	SizeThresholds [2]int
}

// Networks is the cluster configuration for the worldwide network map.
var Networks = Config{
	SourceID:        "networks",
	ClusterMaxZoom:  14,
	ClusterRadiusPx: 50,
	ClusterLayerIDs: []string{"clusters-large", "clusters-medium", "clusters-small"},
	SizeThresholds:  [2]int{10, 100},
}

// Stations is the cluster configuration for a single network's station
// map, which is denser and keeps clustering active to a higher zoom.
var Stations = Config{
	SourceID:        "stations",
	ClusterMaxZoom:  16,
	ClusterRadiusPx: 40,
	ClusterLayerIDs: []string{"station-clusters-large", "station-clusters-medium", "station-clusters-small"},
	SizeThresholds:  [2]int{5, 20},
}
