// Package mapengine defines the narrow capability interface the
// application needs from the tile-rendering engine. The sync store,
// cluster reconciler, and bounds controller depend only on this
// interface, never on a concrete rendering library.
package mapengine

import (
	"sync"
	"time"

	"github.com/paulmach/orb"
)

// Camera and animation constants shared by every camera move in the
// system, so list clicks, bounds fits, and cluster zooms all animate
// consistently.
const (
	DefaultZoom = 2.0
	DetailZoom  = 11.0
	MinZoom     = 1.0
	MaxZoom     = 18.0

	// StationZoom is the close-in zoom used when flying to a single
	// station from the list.
	StationZoom = MaxZoom - 2

	FitBoundsPadding = 50.0
	FitBoundsMaxZoom = 12.0

	AnimationDuration   = 1500 * time.Millisecond
	ClusterZoomDuration = 500 * time.Millisecond
)

// CameraOptions describes an animated camera move to a point.
type CameraOptions struct {
	Center   orb.Point
	Zoom     float64
	Duration time.Duration
}

// FitBoundsOptions describes an animated camera fit to a bounding box.
type FitBoundsOptions struct {
	Padding  float64
	MaxZoom  float64
	Duration time.Duration
}

// ScreenPoint is a pixel position within the map viewport, used for
// hit-testing rendered features.
type ScreenPoint struct {
	X float64
	Y float64
}

// Feature is one rendered feature from the engine's spatial index.
// A feature with PointCount > 0 is a cluster aggregate; its ClusterID
// can be resolved to an expansion zoom. Individual entity features
// carry the entity id in ID.
type Feature struct {
	ID         string
	Point      orb.Point
	ClusterID  int64
	PointCount int
}

// IsCluster reports whether the feature is a cluster aggregate rather
// than an individual entity marker.
func (f Feature) IsCluster() bool {
	return f.PointCount > 0
}

// Map is the capability interface over the live rendering engine.
//
// Implementations are expected to tolerate being queried before the
// style has finished loading by returning empty results; callers treat
// a not-ready engine as a transient condition and retry on the next
// triggering event.
type Map interface {
	// IsStyleLoaded reports whether the engine has a loaded style and
	// a queryable feature index.
	IsStyleLoaded() bool

	// FlyTo animates the camera along a flight curve to the target.
	FlyTo(opts CameraOptions)

	// EaseTo animates the camera linearly to the target.
	EaseTo(opts CameraOptions)

	// FitBounds fits the camera to the given box.
	FitBounds(bound orb.Bound, opts FitBoundsOptions)

	// QuerySourceFeatures returns the features of the named source
	// currently held in the engine's spatial index. When
	// excludeClusters is true, cluster aggregates are filtered out.
	// The engine may report the same feature more than once from
	// overlapping tiles; callers must deduplicate by id.
	QuerySourceFeatures(sourceID string, excludeClusters bool) []Feature

	// QueryRenderedFeatures hit-tests the given screen point against
	// the named layers.
	QueryRenderedFeatures(p ScreenPoint, layerIDs []string) []Feature

	// ClusterExpansionZoom resolves the zoom at which the given
	// cluster breaks apart.
	ClusterExpansionZoom(sourceID string, clusterID int64) (float64, error)

	// SetCursor sets the pointer cursor style over the map canvas.
	SetCursor(cursor string)
}

// HandleHolder is the single mutable reference to the live engine
// handle. The registration callback is the only writer; camera-command
// issuers read it at call time and tolerate it being absent.
type HandleHolder struct {
	mu     sync.RWMutex
	handle Map
}

// NewHandleHolder returns an empty holder.
func NewHandleHolder() *HandleHolder {
	return &HandleHolder{}
}

// Set replaces the stored handle. Passing nil disables camera commands
// until a new handle registers.
func (h *HandleHolder) Set(m Map) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handle = m
}

// Get returns the stored handle, or false when none is registered.
func (h *HandleHolder) Get() (Map, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.handle == nil {
		return nil, false
	}
	return h.handle, true
}
