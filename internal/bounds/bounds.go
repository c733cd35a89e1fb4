// Package bounds moves the camera to frame the visible entity set:
// fly to a lone entity, fit the bounding box of several.
package bounds

import (
	"sort"
	"strings"
	"sync"

	"github.com/paulmach/orb"

	"cyclemap.dev/internal/geo"
	"cyclemap.dev/internal/mapengine"
)

// Controller fits the camera whenever the identity of the visible
// entity set changes. Identity is the order-independent set of ids, not
// the slice reference: re-supplying the same entities in a new slice
// (or a new order) must not move the camera again.
type Controller[T any] struct {
	mu sync.Mutex

	handle *mapengine.HandleHolder
	id     func(T) string
	point  func(T) orb.Point

	lastSignature string
}

// NewController creates a Controller. id extracts the stable entity
// identifier; point its longitude/latitude coordinate.
func NewController[T any](handle *mapengine.HandleHolder, id func(T) string, point func(T) orb.Point) *Controller[T] {
	return &Controller[T]{
		handle: handle,
		id:     id,
		point:  point,
	}
}

// Update reacts to a possibly-changed entity set. Zero entities or a
// missing engine handle is a no-op; in the missing-handle case the
// signature is left untouched so the fit happens once a handle
// registers and the set is supplied again.
func (c *Controller[T]) Update(entities []T) {
	if len(entities) == 0 {
		return
	}

	m, ok := c.handle.Get()
	if !ok {
		return
	}

	sig := c.signature(entities)

	c.mu.Lock()
	if sig == c.lastSignature {
		c.mu.Unlock()
		return
	}
	c.lastSignature = sig
	c.mu.Unlock()

	if len(entities) == 1 {
		m.FlyTo(mapengine.CameraOptions{
			Center:   c.point(entities[0]),
			Zoom:     mapengine.DetailZoom,
			Duration: mapengine.AnimationDuration,
		})
		return
	}

	points := make([]orb.Point, len(entities))
	for i, e := range entities {
		points[i] = c.point(e)
	}
	bound, ok := geo.BoundingBoxOf(points)
	if !ok {
		return
	}

	m.FitBounds(bound, mapengine.FitBoundsOptions{
		Padding:  mapengine.FitBoundsPadding,
		MaxZoom:  mapengine.FitBoundsMaxZoom,
		Duration: mapengine.AnimationDuration,
	})
}

// Reset forgets the last fitted set, forcing the next Update to move
// the camera. Used when the map view itself is recreated.
func (c *Controller[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSignature = ""
}

// signature builds a stable identifier for the entity set: the sorted
// ids joined with commas.
func (c *Controller[T]) signature(entities []T) string {
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = c.id(e)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}
