package cluster

import (
	"sync"

	"cyclemap.dev/internal/mapengine"
	"cyclemap.dev/internal/metrics"
	"cyclemap.dev/internal/sched"
)

// Reconciler derives, from the engine's live feature index, the subset
// of entities currently rendered as standalone markers (not folded into
// a cluster). The result is a cache over the engine's state, never a
// parallel implementation of its clustering: every recompute goes back
// to the engine as the source of truth.
//
// T is the application entity type (models.Network or models.Station);
// id extracts its stable identifier, matching the feature ids in the
// GeoJSON source.
type Reconciler[T any] struct {
	mu sync.Mutex

	cfg    Config
	handle *mapengine.HandleHolder
	id     func(T) string

	lookup      map[string]T
	unclustered []T

	frame    *sched.FrameScheduler
	debounce *sched.Debouncer
}

// NewReconciler creates a Reconciler for one clustered source. The
// handle holder may be empty at construction; recomputes silently skip
// until an engine registers and its style loads.
func NewReconciler[T any](cfg Config, handle *mapengine.HandleHolder, id func(T) string) *Reconciler[T] {
	return &Reconciler[T]{
		cfg:      cfg,
		handle:   handle,
		id:       id,
		lookup:   make(map[string]T),
		frame:    sched.NewFrameScheduler(sched.DefaultFrameInterval),
		debounce: sched.NewDebouncer(SourceDataDebounce),
	}
}

// SetEntities rebuilds the id lookup from a new entity snapshot and
// schedules a recompute. The lookup is replaced, not mutated, so a
// recompute running against the old snapshot stays consistent.
func (r *Reconciler[T]) SetEntities(entities []T) {
	lookup := make(map[string]T, len(entities))
	for _, e := range entities {
		lookup[r.id(e)] = e
	}

	r.mu.Lock()
	r.lookup = lookup
	r.mu.Unlock()

	r.scheduleNow()
}

// Unclustered returns the entities last observed as individual markers.
func (r *Reconciler[T]) Unclustered() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.unclustered...)
}

// OnMoveEnd handles the end of a pan gesture.
func (r *Reconciler[T]) OnMoveEnd() { r.scheduleNow() }

// OnZoomEnd handles the end of a zoom gesture.
func (r *Reconciler[T]) OnZoomEnd() { r.scheduleNow() }

// OnStyleLoad handles a style (re)load, after which the feature index
// is rebuilt from scratch.
func (r *Reconciler[T]) OnStyleLoad() { r.scheduleNow() }

// OnSourceData handles source-data events. These fire in bursts while
// tiles stream in, so they are debounced before entering the shared
// frame scheduler.
func (r *Reconciler[T]) OnSourceData() {
	r.debounce.Trigger(func() {
		r.frame.Schedule(r.recompute)
	})
}

// scheduleNow cancels any pending debounced trigger and recomputes on
// the next frame.
func (r *Reconciler[T]) scheduleNow() {
	r.debounce.Cancel()
	r.frame.Schedule(r.recompute)
}

// Close stops the schedulers; pending recomputes are dropped.
func (r *Reconciler[T]) Close() {
	r.debounce.Stop()
	r.frame.Stop()
}

// recompute queries the engine for currently rendered non-cluster
// features, joins them back to entities through the lookup, and
// publishes the deduplicated result. An engine that is absent or whose
// style has not loaded yet is a transient condition: skip silently and
// rely on the next triggering event.
func (r *Reconciler[T]) recompute() {
	m, ok := r.handle.Get()
	if !ok || !m.IsStyleLoaded() {
		return
	}

	features := m.QuerySourceFeatures(r.cfg.SourceID, true)

	r.mu.Lock()
	lookup := r.lookup
	r.mu.Unlock()

	// The engine may report the same feature from overlapping tiles;
	// keep the first occurrence of each id.
	seen := make(map[string]struct{}, len(features))
	unclustered := make([]T, 0, len(features))
	for _, f := range features {
		if f.IsCluster() || f.ID == "" {
			continue
		}
		if _, dup := seen[f.ID]; dup {
			continue
		}
		entity, known := lookup[f.ID]
		if !known {
			continue
		}
		seen[f.ID] = struct{}{}
		unclustered = append(unclustered, entity)
	}

	r.mu.Lock()
	r.unclustered = unclustered
	r.mu.Unlock()

	metrics.ClusterRecomputes.WithLabelValues(r.cfg.SourceID).Inc()
	metrics.UnclusteredMarkers.WithLabelValues(r.cfg.SourceID).Set(float64(len(unclustered)))
}

// HandleHoverEnter switches the pointer cursor on while the cursor is
// over a cluster layer.
func (r *Reconciler[T]) HandleHoverEnter() {
	if m, ok := r.handle.Get(); ok {
		m.SetCursor("pointer")
	}
}

// HandleHoverLeave restores the default cursor.
func (r *Reconciler[T]) HandleHoverLeave() {
	if m, ok := r.handle.Get(); ok {
		m.SetCursor("")
	}
}

// HandleClick resolves a click at the given screen point against the
// cluster layers. A miss means the click belongs to an individual
// marker (or the map background) and is ignored here. A hit eases the
// camera to the cluster's expansion zoom, centered on the cluster.
func (r *Reconciler[T]) HandleClick(p mapengine.ScreenPoint) {
	m, ok := r.handle.Get()
	if !ok || !m.IsStyleLoaded() {
		return
	}

	features := m.QueryRenderedFeatures(p, r.cfg.ClusterLayerIDs)
	if len(features) == 0 {
		return
	}

	feature := features[0]
	if !feature.IsCluster() {
		return
	}

	zoom, err := m.ClusterExpansionZoom(r.cfg.SourceID, feature.ClusterID)
	if err != nil {
		return
	}

	m.EaseTo(mapengine.CameraOptions{
		Center:   feature.Point,
		Zoom:     zoom,
		Duration: mapengine.ClusterZoomDuration,
	})
}
