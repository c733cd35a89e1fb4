package mapengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type nopMap struct{ Map }

func TestHandleHolder(t *testing.T) {
	h := NewHandleHolder()

	_, ok := h.Get()
	assert.False(t, ok, "an empty holder has no handle")

	m := &nopMap{}
	h.Set(m)
	got, ok := h.Get()
	assert.True(t, ok)
	assert.Same(t, m, got)

	// Setting nil unregisters.
	h.Set(nil)
	_, ok = h.Get()
	assert.False(t, ok)
}

func TestFeatureIsCluster(t *testing.T) {
	assert.True(t, Feature{ClusterID: 7, PointCount: 12}.IsCluster())
	assert.False(t, Feature{ID: "a"}.IsCluster())
}
