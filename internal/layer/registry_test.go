package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasterview/pkg/logger"
)

func newTestRegistry() *Registry {
	return NewRegistry(logger.NewNop())
}

func rasterLayer(id string) *Layer {
	return &Layer{
		ID:      id,
		Kind:    KindRaster,
		Visible: true,
		Opacity: 1,
		Path:    "/data/" + id + ".tif",
		Width:   1024,
		Height:  768,
		Bands:   4,
		BandStats: []BandStats{
			{Band: 1, Min: 0, Max: 255, Mean: 127, StdDev: 60},
			{Band: 2, Min: 10, Max: 2000, Mean: 800, StdDev: 300},
			{Band: 3, Min: 5, Max: 90, Mean: 40, StdDev: 12},
			{Band: 4, Min: 0, Max: 1, Mean: 0.5, StdDev: 0.2},
		},
		Georeferenced: true,
		DisplayMode:   ModeGrayscale,
		Band:          1,
		Stretch:       DefaultStretch(),
	}
}

func TestAddGetRemove(t *testing.T) {
	r := newTestRegistry()
	r.Add(rasterLayer("a"))

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, []string{"a"}, r.Order())

	r.Remove("a")
	_, ok = r.Get("a")
	assert.False(t, ok)
	assert.Empty(t, r.Order())
}

func TestGetReturnsSnapshot(t *testing.T) {
	r := newTestRegistry()
	r.Add(rasterLayer("a"))

	snap, _ := r.Get("a")
	snap.Band = 3
	snap.BandStats[0].Min = -1

	live, _ := r.Get("a")
	assert.Equal(t, 1, live.Band)
	assert.Equal(t, 0.0, live.BandStats[0].Min)
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := newTestRegistry()
	r.Add(rasterLayer("a"))

	r.Remove("a")
	r.Remove("a")
	r.Remove("never-existed")

	assert.Empty(t, r.Order())
}

func TestMutationsOnUnknownIDAreNoOps(t *testing.T) {
	r := newTestRegistry()

	r.SetBand("ghost", 2)
	r.SetStretch("ghost", Stretch{Min: 1, Max: 2, Gamma: 1})
	r.SetDisplayMode("ghost", ModeRGB)
	r.SetRGBBands("ghost", RGBBands{R: 1, G: 2, B: 3})
	r.SetVisible("ghost", false)
	r.SetOpacity("ghost", 0.5)
	r.Reorder(0, 5)

	assert.Empty(t, r.Order())
}

func TestSetBandReseedsStretch(t *testing.T) {
	r := newTestRegistry()
	r.Add(rasterLayer("a"))

	r.SetBand("a", 2)

	got, _ := r.Get("a")
	assert.Equal(t, 2, got.Band)
	assert.Equal(t, Stretch{Min: 10, Max: 2000, Gamma: 1}, got.Stretch)

	// A later explicit stretch wins.
	r.SetStretch("a", Stretch{Min: 100, Max: 1500, Gamma: 0.8})
	got, _ = r.Get("a")
	assert.Equal(t, Stretch{Min: 100, Max: 1500, Gamma: 0.8}, got.Stretch)
}

func TestSetBandOutOfRangeIgnored(t *testing.T) {
	r := newTestRegistry()
	r.Add(rasterLayer("a"))

	r.SetBand("a", 0)
	r.SetBand("a", 9)

	got, _ := r.Get("a")
	assert.Equal(t, 1, got.Band)
}

func TestReorder(t *testing.T) {
	r := newTestRegistry()
	r.Add(rasterLayer("a"))
	r.Add(rasterLayer("b"))
	r.Add(rasterLayer("c"))

	r.Reorder(0, 2)
	assert.Equal(t, []string{"b", "c", "a"}, r.Order())

	r.Reorder(2, 0)
	assert.Equal(t, []string{"a", "b", "c"}, r.Order())

	r.Reorder(1, 1)
	assert.Equal(t, []string{"a", "b", "c"}, r.Order())

	r.Reorder(-1, 2)
	r.Reorder(0, 3)
	assert.Equal(t, []string{"a", "b", "c"}, r.Order())
}

func TestDuplicateAddIgnored(t *testing.T) {
	r := newTestRegistry()
	r.Add(rasterLayer("a"))

	dup := rasterLayer("a")
	dup.Band = 4
	r.Add(dup)

	got, _ := r.Get("a")
	assert.Equal(t, 1, got.Band)
	assert.Equal(t, []string{"a"}, r.Order())
}

func TestActiveLayerClearsOnRemove(t *testing.T) {
	r := newTestRegistry()
	r.Add(rasterLayer("a"))

	r.SetActive("a")
	assert.Equal(t, "a", r.Active())

	r.SetActive("ghost")
	assert.Equal(t, "a", r.Active())

	r.Remove("a")
	assert.Equal(t, "", r.Active())
}

func TestOpacityClamped(t *testing.T) {
	r := newTestRegistry()
	r.Add(rasterLayer("a"))

	r.SetOpacity("a", 1.5)
	got, _ := r.Get("a")
	assert.Equal(t, 1.0, got.Opacity)

	r.SetOpacity("a", 0.25)
	got, _ = r.Get("a")
	assert.Equal(t, 0.25, got.Opacity)
}

func TestAllReturnsDisplayOrder(t *testing.T) {
	r := newTestRegistry()
	r.Add(rasterLayer("bottom"))
	r.Add(rasterLayer("middle"))
	r.Add(rasterLayer("top"))

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "bottom", all[0].ID)
	assert.Equal(t, "top", all[2].ID)
}
