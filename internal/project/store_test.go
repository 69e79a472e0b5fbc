package project

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasterview/internal/layer"
	"rasterview/pkg/logger"
)

var dsnSeq int

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsnSeq++
	dsn := fmt.Sprintf("file:project_test_%d.db?cache=shared&mode=memory", dsnSeq)
	s, err := NewStore(dsn, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	states := []LayerState{
		{
			ID: "a", Kind: "raster", DisplayName: "scene", Path: "/data/a.tif",
			Visible: true, Opacity: 0.8, DisplayMode: "grayscale", Band: 2,
			StretchMin: 10, StretchMax: 250, StretchGamma: 1.2,
		},
		{
			ID: "b", Kind: "raster", DisplayName: "overlay", Path: "/data/b.tif",
			Visible: false, Opacity: 1, DisplayMode: "rgb", Band: 1,
			StretchMin: 0, StretchMax: 4096, StretchGamma: 1,
			Active: true,
		},
	}

	require.NoError(t, s.Save(ctx, states))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, states, got)
}

func TestSaveReplacesPreviousSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []LayerState{
		{ID: "old", Kind: "raster", DisplayMode: "grayscale", Band: 1, Opacity: 1},
	}))
	require.NoError(t, s.Save(ctx, []LayerState{
		{ID: "new", Kind: "raster", DisplayMode: "grayscale", Band: 1, Opacity: 1},
	}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestLoadEmptyProject(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSnapshotFollowsDisplayOrder(t *testing.T) {
	reg := layer.NewRegistry(logger.NewNop())
	for _, id := range []string{"a", "b", "c"} {
		reg.Add(&layer.Layer{
			ID:      id,
			Kind:    layer.KindRaster,
			Visible: true,
			Opacity: 1,
			Path:    "/data/" + id + ".tif",
			Band:    1,
			Stretch: layer.DefaultStretch(),
		})
	}
	reg.Reorder(0, 2) // a, b, c -> b, c, a
	reg.SetActive("c")

	states := Snapshot(reg)
	require.Len(t, states, 3)
	assert.Equal(t, "b", states[0].ID)
	assert.Equal(t, "c", states[1].ID)
	assert.Equal(t, "a", states[2].ID)
	assert.True(t, states[1].Active)
	assert.False(t, states[0].Active)
	assert.Equal(t, "raster", states[0].Kind)
}
