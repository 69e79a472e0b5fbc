package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasterview/pkg/logger"
)

func TestOpenRaster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/datasets", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "/data/scene.tif", body["path"])

		json.NewEncoder(w).Encode(Metadata{
			ID:            "ds-1",
			Path:          body["path"],
			Width:         2048,
			Height:        1024,
			Bands:         3,
			Georeferenced: true,
			BandStats: []BandStats{
				{Band: 1, Min: 0, Max: 4095},
			},
		})
	}))
	defer srv.Close()

	e := NewHTTPEngine(srv.URL, 5*time.Second, logger.NewNop())

	meta, err := e.OpenRaster(context.Background(), "/data/scene.tif")
	require.NoError(t, err)
	assert.Equal(t, "ds-1", meta.ID)
	assert.Equal(t, 2048, meta.Width)
	assert.True(t, meta.Georeferenced)
	require.Len(t, meta.BandStats, 1)
	assert.Equal(t, 4095.0, meta.BandStats[0].Max)
}

func TestStretchedTileReturnsRawBuffer(t *testing.T) {
	tile := []byte{0xde, 0xad, 0xbe, 0xef}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/tiles/stretch", r.URL.Path)

		var req SingleBandRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ds-1", req.DatasetID)
		assert.Equal(t, 3, req.Z)
		assert.Equal(t, 2, req.Band)
		assert.Equal(t, 0.7, req.Stretch.Gamma)

		w.Write(tile)
	}))
	defer srv.Close()

	e := NewHTTPEngine(srv.URL, 5*time.Second, logger.NewNop())

	buf, err := e.StretchedTile(context.Background(), SingleBandRequest{
		DatasetID: "ds-1",
		Z:         3, X: 1, Y: 2,
		Band:    2,
		Stretch: StretchParams{Min: 10, Max: 200, Gamma: 0.7},
	})
	require.NoError(t, err)
	assert.Equal(t, tile, buf)
}

func TestTileErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "band out of range", http.StatusBadRequest)
	}))
	defer srv.Close()

	e := NewHTTPEngine(srv.URL, 5*time.Second, logger.NewNop())

	_, err := e.RGBTile(context.Background(), RGBRequest{DatasetID: "ds-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestHistogramQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/datasets/ds-1/histogram", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("band"))
		assert.Equal(t, "64", r.URL.Query().Get("bins"))

		json.NewEncoder(w).Encode(Histogram{
			Band:     2,
			Min:      0,
			Max:      100,
			BinCount: 64,
			Counts:   make([]uint64, 64),
			BinEdges: make([]float64, 65),
		})
	}))
	defer srv.Close()

	e := NewHTTPEngine(srv.URL, 5*time.Second, logger.NewNop())

	hist, err := e.Histogram(context.Background(), "ds-1", 2, 64)
	require.NoError(t, err)
	assert.Equal(t, 64, hist.BinCount)
	assert.Len(t, hist.Counts, 64)
	assert.Len(t, hist.BinEdges, 65)
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	e := NewHTTPEngine(srv.URL, 5*time.Second, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.PixelTile(ctx, SingleBandRequest{DatasetID: "ds-1"})
	require.Error(t, err)
}
