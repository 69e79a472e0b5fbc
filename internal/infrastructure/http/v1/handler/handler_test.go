package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasterview/internal/compositor"
	"rasterview/internal/engine"
	v1 "rasterview/internal/infrastructure/http/v1"
	"rasterview/internal/infrastructure/http/v1/handler"
	"rasterview/internal/layer"
	"rasterview/internal/project"
	"rasterview/internal/renderer"
	"rasterview/internal/tilecache"
	"rasterview/pkg/logger"
)

// stubEngine serves canned metadata and a fixed tile buffer.
type stubEngine struct {
	meta    *engine.Metadata
	openErr error
	tile    []byte
}

var _ engine.RasterEngine = (*stubEngine)(nil)

func (s *stubEngine) OpenRaster(ctx context.Context, path string) (*engine.Metadata, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	m := *s.meta
	m.Path = path
	return &m, nil
}

func (s *stubEngine) CloseDataset(ctx context.Context, id string) error { return nil }

func (s *stubEngine) BandStats(ctx context.Context, id string, band int) (*engine.BandStats, error) {
	return &engine.BandStats{Band: band, Min: 3, Max: 972, Mean: 487, StdDev: 120}, nil
}

func (s *stubEngine) Histogram(ctx context.Context, id string, band, bins int) (*engine.Histogram, error) {
	return &engine.Histogram{Band: band, BinCount: bins}, nil
}

func (s *stubEngine) StretchedTile(ctx context.Context, req engine.SingleBandRequest) ([]byte, error) {
	return s.tile, nil
}

func (s *stubEngine) PixelTile(ctx context.Context, req engine.SingleBandRequest) ([]byte, error) {
	return s.tile, nil
}

func (s *stubEngine) RGBTile(ctx context.Context, req engine.RGBRequest) ([]byte, error) {
	return s.tile, nil
}

func (s *stubEngine) CrossLayerTile(ctx context.Context, req engine.CrossLayerRequest) ([]byte, error) {
	return s.tile, nil
}

func (s *stubEngine) CrossLayerPixelTile(ctx context.Context, req engine.CrossLayerRequest) ([]byte, error) {
	return s.tile, nil
}

type env struct {
	router   *gin.Engine
	registry *layer.Registry
	engine   *stubEngine
	bridge   *renderer.Bridge
}

var testDBSeq int

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	l := logger.NewNop()
	eng := &stubEngine{
		tile: []byte{9, 9, 9, 9},
		meta: &engine.Metadata{
			ID:     "ds1",
			Width:  1024,
			Height: 1024,
			Bands:  3,
			Bounds: [4]float64{-10, 40, 10, 50},
			BandStats: []engine.BandStats{
				{Band: 1, Min: 0, Max: 255},
				{Band: 2, Min: 0, Max: 1024},
				{Band: 3, Min: 0, Max: 2048},
			},
			Georeferenced: true,
		},
	}

	reg := layer.NewRegistry(l)
	cache := tilecache.NewLRU(100)
	bridge := renderer.NewBridge(l)
	dispatcher := compositor.NewDispatcher(reg, eng, cache, bridge, l)
	layers := compositor.NewLayerService(reg, eng, dispatcher, bridge, l)
	compositions := compositor.NewCompositionManager(reg, dispatcher, bridge, l)

	testDBSeq++
	store, err := project.NewStore(fmt.Sprintf("file:handler_test_%d.db?cache=shared&mode=memory", testDBSeq), l)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := handler.NewHandler(validator.New(), reg, layers, dispatcher, compositions, eng, cache, bridge, store)

	return &env{
		router:   v1.NewRouter(h, l, false),
		registry: reg,
		engine:   eng,
		bridge:   bridge,
	}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) openLayer(t *testing.T) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/layers/raster", gin.H{"path": "/data/scene.tif"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)
	return resp.Data.ID
}

func TestOpenRasterEndpoint(t *testing.T) {
	e := newEnv(t)

	id := e.openLayer(t)
	assert.Equal(t, "ds1", id)
	assert.True(t, e.registry.Has(id))
	assert.Equal(t, id, e.registry.Active())
}

func TestOpenRasterInvalidBody(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/layers/raster", gin.H{"path": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpenRasterEngineFailure(t *testing.T) {
	e := newEnv(t)
	e.engine.openErr = errors.New("unsupported driver")

	w := e.do(t, http.MethodPost, "/api/v1/layers/raster", gin.H{"path": "/data/bad.bin"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTileEndpoint(t *testing.T) {
	e := newEnv(t)
	id := e.openLayer(t)

	w := e.do(t, http.MethodGet, "/api/v1/tiles/raster-"+id+"/7/64/46?v=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte{9, 9, 9, 9}, w.Body.Bytes())
}

func TestTileUnknownProtocol(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/tiles/raster-ghost/3/1/2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTileBadCoordinates(t *testing.T) {
	e := newEnv(t)
	id := e.openLayer(t)

	w := e.do(t, http.MethodGet, "/api/v1/tiles/raster-"+id+"/seven/60/40", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpenVectorEndpoint(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/layers/vector", gin.H{"path": "/data/roads.geojson", "displayName": "roads"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct {
			ID   string `json:"id"`
			Kind string `json:"kind"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "vector", resp.Data.Kind)
	assert.Equal(t, resp.Data.ID, e.registry.Active())

	// Vector layers own no tile protocol.
	w = e.do(t, http.MethodGet, "/api/v1/tiles/raster-"+resp.Data.ID+"/3/1/2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLayerMutationEndpoints(t *testing.T) {
	e := newEnv(t)
	id := e.openLayer(t)

	w := e.do(t, http.MethodPut, "/api/v1/layers/"+id+"/band", gin.H{"band": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPut, "/api/v1/layers/"+id+"/opacity", gin.H{"opacity": 0.4})
	require.Equal(t, http.StatusOK, w.Code)

	l, ok := e.registry.Get(id)
	require.True(t, ok)
	assert.Equal(t, 2, l.Band)
	// Band switch re-seeds the stretch from band 2 stats.
	assert.Equal(t, 1024.0, l.Stretch.Max)
	assert.Equal(t, 0.4, l.Opacity)
}

func TestOpacityValidation(t *testing.T) {
	e := newEnv(t)
	id := e.openLayer(t)

	w := e.do(t, http.MethodPut, "/api/v1/layers/"+id+"/opacity", gin.H{"opacity": 1.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBandStatsEndpoint(t *testing.T) {
	e := newEnv(t)
	id := e.openLayer(t)

	w := e.do(t, http.MethodGet, "/api/v1/layers/"+id+"/stats?band=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Band int     `json:"band"`
			Max  float64 `json:"max"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Band)
	assert.Equal(t, 972.0, resp.Data.Max)
}

func TestCompositionEndpoint(t *testing.T) {
	e := newEnv(t)
	id := e.openLayer(t)

	w := e.do(t, http.MethodPost, "/api/v1/compositions", gin.H{"sourceLayerId": id})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct {
			ID            string `json:"id"`
			Kind          string `json:"kind"`
			SourceLayerID string `json:"sourceLayerId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "composition", resp.Data.Kind)
	assert.Equal(t, id, resp.Data.SourceLayerID)
}

func TestCompositionUnknownSource(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/compositions", gin.H{"sourceLayerId": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCacheStatsEndpoint(t *testing.T) {
	e := newEnv(t)
	id := e.openLayer(t)

	// One miss, then one hit.
	e.do(t, http.MethodGet, "/api/v1/tiles/raster-"+id+"/7/64/46", nil)
	e.do(t, http.MethodGet, "/api/v1/tiles/raster-"+id+"/7/64/46", nil)

	w := e.do(t, http.MethodGet, "/api/v1/cache/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data tilecache.Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1), resp.Data.Hits)
	assert.Equal(t, uint64(1), resp.Data.Misses)
	assert.Equal(t, 50.0, resp.Data.HitRate)
}

func TestRendererCommandsDrain(t *testing.T) {
	e := newEnv(t)
	e.openLayer(t)

	w := e.do(t, http.MethodGet, "/api/v1/renderer/commands", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Commands []renderer.Command `json:"commands"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Commands)

	// Queue is empty once drained.
	w = e.do(t, http.MethodGet, "/api/v1/renderer/commands", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.Commands)
}

func TestZoomEndEndpoint(t *testing.T) {
	e := newEnv(t)

	fired := make(chan float64, 1)
	sub := e.bridge.SubscribeZoomEnd(func(zoom float64) { fired <- zoom })
	defer sub.Release()

	w := e.do(t, http.MethodPost, "/api/v1/renderer/zoom-end", gin.H{"zoom": 8.25})
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case z := <-fired:
		assert.Equal(t, 8.25, z)
	default:
		t.Fatal("zoom event not delivered")
	}
}

func TestProjectSaveLoadEndpoints(t *testing.T) {
	e := newEnv(t)
	id := e.openLayer(t)

	w := e.do(t, http.MethodPut, "/api/v1/layers/"+id+"/opacity", gin.H{"opacity": 0.5})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/project/save", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Close everything, then restore.
	w = e.do(t, http.MethodDelete, "/api/v1/layers/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, e.registry.All())

	w = e.do(t, http.MethodPost, "/api/v1/project/load", nil)
	require.Equal(t, http.StatusOK, w.Code)

	all := e.registry.All()
	require.Len(t, all, 1)
	assert.Equal(t, "/data/scene.tif", all[0].Path)
	assert.Equal(t, 0.5, all[0].Opacity)
}
