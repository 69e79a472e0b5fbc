package compositor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/paulmach/orb/maptile"

	"rasterview/internal/engine"
	"rasterview/internal/layer"
	"rasterview/internal/renderer"
	"rasterview/internal/tilecache"
	"rasterview/pkg/logger"
	"rasterview/pkg/metrics"
)

var (
	ErrUnknownLayer  = errors.New("layer is not registered")
	ErrNotRenderable = errors.New("layer does not resolve tiles")
)

// emptyTile is the zero-length success response. The renderer draws a
// blank tile for it and retries on the next viewport event.
var emptyTile = []byte{}

// Dispatcher owns the virtual tile protocols and resolves each request
// to a raster engine call. Every request re-reads the registry so
// in-flight tiles pick up whatever parameters are live at dispatch
// time, never a snapshot captured at registration.
type Dispatcher struct {
	registry *layer.Registry
	engine   engine.RasterEngine
	cache    tilecache.Store
	renderer renderer.Renderer
	log      logger.Logger

	mu        sync.Mutex
	protocols map[string]struct{}

	tileVersion atomic.Uint64
}

func NewDispatcher(reg *layer.Registry, eng engine.RasterEngine, cache tilecache.Store, rend renderer.Renderer, l logger.Logger) *Dispatcher {
	return &Dispatcher{
		registry:  reg,
		engine:    eng,
		cache:     cache,
		renderer:  rend,
		log:       l,
		protocols: make(map[string]struct{}),
	}
}

// RegisterProtocol installs the tile protocol for a layer. Registering
// a layer that already has a protocol replaces the old handler so the
// renderer never sees a duplicate registration.
func (d *Dispatcher) RegisterProtocol(layerID string) error {
	scheme := Scheme(layerID)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.protocols[scheme]; exists {
		d.renderer.RemoveProtocol(scheme)
		delete(d.protocols, scheme)
	}

	if err := d.renderer.AddProtocol(scheme, d.handleTile); err != nil {
		return fmt.Errorf("failed to register protocol %s: %w", scheme, err)
	}
	d.protocols[scheme] = struct{}{}

	d.log.Debug("protocol registered", "scheme", scheme)
	return nil
}

// DeregisterProtocol removes a layer's tile protocol. Unknown layers
// are a no-op.
func (d *Dispatcher) DeregisterProtocol(layerID string) {
	scheme := Scheme(layerID)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.protocols[scheme]; !exists {
		return
	}
	d.renderer.RemoveProtocol(scheme)
	delete(d.protocols, scheme)

	d.log.Debug("protocol deregistered", "scheme", scheme)
}

// Close deregisters every protocol this dispatcher owns.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for scheme := range d.protocols {
		d.renderer.RemoveProtocol(scheme)
		delete(d.protocols, scheme)
	}
}

// InvalidateLayer drops every cached tile for a layer.
func (d *Dispatcher) InvalidateLayer(layerID string) {
	if err := d.cache.DeleteLayer(layerID); err != nil {
		d.log.Warn("failed to invalidate layer cache", "layer", layerID, "error", err)
	}
}

// NextTileVersion returns a fresh cache-busting token for tile URL
// templates. Monotonic for the process lifetime.
func (d *Dispatcher) NextTileVersion() uint64 {
	return d.tileVersion.Add(1)
}

func (d *Dispatcher) handleTile(ctx context.Context, rawURL string) ([]byte, error) {
	addr, err := ParseTileURL(rawURL)
	if err != nil {
		return nil, err
	}
	return d.RenderTile(ctx, addr)
}

// RenderTile produces the pixel buffer for one tile address: cache
// first, then the engine call that matches the owning layer's live
// display mode.
func (d *Dispatcher) RenderTile(ctx context.Context, addr TileAddress) ([]byte, error) {
	metrics.TileRequests.Inc()

	l, ok := d.registry.Get(addr.LayerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, addr.LayerID)
	}
	if !l.IsRasterLike() {
		return nil, fmt.Errorf("%w: %s is a %s layer", ErrNotRenderable, l.ID, l.Kind)
	}

	// Tiles wholly outside the layer never need pixel work.
	if !d.tileIntersects(l, addr) {
		return emptyTile, nil
	}

	key := tilecache.Key{
		LayerID:   l.ID,
		Z:         addr.Z,
		X:         addr.X,
		Y:         addr.Y,
		Signature: signature(l),
	}

	if buf, hit, err := d.cache.Get(key); err != nil {
		d.log.Warn("tile cache read failed", "tile", addr.String(), "error", err)
	} else if hit {
		return buf, nil
	}

	buf, cacheable, err := d.computeTile(ctx, l, addr)
	if err != nil {
		d.log.Error("tile compute failed", "layer", l.ID, "z", addr.Z, "x", addr.X, "y", addr.Y, "error", err)
		return nil, err
	}

	if cacheable {
		if err := d.cache.Set(key, buf); err != nil {
			d.log.Warn("tile cache write failed", "tile", addr.String(), "error", err)
		}
	}
	return buf, nil
}

// computeTile issues the engine call for the layer's display mode.
// The second result reports whether the buffer may be cached; tiles
// degraded by a transiently missing source are not, so they recover
// as soon as the source reappears.
func (d *Dispatcher) computeTile(ctx context.Context, l *layer.Layer, addr TileAddress) ([]byte, bool, error) {
	switch l.DisplayMode {
	case layer.ModeCrossLayerRGB:
		return d.computeCrossLayerTile(ctx, l, addr)

	case layer.ModeRGB:
		if l.Bands < 3 {
			break
		}
		buf, err := d.engine.RGBTile(ctx, engine.RGBRequest{
			DatasetID: datasetID(l),
			Z:         addr.Z, X: addr.X, Y: addr.Y,
			RedBand:   l.RGBBands.R,
			GreenBand: l.RGBBands.G,
			BlueBand:  l.RGBBands.B,
			Red:       stretchParams(l.RGBStretch.R),
			Green:     stretchParams(l.RGBStretch.G),
			Blue:      stretchParams(l.RGBStretch.B),
		})
		return buf, err == nil, err

	case layer.ModeGrayscale:
		break

	default:
		return nil, false, fmt.Errorf("unhandled display mode %d for layer %s", l.DisplayMode, l.ID)
	}

	// Grayscale, and the fallback for RGB mode on datasets with fewer
	// than three bands.
	req := engine.SingleBandRequest{
		DatasetID: datasetID(l),
		Z:         addr.Z, X: addr.X, Y: addr.Y,
		Band:    l.Band,
		Stretch: stretchParams(l.Stretch),
	}

	var (
		buf []byte
		err error
	)
	if l.Georeferenced {
		buf, err = d.engine.StretchedTile(ctx, req)
	} else {
		buf, err = d.engine.PixelTile(ctx, req)
	}
	return buf, err == nil, err
}

func (d *Dispatcher) computeCrossLayerTile(ctx context.Context, l *layer.Layer, addr TileAddress) ([]byte, bool, error) {
	cfg := l.CrossLayer
	if cfg == nil {
		d.log.Warn("cross-layer mode without channel config", "layer", l.ID)
		return emptyTile, false, nil
	}

	red, rok := d.registry.Get(cfg.RLayerID)
	green, gok := d.registry.Get(cfg.GLayerID)
	blue, bok := d.registry.Get(cfg.BLayerID)
	if !rok || !gok || !bok {
		// A source was removed after this configuration was authored.
		// Transient by contract: render blank, recover when it returns.
		d.log.Debug("cross-layer source missing", "layer", l.ID,
			"red", cfg.RLayerID, "green", cfg.GLayerID, "blue", cfg.BLayerID)
		return emptyTile, false, nil
	}

	req := engine.CrossLayerRequest{
		Z: addr.Z, X: addr.X, Y: addr.Y,
		Red:   engine.ChannelSource{DatasetID: red.ID, Band: cfg.RBand, Stretch: stretchParams(l.RGBStretch.R)},
		Green: engine.ChannelSource{DatasetID: green.ID, Band: cfg.GBand, Stretch: stretchParams(l.RGBStretch.G)},
		Blue:  engine.ChannelSource{DatasetID: blue.ID, Band: cfg.BBand, Stretch: stretchParams(l.RGBStretch.B)},
	}

	var (
		buf []byte
		err error
	)
	if !red.Georeferenced || !green.Georeferenced || !blue.Georeferenced {
		buf, err = d.engine.CrossLayerPixelTile(ctx, req)
	} else {
		buf, err = d.engine.CrossLayerTile(ctx, req)
	}
	return buf, err == nil, err
}

// tileIntersects reports whether the requested tile overlaps the
// layer's bounds. An unset bound renders everything.
func (d *Dispatcher) tileIntersects(l *layer.Layer, addr TileAddress) bool {
	if l.Bounds.Min == l.Bounds.Max {
		return true
	}
	tile := maptile.New(uint32(addr.X), uint32(addr.Y), maptile.Zoom(addr.Z))
	return tile.Bound().Intersects(l.Bounds)
}

// datasetID resolves which engine dataset a layer's pixels come from.
// Single-layer compositions render from their original source dataset.
func datasetID(l *layer.Layer) string {
	if l.Kind == layer.KindComposition && !l.IsCrossLayerComposition && l.SourceLayerID != "" {
		return l.SourceLayerID
	}
	return l.ID
}

func stretchParams(s layer.Stretch) engine.StretchParams {
	return engine.StretchParams{Min: s.Min, Max: s.Max, Gamma: s.Gamma}
}

// signature folds every pixel-affecting display parameter into the
// cache key so settings changes can never serve stale tiles.
func signature(l *layer.Layer) string {
	switch l.DisplayMode {
	case layer.ModeRGB:
		if l.Bands >= 3 {
			return fmt.Sprintf("rgb:%d,%d,%d:%s:%s:%s",
				l.RGBBands.R, l.RGBBands.G, l.RGBBands.B,
				stretchSig(l.RGBStretch.R), stretchSig(l.RGBStretch.G), stretchSig(l.RGBStretch.B))
		}
	case layer.ModeCrossLayerRGB:
		if c := l.CrossLayer; c != nil {
			return fmt.Sprintf("xrgb:%s/%d,%s/%d,%s/%d:%s:%s:%s",
				c.RLayerID, c.RBand, c.GLayerID, c.GBand, c.BLayerID, c.BBand,
				stretchSig(l.RGBStretch.R), stretchSig(l.RGBStretch.G), stretchSig(l.RGBStretch.B))
		}
	}
	return fmt.Sprintf("gray:%d:%s", l.Band, stretchSig(l.Stretch))
}

func stretchSig(s layer.Stretch) string {
	return fmt.Sprintf("%g,%g,%g", s.Min, s.Max, s.Gamma)
}
