package compositor

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"

	"rasterview/internal/engine"
	"rasterview/internal/layer"
	"rasterview/internal/pseudogeo"
	"rasterview/internal/renderer"
	"rasterview/pkg/logger"
)

// LayerService owns the open/close lifecycle of raster layers: engine
// dataset handles, registry records, tile protocols, and renderer
// sources are created and torn down together.
type LayerService struct {
	registry   *layer.Registry
	engine     engine.RasterEngine
	dispatcher *Dispatcher
	renderer   renderer.Renderer
	log        logger.Logger
}

func NewLayerService(reg *layer.Registry, eng engine.RasterEngine, d *Dispatcher, rend renderer.Renderer, l logger.Logger) *LayerService {
	return &LayerService{
		registry:   reg,
		engine:     eng,
		dispatcher: d,
		renderer:   rend,
		log:        l,
	}
}

// OpenRaster opens a dataset through the engine and registers it as a
// displayable layer. Non-georeferenced imagery gets a pseudo-geographic
// frame so the Mercator renderer can place it.
func (s *LayerService) OpenRaster(ctx context.Context, path string) (*layer.Layer, error) {
	meta, err := s.engine.OpenRaster(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}

	l := &layer.Layer{
		ID:      meta.ID,
		Kind:    layer.KindRaster,
		Visible: true,
		Opacity: 1,

		Path:   path,
		Width:  meta.Width,
		Height: meta.Height,
		Bounds: orb.Bound{
			Min: orb.Point{meta.Bounds[0], meta.Bounds[1]},
			Max: orb.Point{meta.Bounds[2], meta.Bounds[3]},
		},
		Bands:         meta.Bands,
		BandStats:     bandStats(meta.BandStats),
		Georeferenced: meta.Georeferenced,

		DisplayMode: layer.ModeGrayscale,
		Band:        1,
		Stretch:     layer.DefaultStretch(),
	}

	if !meta.Georeferenced {
		frame := pseudogeo.ComputeBounds(meta.Width, meta.Height, pseudogeo.DefaultScale)
		l.Bounds = frame.Bounds
		l.PixelScale = frame.PixelScale
		l.PixelOffset = frame.PixelOffset
	}

	if stats, ok := l.StatsForBand(1); ok {
		l.Stretch = layer.StretchFromStats(stats)
	}
	if meta.Bands >= 3 {
		l.RGBBands = layer.RGBBands{R: 1, G: 2, B: 3}
		l.RGBStretch = seedRGBStretch(l)
	}

	s.registry.Add(l)
	if err := s.dispatcher.RegisterProtocol(l.ID); err != nil {
		s.registry.Remove(l.ID)
		return nil, err
	}

	version := s.dispatcher.NextTileVersion()
	s.renderer.AddRasterSource(SourceID(l.ID), []string{TileURLTemplate(l.ID, version)}, l.BoundsArray())
	s.renderer.AddRasterLayer(l.ID, SourceID(l.ID), l.Opacity, l.Visible)
	s.registry.SetActive(l.ID)

	s.log.Info("raster layer opened", "id", l.ID, "path", path, "bands", l.Bands)
	return l, nil
}

// Close tears a layer down: protocol, cached tiles, renderer objects,
// registry record, and for plain raster layers the engine dataset.
// Closing an unknown id is a no-op.
func (s *LayerService) Close(ctx context.Context, id string) {
	l, ok := s.registry.Get(id)
	if !ok {
		return
	}

	s.dispatcher.DeregisterProtocol(id)
	s.dispatcher.InvalidateLayer(id)
	s.renderer.RemoveLayer(id)
	s.renderer.RemoveSource(SourceID(id))
	s.registry.Remove(id)

	// Compositions borrow their source's dataset; only plain raster
	// layers own an engine handle.
	if l.Kind == layer.KindRaster {
		if err := s.engine.CloseDataset(ctx, id); err != nil {
			s.log.Warn("failed to close engine dataset", "id", id, "error", err)
		}
	}

	s.log.Info("layer closed", "id", id, "kind", l.Kind.String())
}

func bandStats(in []engine.BandStats) []layer.BandStats {
	out := make([]layer.BandStats, len(in))
	for i, s := range in {
		out[i] = layer.BandStats{Band: s.Band, Min: s.Min, Max: s.Max, Mean: s.Mean, StdDev: s.StdDev}
	}
	return out
}

func seedRGBStretch(l *layer.Layer) layer.RGBStretch {
	stretchFor := func(band int) layer.Stretch {
		if s, ok := l.StatsForBand(band); ok {
			return layer.StretchFromStats(s)
		}
		return layer.DefaultStretch()
	}
	return layer.RGBStretch{
		R: stretchFor(l.RGBBands.R),
		G: stretchFor(l.RGBBands.G),
		B: stretchFor(l.RGBBands.B),
	}
}
