package compositor

import (
	"errors"
	"fmt"

	"rasterview/internal/layer"
	"rasterview/internal/renderer"
	"rasterview/pkg/logger"
)

var (
	ErrSourceMissing   = errors.New("composition source layer is not registered")
	ErrSourceNotRaster = errors.New("composition source must be a raster layer")
	ErrNoCrossConfig   = errors.New("source layer has no cross-layer channel config")
	ErrNotComposition  = errors.New("layer is not a composition")
)

// CompositionManager freezes a layer's current band and stretch
// configuration into a new, independently addressable layer. The
// snapshot is a deep copy: later edits to the source never reach the
// composition, and composition edits never reach the source.
type CompositionManager struct {
	registry   *layer.Registry
	dispatcher *Dispatcher
	renderer   renderer.Renderer
	log        logger.Logger
}

func NewCompositionManager(reg *layer.Registry, d *Dispatcher, rend renderer.Renderer, l logger.Logger) *CompositionManager {
	return &CompositionManager{
		registry:   reg,
		dispatcher: d,
		renderer:   rend,
		log:        l,
	}
}

// CreateSingleLayerComposition freezes the source layer's own RGB
// band/stretch settings into a composition that keeps rendering from
// the source's dataset.
func (m *CompositionManager) CreateSingleLayerComposition(sourceID string) (*layer.Layer, error) {
	src, ok := m.registry.Get(sourceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, sourceID)
	}
	if src.Kind != layer.KindRaster {
		return nil, fmt.Errorf("%w: %s is a %s layer", ErrSourceNotRaster, sourceID, src.Kind)
	}

	comp := &layer.Layer{
		ID:          layer.NewID(),
		Kind:        layer.KindComposition,
		Visible:     true,
		Opacity:     1,
		DisplayName: compositionName(src),

		Path:          src.Path,
		Width:         src.Width,
		Height:        src.Height,
		Bounds:        src.Bounds,
		Bands:         3,
		Georeferenced: src.Georeferenced,
		PixelScale:    src.PixelScale,
		PixelOffset:   src.PixelOffset,

		DisplayMode: layer.ModeRGB,
		RGBBands:    src.RGBBands,
		RGBStretch:  src.RGBStretch,

		SourceLayerID: sourceID,
	}

	if err := m.install(comp); err != nil {
		return nil, err
	}

	m.log.Info("single-layer composition created", "id", comp.ID, "source", sourceID)
	return comp, nil
}

// CreateCrossLayerComposition freezes the source layer's cross-layer
// channel wiring. The initial per-channel stretch is seeded from each
// referenced layer's band statistics, so the composition starts from a
// neutral auto-stretch rather than the source's current display state.
func (m *CompositionManager) CreateCrossLayerComposition(sourceID string) (*layer.Layer, error) {
	src, ok := m.registry.Get(sourceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, sourceID)
	}
	cfg := src.CrossLayer
	if cfg == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCrossConfig, sourceID)
	}

	stretch := layer.RGBStretch{}
	channels := []struct {
		layerID string
		band    int
		out     *layer.Stretch
	}{
		{cfg.RLayerID, cfg.RBand, &stretch.R},
		{cfg.GLayerID, cfg.GBand, &stretch.G},
		{cfg.BLayerID, cfg.BBand, &stretch.B},
	}
	for _, ch := range channels {
		ref, ok := m.registry.Get(ch.layerID)
		if !ok {
			return nil, fmt.Errorf("%w: channel source %s", ErrSourceMissing, ch.layerID)
		}
		if s, ok := ref.StatsForBand(ch.band); ok {
			*ch.out = layer.StretchFromStats(s)
		} else {
			*ch.out = layer.DefaultStretch()
		}
	}

	cfgCopy := *cfg
	comp := &layer.Layer{
		ID:          layer.NewID(),
		Kind:        layer.KindComposition,
		Visible:     true,
		Opacity:     1,
		DisplayName: compositionName(src),

		Path:          src.Path,
		Width:         src.Width,
		Height:        src.Height,
		Bounds:        src.Bounds,
		Bands:         3,
		Georeferenced: src.Georeferenced,
		PixelScale:    src.PixelScale,
		PixelOffset:   src.PixelOffset,

		DisplayMode: layer.ModeCrossLayerRGB,
		RGBStretch:  stretch,
		CrossLayer:  &cfgCopy,

		IsCrossLayerComposition: true,
		SourceLayerID:           sourceID,
	}

	if err := m.install(comp); err != nil {
		return nil, err
	}

	m.log.Info("cross-layer composition created", "id", comp.ID,
		"red", cfgCopy.RLayerID, "green", cfgCopy.GLayerID, "blue", cfgCopy.BLayerID)
	return comp, nil
}

// Refresh re-registers a composition's protocol and forces the
// renderer to request fresh tiles, picking up edited stretch values.
func (m *CompositionManager) Refresh(compositionID string) error {
	comp, ok := m.registry.Get(compositionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSourceMissing, compositionID)
	}
	if !comp.IsComposition() {
		return fmt.Errorf("%w: %s", ErrNotComposition, compositionID)
	}

	if comp.IsCrossLayerComposition {
		return m.refreshCrossLayer(comp)
	}
	return m.refreshSingleLayer(comp)
}

func (m *CompositionManager) refreshSingleLayer(comp *layer.Layer) error {
	if err := m.dispatcher.RegisterProtocol(comp.ID); err != nil {
		return err
	}
	m.bustTiles(comp.ID)

	m.log.Debug("single-layer composition refreshed", "id", comp.ID)
	return nil
}

func (m *CompositionManager) refreshCrossLayer(comp *layer.Layer) error {
	if cfg := comp.CrossLayer; cfg != nil {
		for _, id := range []string{cfg.RLayerID, cfg.GLayerID, cfg.BLayerID} {
			if !m.registry.Has(id) {
				m.log.Warn("composition channel source missing, tiles will render blank",
					"composition", comp.ID, "source", id)
			}
		}
	}

	if err := m.dispatcher.RegisterProtocol(comp.ID); err != nil {
		return err
	}
	m.bustTiles(comp.ID)

	m.log.Debug("cross-layer composition refreshed", "id", comp.ID)
	return nil
}

// install wires a new composition into the registry, the protocol
// table, and the renderer, then selects it for editing.
func (m *CompositionManager) install(comp *layer.Layer) error {
	m.registry.Add(comp)

	if err := m.dispatcher.RegisterProtocol(comp.ID); err != nil {
		m.registry.Remove(comp.ID)
		return err
	}

	version := m.dispatcher.NextTileVersion()
	m.renderer.AddRasterSource(SourceID(comp.ID), []string{TileURLTemplate(comp.ID, version)}, comp.BoundsArray())
	m.renderer.AddRasterLayer(comp.ID, SourceID(comp.ID), comp.Opacity, comp.Visible)

	m.registry.SetActive(comp.ID)
	return nil
}

func (m *CompositionManager) bustTiles(layerID string) {
	m.dispatcher.InvalidateLayer(layerID)
	version := m.dispatcher.NextTileVersion()
	m.renderer.SetSourceTiles(SourceID(layerID), []string{TileURLTemplate(layerID, version)})
}

func compositionName(src *layer.Layer) string {
	name := src.DisplayName
	if name == "" {
		name = src.Path
	}
	return name + " (composite)"
}
