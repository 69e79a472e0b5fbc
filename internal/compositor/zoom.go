package compositor

import (
	"math"
	"strings"
	"sync"

	"rasterview/internal/layer"
	"rasterview/internal/renderer"
	"rasterview/pkg/logger"
	"rasterview/pkg/metrics"
)

// remotePrefixes mark layers backed by streamed large-format sources.
// Those serve zoom-dependent overview levels, so their tiles go stale
// whenever the integer zoom changes.
var remotePrefixes = []string{"/vsicurl/", "http://", "https://"}

// ZoomTracker watches renderer zoom transitions and forces remote
// layers to re-request tiles at the new zoom's overview level. It
// holds no tile data itself; busted tiles simply miss the cache and
// repopulate it.
type ZoomTracker struct {
	registry   *layer.Registry
	dispatcher *Dispatcher
	renderer   renderer.Renderer
	log        logger.Logger

	mu   sync.Mutex
	last *int
	sub  renderer.Subscription
}

func NewZoomTracker(reg *layer.Registry, d *Dispatcher, rend renderer.Renderer, l logger.Logger) *ZoomTracker {
	return &ZoomTracker{
		registry:   reg,
		dispatcher: d,
		renderer:   rend,
		log:        l,
	}
}

// Start subscribes to the renderer's zoom-end events.
func (z *ZoomTracker) Start() {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.sub != nil {
		return
	}
	z.sub = z.renderer.SubscribeZoomEnd(z.handleZoomEnd)
}

// Close releases the zoom subscription.
func (z *ZoomTracker) Close() {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.sub != nil {
		z.sub.Release()
		z.sub = nil
	}
}

// LastLevel returns the most recently recorded integer zoom level.
func (z *ZoomTracker) LastLevel() (int, bool) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.last == nil {
		return 0, false
	}
	return *z.last, true
}

func (z *ZoomTracker) handleZoomEnd(zoom float64) {
	level := int(math.Floor(zoom))

	z.mu.Lock()
	crossed := z.last != nil && *z.last != level
	z.last = &level
	z.mu.Unlock()

	if !crossed {
		return
	}

	for _, l := range z.registry.All() {
		if !l.IsRasterLike() || !isRemotePath(l.Path) {
			continue
		}

		z.dispatcher.InvalidateLayer(l.ID)
		version := z.dispatcher.NextTileVersion()
		z.renderer.SetSourceTiles(SourceID(l.ID), []string{TileURLTemplate(l.ID, version)})
		metrics.ZoomInvalidations.Inc()

		z.log.Debug("remote layer invalidated after zoom change", "layer", l.ID, "level", level)
	}
}

func isRemotePath(path string) bool {
	for _, p := range remotePrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
