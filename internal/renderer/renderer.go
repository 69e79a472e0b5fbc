// Package renderer is the boundary to the slippy-map engine running
// in the viewer's webview. The backend never draws; it registers tile
// protocols, manages sources and layers, and reacts to viewport
// events the frontend reports back.
package renderer

import (
	"context"
	"errors"
)

// ErrNoProtocol is returned when a tile request names a protocol that
// is not registered.
var ErrNoProtocol = errors.New("no protocol registered")

// TileHandler resolves one virtual tile URL to a raw pixel buffer.
type TileHandler func(ctx context.Context, rawURL string) ([]byte, error)

// ZoomHandler receives the renderer's zoom level after a zoom gesture ends.
type ZoomHandler func(zoom float64)

// Subscription is an event registration that must be released on teardown.
type Subscription interface {
	Release()
}

// Renderer mirrors the map engine surface the compositor drives.
type Renderer interface {
	AddProtocol(name string, h TileHandler) error
	RemoveProtocol(name string)

	AddRasterSource(sourceID string, tiles []string, bounds [4]float64)
	AddRasterLayer(layerID, sourceID string, opacity float64, visible bool)
	RemoveLayer(layerID string)
	RemoveSource(sourceID string)
	SetSourceTiles(sourceID string, tiles []string)

	SubscribeZoomEnd(h ZoomHandler) Subscription
}
