package renderer

import (
	"context"
	"fmt"
	"sync"

	"rasterview/pkg/logger"
)

// Command is one queued instruction for the frontend map engine. The
// frontend drains the queue and applies commands in order.
type Command struct {
	Op       string     `json:"op"`
	Name     string     `json:"name,omitempty"`
	SourceID string     `json:"sourceId,omitempty"`
	LayerID  string     `json:"layerId,omitempty"`
	Tiles    []string   `json:"tiles,omitempty"`
	Bounds   [4]float64 `json:"bounds,omitempty"`
	Opacity  float64    `json:"opacity,omitempty"`
	Visible  bool       `json:"visible,omitempty"`
}

// Bridge is the production Renderer. Protocol handlers stay on this
// side of the boundary; everything else is serialized as commands the
// webview picks up. Zoom events arrive from the frontend through
// ReportZoomEnd.
type Bridge struct {
	mu        sync.Mutex
	protocols map[string]TileHandler
	commands  []Command
	zoomSubs  map[int]ZoomHandler
	nextSubID int
	log       logger.Logger
}

var _ Renderer = (*Bridge)(nil)

func NewBridge(l logger.Logger) *Bridge {
	return &Bridge{
		protocols: make(map[string]TileHandler),
		zoomSubs:  make(map[int]ZoomHandler),
		log:       l,
	}
}

func (b *Bridge) AddProtocol(name string, h TileHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.protocols[name]; exists {
		return fmt.Errorf("protocol %q already registered", name)
	}
	b.protocols[name] = h
	b.commands = append(b.commands, Command{Op: "addProtocol", Name: name})
	return nil
}

func (b *Bridge) RemoveProtocol(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.protocols[name]; !exists {
		return
	}
	delete(b.protocols, name)
	b.commands = append(b.commands, Command{Op: "removeProtocol", Name: name})
}

// ResolveTile routes a tile request from the frontend to the handler
// registered for the protocol.
func (b *Bridge) ResolveTile(ctx context.Context, name, rawURL string) ([]byte, error) {
	b.mu.Lock()
	h, ok := b.protocols[name]
	b.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoProtocol, name)
	}
	return h(ctx, rawURL)
}

func (b *Bridge) AddRasterSource(sourceID string, tiles []string, bounds [4]float64) {
	b.push(Command{Op: "addSource", SourceID: sourceID, Tiles: tiles, Bounds: bounds})
}

func (b *Bridge) AddRasterLayer(layerID, sourceID string, opacity float64, visible bool) {
	b.push(Command{Op: "addLayer", LayerID: layerID, SourceID: sourceID, Opacity: opacity, Visible: visible})
}

func (b *Bridge) RemoveLayer(layerID string) {
	b.push(Command{Op: "removeLayer", LayerID: layerID})
}

func (b *Bridge) RemoveSource(sourceID string) {
	b.push(Command{Op: "removeSource", SourceID: sourceID})
}

func (b *Bridge) SetSourceTiles(sourceID string, tiles []string) {
	b.push(Command{Op: "setTiles", SourceID: sourceID, Tiles: tiles})
}

func (b *Bridge) SubscribeZoomEnd(h ZoomHandler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSubID
	b.nextSubID++
	b.zoomSubs[id] = h

	return &bridgeSub{bridge: b, id: id}
}

// ReportZoomEnd is called by the HTTP layer when the frontend reports
// the end of a zoom gesture.
func (b *Bridge) ReportZoomEnd(zoom float64) {
	b.mu.Lock()
	subs := make([]ZoomHandler, 0, len(b.zoomSubs))
	for _, h := range b.zoomSubs {
		subs = append(subs, h)
	}
	b.mu.Unlock()

	for _, h := range subs {
		h(zoom)
	}
}

// DrainCommands returns and clears the pending command queue.
func (b *Bridge) DrainCommands() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()

	cmds := b.commands
	b.commands = nil
	return cmds
}

func (b *Bridge) push(c Command) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.commands = append(b.commands, c)
}

type bridgeSub struct {
	bridge *Bridge
	id     int
}

func (s *bridgeSub) Release() {
	s.bridge.mu.Lock()
	defer s.bridge.mu.Unlock()

	delete(s.bridge.zoomSubs, s.id)
}
