package renderer

import (
	"context"
	"sync"
)

// Fake is an in-memory Renderer for tests. It records every call and
// lets tests invoke registered protocol handlers and fire zoom events
// directly.
type Fake struct {
	mu        sync.Mutex
	Protocols map[string]TileHandler
	Sources   map[string][]string
	Layers    map[string]string // layer id -> source id
	Removed   []string          // removed protocol names, in order
	zoomSubs  map[int]ZoomHandler
	nextSubID int
}

var _ Renderer = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{
		Protocols: make(map[string]TileHandler),
		Sources:   make(map[string][]string),
		Layers:    make(map[string]string),
		zoomSubs:  make(map[int]ZoomHandler),
	}
}

func (f *Fake) AddProtocol(name string, h TileHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Protocols[name] = h
	return nil
}

func (f *Fake) RemoveProtocol(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.Protocols, name)
	f.Removed = append(f.Removed, name)
}

func (f *Fake) AddRasterSource(sourceID string, tiles []string, bounds [4]float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Sources[sourceID] = tiles
}

func (f *Fake) AddRasterLayer(layerID, sourceID string, opacity float64, visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Layers[layerID] = sourceID
}

func (f *Fake) RemoveLayer(layerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.Layers, layerID)
}

func (f *Fake) RemoveSource(sourceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.Sources, sourceID)
}

func (f *Fake) SetSourceTiles(sourceID string, tiles []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Sources[sourceID] = tiles
}

func (f *Fake) SubscribeZoomEnd(h ZoomHandler) Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextSubID
	f.nextSubID++
	f.zoomSubs[id] = h
	return &fakeSub{fake: f, id: id}
}

// FireZoomEnd invokes every live zoom subscription.
func (f *Fake) FireZoomEnd(zoom float64) {
	f.mu.Lock()
	subs := make([]ZoomHandler, 0, len(f.zoomSubs))
	for _, h := range f.zoomSubs {
		subs = append(subs, h)
	}
	f.mu.Unlock()

	for _, h := range subs {
		h(zoom)
	}
}

// CallProtocol invokes a registered protocol handler by name.
func (f *Fake) CallProtocol(ctx context.Context, name, rawURL string) ([]byte, error) {
	f.mu.Lock()
	h, ok := f.Protocols[name]
	f.mu.Unlock()

	if !ok {
		return nil, ErrNoProtocol
	}
	return h(ctx, rawURL)
}

// SubscriberCount reports live zoom subscriptions.
func (f *Fake) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.zoomSubs)
}

type fakeSub struct {
	fake *Fake
	id   int
}

func (s *fakeSub) Release() {
	s.fake.mu.Lock()
	defer s.fake.mu.Unlock()

	delete(s.fake.zoomSubs, s.id)
}
