package layer

import (
	"sync"

	"rasterview/pkg/logger"
)

// Registry is the ordered collection of layer records. Mutations on
// unknown ids are silent no-ops: UI callers race with asynchronous
// removal and must never observe an error for a layer that is already
// gone.
type Registry struct {
	mu     sync.RWMutex
	layers map[string]*Layer
	order  []string // bottom to top
	active string
	log    logger.Logger
}

func NewRegistry(l logger.Logger) *Registry {
	return &Registry{
		layers: make(map[string]*Layer),
		log:    l,
	}
}

// Add registers a layer and appends it to the top of the display order.
// Adding an id that already exists is ignored; ids are never reused.
func (r *Registry) Add(l *Layer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.layers[l.ID]; exists {
		r.log.Warn("layer already registered", "id", l.ID)
		return
	}

	r.layers[l.ID] = l.Clone()
	r.order = append(r.order, l.ID)
}

// Remove deletes a layer record and its order entry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.layers[id]; !exists {
		return
	}

	delete(r.layers, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.active == id {
		r.active = ""
	}
}

// Get returns a deep copy of a layer record. Callers always see a
// snapshot of live state taken at call time.
func (r *Registry) Get(id string) (*Layer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.layers[id]
	if !ok {
		return nil, false
	}
	return l.Clone(), true
}

// Has reports whether a layer id is currently registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.layers[id]
	return ok
}

// All returns copies of every layer in display order, bottom to top.
func (r *Registry) All() []*Layer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Layer, 0, len(r.order))
	for _, id := range r.order {
		if l, ok := r.layers[id]; ok {
			out = append(out, l.Clone())
		}
	}
	return out
}

// Order returns the display-order id sequence, bottom to top.
func (r *Registry) Order() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Reorder moves the layer at from to position to. Out-of-range indices
// and equal positions are no-ops.
func (r *Registry) Reorder(from, to int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if from == to || from < 0 || to < 0 || from >= len(r.order) || to >= len(r.order) {
		return
	}

	id := r.order[from]
	r.order = append(r.order[:from], r.order[from+1:]...)
	r.order = append(r.order[:to], append([]string{id}, r.order[to:]...)...)
}

// SetActive marks the layer currently selected for editing.
func (r *Registry) SetActive(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.layers[id]; !ok {
		return
	}
	r.active = id
}

// Active returns the id of the layer selected for editing, if any.
func (r *Registry) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.active
}

// SetBand switches a grayscale layer to another band and re-seeds its
// stretch from that band's stats. Callers can override the stretch
// afterwards with SetStretch.
func (r *Registry) SetBand(id string, band int) {
	r.update(id, func(l *Layer) {
		if band < 1 || band > l.Bands {
			return
		}
		l.Band = band
		if s, ok := l.StatsForBand(band); ok {
			l.Stretch = StretchFromStats(s)
		}
	})
}

func (r *Registry) SetStretch(id string, s Stretch) {
	r.update(id, func(l *Layer) {
		l.Stretch = s
	})
}

func (r *Registry) SetDisplayMode(id string, m DisplayMode) {
	r.update(id, func(l *Layer) {
		l.DisplayMode = m
	})
}

func (r *Registry) SetRGBBands(id string, b RGBBands) {
	r.update(id, func(l *Layer) {
		l.RGBBands = b
	})
}

func (r *Registry) SetRGBStretch(id string, s RGBStretch) {
	r.update(id, func(l *Layer) {
		l.RGBStretch = s
	})
}

func (r *Registry) SetCrossLayerRGB(id string, c *CrossLayerRGB) {
	r.update(id, func(l *Layer) {
		if c == nil {
			l.CrossLayer = nil
			return
		}
		cl := *c
		l.CrossLayer = &cl
	})
}

func (r *Registry) SetVisible(id string, visible bool) {
	r.update(id, func(l *Layer) {
		l.Visible = visible
	})
}

func (r *Registry) SetOpacity(id string, opacity float64) {
	r.update(id, func(l *Layer) {
		if opacity < 0 || opacity > 1 {
			return
		}
		l.Opacity = opacity
	})
}

func (r *Registry) SetDisplayName(id string, name string) {
	r.update(id, func(l *Layer) {
		l.DisplayName = name
	})
}

// update applies fn to a layer under the write lock. Unknown ids are
// silently ignored.
func (r *Registry) update(id string, fn func(*Layer)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.layers[id]
	if !ok {
		return
	}
	fn(l)
}
