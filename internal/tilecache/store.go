package tilecache

import "fmt"

// Key identifies one rendered tile. Signature folds in every display
// parameter that affects pixel output (mode, bands, stretch, gamma) so
// a stale tile can never be served after a settings change.
type Key struct {
	LayerID   string
	Z         int
	X         int
	Y         int
	Signature string
}

func (k Key) String() string {
	return fmt.Sprintf("tile:%s:%d:%d:%d:%s", k.LayerID, k.Z, k.X, k.Y, k.Signature)
}

// Store is the tile store contract. The in-process LRU is the default
// backend; a Redis backend can be selected for a shared cache between
// viewer instances.
type Store interface {
	Get(Key) ([]byte, bool, error)
	Set(Key, []byte) error
	Delete(Key) (bool, error)
	// DeleteLayer drops every entry belonging to a layer.
	DeleteLayer(layerID string) error
	Clear() error
}
