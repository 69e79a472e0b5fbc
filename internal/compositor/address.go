// Package compositor turns virtual tile requests into raster engine
// compute calls, caches the results, and manages the frozen
// composition layers and zoom-driven invalidation around them.
package compositor

import (
	"fmt"
	"strconv"
	"strings"
)

const protocolPrefix = "raster-"

// TileAddress is the structured form of a virtual tile URL. Strings
// exist only at the renderer boundary.
type TileAddress struct {
	LayerID string
	Z       int
	X       int
	Y       int
}

// Scheme returns the virtual protocol name owning a layer's tiles.
func Scheme(layerID string) string {
	return protocolPrefix + layerID
}

// SourceID returns the renderer source backing a layer's tiles.
func SourceID(layerID string) string {
	return "src-" + layerID
}

// TileURLTemplate builds the templated tile URL handed to the
// renderer's source. The v query parameter is a cache buster the
// renderer treats as part of the URL identity; routing ignores it.
func TileURLTemplate(layerID string, version uint64) string {
	return fmt.Sprintf("%s://{z}/{x}/{y}?v=%d", Scheme(layerID), version)
}

// URL serializes a concrete tile address.
func (a TileAddress) URL() string {
	return fmt.Sprintf("%s://%d/%d/%d", Scheme(a.LayerID), a.Z, a.X, a.Y)
}

func (a TileAddress) String() string {
	return fmt.Sprintf("%s z=%d x=%d y=%d", a.LayerID, a.Z, a.X, a.Y)
}

// ParseTileURL parses raster-<layerID>://{z}/{x}/{y} with an optional
// query string, which is dropped before routing. Layer ids may contain
// characters that are not legal in URI schemes, so this is a plain
// string parse rather than url.Parse.
func ParseTileURL(raw string) (TileAddress, error) {
	var addr TileAddress

	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}

	sep := strings.Index(raw, "://")
	if sep < 0 {
		return addr, fmt.Errorf("malformed tile URL %q: missing scheme", raw)
	}

	scheme := raw[:sep]
	if !strings.HasPrefix(scheme, protocolPrefix) || len(scheme) == len(protocolPrefix) {
		return addr, fmt.Errorf("malformed tile URL %q: not a raster protocol", raw)
	}
	addr.LayerID = scheme[len(protocolPrefix):]

	parts := strings.Split(raw[sep+3:], "/")
	if len(parts) != 3 {
		return addr, fmt.Errorf("malformed tile URL %q: want z/x/y", raw)
	}

	var err error
	if addr.Z, err = strconv.Atoi(parts[0]); err != nil {
		return addr, fmt.Errorf("malformed tile URL %q: bad z: %w", raw, err)
	}
	if addr.X, err = strconv.Atoi(parts[1]); err != nil {
		return addr, fmt.Errorf("malformed tile URL %q: bad x: %w", raw, err)
	}
	if addr.Y, err = strconv.Atoi(parts[2]); err != nil {
		return addr, fmt.Errorf("malformed tile URL %q: bad y: %w", raw, err)
	}

	if addr.Z < 0 || addr.X < 0 || addr.Y < 0 {
		return addr, fmt.Errorf("malformed tile URL %q: negative coordinate", raw)
	}

	return addr, nil
}
