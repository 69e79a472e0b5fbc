// Package pseudogeo assigns an artificial geographic frame to
// non-georeferenced imagery so a Web-Mercator renderer can display it.
// The image is centered on (0,0) and scaled down so even very large
// rasters stay inside the projection's latitude limits.
package pseudogeo

import (
	"math"

	"github.com/paulmach/orb"
)

// DefaultScale is the degrees-per-pixel factor applied when an image
// is first framed.
const DefaultScale = 0.01

// MaxLat is the latitude the frame is clamped to. Web-Mercator
// renderers reject sources beyond ~85 degrees.
const MaxLat = 85.0

// Offset is the pixel-space origin shift of a framed image.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Frame is the pseudo-geographic placement of a non-georeferenced image.
type Frame struct {
	Bounds      orb.Bound `json:"-"`
	PixelScale  float64   `json:"pixelScale"`
	PixelOffset Offset    `json:"pixelOffset"`
}

// BoundsArray returns the frame bounds as [minX, minY, maxX, maxY].
func (f Frame) BoundsArray() [4]float64 {
	return [4]float64{f.Bounds.Min[0], f.Bounds.Min[1], f.Bounds.Max[0], f.Bounds.Max[1]}
}

// ComputeBounds frames a width x height image at the given scale.
//
// The bound's half-height is clamped to MaxLat but the offset keeps
// the unclamped value: PixelToMap and MapToPixel both use the offset,
// so the round trip stays exact for tall images even though the
// visible bound is cut off.
func ComputeBounds(width, height int, scale float64) Frame {
	if scale <= 0 {
		scale = DefaultScale
	}

	halfWidth := float64(width) * scale / 2
	halfHeight := float64(height) * scale / 2
	boundHalfHeight := math.Min(halfHeight, MaxLat)

	return Frame{
		Bounds: orb.Bound{
			Min: orb.Point{-halfWidth, -boundHalfHeight},
			Max: orb.Point{halfWidth, boundHalfHeight},
		},
		PixelScale:  scale,
		PixelOffset: Offset{X: halfWidth, Y: halfHeight},
	}
}

// PixelToMap converts image pixel coordinates to pseudo-geographic
// coordinates. Pixel y grows downward, latitude grows upward.
func PixelToMap(x, y float64, scale float64, offset Offset) (lng, lat float64) {
	lng = x*scale - offset.X
	lat = offset.Y - y*scale
	return lng, lat
}

// MapToPixel is the inverse of PixelToMap, rounded to whole pixels.
func MapToPixel(lng, lat float64, scale float64, offset Offset) (x, y int) {
	x = int(math.Round((lng + offset.X) / scale))
	y = int(math.Round((offset.Y - lat) / scale))
	return x, y
}
