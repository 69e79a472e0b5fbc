package pseudogeo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeBoundsSquare(t *testing.T) {
	f := ComputeBounds(1000, 1000, 0.01)

	assert.Equal(t, [4]float64{-5, -5, 5, 5}, f.BoundsArray())
	assert.Equal(t, 0.01, f.PixelScale)
	assert.Equal(t, Offset{X: 5, Y: 5}, f.PixelOffset)
}

func TestComputeBoundsClampsTallImages(t *testing.T) {
	f := ComputeBounds(1000, 20000, 0.01)

	// Height is clamped to the Mercator limit, width is not.
	assert.Equal(t, [4]float64{-5, -85, 5, 85}, f.BoundsArray())

	// The offset keeps the unclamped half-height so inverse mapping
	// still lands on the right pixel row.
	assert.Equal(t, Offset{X: 5, Y: 100}, f.PixelOffset)
}

func TestComputeBoundsDefaultScale(t *testing.T) {
	f := ComputeBounds(200, 100, 0)

	assert.Equal(t, DefaultScale, f.PixelScale)
	assert.Equal(t, [4]float64{-1, -0.5, 1, 0.5}, f.BoundsArray())
}

func TestPixelToMapCorners(t *testing.T) {
	f := ComputeBounds(1000, 1000, 0.01)

	lng, lat := PixelToMap(0, 0, f.PixelScale, f.PixelOffset)
	assert.Equal(t, -5.0, lng)
	assert.Equal(t, 5.0, lat)

	lng, lat = PixelToMap(1000, 1000, f.PixelScale, f.PixelOffset)
	assert.Equal(t, 5.0, lng)
	assert.Equal(t, -5.0, lat)

	lng, lat = PixelToMap(500, 500, f.PixelScale, f.PixelOffset)
	assert.Equal(t, 0.0, lng)
	assert.Equal(t, 0.0, lat)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		scale         float64
	}{
		{"square", 1000, 1000, 0.01},
		{"wide", 4000, 500, 0.01},
		{"tall clamped", 1000, 20000, 0.01},
		{"coarse scale", 512, 512, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ComputeBounds(tt.width, tt.height, tt.scale)

			for _, px := range [][2]int{
				{0, 0},
				{tt.width, tt.height},
				{tt.width / 2, tt.height / 2},
				{1, tt.height - 1},
				{tt.width - 3, 7},
			} {
				lng, lat := PixelToMap(float64(px[0]), float64(px[1]), f.PixelScale, f.PixelOffset)
				x, y := MapToPixel(lng, lat, f.PixelScale, f.PixelOffset)
				assert.Equal(t, px[0], x)
				assert.Equal(t, px[1], y)
			}
		})
	}
}

func TestMapToPixelRounds(t *testing.T) {
	f := ComputeBounds(1000, 1000, 0.01)

	// A point slightly off a pixel center rounds to the nearest pixel.
	x, y := MapToPixel(-4.996, 4.996, f.PixelScale, f.PixelOffset)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
}
