// Package layer holds the viewer's layer records and their display
// parameters. The registry is the single source of truth the tile
// dispatcher reads from at request time.
package layer

import (
	"github.com/paulmach/orb"
	"github.com/teris-io/shortid"

	"rasterview/internal/pseudogeo"
)

// Kind discriminates the layer union.
type Kind int

const (
	KindRaster Kind = iota
	KindVector
	KindComposition
)

func (k Kind) String() string {
	switch k {
	case KindRaster:
		return "raster"
	case KindVector:
		return "vector"
	case KindComposition:
		return "composition"
	default:
		return "unknown"
	}
}

// DisplayMode selects how a raster layer's bands are rendered.
type DisplayMode int

const (
	ModeGrayscale DisplayMode = iota
	ModeRGB
	ModeCrossLayerRGB
)

func (m DisplayMode) String() string {
	switch m {
	case ModeGrayscale:
		return "grayscale"
	case ModeRGB:
		return "rgb"
	case ModeCrossLayerRGB:
		return "crossLayerRgb"
	default:
		return "unknown"
	}
}

// BandStats is per-band value statistics supplied by the engine at open time.
type BandStats struct {
	Band   int     `json:"band"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Stretch is a min/max/gamma transform mapping raw band values to
// display intensity.
type Stretch struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Gamma float64 `json:"gamma"`
}

// DefaultStretch covers 8-bit data with no gamma correction.
func DefaultStretch() Stretch {
	return Stretch{Min: 0, Max: 255, Gamma: 1}
}

// StretchFromStats seeds a stretch from a band's observed range.
func StretchFromStats(s BandStats) Stretch {
	return Stretch{Min: s.Min, Max: s.Max, Gamma: 1}
}

// RGBBands assigns dataset bands to display channels. 1-indexed.
type RGBBands struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// RGBStretch is the per-channel stretch of an RGB composite.
type RGBStretch struct {
	R Stretch `json:"r"`
	G Stretch `json:"g"`
	B Stretch `json:"b"`
}

// CrossLayerRGB sources each display channel from a single band of a
// different layer.
type CrossLayerRGB struct {
	RLayerID string `json:"rLayerId"`
	RBand    int    `json:"rBand"`
	GLayerID string `json:"gLayerId"`
	GBand    int    `json:"gBand"`
	BLayerID string `json:"bLayerId"`
	BBand    int    `json:"bBand"`
}

// Layer is one registry record. Raster-only fields are zero for
// vector layers; composition layers carry the raster fields plus the
// frozen composition wiring.
type Layer struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	Visible     bool   `json:"visible"`
	Opacity     float64 `json:"opacity"`
	DisplayName string  `json:"displayName,omitempty"`

	Path          string      `json:"path"`
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	Bounds        orb.Bound   `json:"-"`
	Bands         int         `json:"bands"`
	BandStats     []BandStats `json:"band_stats,omitempty"`
	Georeferenced bool        `json:"is_georeferenced"`

	DisplayMode DisplayMode    `json:"displayMode"`
	Band        int            `json:"band"`
	Stretch     Stretch        `json:"stretch"`
	RGBBands    RGBBands       `json:"rgbBands"`
	RGBStretch  RGBStretch     `json:"rgbStretch"`
	CrossLayer  *CrossLayerRGB `json:"crossLayerRgb,omitempty"`

	// Pseudo-geo placement for non-georeferenced imagery.
	PixelScale  float64          `json:"pixelScale,omitempty"`
	PixelOffset pseudogeo.Offset `json:"pixelOffset,omitempty"`

	IsCrossLayerComposition bool   `json:"isCrossLayerComposition,omitempty"`
	SourceLayerID           string `json:"sourceLayerId,omitempty"`
}

// IsComposition reports whether the layer is a frozen composition.
func (l *Layer) IsComposition() bool {
	return l.Kind == KindComposition
}

// IsRasterLike reports whether the layer resolves tile requests.
func (l *Layer) IsRasterLike() bool {
	return l.Kind == KindRaster || l.Kind == KindComposition
}

// StatsForBand returns the stats entry for a 1-indexed band.
func (l *Layer) StatsForBand(band int) (BandStats, bool) {
	for _, s := range l.BandStats {
		if s.Band == band {
			return s, true
		}
	}
	return BandStats{}, false
}

// Clone returns a deep copy. Registry reads hand out clones so display
// parameters are always resolved from live state, never from a shared
// mutable record.
func (l *Layer) Clone() *Layer {
	c := *l
	if l.BandStats != nil {
		c.BandStats = make([]BandStats, len(l.BandStats))
		copy(c.BandStats, l.BandStats)
	}
	if l.CrossLayer != nil {
		cl := *l.CrossLayer
		c.CrossLayer = &cl
	}
	return &c
}

// BoundsArray returns bounds as [minX, minY, maxX, maxY].
func (l *Layer) BoundsArray() [4]float64 {
	return [4]float64{l.Bounds.Min[0], l.Bounds.Min[1], l.Bounds.Max[0], l.Bounds.Max[1]}
}

// NewID generates a registry-unique layer id.
func NewID() string {
	return shortid.MustGenerate()
}
