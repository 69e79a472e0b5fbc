// Package engine is the boundary to the raster engine daemon that
// performs all pixel work: dataset metadata, band statistics,
// histograms, and tile extraction with stretch and gamma applied.
package engine

import "context"

// StretchParams maps raw band values to display intensity.
type StretchParams struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Gamma float64 `json:"gamma"`
}

// BandStats is the engine's per-band summary, computed at open time.
type BandStats struct {
	Band   int     `json:"band"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Metadata describes an opened dataset.
type Metadata struct {
	ID            string      `json:"id"`
	Path          string      `json:"path"`
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	Bands         int         `json:"bands"`
	Bounds        [4]float64  `json:"bounds"`
	NativeBounds  [4]float64  `json:"native_bounds"`
	Projection    string      `json:"projection"`
	PixelSize     [2]float64  `json:"pixel_size"`
	NoData        *float64    `json:"nodata,omitempty"`
	BandStats     []BandStats `json:"band_stats"`
	Georeferenced bool        `json:"is_georeferenced"`
}

// Histogram is the binned value distribution of one band.
type Histogram struct {
	Band     int       `json:"band"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	BinCount int       `json:"bin_count"`
	Counts   []uint64  `json:"counts"`
	BinEdges []float64 `json:"bin_edges"`
}

// ChannelSource selects one band of one dataset for a cross-layer
// composite channel.
type ChannelSource struct {
	DatasetID string        `json:"dataset_id"`
	Band      int           `json:"band"`
	Stretch   StretchParams `json:"stretch"`
}

// SingleBandRequest asks for one stretched band as a grayscale tile.
type SingleBandRequest struct {
	DatasetID string        `json:"dataset_id"`
	Z         int           `json:"z"`
	X         int           `json:"x"`
	Y         int           `json:"y"`
	Band      int           `json:"band"`
	Stretch   StretchParams `json:"stretch"`
}

// RGBRequest asks for a three-band composite from a single dataset.
type RGBRequest struct {
	DatasetID string        `json:"dataset_id"`
	Z         int           `json:"z"`
	X         int           `json:"x"`
	Y         int           `json:"y"`
	RedBand   int           `json:"red_band"`
	GreenBand int           `json:"green_band"`
	BlueBand  int           `json:"blue_band"`
	Red       StretchParams `json:"red"`
	Green     StretchParams `json:"green"`
	Blue      StretchParams `json:"blue"`
}

// CrossLayerRequest asks for a composite whose channels come from
// three different datasets.
type CrossLayerRequest struct {
	Z     int           `json:"z"`
	X     int           `json:"x"`
	Y     int           `json:"y"`
	Red   ChannelSource `json:"red"`
	Green ChannelSource `json:"green"`
	Blue  ChannelSource `json:"blue"`
}

// RasterEngine is the raster compute contract. Geo variants address
// tiles in Web Mercator; pixel variants address the pseudo-geographic
// tiling used for non-georeferenced imagery. Tile payloads are raw
// RGBA buffers the renderer decodes.
type RasterEngine interface {
	OpenRaster(ctx context.Context, path string) (*Metadata, error)
	CloseDataset(ctx context.Context, id string) error

	BandStats(ctx context.Context, id string, band int) (*BandStats, error)
	Histogram(ctx context.Context, id string, band, bins int) (*Histogram, error)

	StretchedTile(ctx context.Context, req SingleBandRequest) ([]byte, error)
	PixelTile(ctx context.Context, req SingleBandRequest) ([]byte, error)
	RGBTile(ctx context.Context, req RGBRequest) ([]byte, error)
	CrossLayerTile(ctx context.Context, req CrossLayerRequest) ([]byte, error)
	CrossLayerPixelTile(ctx context.Context, req CrossLayerRequest) ([]byte, error)
}
