// Package dto carries the request and response bodies of the v1 API.
package dto

import (
	"rasterview/internal/layer"
)

type OpenRasterRequest struct {
	Path        string `json:"path" validate:"required"`
	DisplayName string `json:"displayName"`
}

type OpenVectorRequest struct {
	Path        string `json:"path" validate:"required"`
	DisplayName string `json:"displayName"`
}

type SetBandRequest struct {
	Band int `json:"band" validate:"required,gte=1"`
}

type StretchBody struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Gamma float64 `json:"gamma" validate:"gt=0"`
}

type SetDisplayModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=grayscale rgb crossLayerRgb"`
}

type SetRGBBandsRequest struct {
	R int `json:"r" validate:"required,gte=1"`
	G int `json:"g" validate:"required,gte=1"`
	B int `json:"b" validate:"required,gte=1"`
}

type SetRGBStretchRequest struct {
	R StretchBody `json:"r"`
	G StretchBody `json:"g"`
	B StretchBody `json:"b"`
}

type SetCrossLayerRGBRequest struct {
	RLayerID string `json:"rLayerId" validate:"required"`
	RBand    int    `json:"rBand" validate:"required,gte=1"`
	GLayerID string `json:"gLayerId" validate:"required"`
	GBand    int    `json:"gBand" validate:"required,gte=1"`
	BLayerID string `json:"bLayerId" validate:"required"`
	BBand    int    `json:"bBand" validate:"required,gte=1"`
}

type SetVisibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

type SetOpacityRequest struct {
	Opacity *float64 `json:"opacity" validate:"required,gte=0,lte=1"`
}

type RenameRequest struct {
	DisplayName string `json:"displayName" validate:"required"`
}

type ReorderRequest struct {
	From *int `json:"from" validate:"required,gte=0"`
	To   *int `json:"to" validate:"required,gte=0"`
}

type CreateCompositionRequest struct {
	SourceLayerID string `json:"sourceLayerId" validate:"required"`
}

type ZoomEndRequest struct {
	Zoom *float64 `json:"zoom" validate:"required"`
}

// LayerResponse is the wire shape of one registry record.
type LayerResponse struct {
	ID            string            `json:"id"`
	Kind          string            `json:"kind"`
	DisplayName   string            `json:"displayName,omitempty"`
	Path          string            `json:"path,omitempty"`
	Visible       bool              `json:"visible"`
	Opacity       float64           `json:"opacity"`
	Width         int               `json:"width,omitempty"`
	Height        int               `json:"height,omitempty"`
	Bands         int               `json:"bands,omitempty"`
	Bounds        [4]float64        `json:"bounds"`
	Georeferenced bool              `json:"isGeoreferenced"`
	BandStats     []layer.BandStats `json:"bandStats,omitempty"`

	DisplayMode string               `json:"displayMode"`
	Band        int                  `json:"band,omitempty"`
	Stretch     layer.Stretch        `json:"stretch"`
	RGBBands    layer.RGBBands       `json:"rgbBands"`
	RGBStretch  layer.RGBStretch     `json:"rgbStretch"`
	CrossLayer  *layer.CrossLayerRGB `json:"crossLayerRgb,omitempty"`

	IsCrossLayerComposition bool   `json:"isCrossLayerComposition,omitempty"`
	SourceLayerID           string `json:"sourceLayerId,omitempty"`
}

func FromLayer(l *layer.Layer) LayerResponse {
	return LayerResponse{
		ID:            l.ID,
		Kind:          l.Kind.String(),
		DisplayName:   l.DisplayName,
		Path:          l.Path,
		Visible:       l.Visible,
		Opacity:       l.Opacity,
		Width:         l.Width,
		Height:        l.Height,
		Bands:         l.Bands,
		Bounds:        l.BoundsArray(),
		Georeferenced: l.Georeferenced,
		BandStats:     l.BandStats,

		DisplayMode: l.DisplayMode.String(),
		Band:        l.Band,
		Stretch:     l.Stretch,
		RGBBands:    l.RGBBands,
		RGBStretch:  l.RGBStretch,
		CrossLayer:  l.CrossLayer,

		IsCrossLayerComposition: l.IsCrossLayerComposition,
		SourceLayerID:           l.SourceLayerID,
	}
}

// ParseDisplayMode maps a wire mode name to the registry enum.
func ParseDisplayMode(s string) (layer.DisplayMode, bool) {
	switch s {
	case "grayscale":
		return layer.ModeGrayscale, true
	case "rgb":
		return layer.ModeRGB, true
	case "crossLayerRgb":
		return layer.ModeCrossLayerRGB, true
	default:
		return 0, false
	}
}
