package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rasterview/internal/infrastructure/http/v1/dto"
	"rasterview/internal/layer"
)

// OpenRaster opens a dataset and registers it as the new active layer.
func (h *Handler) OpenRaster(c *gin.Context) {
	l := requestLogger(c)

	var req dto.OpenRasterRequest
	if !h.bindBody(c, &req) {
		return
	}

	opened, err := h.layers.OpenRaster(c.Request.Context(), req.Path)
	if err != nil {
		l.Error("failed to open raster", "path", req.Path, "error", err)
		h.RespondWithJSON(c, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}

	if req.DisplayName != "" {
		h.registry.SetDisplayName(opened.ID, req.DisplayName)
		opened.DisplayName = req.DisplayName
	}

	h.RespondWithJSON(c, http.StatusCreated, "layer opened", dto.FromLayer(opened))
}

// OpenVector registers a vector layer record. Vector layers live in
// the display order but never resolve tiles; styling is the frontend's
// concern.
func (h *Handler) OpenVector(c *gin.Context) {
	var req dto.OpenVectorRequest
	if !h.bindBody(c, &req) {
		return
	}

	l := &layer.Layer{
		ID:          layer.NewID(),
		Kind:        layer.KindVector,
		Visible:     true,
		Opacity:     1,
		DisplayName: req.DisplayName,
		Path:        req.Path,
	}
	h.registry.Add(l)
	h.registry.SetActive(l.ID)

	h.RespondWithJSON(c, http.StatusCreated, "layer opened", dto.FromLayer(l))
}

// CloseLayer tears a layer down. Unknown ids succeed; the layer is
// gone either way.
func (h *Handler) CloseLayer(c *gin.Context) {
	h.layers.Close(c.Request.Context(), c.Param("id"))
	h.RespondWithJSON(c, http.StatusOK, "layer closed", nil)
}

// ListLayers returns every registered layer in display order, bottom
// to top, plus the active selection.
func (h *Handler) ListLayers(c *gin.Context) {
	all := h.registry.All()
	layers := make([]dto.LayerResponse, 0, len(all))
	for _, l := range all {
		layers = append(layers, dto.FromLayer(l))
	}

	h.RespondWithJSON(c, http.StatusOK, "", gin.H{
		"layers": layers,
		"active": h.registry.Active(),
	})
}

// GetLayer returns one layer record.
func (h *Handler) GetLayer(c *gin.Context) {
	l, ok := h.registry.Get(c.Param("id"))
	if !ok {
		h.RespondWithJSON(c, http.StatusNotFound, "layer not found", nil)
		return
	}
	h.RespondWithJSON(c, http.StatusOK, "", dto.FromLayer(l))
}

func (h *Handler) SetBand(c *gin.Context) {
	var req dto.SetBandRequest
	if !h.bindBody(c, &req) {
		return
	}

	h.registry.SetBand(c.Param("id"), req.Band)
	h.RespondWithJSON(c, http.StatusOK, "band updated", nil)
}

func (h *Handler) SetStretch(c *gin.Context) {
	var req dto.StretchBody
	if !h.bindBody(c, &req) {
		return
	}

	h.registry.SetStretch(c.Param("id"), layer.Stretch{Min: req.Min, Max: req.Max, Gamma: req.Gamma})
	h.RespondWithJSON(c, http.StatusOK, "stretch updated", nil)
}

func (h *Handler) SetDisplayMode(c *gin.Context) {
	var req dto.SetDisplayModeRequest
	if !h.bindBody(c, &req) {
		return
	}

	mode, ok := dto.ParseDisplayMode(req.Mode)
	if !ok {
		h.RespondWithJSON(c, http.StatusBadRequest, "unknown display mode", nil)
		return
	}

	h.registry.SetDisplayMode(c.Param("id"), mode)
	h.RespondWithJSON(c, http.StatusOK, "display mode updated", nil)
}

func (h *Handler) SetRGBBands(c *gin.Context) {
	var req dto.SetRGBBandsRequest
	if !h.bindBody(c, &req) {
		return
	}

	h.registry.SetRGBBands(c.Param("id"), layer.RGBBands{R: req.R, G: req.G, B: req.B})
	h.RespondWithJSON(c, http.StatusOK, "rgb bands updated", nil)
}

func (h *Handler) SetRGBStretch(c *gin.Context) {
	var req dto.SetRGBStretchRequest
	if !h.bindBody(c, &req) {
		return
	}

	h.registry.SetRGBStretch(c.Param("id"), layer.RGBStretch{
		R: layer.Stretch{Min: req.R.Min, Max: req.R.Max, Gamma: req.R.Gamma},
		G: layer.Stretch{Min: req.G.Min, Max: req.G.Max, Gamma: req.G.Gamma},
		B: layer.Stretch{Min: req.B.Min, Max: req.B.Max, Gamma: req.B.Gamma},
	})
	h.RespondWithJSON(c, http.StatusOK, "rgb stretch updated", nil)
}

func (h *Handler) SetCrossLayerRGB(c *gin.Context) {
	var req dto.SetCrossLayerRGBRequest
	if !h.bindBody(c, &req) {
		return
	}

	h.registry.SetCrossLayerRGB(c.Param("id"), &layer.CrossLayerRGB{
		RLayerID: req.RLayerID, RBand: req.RBand,
		GLayerID: req.GLayerID, GBand: req.GBand,
		BLayerID: req.BLayerID, BBand: req.BBand,
	})
	h.RespondWithJSON(c, http.StatusOK, "cross-layer channels updated", nil)
}

func (h *Handler) SetVisibility(c *gin.Context) {
	var req dto.SetVisibilityRequest
	if !h.bindBody(c, &req) {
		return
	}

	h.registry.SetVisible(c.Param("id"), *req.Visible)
	h.RespondWithJSON(c, http.StatusOK, "visibility updated", nil)
}

func (h *Handler) SetOpacity(c *gin.Context) {
	var req dto.SetOpacityRequest
	if !h.bindBody(c, &req) {
		return
	}

	h.registry.SetOpacity(c.Param("id"), *req.Opacity)
	h.RespondWithJSON(c, http.StatusOK, "opacity updated", nil)
}

func (h *Handler) Rename(c *gin.Context) {
	var req dto.RenameRequest
	if !h.bindBody(c, &req) {
		return
	}

	h.registry.SetDisplayName(c.Param("id"), req.DisplayName)
	h.RespondWithJSON(c, http.StatusOK, "layer renamed", nil)
}

func (h *Handler) SetActive(c *gin.Context) {
	h.registry.SetActive(c.Param("id"))
	h.RespondWithJSON(c, http.StatusOK, "active layer updated", nil)
}

func (h *Handler) Reorder(c *gin.Context) {
	var req dto.ReorderRequest
	if !h.bindBody(c, &req) {
		return
	}

	h.registry.Reorder(*req.From, *req.To)
	h.RespondWithJSON(c, http.StatusOK, "layers reordered", nil)
}

// BandStats proxies the engine's per-band statistics for the stretch
// panel.
func (h *Handler) BandStats(c *gin.Context) {
	l := requestLogger(c)
	id := c.Param("id")

	band, err := strconv.Atoi(c.DefaultQuery("band", "1"))
	if err != nil || band < 1 {
		h.RespondWithJSON(c, http.StatusBadRequest, "band should be a positive integer", nil)
		return
	}

	stats, err := h.engine.BandStats(c.Request.Context(), id, band)
	if err != nil {
		l.Error("failed to get band stats", "id", id, "band", band, "error", err)
		h.RespondWithJSON(c, http.StatusBadGateway, "failed to get band statistics", nil)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "", stats)
}

// Histogram proxies the engine's binned value distribution.
func (h *Handler) Histogram(c *gin.Context) {
	l := requestLogger(c)
	id := c.Param("id")

	band, err := strconv.Atoi(c.DefaultQuery("band", "1"))
	if err != nil || band < 1 {
		h.RespondWithJSON(c, http.StatusBadRequest, "band should be a positive integer", nil)
		return
	}

	bins, err := strconv.Atoi(c.DefaultQuery("bins", "256"))
	if err != nil || bins < 1 {
		h.RespondWithJSON(c, http.StatusBadRequest, "bins should be a positive integer", nil)
		return
	}

	hist, err := h.engine.Histogram(c.Request.Context(), id, band, bins)
	if err != nil {
		l.Error("failed to get histogram", "id", id, "band", band, "error", err)
		h.RespondWithJSON(c, http.StatusBadGateway, "failed to get histogram", nil)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "", hist)
}
