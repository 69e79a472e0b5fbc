package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rasterview/internal/compositor"
	"rasterview/internal/infrastructure/http/v1/dto"
)

// CreateComposition freezes the source layer's current same-dataset
// display settings into a new composition layer.
func (h *Handler) CreateComposition(c *gin.Context) {
	l := requestLogger(c)

	var req dto.CreateCompositionRequest
	if !h.bindBody(c, &req) {
		return
	}

	comp, err := h.compositions.CreateSingleLayerComposition(req.SourceLayerID)
	if err != nil {
		h.respondCompositionError(c, err)
		return
	}

	l.Info("composition created", "id", comp.ID, "source", req.SourceLayerID)
	h.RespondWithJSON(c, http.StatusCreated, "composition created", dto.FromLayer(comp))
}

// CreateCrossComposition freezes the source layer's cross-layer channel
// configuration into a new composition layer.
func (h *Handler) CreateCrossComposition(c *gin.Context) {
	l := requestLogger(c)

	var req dto.CreateCompositionRequest
	if !h.bindBody(c, &req) {
		return
	}

	comp, err := h.compositions.CreateCrossLayerComposition(req.SourceLayerID)
	if err != nil {
		h.respondCompositionError(c, err)
		return
	}

	l.Info("cross-layer composition created", "id", comp.ID, "source", req.SourceLayerID)
	h.RespondWithJSON(c, http.StatusCreated, "composition created", dto.FromLayer(comp))
}

// RefreshComposition re-registers the composition's protocol and busts
// its cached tiles so edits to its settings become visible.
func (h *Handler) RefreshComposition(c *gin.Context) {
	id := c.Param("id")

	if err := h.compositions.Refresh(id); err != nil {
		h.respondCompositionError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "composition refreshed", nil)
}

func (h *Handler) respondCompositionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, compositor.ErrSourceMissing),
		errors.Is(err, compositor.ErrNotComposition),
		errors.Is(err, compositor.ErrUnknownLayer):
		h.RespondWithJSON(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, compositor.ErrSourceNotRaster),
		errors.Is(err, compositor.ErrNoCrossConfig):
		h.RespondWithJSON(c, http.StatusUnprocessableEntity, err.Error(), nil)
	default:
		h.RespondWithInternalServerError(c)
	}
}
