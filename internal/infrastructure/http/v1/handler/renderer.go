package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rasterview/internal/infrastructure/http/v1/dto"
	"rasterview/internal/renderer"
)

// RendererCommands drains the pending command queue for the frontend
// map engine. Commands are returned in the order they were issued and
// are gone once drained.
func (h *Handler) RendererCommands(c *gin.Context) {
	cmds := h.bridge.DrainCommands()
	if cmds == nil {
		cmds = []renderer.Command{}
	}

	h.RespondWithJSON(c, http.StatusOK, "", gin.H{"commands": cmds})
}

// ZoomEnd receives the frontend's end-of-zoom-gesture notification and
// fans it out to subscribers.
func (h *Handler) ZoomEnd(c *gin.Context) {
	var req dto.ZoomEndRequest
	if !h.bindBody(c, &req) {
		return
	}

	h.bridge.ReportZoomEnd(*req.Zoom)
	h.RespondWithJSON(c, http.StatusOK, "", nil)
}
