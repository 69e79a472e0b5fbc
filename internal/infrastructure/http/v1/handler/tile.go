package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rasterview/internal/compositor"
	"rasterview/internal/renderer"
)

// Tile serves one virtual-protocol tile. The scheme path segment is the
// protocol name the frontend registered, e.g. raster-<layerId>; the v
// query parameter is a cache buster and is ignored here.
func (h *Handler) Tile(c *gin.Context) {
	l := requestLogger(c)

	scheme := c.Param("scheme")
	strZ := c.Param("z")
	strX := c.Param("x")
	strY := c.Param("y")

	z, err := strconv.Atoi(strZ)
	if err != nil {
		l.Warn("invalid z parameter", "z", strZ, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "z should be integer",
		})
		return
	}

	x, err := strconv.Atoi(strX)
	if err != nil {
		l.Warn("invalid x parameter", "x", strX, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "x should be integer",
		})
		return
	}

	y, err := strconv.Atoi(strY)
	if err != nil {
		l.Warn("invalid y parameter", "y", strY, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "y should be integer",
		})
		return
	}

	if z < 0 || x < 0 || y < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "tile coordinates should be non-negative",
		})
		return
	}

	rawURL := scheme + "://" + strZ + "/" + strX + "/" + strY

	data, err := h.bridge.ResolveTile(c.Request.Context(), scheme, rawURL)
	if err != nil {
		switch {
		case errors.Is(err, renderer.ErrNoProtocol),
			errors.Is(err, compositor.ErrUnknownLayer),
			errors.Is(err, compositor.ErrNotRenderable):
			c.JSON(http.StatusNotFound, gin.H{
				"error": err.Error(),
			})
		default:
			l.Error("failed to resolve tile", "scheme", scheme, "z", z, "x", x, "y", y, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "failed to resolve tile",
			})
		}
		return
	}

	// Raw RGBA buffer; the frontend decodes it into the map canvas.
	c.Data(http.StatusOK, "application/octet-stream", data)
}
