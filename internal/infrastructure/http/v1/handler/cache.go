package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rasterview/internal/tilecache"
)

type cacheStatser interface {
	Stats() tilecache.Stats
	ResetStats()
}

// CacheStats exposes the tile cache counters. Backends without local
// counters (the shared redis store) report 404.
func (h *Handler) CacheStats(c *gin.Context) {
	s, ok := h.cache.(cacheStatser)
	if !ok {
		h.RespondWithJSON(c, http.StatusNotFound, "cache backend does not track statistics", nil)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "", s.Stats())
}

// ResetCacheStats zeroes the counters without touching cached tiles.
func (h *Handler) ResetCacheStats(c *gin.Context) {
	s, ok := h.cache.(cacheStatser)
	if !ok {
		h.RespondWithJSON(c, http.StatusNotFound, "cache backend does not track statistics", nil)
		return
	}

	s.ResetStats()
	h.RespondWithJSON(c, http.StatusOK, "cache statistics reset", nil)
}

// ClearCache drops every cached tile.
func (h *Handler) ClearCache(c *gin.Context) {
	if err := h.cache.Clear(); err != nil {
		requestLogger(c).Error("failed to clear tile cache", "error", err)
		h.RespondWithInternalServerError(c)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "cache cleared", nil)
}
