package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"rasterview/internal/compositor"
	"rasterview/internal/engine"
	"rasterview/internal/layer"
	"rasterview/internal/project"
	"rasterview/internal/renderer"
	"rasterview/internal/tilecache"
	"rasterview/pkg/logger"
)

const (
	internalServerErrorText = "the server encountered an error and could not process your request"
	invalidRequestBodyText  = "invalid request body"
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Handler struct {
	validate     *validator.Validate
	registry     *layer.Registry
	layers       *compositor.LayerService
	dispatcher   *compositor.Dispatcher
	compositions *compositor.CompositionManager
	engine       engine.RasterEngine
	cache        tilecache.Store
	bridge       *renderer.Bridge
	project      *project.Store
}

func NewHandler(
	v *validator.Validate,
	reg *layer.Registry,
	layers *compositor.LayerService,
	d *compositor.Dispatcher,
	cm *compositor.CompositionManager,
	eng engine.RasterEngine,
	cache tilecache.Store,
	bridge *renderer.Bridge,
	proj *project.Store,
) *Handler {
	return &Handler{
		validate:     v,
		registry:     reg,
		layers:       layers,
		dispatcher:   d,
		compositions: cm,
		engine:       eng,
		cache:        cache,
		bridge:       bridge,
		project:      proj,
	}
}

func (h *Handler) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusInternalServerError, internalServerErrorText, nil)
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	success := code < 400

	r := response{
		Success: success,
		Message: message,
		Data:    data,
	}

	c.JSON(code, r)
}

// bindBody decodes and validates a JSON request body. On failure it
// writes the 400 response and reports false.
func (h *Handler) bindBody(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, invalidRequestBodyText, nil)
		return false
	}
	if err := h.validate.Struct(out); err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, err.Error(), nil)
		return false
	}
	return true
}

func requestLogger(c *gin.Context) logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(logger.Logger); ok {
			return l
		}
	}
	return logger.NewNop()
}
