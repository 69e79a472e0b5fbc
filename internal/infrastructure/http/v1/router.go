package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rasterview/internal/infrastructure/http/v1/handler"
	"rasterview/pkg/logger"
	"rasterview/pkg/telemetry"
)

func NewRouter(handler *handler.Handler, l logger.Logger, telemetryEnabled bool) *gin.Engine {
	r := gin.Default()

	r.Use(gin.Recovery())

	if telemetryEnabled {
		r.Use(telemetry.GinMiddleware("rasterview"))
	}

	r.Use(ginZapLogger(l))

	api := r.Group("/api")
	v1 := api.Group("/v1")

	v1.GET("/healthz", handler.Healthz)

	v1.GET("/tiles/:scheme/:z/:x/:y", handler.Tile)

	v1.GET("/layers", handler.ListLayers)
	v1.POST("/layers/raster", handler.OpenRaster)
	v1.POST("/layers/vector", handler.OpenVector)
	v1.GET("/layers/:id", handler.GetLayer)
	v1.DELETE("/layers/:id", handler.CloseLayer)
	v1.PUT("/layers/:id/band", handler.SetBand)
	v1.PUT("/layers/:id/stretch", handler.SetStretch)
	v1.PUT("/layers/:id/display-mode", handler.SetDisplayMode)
	v1.PUT("/layers/:id/rgb-bands", handler.SetRGBBands)
	v1.PUT("/layers/:id/rgb-stretch", handler.SetRGBStretch)
	v1.PUT("/layers/:id/cross-rgb", handler.SetCrossLayerRGB)
	v1.PUT("/layers/:id/visibility", handler.SetVisibility)
	v1.PUT("/layers/:id/opacity", handler.SetOpacity)
	v1.PUT("/layers/:id/name", handler.Rename)
	v1.PUT("/layers/:id/active", handler.SetActive)
	v1.POST("/layers/reorder", handler.Reorder)
	v1.GET("/layers/:id/stats", handler.BandStats)
	v1.GET("/layers/:id/histogram", handler.Histogram)

	v1.POST("/compositions", handler.CreateComposition)
	v1.POST("/compositions/cross", handler.CreateCrossComposition)
	v1.POST("/compositions/:id/refresh", handler.RefreshComposition)

	v1.GET("/cache/stats", handler.CacheStats)
	v1.POST("/cache/stats/reset", handler.ResetCacheStats)
	v1.POST("/cache/clear", handler.ClearCache)

	v1.GET("/renderer/commands", handler.RendererCommands)
	v1.POST("/renderer/zoom-end", handler.ZoomEnd)

	v1.POST("/project/save", handler.SaveProject)
	v1.POST("/project/load", handler.LoadProject)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("logger", l)

		start := time.Now()

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		l.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}
