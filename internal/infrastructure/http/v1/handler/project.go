package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rasterview/internal/infrastructure/http/v1/dto"
	"rasterview/internal/layer"
	"rasterview/internal/project"
)

// SaveProject persists the current session: open layers, display order,
// per-layer display settings, and the active selection.
func (h *Handler) SaveProject(c *gin.Context) {
	l := requestLogger(c)

	states := project.Snapshot(h.registry)
	if err := h.project.Save(c.Request.Context(), states); err != nil {
		l.Error("failed to save project", "error", err)
		h.RespondWithInternalServerError(c)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "project saved", gin.H{"layers": len(states)})
}

// LoadProject restores a saved session. Raster datasets are reopened
// from their stored paths and get fresh ids; compositions reference
// live dataset handles and are not rebuilt. Layers whose files are no
// longer readable are skipped rather than failing the whole load.
func (h *Handler) LoadProject(c *gin.Context) {
	l := requestLogger(c)
	ctx := c.Request.Context()

	states, err := h.project.Load(ctx)
	if err != nil {
		l.Error("failed to load project", "error", err)
		h.RespondWithInternalServerError(c)
		return
	}

	var (
		restored []dto.LayerResponse
		skipped  int
		activeID string
	)

	for _, st := range states {
		if st.Kind != layer.KindRaster.String() || st.Path == "" {
			skipped++
			continue
		}

		opened, err := h.layers.OpenRaster(ctx, st.Path)
		if err != nil {
			l.Warn("skipping unreadable project layer", "path", st.Path, "error", err)
			skipped++
			continue
		}

		h.registry.SetDisplayName(opened.ID, st.DisplayName)
		h.registry.SetVisible(opened.ID, st.Visible)
		h.registry.SetOpacity(opened.ID, st.Opacity)
		if mode, ok := dto.ParseDisplayMode(st.DisplayMode); ok {
			h.registry.SetDisplayMode(opened.ID, mode)
		}
		// Band first, then the saved stretch on top of the re-seeded one.
		h.registry.SetBand(opened.ID, st.Band)
		h.registry.SetStretch(opened.ID, layer.Stretch{
			Min:   st.StretchMin,
			Max:   st.StretchMax,
			Gamma: st.StretchGamma,
		})

		if st.Active {
			activeID = opened.ID
		}

		if cur, ok := h.registry.Get(opened.ID); ok {
			restored = append(restored, dto.FromLayer(cur))
		}
	}

	if activeID != "" {
		h.registry.SetActive(activeID)
	}

	l.Info("project loaded", "restored", len(restored), "skipped", skipped)
	h.RespondWithJSON(c, http.StatusOK, "project loaded", gin.H{
		"layers":  restored,
		"skipped": skipped,
		"active":  h.registry.Active(),
	})
}
