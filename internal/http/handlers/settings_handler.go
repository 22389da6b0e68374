// Settings HTTP handlers.
//
// REST endpoints for the global presentation and scoring settings:
//   - GET /settings   (read)
//   - PUT /settings   (partial update, shallow merge)
//
// The update payload is a patch: absent keys leave the current value
// untouched, and the colors object replaces the whole triple when present.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
	"github.com/tbourn/go-scorecard-backend/internal/state"
)

// SettingsRequest is the JSON patch payload for updating settings. Nil
// members are left as-is.
type SettingsRequest struct {
	Title       *string `json:"title,omitempty" example:"Genomics Diet Report"`
	Quote       *string `json:"quote,omitempty"`
	Description *string `json:"description,omitempty"`
	HeaderColor *string `json:"headerColor,omitempty" example:"#1f2937"`
	// HighThreshold is the inclusive lower bound of the HIGH tier (1–10).
	HighThreshold *int `json:"highThreshold,omitempty" minimum:"1" maximum:"10"`
	// Colors replaces the whole tier color triple when present.
	Colors *domain.TierColors `json:"colors,omitempty"`
}

// GetSettings godoc
// @ID          getSettings
// @Summary     Get settings
// @Description Returns the current global settings.
// @Tags        Settings
// @Produce     json
//
// @Success     200  {object} domain.Settings
// @Router      /settings [get]
func (h *Handlers) GetSettings(c *gin.Context) {
	ok(c, http.StatusOK, h.cfgSvc.Snapshot().Settings)
}

// UpdateSettings godoc
// @ID          updateSettings
// @Summary     Update settings
// @Description Shallow-merges the patch into the current settings. A highThreshold outside 1–10 is rejected wholesale.
// @Tags        Settings
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SettingsRequest  true  "Settings patch"
//
// @Success     200  {object} handlers.ConfigResponse
// @Success     202  {object} handlers.ConfigResponse "Applied locally; persistence pending"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /settings [put]
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	patch := state.SettingsPatch{
		Title:         req.Title,
		Quote:         req.Quote,
		Description:   req.Description,
		HeaderColor:   req.HeaderColor,
		HighThreshold: req.HighThreshold,
		Colors:        req.Colors,
	}
	snap, err := h.cfgSvc.UpdateSettings(c.Request.Context(), patch)
	respondMutation(c, snap, err, http.StatusOK)
}
