// Draft HTTP handlers.
//
// REST endpoints for a user's in-progress score input:
//   - GET    /drafts   (read saved raw input; absent drafts yield {})
//   - PUT    /drafts   (replace wholesale; values are digit-normalized)
//   - DELETE /drafts   (erase)
//
// Drafts keep unsubmitted answers across reloads. They are raw strings, not
// validated scores; validation happens only at submit time.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DraftResponse wraps the user's saved raw score input.
type DraftResponse struct {
	Scores map[string]string `json:"scores"`
}

// GetDraft godoc
// @ID          getDraft
// @Summary     Get the saved draft
// @Description Returns the user's saved raw score input, or an empty mapping when none exists.
// @Tags        Drafts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object} handlers.DraftResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /drafts [get]
func (h *Handlers) GetDraft(c *gin.Context) {
	scores, err := h.repSvc.Draft(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeDraftFailed, err.Error())
		return
	}
	if scores == nil {
		scores = map[string]string{}
	}
	ok(c, http.StatusOK, DraftResponse{Scores: scores})
}

// PutDraft godoc
// @ID          putDraft
// @Summary     Save a draft
// @Description Replaces the user's draft wholesale. Each value is normalized to digits only before persisting; no range validation is applied.
// @Tags        Drafts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.ScoresRequest  true  "Raw scores by field id"
//
// @Success     200  {object} handlers.DraftResponse "Normalized stored values"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /drafts [put]
func (h *Handlers) PutDraft(c *gin.Context) {
	var req ScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	stored, err := h.repSvc.SaveDraft(c.Request.Context(), userID(c), req.Scores)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeDraftFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, DraftResponse{Scores: stored})
}

// DeleteDraft godoc
// @ID          deleteDraft
// @Summary     Delete the saved draft
// @Description Erases the user's persisted draft.
// @Tags        Drafts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     204  {string} string "No Content"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /drafts [delete]
func (h *Handlers) DeleteDraft(c *gin.Context) {
	if err := h.repSvc.ClearDraft(c.Request.Context(), userID(c)); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeDraftFailed, err.Error())
		return
	}
	noContent(c)
}
