// Category HTTP handlers.
//
// REST endpoints for the category list:
//   - GET    /categories        (list, display order)
//   - POST   /categories        (create)
//   - PUT    /categories/order  (reorder, permutation of ids)
//   - PUT    /categories/{id}   (rename, cascades to fields)
//   - DELETE /categories/{id}   (delete, uncategorizes fields)
//
// Categories are addressed by their store-assigned id so a rename never
// changes the save target; the cascade to referencing fields happens inside
// the same service operation and is never observable half-applied.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
)

// CategoryRequest is the JSON payload for creating or renaming a category.
type CategoryRequest struct {
	// Name is the category display name (1–255 chars after trimming).
	Name string `json:"name" binding:"required,min=1,max=255" example:"Vitamins"`
}

// ListCategories godoc
// @ID          listCategories
// @Summary     List categories
// @Description Returns all categories in display order.
// @Tags        Categories
// @Produce     json
//
// @Success     200  {array}  domain.Category
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	snap := h.cfgSvc.Snapshot()
	categories := snap.Categories
	if categories == nil {
		categories = []domain.Category{}
	}
	ok(c, http.StatusOK, categories)
}

// CreateCategory godoc
// @ID          createCategory
// @Summary     Add a category
// @Description Creates a category with a server-assigned id. Names are unique after whitespace trimming and Unicode normalization.
// @Tags        Categories
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CategoryRequest  true  "Category payload"
//
// @Success     201  {object} handlers.ConfigResponse
// @Success     202  {object} handlers.ConfigResponse "Applied locally; persistence pending"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     409  {object} handlers.ErrorResponse "Category already exists"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /categories [post]
func (h *Handlers) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required (1–255 chars)")
		return
	}
	snap, err := h.cfgSvc.AddCategory(c.Request.Context(), req.Name)
	respondMutation(c, snap, err, http.StatusCreated)
}

// ReorderCategories godoc
// @ID          reorderCategories
// @Summary     Reorder categories
// @Description Replaces the category display order wholesale. The id list must be a permutation of the current categories.
// @Tags        Categories
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ReorderRequest  true  "New order"
//
// @Success     200  {object} handlers.ConfigResponse
// @Success     202  {object} handlers.ConfigResponse "Applied locally; persistence pending"
// @Failure     400  {object} handlers.ErrorResponse "Not a permutation"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /categories/order [put]
func (h *Handlers) ReorderCategories(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	snap, err := h.cfgSvc.ReorderCategories(c.Request.Context(), req.IDs)
	respondMutation(c, snap, err, http.StatusOK)
}

// RenameCategory godoc
// @ID          renameCategory
// @Summary     Rename a category
// @Description Renames a category. Every field referencing the old name follows in the same operation.
// @Tags        Categories
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                    true  "Category ID (UUID)"  format(uuid)
// @Param       body  body  handlers.CategoryRequest  true  "New name"
//
// @Success     200  {object} handlers.ConfigResponse
// @Success     202  {object} handlers.ConfigResponse "Applied locally; persistence pending"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Category not found"
// @Failure     409  {object} handlers.ErrorResponse "Category already exists"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /categories/{id} [put]
func (h *Handlers) RenameCategory(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "category id must be a UUID")
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required (1–255 chars)")
		return
	}

	snap, err := h.cfgSvc.RenameCategory(c.Request.Context(), id, req.Name)
	respondMutation(c, snap, err, http.StatusOK)
}

// DeleteCategory godoc
// @ID          deleteCategory
// @Summary     Delete a category
// @Description Removes a category. Fields referencing it become uncategorized; no field is deleted.
// @Tags        Categories
// @Produce     json
//
// @Param       id  path  string  true  "Category ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.ConfigResponse
// @Success     202  {object} handlers.ConfigResponse "Applied locally; persistence pending"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Category not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /categories/{id} [delete]
func (h *Handlers) DeleteCategory(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "category id must be a UUID")
		return
	}
	snap, err := h.cfgSvc.DeleteCategory(c.Request.Context(), id)
	respondMutation(c, snap, err, http.StatusOK)
}
