// Field HTTP handlers.
//
// This file defines the handler wiring shared by the whole API surface and
// the REST endpoints for the field catalog:
//   - GET    /fields          (list, catalog order, ETag support)
//   - POST   /fields          (create)
//   - PUT    /fields/{id}     (update, id change allowed)
//   - DELETE /fields/{id}     (delete)
//   - PUT    /fields/order    (reorder wholesale)
//   - GET    /fields/search   (ranked catalog search)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results (including the optimistic-save outcome,
// reported as 202 Accepted) into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
	"github.com/tbourn/go-scorecard-backend/internal/report"
	"github.com/tbourn/go-scorecard-backend/internal/repo"
	"github.com/tbourn/go-scorecard-backend/internal/search"
	"github.com/tbourn/go-scorecard-backend/internal/services"
	"github.com/tbourn/go-scorecard-backend/internal/state"
	"github.com/tbourn/go-scorecard-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ConfigService defines the configuration operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context for cancellation and timeouts.
type ConfigService interface {
	// Snapshot returns the current configuration value.
	Snapshot() state.Snapshot
	// Status reports the snapshot version and entities pending persistence.
	Status() (version uint64, dirty []string)
	// AddField appends a field; a blank id is replaced with a generated one.
	AddField(ctx context.Context, f domain.Field) (state.Snapshot, error)
	// UpdateField replaces the field with the given id wholesale.
	UpdateField(ctx context.Context, id string, f domain.Field) (state.Snapshot, error)
	// DeleteField removes one field, preserving the remaining order.
	DeleteField(ctx context.Context, id string) (state.Snapshot, error)
	// ReorderFields replaces the catalog order with a permutation of ids.
	ReorderFields(ctx context.Context, ids []string) (state.Snapshot, error)
	// AddCategory creates a category with a generated id.
	AddCategory(ctx context.Context, name string) (state.Snapshot, error)
	// RenameCategory renames a category, cascading to referencing fields.
	RenameCategory(ctx context.Context, id, newName string) (state.Snapshot, error)
	// DeleteCategory removes a category, uncategorizing referencing fields.
	DeleteCategory(ctx context.Context, id string) (state.Snapshot, error)
	// ReorderCategories replaces the category order with a permutation of ids.
	ReorderCategories(ctx context.Context, ids []string) (state.Snapshot, error)
	// UpdateSettings shallow-merges a partial settings update.
	UpdateSettings(ctx context.Context, p state.SettingsPatch) (state.Snapshot, error)
	// Import replaces the whole configuration from an interchange document.
	Import(ctx context.Context, doc state.Document) (state.Snapshot, error)
	// Export renders the current configuration as an interchange document.
	Export() state.Document
}

// ReportService defines score submission and draft operations consumed by
// HTTP handlers.
type ReportService interface {
	// Generate validates scores and returns the report, or the full
	// per-field error map alongside services.ErrInvalidScores.
	Generate(ctx context.Context, userID string, scores map[string]string) (report.Report, map[string]string, error)
	// Preview runs the tiering engine without validation or draft writes.
	Preview(scores map[string]string) report.Report
	// Draft returns the user's saved raw input, or an empty map.
	Draft(ctx context.Context, userID string) (map[string]string, error)
	// SaveDraft normalizes and persists the raw input wholesale.
	SaveDraft(ctx context.Context, userID string, scores map[string]string) (map[string]string, error)
	// ClearDraft erases the persisted draft.
	ClearDraft(ctx context.Context, userID string) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for configuration, reports, and drafts.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	cfgSvc ConfigService
	repSvc ReportService
}

// New constructs a Handlers instance bound to the given services.
func New(cfgSvc ConfigService, repSvc ReportService) *Handlers {
	return &Handlers{cfgSvc: cfgSvc, repSvc: repSvc}
}

// userID extracts the user id from Gin context (set by upstream middleware).
// If absent, it falls back to the "X-User-ID" header (tests use it), and
// finally to "demo-user".
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// FieldRequest is the JSON payload for creating or updating a field.
type FieldRequest struct {
	// ID is the stable field identifier; optional on create.
	ID string `json:"id" example:"vitamin_d"`
	// Label is the display name (1–255 chars).
	Label string `json:"label" binding:"required,min=1,max=255" example:"Vitamin D"`
	// Category is the referenced category name, or "" for uncategorized.
	Category string `json:"category" example:"Vitamins"`
	Min      *int   `json:"min,omitempty"`
	Max      *int   `json:"max,omitempty"`
	// High / Normal / Low carry the tier recommendation texts.
	High   string `json:"high"`
	Normal string `json:"normal"`
	Low    string `json:"low"`
}

// field converts the request payload into the domain model.
func (r FieldRequest) field() domain.Field {
	return domain.Field{
		ID:       strings.TrimSpace(r.ID),
		Label:    strings.TrimSpace(r.Label),
		Category: strings.TrimSpace(r.Category),
		Min:      r.Min,
		Max:      r.Max,
		High:     r.High,
		Normal:   r.Normal,
		Low:      r.Low,
	}
}

// ReorderRequest is the JSON payload for replacing the catalog order.
type ReorderRequest struct {
	// IDs must be a permutation of the current field ids.
	IDs []string `json:"ids" binding:"required"`
}

// ConfigResponse is the full configuration view returned by mutating
// endpoints and GET /config.
type ConfigResponse struct {
	Version    uint64            `json:"version"`
	Fields     []domain.Field    `json:"fields"`
	Categories []domain.Category `json:"categories"`
	Settings   domain.Settings   `json:"settings"`
}

// SearchResponse wraps ranked catalog search results.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

//
// Helpers
//

// configBody renders a snapshot as the standard configuration response.
func configBody(snap state.Snapshot) ConfigResponse {
	fields := snap.Fields
	if fields == nil {
		fields = []domain.Field{}
	}
	categories := snap.Categories
	if categories == nil {
		categories = []domain.Category{}
	}
	return ConfigResponse{
		Version:    snap.Version,
		Fields:     fields,
		Categories: categories,
		Settings:   snap.Settings,
	}
}

// respondMutation maps a configuration mutation outcome onto HTTP. The
// optimistic-save contract makes one outcome special: when the change
// applied locally but the store save failed (services.ErrStoreSave), the
// mutation is reported as 202 Accepted with the updated configuration, and
// /config/status exposes the pending entities.
func respondMutation(c *gin.Context, snap state.Snapshot, err error, status int) {
	if err == nil {
		ok(c, status, configBody(snap))
		return
	}
	if errors.Is(err, services.ErrStoreSave) {
		ok(c, http.StatusAccepted, configBody(snap))
		return
	}
	switch {
	case errors.Is(err, services.ErrFieldNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "field not found")
	case errors.Is(err, services.ErrCategoryNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "category not found")
	case errors.Is(err, state.ErrDuplicateFieldID),
		errors.Is(err, state.ErrDuplicateCategory):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, state.ErrEmptyFieldID),
		errors.Is(err, state.ErrEmptyCategoryName),
		errors.Is(err, state.ErrNotPermutation),
		errors.Is(err, state.ErrThresholdOutOfRange),
		errors.Is(err, state.ErrIndexOutOfRange):
		fail(c, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// configETag writes a weak ETag derived from store aggregates and reports
// whether the request can be answered with 304. Best effort: any stats
// error skips the conditional path.
func (h *Handlers) configETag(c *gin.Context) (done bool) {
	var db *gorm.DB
	if svc, ok := h.cfgSvc.(*services.ConfigService); ok {
		db = svc.DB
	}
	if db == nil {
		return false
	}
	fields, categories, maxTS, err := repo.ConfigStats(c.Request.Context(), db)
	if err != nil {
		return false
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.Unix()
	}
	etag := fmt.Sprintf(`W/"config:%d:%d:%d"`, fields, categories, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

//
// Handlers
//

// ListFields godoc
// @ID          listFields
// @Summary     List fields
// @Description Returns the field catalog in display order. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Fields
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"config:3:2:0\")
//
// @Success     200  {array}  domain.Field
// @Header      200  {string} ETag "Weak ETag for current catalog"
// @Success     304  {string} string "Not Modified"
// @Router      /fields [get]
func (h *Handlers) ListFields(c *gin.Context) {
	if h.configETag(c) {
		return
	}
	snap := h.cfgSvc.Snapshot()
	fields := snap.Fields
	if fields == nil {
		fields = []domain.Field{}
	}
	ok(c, http.StatusOK, fields)
}

// CreateField godoc
// @ID          createField
// @Summary     Add a field
// @Description Appends a field to the catalog. A blank id is replaced with a generated one.
// @Tags        Fields
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.FieldRequest  true  "Field payload"
//
// @Success     201  {object} handlers.ConfigResponse
// @Success     202  {object} handlers.ConfigResponse "Applied locally; persistence pending"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     409  {object} handlers.ErrorResponse "Duplicate field id"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /fields [post]
func (h *Handlers) CreateField(c *gin.Context) {
	var req FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	snap, err := h.cfgSvc.AddField(c.Request.Context(), req.field())
	respondMutation(c, snap, err, http.StatusCreated)
}

// UpdateField godoc
// @ID          updateField
// @Summary     Update a field
// @Description Replaces the field wholesale. The payload may carry a different id, which renames the field.
// @Tags        Fields
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                 true  "Current field id"  example(vitamin_d)
// @Param       body  body  handlers.FieldRequest  true  "Replacement field"
//
// @Success     200  {object} handlers.ConfigResponse
// @Success     202  {object} handlers.ConfigResponse "Applied locally; persistence pending"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Field not found"
// @Failure     409  {object} handlers.ErrorResponse "Duplicate field id"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /fields/{id} [put]
func (h *Handlers) UpdateField(c *gin.Context) {
	id := c.Param("id")
	var req FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	f := req.field()
	if f.ID == "" {
		f.ID = id
	}
	snap, err := h.cfgSvc.UpdateField(c.Request.Context(), id, f)
	respondMutation(c, snap, err, http.StatusOK)
}

// DeleteField godoc
// @ID          deleteField
// @Summary     Delete a field
// @Description Removes a field from the catalog; the remaining order is preserved.
// @Tags        Fields
// @Produce     json
//
// @Param       id  path  string  true  "Field id"  example(vitamin_d)
//
// @Success     200  {object} handlers.ConfigResponse
// @Success     202  {object} handlers.ConfigResponse "Applied locally; persistence pending"
// @Failure     404  {object} handlers.ErrorResponse "Field not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /fields/{id} [delete]
func (h *Handlers) DeleteField(c *gin.Context) {
	snap, err := h.cfgSvc.DeleteField(c.Request.Context(), c.Param("id"))
	respondMutation(c, snap, err, http.StatusOK)
}

// ReorderFields godoc
// @ID          reorderFields
// @Summary     Reorder fields
// @Description Replaces the catalog order wholesale. The id list must be a permutation of the current fields.
// @Tags        Fields
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ReorderRequest  true  "New order"
//
// @Success     200  {object} handlers.ConfigResponse
// @Success     202  {object} handlers.ConfigResponse "Applied locally; persistence pending"
// @Failure     400  {object} handlers.ErrorResponse "Not a permutation"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /fields/order [put]
func (h *Handlers) ReorderFields(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	snap, err := h.cfgSvc.ReorderFields(c.Request.Context(), req.IDs)
	respondMutation(c, snap, err, http.StatusOK)
}

// SearchFields godoc
// @ID          searchFields
// @Summary     Search the field catalog
// @Description Ranks fields against the query by token overlap across label, category, and recommendation texts.
// @Tags        Fields
// @Produce     json
//
// @Param       q  query  string  true  "Search query"      example(vitamin)
// @Param       k  query  int     false "Max results"       minimum(1) default(5)
//
// @Success     200  {object} handlers.SearchResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing query"
// @Router      /fields/search [get]
func (h *Handlers) SearchFields(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}
	k := utils.AtoiDefault(c.Query("k"), 5)

	snap := h.cfgSvc.Snapshot()
	results := search.NewCatalogIndex(snap.Fields).TopK(q, k)
	if results == nil {
		results = []search.Result{}
	}
	ok(c, http.StatusOK, SearchResponse{Query: q, Results: results})
}
