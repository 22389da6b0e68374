// Configuration document HTTP handlers.
//
// REST endpoints for the aggregate view and the interchange document:
//   - GET  /config          (full configuration view)
//   - GET  /config/status   (snapshot version + entities pending persistence)
//   - GET  /config/export   (interchange document, as a download)
//   - POST /config/import   (wholesale replace from an interchange document)
//
// Import is all-or-nothing: a document missing any of fields, categories,
// title, or colors is rejected wholesale, and a store failure leaves both
// memory and store untouched. Successful imports record the request's
// Idempotency-Key (when present) so a client retry cannot replace the
// configuration twice.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-scorecard-backend/internal/http/middleware"
	"github.com/tbourn/go-scorecard-backend/internal/repo"
	"github.com/tbourn/go-scorecard-backend/internal/services"
	"github.com/tbourn/go-scorecard-backend/internal/state"
)

// idempotencyTTL is how long a recorded import key blocks replays.
const idempotencyTTL = 24 * time.Hour

// importScope partitions idempotency keys for configuration imports.
const importScope = "config"

// StatusResponse reports the snapshot version and any entities whose local
// edits have not reached the store yet.
type StatusResponse struct {
	Version uint64   `json:"version"`
	Dirty   []string `json:"dirty"`
	// Clean is true when every local edit has been persisted.
	Clean bool `json:"clean"`
}

// GetConfig godoc
// @ID          getConfig
// @Summary     Get the full configuration
// @Description Returns fields, categories, and settings in one payload, with the snapshot version.
// @Tags        Config
// @Produce     json
//
// @Success     200  {object} handlers.ConfigResponse
// @Router      /config [get]
func (h *Handlers) GetConfig(c *gin.Context) {
	ok(c, http.StatusOK, configBody(h.cfgSvc.Snapshot()))
}

// GetConfigStatus godoc
// @ID          getConfigStatus
// @Summary     Get persistence status
// @Description Reports the snapshot version and the entities whose local edits are still pending a store save.
// @Tags        Config
// @Produce     json
//
// @Success     200  {object} handlers.StatusResponse
// @Router      /config/status [get]
func (h *Handlers) GetConfigStatus(c *gin.Context) {
	version, dirty := h.cfgSvc.Status()
	ok(c, http.StatusOK, StatusResponse{
		Version: version,
		Dirty:   dirty,
		Clean:   len(dirty) == 0,
	})
}

// ExportConfig godoc
// @ID          exportConfig
// @Summary     Export the configuration
// @Description Returns the interchange document as an attachment. The document round-trips through import.
// @Tags        Config
// @Produce     json
//
// @Success     200  {object} state.Document
// @Header      200  {string} Content-Disposition "attachment; filename=scorecard-config.json"
// @Router      /config/export [get]
func (h *Handlers) ExportConfig(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="scorecard-config.json"`)
	ok(c, http.StatusOK, h.cfgSvc.Export())
}

// ImportConfig godoc
// @ID          importConfig
// @Summary     Import a configuration
// @Description Replaces the whole configuration from an interchange document. The document must carry fields, categories, title, and colors; categories may use the legacy bare-string form. Supports Idempotency-Key for safe retries.
// @Tags        Config
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string          false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string          false "Safe-retry key"
// @Param       body             body    state.Document  true  "Interchange document"
//
// @Success     200  {object} handlers.ConfigResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid document"
// @Failure     409  {object} handlers.ErrorResponse "Duplicate Idempotency-Key"
// @Failure     502  {object} handlers.ErrorResponse "Store rejected the import"
// @Router      /config/import [post]
func (h *Handlers) ImportConfig(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unable to read request body")
		return
	}
	doc, err := state.ParseDocument(body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeImportFailed, err.Error())
		return
	}

	snap, err := h.cfgSvc.Import(c.Request.Context(), doc)
	if err != nil {
		if errors.Is(err, services.ErrStoreSave) {
			fail(c, http.StatusBadGateway, ErrCodeImportFailed, "configuration store rejected the import")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeImportFailed, err.Error())
		return
	}

	h.recordIdempotency(c)
	ok(c, http.StatusOK, configBody(snap))
}

// recordIdempotency persists the request's validated Idempotency-Key after a
// successful import so IdempotencyValidator can reject replays. Best effort;
// failures are logged, never surfaced.
func (h *Handlers) recordIdempotency(c *gin.Context) {
	key := middleware.GetIdempotencyKey(c)
	if key == "" {
		return
	}
	var db *gorm.DB
	if svc, ok := h.cfgSvc.(*services.ConfigService); ok {
		db = svc.DB
	}
	if db == nil {
		return
	}
	// Same identity resolution as IdempotencyValidator, so the recorded
	// triple matches what the replay lookup will ask for.
	uid := c.GetString("userID")
	if uid == "" {
		uid = "ip:" + c.ClientIP()
	}
	if _, err := repo.CreateIdempotency(c.Request.Context(), db, uid, importScope, key, http.StatusOK, idempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		middleware.LoggerFrom(c).Warn().Err(err).Str("scope", importScope).Msg("idempotency record failed")
	}
}
