// Report HTTP handlers.
//
// Endpoints that turn raw score input into report output:
//   - POST /reports        (validate, tier, return the JSON report model)
//   - POST /reports/pdf    (render the report as a PDF document)
//   - POST /reports/xlsx   (render the report as a spreadsheet)
//
// All three accept the same payload. The JSON endpoint enforces submit-time
// validation and returns every per-field error at once; the document
// endpoints run in preview mode, silently skipping invalid scores, and
// never touch the user's draft.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-scorecard-backend/internal/export"
	"github.com/tbourn/go-scorecard-backend/internal/report"
	"github.com/tbourn/go-scorecard-backend/internal/services"
)

// ScoresRequest is the JSON payload carrying raw per-field score input.
type ScoresRequest struct {
	// Scores maps field id to the raw typed value.
	Scores map[string]string `json:"scores" binding:"required"`
}

// ValidationErrorResponse extends the error envelope with the complete
// per-field error mapping collected at submit time.
type ValidationErrorResponse struct {
	ErrorResponse
	// FieldErrors maps field id to its validation message.
	FieldErrors map[string]string `json:"field_errors"`
}

// ReportResponse is the generated report model plus everything a renderer
// needs: the grouped row view and the shared tier color mapping.
type ReportResponse struct {
	Entries report.Report     `json:"entries"`
	Rows    []report.Row      `json:"rows"`
	Colors  map[string]string `json:"colors"`
}

// GenerateReport godoc
// @ID          generateReport
// @Summary     Generate a report
// @Description Validates every submitted score (collecting all failures at once) and returns the tiered report in catalog order. Successful submissions persist the input as the user's draft.
// @Tags        Reports
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.ScoresRequest  true  "Raw scores by field id"
//
// @Success     200  {object} handlers.ReportResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     422  {object} handlers.ValidationErrorResponse "One or more scores invalid"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /reports [post]
func (h *Handlers) GenerateReport(c *gin.Context) {
	var req ScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	rep, fieldErrs, err := h.repSvc.Generate(c.Request.Context(), userID(c), req.Scores)
	if err != nil {
		if errors.Is(err, services.ErrInvalidScores) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
				ErrorResponse: ErrorResponse{
					RequestID: c.Writer.Header().Get("X-Request-ID"),
					Code:      ErrCodeValidationFailed,
					Message:   "one or more scores are invalid",
				},
				FieldErrors: fieldErrs,
			})
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeGenerateFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, h.reportBody(rep))
}

// reportBody assembles the full report response around the generated model.
func (h *Handlers) reportBody(rep report.Report) ReportResponse {
	colors := h.cfgSvc.Snapshot().Settings.Colors
	return ReportResponse{
		Entries: rep,
		Rows:    report.Rows(rep),
		Colors: map[string]string{
			string(report.TierHigh):   report.TierColor(report.TierHigh, colors),
			string(report.TierNormal): report.TierColor(report.TierNormal, colors),
			string(report.TierLow):    report.TierColor(report.TierLow, colors),
		},
	}
}

// ReportPDF godoc
// @ID          reportPDF
// @Summary     Render a report as PDF
// @Description Runs the tiering engine in preview mode (invalid scores skipped) and returns the printable document.
// @Tags        Reports
// @Accept      json
// @Produce     application/pdf
//
// @Param       body  body  handlers.ScoresRequest  true  "Raw scores by field id"
//
// @Success     200  {file}   file "PDF document"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Render failed"
// @Router      /reports/pdf [post]
func (h *Handlers) ReportPDF(c *gin.Context) {
	var req ScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	rep := h.repSvc.Preview(req.Scores)
	settings := h.cfgSvc.Snapshot().Settings
	pdf, err := export.ReportPDF(rep, settings)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, err.Error())
		return
	}

	c.Header("Content-Disposition", `attachment; filename="report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ReportXLSX godoc
// @ID          reportXLSX
// @Summary     Render a report as a spreadsheet
// @Description Runs the tiering engine in preview mode (invalid scores skipped) and returns an XLSX workbook with one row per entry.
// @Tags        Reports
// @Accept      json
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//
// @Param       body  body  handlers.ScoresRequest  true  "Raw scores by field id"
//
// @Success     200  {file}   file "XLSX workbook"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Render failed"
// @Router      /reports/xlsx [post]
func (h *Handlers) ReportXLSX(c *gin.Context) {
	var req ScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	rep := h.repSvc.Preview(req.Scores)
	settings := h.cfgSvc.Snapshot().Settings
	book, err := export.ReportXLSX(rep, settings)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, err.Error())
		return
	}

	c.Header("Content-Disposition", `attachment; filename="report.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", book)
}
