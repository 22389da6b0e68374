package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
	"github.com/tbourn/go-scorecard-backend/internal/report"
	"github.com/tbourn/go-scorecard-backend/internal/services"
	"github.com/tbourn/go-scorecard-backend/internal/state"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// ---------- service stubs ----------

// stubConfigSvc implements ConfigService with overridable behavior per test.
// Nil hooks return the held snapshot unchanged.
type stubConfigSvc struct {
	snap state.Snapshot

	statusFn          func() (uint64, []string)
	addField          func(context.Context, domain.Field) (state.Snapshot, error)
	updateField       func(context.Context, string, domain.Field) (state.Snapshot, error)
	deleteField       func(context.Context, string) (state.Snapshot, error)
	reorderFields     func(context.Context, []string) (state.Snapshot, error)
	addCategory       func(context.Context, string) (state.Snapshot, error)
	renameCategory    func(context.Context, string, string) (state.Snapshot, error)
	deleteCategory    func(context.Context, string) (state.Snapshot, error)
	reorderCategories func(context.Context, []string) (state.Snapshot, error)
	updateSettings    func(context.Context, state.SettingsPatch) (state.Snapshot, error)
	importDoc         func(context.Context, state.Document) (state.Snapshot, error)
	exportDoc         func() state.Document
}

func (s *stubConfigSvc) Snapshot() state.Snapshot { return s.snap }

func (s *stubConfigSvc) Status() (uint64, []string) {
	if s.statusFn != nil {
		return s.statusFn()
	}
	return s.snap.Version, nil
}

func (s *stubConfigSvc) AddField(ctx context.Context, f domain.Field) (state.Snapshot, error) {
	if s.addField != nil {
		return s.addField(ctx, f)
	}
	return s.snap, nil
}

func (s *stubConfigSvc) UpdateField(ctx context.Context, id string, f domain.Field) (state.Snapshot, error) {
	if s.updateField != nil {
		return s.updateField(ctx, id, f)
	}
	return s.snap, nil
}

func (s *stubConfigSvc) DeleteField(ctx context.Context, id string) (state.Snapshot, error) {
	if s.deleteField != nil {
		return s.deleteField(ctx, id)
	}
	return s.snap, nil
}

func (s *stubConfigSvc) ReorderFields(ctx context.Context, ids []string) (state.Snapshot, error) {
	if s.reorderFields != nil {
		return s.reorderFields(ctx, ids)
	}
	return s.snap, nil
}

func (s *stubConfigSvc) AddCategory(ctx context.Context, name string) (state.Snapshot, error) {
	if s.addCategory != nil {
		return s.addCategory(ctx, name)
	}
	return s.snap, nil
}

func (s *stubConfigSvc) RenameCategory(ctx context.Context, id, newName string) (state.Snapshot, error) {
	if s.renameCategory != nil {
		return s.renameCategory(ctx, id, newName)
	}
	return s.snap, nil
}

func (s *stubConfigSvc) DeleteCategory(ctx context.Context, id string) (state.Snapshot, error) {
	if s.deleteCategory != nil {
		return s.deleteCategory(ctx, id)
	}
	return s.snap, nil
}

func (s *stubConfigSvc) ReorderCategories(ctx context.Context, ids []string) (state.Snapshot, error) {
	if s.reorderCategories != nil {
		return s.reorderCategories(ctx, ids)
	}
	return s.snap, nil
}

func (s *stubConfigSvc) UpdateSettings(ctx context.Context, p state.SettingsPatch) (state.Snapshot, error) {
	if s.updateSettings != nil {
		return s.updateSettings(ctx, p)
	}
	return s.snap, nil
}

func (s *stubConfigSvc) Import(ctx context.Context, doc state.Document) (state.Snapshot, error) {
	if s.importDoc != nil {
		return s.importDoc(ctx, doc)
	}
	return s.snap, nil
}

func (s *stubConfigSvc) Export() state.Document {
	if s.exportDoc != nil {
		return s.exportDoc()
	}
	return s.snap.Document()
}

// stubReportSvc implements ReportService with overridable behavior.
type stubReportSvc struct {
	generate   func(context.Context, string, map[string]string) (report.Report, map[string]string, error)
	preview    func(map[string]string) report.Report
	draft      func(context.Context, string) (map[string]string, error)
	saveDraft  func(context.Context, string, map[string]string) (map[string]string, error)
	clearDraft func(context.Context, string) error
}

func (s *stubReportSvc) Generate(ctx context.Context, userID string, scores map[string]string) (report.Report, map[string]string, error) {
	if s.generate != nil {
		return s.generate(ctx, userID, scores)
	}
	return report.Report{}, nil, nil
}

func (s *stubReportSvc) Preview(scores map[string]string) report.Report {
	if s.preview != nil {
		return s.preview(scores)
	}
	return nil
}

func (s *stubReportSvc) Draft(ctx context.Context, userID string) (map[string]string, error) {
	if s.draft != nil {
		return s.draft(ctx, userID)
	}
	return map[string]string{}, nil
}

func (s *stubReportSvc) SaveDraft(ctx context.Context, userID string, scores map[string]string) (map[string]string, error) {
	if s.saveDraft != nil {
		return s.saveDraft(ctx, userID, scores)
	}
	return scores, nil
}

func (s *stubReportSvc) ClearDraft(ctx context.Context, userID string) error {
	if s.clearDraft != nil {
		return s.clearDraft(ctx, userID)
	}
	return nil
}

// ---------- router + request helpers ----------

func newTestRouter(cfg ConfigService, rep ReportService) *gin.Engine {
	h := New(cfg, rep)
	r := gin.New()

	r.GET("/config", h.GetConfig)
	r.GET("/config/status", h.GetConfigStatus)
	r.GET("/config/export", h.ExportConfig)
	r.POST("/config/import", h.ImportConfig)

	r.GET("/fields", h.ListFields)
	r.POST("/fields", h.CreateField)
	r.PUT("/fields/order", h.ReorderFields)
	r.GET("/fields/search", h.SearchFields)
	r.PUT("/fields/:id", h.UpdateField)
	r.DELETE("/fields/:id", h.DeleteField)

	r.GET("/categories", h.ListCategories)
	r.POST("/categories", h.CreateCategory)
	r.PUT("/categories/order", h.ReorderCategories)
	r.PUT("/categories/:id", h.RenameCategory)
	r.DELETE("/categories/:id", h.DeleteCategory)

	r.GET("/settings", h.GetSettings)
	r.PUT("/settings", h.UpdateSettings)

	r.POST("/reports", h.GenerateReport)
	r.POST("/reports/pdf", h.ReportPDF)
	r.POST("/reports/xlsx", h.ReportXLSX)

	r.GET("/drafts", h.GetDraft)
	r.PUT("/drafts", h.PutDraft)
	r.DELETE("/drafts", h.DeleteDraft)
	return r
}

func perform(r *gin.Engine, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = bytes.NewBuffer(nil)
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		buf = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, w.Body.String())
	}
	return e
}

func baseSnap() state.Snapshot {
	return state.Snapshot{
		Version: 3,
		Fields: []domain.Field{
			{ID: "iron", Label: "Iron", Category: "Minerals"},
			{ID: "vit_d", Label: "Vitamin D", Category: "Vitamins"},
		},
		Categories: []domain.Category{
			{ID: "11111111-1111-1111-1111-111111111111", Name: "Minerals"},
		},
		Settings: domain.Settings{
			Title:         "T",
			HighThreshold: 8,
			Colors:        domain.TierColors{Low: "#c00", Medium: "#cc0", High: "#0c0"},
		},
	}
}

// ---------- field endpoint tests ----------

func TestListFields_ReturnsCatalog(t *testing.T) {
	r := newTestRouter(&stubConfigSvc{snap: baseSnap()}, &stubReportSvc{})

	w := perform(r, http.MethodGet, "/fields", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got []domain.Field
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].ID != "iron" {
		t.Fatalf("body unexpected: %+v", got)
	}
}

func TestListFields_EmptyCatalogIsJSONArray(t *testing.T) {
	r := newTestRouter(&stubConfigSvc{}, &stubReportSvc{})

	w := perform(r, http.MethodGet, "/fields", nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("empty catalog: %d %q", w.Code, w.Body.String())
	}
}

func TestCreateField_TrimsAndReturns201(t *testing.T) {
	var got domain.Field
	cfg := &stubConfigSvc{snap: baseSnap()}
	cfg.addField = func(_ context.Context, f domain.Field) (state.Snapshot, error) {
		got = f
		return cfg.snap, nil
	}
	r := newTestRouter(cfg, &stubReportSvc{})

	w := perform(r, http.MethodPost, "/fields", map[string]any{
		"id": "  zinc  ", "label": " Zinc ", "category": " Minerals ",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if got.ID != "zinc" || got.Label != "Zinc" || got.Category != "Minerals" {
		t.Fatalf("payload not trimmed: %+v", got)
	}
	var body ConfigResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Version != 3 || len(body.Fields) != 2 {
		t.Fatalf("config body unexpected: %+v", body)
	}
}

func TestCreateField_MissingLabel400(t *testing.T) {
	r := newTestRouter(&stubConfigSvc{}, &stubReportSvc{})

	w := perform(r, http.MethodPost, "/fields", map[string]any{"id": "zinc"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decodeError(t, w); e.Code != ErrCodeBadRequest {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestCreateField_Duplicate409(t *testing.T) {
	cfg := &stubConfigSvc{snap: baseSnap()}
	cfg.addField = func(context.Context, domain.Field) (state.Snapshot, error) {
		return cfg.snap, state.ErrDuplicateFieldID
	}
	r := newTestRouter(cfg, &stubReportSvc{})

	w := perform(r, http.MethodPost, "/fields", map[string]any{"id": "iron", "label": "Iron"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decodeError(t, w); e.Code != ErrCodeConflict {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestCreateField_StoreSaveFailure202(t *testing.T) {
	cfg := &stubConfigSvc{snap: baseSnap()}
	cfg.addField = func(context.Context, domain.Field) (state.Snapshot, error) {
		return cfg.snap, services.ErrStoreSave
	}
	r := newTestRouter(cfg, &stubReportSvc{})

	w := perform(r, http.MethodPost, "/fields", map[string]any{"label": "Zinc"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	// the updated configuration still comes back
	var body ConfigResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Version != 3 {
		t.Fatalf("accepted body unexpected: %v %+v", err, body)
	}
}

func TestUpdateField_BlankPayloadIDDefaultsToPath(t *testing.T) {
	var gotID string
	var gotField domain.Field
	cfg := &stubConfigSvc{snap: baseSnap()}
	cfg.updateField = func(_ context.Context, id string, f domain.Field) (state.Snapshot, error) {
		gotID, gotField = id, f
		return cfg.snap, nil
	}
	r := newTestRouter(cfg, &stubReportSvc{})

	w := perform(r, http.MethodPut, "/fields/iron", map[string]any{"label": "Serum Iron"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotID != "iron" || gotField.ID != "iron" || gotField.Label != "Serum Iron" {
		t.Fatalf("args unexpected: id=%q f=%+v", gotID, gotField)
	}
}

func TestUpdateField_NotFound404(t *testing.T) {
	cfg := &stubConfigSvc{snap: baseSnap()}
	cfg.updateField = func(context.Context, string, domain.Field) (state.Snapshot, error) {
		return cfg.snap, services.ErrFieldNotFound
	}
	r := newTestRouter(cfg, &stubReportSvc{})

	w := perform(r, http.MethodPut, "/fields/ghost", map[string]any{"label": "X"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDeleteField_NotFound404(t *testing.T) {
	cfg := &stubConfigSvc{snap: baseSnap()}
	cfg.deleteField = func(context.Context, string) (state.Snapshot, error) {
		return cfg.snap, services.ErrFieldNotFound
	}
	r := newTestRouter(cfg, &stubReportSvc{})

	if w := perform(r, http.MethodDelete, "/fields/ghost", nil); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestReorderFields_NotAPermutation400(t *testing.T) {
	cfg := &stubConfigSvc{snap: baseSnap()}
	cfg.reorderFields = func(context.Context, []string) (state.Snapshot, error) {
		return cfg.snap, state.ErrNotPermutation
	}
	r := newTestRouter(cfg, &stubReportSvc{})

	w := perform(r, http.MethodPut, "/fields/order", map[string]any{"ids": []string{"iron"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decodeError(t, w); e.Code != ErrCodeValidationFailed {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestReorderFields_ForwardsIDs(t *testing.T) {
	var got []string
	cfg := &stubConfigSvc{snap: baseSnap()}
	cfg.reorderFields = func(_ context.Context, ids []string) (state.Snapshot, error) {
		got = ids
		return cfg.snap, nil
	}
	r := newTestRouter(cfg, &stubReportSvc{})

	w := perform(r, http.MethodPut, "/fields/order", map[string]any{"ids": []string{"vit_d", "iron"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(got) != 2 || got[0] != "vit_d" {
		t.Fatalf("ids unexpected: %v", got)
	}
}

func TestSearchFields_RequiresQuery(t *testing.T) {
	r := newTestRouter(&stubConfigSvc{snap: baseSnap()}, &stubReportSvc{})

	if w := perform(r, http.MethodGet, "/fields/search", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing q: status = %d", w.Code)
	}
	if w := perform(r, http.MethodGet, "/fields/search?q=%20%20", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("blank q: status = %d", w.Code)
	}
}

func TestSearchFields_RanksCatalog(t *testing.T) {
	r := newTestRouter(&stubConfigSvc{snap: baseSnap()}, &stubReportSvc{})

	w := perform(r, http.MethodGet, "/fields/search?q=vitamin&k=3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Query != "vitamin" || len(body.Results) == 0 || body.Results[0].FieldID != "vit_d" {
		t.Fatalf("search body unexpected: %+v", body)
	}
}

func TestSearchFields_NoMatchIsJSONArray(t *testing.T) {
	r := newTestRouter(&stubConfigSvc{snap: baseSnap()}, &stubReportSvc{})

	w := perform(r, http.MethodGet, "/fields/search?q=quasar", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Results == nil || len(body.Results) != 0 {
		t.Fatalf("expected empty results array, got %+v", body.Results)
	}
}
