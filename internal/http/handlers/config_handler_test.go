package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-scorecard-backend/internal/services"
	"github.com/tbourn/go-scorecard-backend/internal/state"
)

func TestGetConfig(t *testing.T) {
	r := newTestRouter(&stubConfigSvc{snap: baseSnap()}, &stubReportSvc{})

	w := perform(r, http.MethodGet, "/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body ConfigResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Version != 3 || len(body.Fields) != 2 || len(body.Categories) != 1 {
		t.Fatalf("body unexpected: %+v", body)
	}
}

func TestGetConfig_EmptySnapshotRendersArrays(t *testing.T) {
	r := newTestRouter(&stubConfigSvc{}, &stubReportSvc{})

	w := perform(r, http.MethodGet, "/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	s := w.Body.String()
	if !strings.Contains(s, `"fields":[]`) || !strings.Contains(s, `"categories":[]`) {
		t.Fatalf("nil slices leaked into JSON: %s", s)
	}
}

func TestGetConfigStatus(t *testing.T) {
	cfg := &stubConfigSvc{snap: baseSnap()}
	cfg.statusFn = func() (uint64, []string) { return 7, []string{"field:iron"} }
	r := newTestRouter(cfg, &stubReportSvc{})

	w := perform(r, http.MethodGet, "/config/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Version != 7 || body.Clean || len(body.Dirty) != 1 || body.Dirty[0] != "field:iron" {
		t.Fatalf("status body unexpected: %+v", body)
	}

	cfg.statusFn = func() (uint64, []string) { return 7, nil }
	w = perform(r, http.MethodGet, "/config/status", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || !body.Clean {
		t.Fatalf("clean status unexpected: %v %+v", err, body)
	}
}

func TestExportConfig_Attachment(t *testing.T) {
	r := newTestRouter(&stubConfigSvc{snap: baseSnap()}, &stubReportSvc{})

	w := perform(r, http.MethodGet, "/config/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "scorecard-config.json") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	var doc state.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Title != "T" || len(doc.Fields) != 2 || doc.Colors == nil {
		t.Fatalf("document unexpected: %+v", doc)
	}
}

func TestImportConfig_InvalidDocument400(t *testing.T) {
	r := newTestRouter(&stubConfigSvc{snap: baseSnap()}, &stubReportSvc{})

	// missing categories and colors
	w := perform(r, http.MethodPost, "/config/import", `{"title":"X","fields":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if e := decodeError(t, w); e.Code != ErrCodeImportFailed {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestImportConfig_MalformedJSON400(t *testing.T) {
	r := newTestRouter(&stubConfigSvc{snap: baseSnap()}, &stubReportSvc{})

	if w := perform(r, http.MethodPost, "/config/import", "{oops"); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestImportConfig_StoreFailure502(t *testing.T) {
	cfg := &stubConfigSvc{snap: baseSnap()}
	cfg.importDoc = func(context.Context, state.Document) (state.Snapshot, error) {
		return cfg.snap, services.ErrStoreSave
	}
	r := newTestRouter(cfg, &stubReportSvc{})

	w := perform(r, http.MethodPost, "/config/import", validDocBody())
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if e := decodeError(t, w); e.Code != ErrCodeImportFailed {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestImportConfig_Success(t *testing.T) {
	var gotDoc state.Document
	cfg := &stubConfigSvc{snap: baseSnap()}
	cfg.importDoc = func(_ context.Context, doc state.Document) (state.Snapshot, error) {
		gotDoc = doc
		return cfg.snap, nil
	}
	r := newTestRouter(cfg, &stubReportSvc{})

	w := perform(r, http.MethodPost, "/config/import", validDocBody())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if gotDoc.Title != "Imported" || len(gotDoc.Categories) != 1 {
		t.Fatalf("document not forwarded: %+v", gotDoc)
	}
	// legacy bare-string categories are accepted
	if gotDoc.Categories[0].Name != "Fresh" {
		t.Fatalf("legacy category form mishandled: %+v", gotDoc.Categories)
	}
}

func validDocBody() string {
	return `{
		"title": "Imported",
		"highThreshold": 7,
		"colors": {"low": "#1", "medium": "#2", "high": "#3"},
		"categories": ["Fresh"],
		"fields": [{"id": "new", "label": "New", "high": "h", "normal": "n", "low": "l"}]
	}`
}
