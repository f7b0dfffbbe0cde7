package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/stockdata-service/internal/model"
	"github.com/fleveque/stockdata-service/internal/service"
	"github.com/fleveque/stockdata-service/internal/storage"
)

// stubProcessor records the request it received and replays a canned
// outcome — the pipeline itself is covered by the service tests.
type stubProcessor struct {
	gotReq  service.Request
	outcome *service.Outcome
	err     error
}

func (s *stubProcessor) Process(_ context.Context, req service.Request) (*service.Outcome, error) {
	s.gotReq = req
	return s.outcome, s.err
}

// stubRepo serves canned documents for the read-back route.
type stubRepo struct {
	snap *model.Snapshot
}

func (s *stubRepo) Upsert(_ context.Context, _ *model.Snapshot) error { return nil }
func (s *stubRepo) Count(_ context.Context) (int64, error)            { return 0, nil }
func (s *stubRepo) GetByKey(_ context.Context, key string) (*model.Snapshot, error) {
	if s.snap != nil && s.snap.DocKey == key {
		return s.snap, nil
	}
	return nil, storage.ErrNotFound
}

func performCreate(t *testing.T, proc *stubProcessor, query string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewSnapshotHandler(proc, &stubRepo{}, zap.NewNop())
	router.GET("/snapshots", h.Create)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/snapshots"+query, nil)
	router.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return w, body
}

func TestCreate_DataPath(t *testing.T) {
	proc := &stubProcessor{outcome: &service.Outcome{DocKey: "AAPL", Rows: 20}}

	w, body := performCreate(t, proc, "?symbol=AAPL&period=1mo&interval=1d")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["message"] != "Data for AAPL saved successfully." {
		t.Errorf("unexpected message: %v", body["message"])
	}
	if _, present := body["openai_analysis"]; present {
		t.Error("no analysis ran — no analysis fields expected")
	}

	if proc.gotReq.Symbol != "AAPL" || proc.gotReq.Period != "1mo" || proc.gotReq.Interval != "1d" {
		t.Errorf("unexpected parsed request: %+v", proc.gotReq)
	}
}

// Missing parameters fall back to the documented defaults.
func TestCreate_Defaults(t *testing.T) {
	proc := &stubProcessor{outcome: &service.Outcome{DocKey: "GOOGL", Rows: 1}}

	w, _ := performCreate(t, proc, "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if proc.gotReq.Symbol != "GOOGL" || proc.gotReq.Period != "6mo" || proc.gotReq.Interval != "1d" {
		t.Errorf("expected defaults GOOGL/6mo/1d, got %+v", proc.gotReq)
	}
	if proc.gotReq.FinancialText != "" {
		t.Errorf("expected empty financial_text, got %q", proc.gotReq.FinancialText)
	}
}

func TestCreate_EmptySymbolRejected(t *testing.T) {
	proc := &stubProcessor{}

	w, body := performCreate(t, proc, "?symbol=")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body["error"] == nil {
		t.Error("expected error body")
	}
	if proc.gotReq.Symbol != "" {
		t.Error("pipeline must not run for an empty symbol")
	}
}

func TestCreate_NoData(t *testing.T) {
	proc := &stubProcessor{err: service.ErrNoData}

	w, body := performCreate(t, proc, "?symbol=ZZZZINVALID")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if body["message"] != "Could not obtain valid data for ZZZZINVALID." {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestCreate_StoreUnavailable(t *testing.T) {
	proc := &stubProcessor{err: service.ErrStoreUnavailable}

	w, body := performCreate(t, proc, "?symbol=AAPL")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if body["error"] == nil {
		t.Error("expected error body")
	}
}

// The response carries each provider's raw result or its failure message;
// only successes ever reach the document.
func TestCreate_AnalysisOnlyResponse(t *testing.T) {
	proc := &stubProcessor{outcome: &service.Outcome{
		DocKey:       "ZZZZINVALID_analysis",
		AnalysisOnly: true,
		Analyses: []model.AnalysisResult{
			{Provider: "openai", Model: "gpt-4o", Text: "Positive outlook."},
			{Provider: "mistral", Model: "mistral-large-latest", Err: "mistral: client not configured"},
			{Provider: "gemini", Model: "flow", Err: "gemini flow returned HTTP 502"},
		},
	}}

	text := url.QueryEscape("Markets rallied today")
	w, body := performCreate(t, proc, "?symbol=ZZZZINVALID&financial_text="+text)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["message"] != "Analysis for ZZZZINVALID saved successfully." {
		t.Errorf("unexpected message: %v", body["message"])
	}
	if body["openai_analysis"] != "Positive outlook." {
		t.Errorf("expected openai result, got %v", body["openai_analysis"])
	}
	if body["mistral_analysis"] != "mistral: client not configured" {
		t.Errorf("expected mistral failure message, got %v", body["mistral_analysis"])
	}

	if proc.gotReq.FinancialText != "Markets rallied today" {
		t.Errorf("unexpected financial_text: %q", proc.gotReq.FinancialText)
	}
}

func TestGet_ReturnsDocument(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	repo := &stubRepo{snap: &model.Snapshot{
		DocKey:    "AAPL",
		Symbol:    "AAPL",
		Payload:   `{"symbol":"AAPL","data":{}}`,
		UpdatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
	h := NewSnapshotHandler(&stubProcessor{}, repo, zap.NewNop())
	router.GET("/snapshots/:key", h.Get)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/snapshots/AAPL", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["doc_key"] != "AAPL" {
		t.Errorf("unexpected doc_key: %v", body["doc_key"])
	}
	doc, ok := body["document"].(map[string]any)
	if !ok {
		t.Fatalf("expected embedded document object, got %T", body["document"])
	}
	if doc["symbol"] != "AAPL" {
		t.Errorf("unexpected document: %v", doc)
	}
}

func TestGet_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewSnapshotHandler(&stubProcessor{}, &stubRepo{}, zap.NewNop())
	router.GET("/snapshots/:key", h.Get)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/snapshots/NOPE", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
