package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fleveque/stockdata-service/internal/model"
)

// setupTestDB creates a temporary SQLite database for testing.
// Go's testing.T has a TempDir() method that creates a temp directory
// automatically cleaned up after the test — no manual teardown needed.
func setupTestDB(t *testing.T) *testDeps {
	t.Helper() // marks this as a helper so error line numbers point to the caller

	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return &testDeps{
		snapshots: NewSnapshotRepository(db),
		calls:     NewAnalysisCallRepository(db),
	}
}

type testDeps struct {
	snapshots SnapshotRepository
	calls     AnalysisCallRepository
}

func TestSnapshotRepository_UpsertAndGet(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	snap := &model.Snapshot{
		DocKey:   "AAPL",
		Symbol:   "AAPL",
		Period:   "1mo",
		Interval: "1d",
		Payload:  `{"symbol":"AAPL","data":{}}`,
	}
	if err := deps.snapshots.Upsert(ctx, snap); err != nil {
		t.Fatalf("upserting snapshot: %v", err)
	}

	got, err := deps.snapshots.GetByKey(ctx, "AAPL")
	if err != nil {
		t.Fatalf("getting snapshot: %v", err)
	}
	if got.Symbol != "AAPL" || got.Period != "1mo" || got.Interval != "1d" {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected store-assigned updated_at, got zero time")
	}
}

// A second upsert to the same key must wholesale replace the document —
// one row per key, payload fully swapped.
func TestSnapshotRepository_UpsertReplaces(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	first := &model.Snapshot{
		DocKey: "GOOGL", Symbol: "GOOGL", Period: "6mo", Interval: "1d",
		Payload: `{"version":1}`,
	}
	if err := deps.snapshots.Upsert(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := &model.Snapshot{
		DocKey: "GOOGL", Symbol: "GOOGL", Period: "1y", Interval: "1wk",
		Payload: `{"version":2}`,
	}
	if err := deps.snapshots.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	count, err := deps.snapshots.Count(ctx)
	if err != nil {
		t.Fatalf("counting snapshots: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row after replacing upsert, got %d", count)
	}

	got, err := deps.snapshots.GetByKey(ctx, "GOOGL")
	if err != nil {
		t.Fatalf("getting snapshot: %v", err)
	}
	if got.Payload != `{"version":2}` {
		t.Errorf("expected replaced payload, got %s", got.Payload)
	}
	if got.Period != "1y" || got.Interval != "1wk" {
		t.Errorf("expected replaced period/interval, got %s/%s", got.Period, got.Interval)
	}
}

// The data-path key and the analysis-only key are distinct documents.
func TestSnapshotRepository_AnalysisKeyIsSeparate(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	data := &model.Snapshot{DocKey: "TSLA", Symbol: "TSLA", Payload: `{}`}
	analysis := &model.Snapshot{DocKey: model.AnalysisDocKey("TSLA"), Symbol: "TSLA", Payload: `{}`}

	if err := deps.snapshots.Upsert(ctx, data); err != nil {
		t.Fatalf("upserting data snapshot: %v", err)
	}
	if err := deps.snapshots.Upsert(ctx, analysis); err != nil {
		t.Fatalf("upserting analysis snapshot: %v", err)
	}

	count, err := deps.snapshots.Count(ctx)
	if err != nil {
		t.Fatalf("counting snapshots: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 rows, got %d", count)
	}

	if _, err := deps.snapshots.GetByKey(ctx, "TSLA_analysis"); err != nil {
		t.Errorf("getting analysis snapshot: %v", err)
	}
}

func TestSnapshotRepository_GetByKey_NotFound(t *testing.T) {
	deps := setupTestDB(t)

	_, err := deps.snapshots.GetByKey(context.Background(), "DOESNOTEXIST")
	if err == nil {
		t.Fatal("expected error for non-existent key, got nil")
	}
}

func TestAnalysisCallRepository_CreateAndCount(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	duration := int64(420)
	ok := &model.AnalysisCall{
		Symbol: "AAPL", Provider: "openai", Model: "gpt-4o",
		Success: true, DurationMs: &duration,
	}
	if err := deps.calls.Create(ctx, ok); err != nil {
		t.Fatalf("creating call record: %v", err)
	}
	if ok.ID == 0 {
		t.Error("expected call ID to be set after create")
	}

	msg := "mistral: client not configured"
	failed := &model.AnalysisCall{
		Symbol: "AAPL", Provider: "mistral", Model: "mistral-large-latest",
		Success: false, ErrorMessage: &msg,
	}
	if err := deps.calls.Create(ctx, failed); err != nil {
		t.Fatalf("creating failed call record: %v", err)
	}

	total, err := deps.calls.Count(ctx)
	if err != nil {
		t.Fatalf("counting calls: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 calls, got %d", total)
	}

	succeeded, err := deps.calls.CountBySuccess(ctx, true)
	if err != nil {
		t.Fatalf("counting successful calls: %v", err)
	}
	if succeeded != 1 {
		t.Errorf("expected 1 successful call, got %d", succeeded)
	}
}
