package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/stockdata-service/internal/model"
)

// ErrNotFound is returned when a document key doesn't exist in the store.
// Go uses sentinel errors (predefined error values) instead of exception
// types. Callers check with errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("snapshot not found")

// SnapshotRepository defines the document-store interface: a keyed upsert
// that wholesale replaces the document, plus read-back for the API and
// tests. Go interfaces are implicit — any struct with these methods
// satisfies it, which makes stubbing in tests painless.
type SnapshotRepository interface {
	Upsert(ctx context.Context, snap *model.Snapshot) error
	GetByKey(ctx context.Context, docKey string) (*model.Snapshot, error)
	Count(ctx context.Context) (int64, error)
}

// sqliteSnapshotRepository is the SQLite implementation of SnapshotRepository.
// The struct is unexported — only the interface is public.
type sqliteSnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository creates a SQLite-backed SnapshotRepository.
func NewSnapshotRepository(db *sqlx.DB) SnapshotRepository {
	return &sqliteSnapshotRepository{db: db}
}

// Upsert writes or wholesale replaces the document at snap.DocKey in one
// statement. No read-modify-write, no retry — a single attempt, and the
// database assigns updated_at on every write.
func (r *sqliteSnapshotRepository) Upsert(ctx context.Context, snap *model.Snapshot) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO snapshots (doc_key, symbol, period, interval, payload, updated_at)
		VALUES (:doc_key, :symbol, :period, :interval, :payload, CURRENT_TIMESTAMP)
		ON CONFLICT(doc_key) DO UPDATE SET
			symbol     = excluded.symbol,
			period     = excluded.period,
			interval   = excluded.interval,
			payload    = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, snap)
	if err != nil {
		return fmt.Errorf("upserting snapshot %s: %w", snap.DocKey, err)
	}
	return nil
}

func (r *sqliteSnapshotRepository) GetByKey(ctx context.Context, docKey string) (*model.Snapshot, error) {
	var snap model.Snapshot
	// sqlx.GetContext scans the result row directly into the struct using `db:` tags.
	err := r.db.GetContext(ctx, &snap, "SELECT * FROM snapshots WHERE doc_key = ?", docKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting snapshot %s: %w", docKey, err)
	}
	return &snap, nil
}

func (r *sqliteSnapshotRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM snapshots")
	return count, err
}

// AnalysisCallRepository handles persistence of LLM call tracking.
type AnalysisCallRepository interface {
	Create(ctx context.Context, call *model.AnalysisCall) error
	Count(ctx context.Context) (int64, error)
	CountBySuccess(ctx context.Context, success bool) (int64, error)
}

type sqliteAnalysisCallRepository struct {
	db *sqlx.DB
}

// NewAnalysisCallRepository creates a SQLite-backed AnalysisCallRepository.
func NewAnalysisCallRepository(db *sqlx.DB) AnalysisCallRepository {
	return &sqliteAnalysisCallRepository{db: db}
}

func (r *sqliteAnalysisCallRepository) Create(ctx context.Context, call *model.AnalysisCall) error {
	// NamedExecContext uses the struct's `db:` tags to map fields to :named placeholders.
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO analysis_calls (symbol, provider, model, success, error_message, duration_ms)
		VALUES (:symbol, :provider, :model, :success, :error_message, :duration_ms)
	`, call)
	if err != nil {
		return fmt.Errorf("creating analysis call record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	call.ID = id
	return nil
}

func (r *sqliteAnalysisCallRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM analysis_calls")
	return count, err
}

func (r *sqliteAnalysisCallRepository) CountBySuccess(ctx context.Context, success bool) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM analysis_calls WHERE success = ?", success)
	return count, err
}
