// Package model defines the core data types for the stockdata service.
// In Go, we use structs instead of classes. Struct tags (the `json:"..."` and
// `db:"..."` annotations) tell serialization libraries how to map fields.
package model

import "time"

// Observation is one row of provider data: a timestamp plus a mapping of
// field name (open, high, low, close, volume, ...) to a nullable value.
// We use *float64 so a missing cell stays distinguishable from zero —
// a nil pointer serializes to JSON null, which is exactly what we persist.
type Observation struct {
	Timestamp time.Time
	Fields    map[string]*float64
}

// Series is a time-ordered sequence of observations, ascending by timestamp
// in whatever order the provider returned them.
type Series []Observation

// ShapedSeries is the persistence-ready form of a Series: keyed by ISO-8601
// timestamp string, values are the observation fields with explicit nulls.
type ShapedSeries map[string]map[string]*float64

// AnalysisResult is the outcome of one LLM provider call. Exactly one of
// Text or Err is meaningful: Err == "" means the call succeeded.
// The three per-request results are independent and never merged.
type AnalysisResult struct {
	Provider string
	Model    string
	Text     string
	Err      string
}

// OK reports whether the provider call succeeded.
func (r AnalysisResult) OK() bool {
	return r.Err == ""
}

// Snapshot is the persisted document row. DocKey is the symbol for the
// data path, or symbol + "_analysis" for the text-only variant. Payload
// holds the full document body as JSON (shaped series plus any
// {provider}_analysis fields). UpdatedAt is assigned by the database on
// every write, never by the application.
type Snapshot struct {
	ID        int64     `db:"id" json:"id"`
	DocKey    string    `db:"doc_key" json:"doc_key"`
	Symbol    string    `db:"symbol" json:"symbol"`
	Period    string    `db:"period" json:"period"`
	Interval  string    `db:"interval" json:"interval"`
	Payload   string    `db:"payload" json:"payload"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AnalysisDocKey returns the document key for the analysis-only variant.
func AnalysisDocKey(symbol string) string {
	return symbol + "_analysis"
}

// AnalysisCall tracks each call to an LLM provider for cost monitoring.
type AnalysisCall struct {
	ID           int64     `db:"id" json:"id"`
	Symbol       string    `db:"symbol" json:"symbol"`
	Provider     string    `db:"provider" json:"provider"`
	Model        string    `db:"model" json:"model"`
	Success      bool      `db:"success" json:"success"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	DurationMs   *int64    `db:"duration_ms" json:"duration_ms,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
