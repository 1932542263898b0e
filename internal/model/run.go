package model

import (
	"database/sql"
	"time"
)

// RunStatus is the outcome of an aggregation run
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailure RunStatus = "failure"
)

// AggregationRun is one recorded aggregation request
type AggregationRun struct {
	ID                    string         `json:"id"`
	StartedAt             time.Time      `json:"started_at"`
	FinishedAt            time.Time      `json:"finished_at"`
	SelectionMode         sql.NullString `json:"-"`
	SelectionStart        sql.NullString `json:"-"`
	SelectionEnd          sql.NullString `json:"-"`
	LimitPerSource        int            `json:"limit_per_source"`
	SourceCount           int            `json:"source_count"`
	ItemCount             int            `json:"item_count"`
	SkippedSubCollections int            `json:"skipped_subcollections"`
	Status                RunStatus      `json:"status"`
	Error                 sql.NullString `json:"-"`
}

// Selection rebuilds the requested selection, or nil for unfiltered runs
func (r *AggregationRun) Selection() *DateSelection {
	if !r.SelectionMode.Valid {
		return nil
	}
	switch SelectionMode(r.SelectionMode.String) {
	case SelectionSingle:
		return NewSingleSelection(r.SelectionStart.String)
	case SelectionRange:
		return NewRangeSelection(r.SelectionStart.String, r.SelectionEnd.String)
	}
	return nil
}

// SetSelection stores sel in the nullable selection columns
func (r *AggregationRun) SetSelection(sel *DateSelection) {
	if sel == nil {
		r.SelectionMode = sql.NullString{}
		r.SelectionStart = sql.NullString{}
		r.SelectionEnd = sql.NullString{}
		return
	}
	r.SelectionMode = sql.NullString{String: string(sel.Mode), Valid: true}
	if sel.Mode == SelectionSingle {
		r.SelectionStart = sql.NullString{String: sel.Date, Valid: true}
		r.SelectionEnd = sql.NullString{String: sel.Date, Valid: true}
		return
	}
	r.SelectionStart = sql.NullString{String: sel.Start, Valid: true}
	r.SelectionEnd = sql.NullString{String: sel.End, Valid: true}
}

// RunSummary aggregates the run history for the status page
type RunSummary struct {
	TotalRuns    int
	FailedRuns   int
	TotalItems   int
	LastRunAt    sql.NullTime
	LastStatus   sql.NullString
	AverageItems float64
}
