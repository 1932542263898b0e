package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jjenkins/notion-digest/internal/model"
)

const (
	defaultRecentRuns = 20
	maxRecentRuns     = 200
)

// RunStore handles database operations for aggregation runs
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new RunStore
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Insert records a finished aggregation run
func (s *RunStore) Insert(ctx context.Context, run *model.AggregationRun) error {
	query := `
		INSERT INTO aggregation_runs (id, started_at, finished_at, selection_mode,
		                              selection_start, selection_end, limit_per_source,
		                              source_count, item_count, skipped_subcollections,
		                              status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		run.SelectionMode,
		run.SelectionStart,
		run.SelectionEnd,
		run.LimitPerSource,
		run.SourceCount,
		run.ItemCount,
		run.SkippedSubCollections,
		string(run.Status),
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	return nil
}

// Recent retrieves the most recent runs, newest first
func (s *RunStore) Recent(ctx context.Context, limit int) ([]model.AggregationRun, error) {
	if limit <= 0 {
		limit = defaultRecentRuns
	}
	if limit > maxRecentRuns {
		limit = maxRecentRuns
	}

	query := `
		SELECT id, started_at, finished_at, selection_mode, selection_start,
		       selection_end, limit_per_source, source_count, item_count,
		       skipped_subcollections, status, error
		FROM aggregation_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get runs: %w", err)
	}
	defer rows.Close()

	runs := []model.AggregationRun{}
	for rows.Next() {
		var r model.AggregationRun
		var status string
		err := rows.Scan(
			&r.ID,
			&r.StartedAt,
			&r.FinishedAt,
			&r.SelectionMode,
			&r.SelectionStart,
			&r.SelectionEnd,
			&r.LimitPerSource,
			&r.SourceCount,
			&r.ItemCount,
			&r.SkippedSubCollections,
			&status,
			&r.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// Summary calculates totals over the whole run history
func (s *RunStore) Summary(ctx context.Context) (*model.RunSummary, error) {
	summary := &model.RunSummary{}

	totalsQuery := `
		SELECT
			COUNT(*) AS total_runs,
			COUNT(*) FILTER (WHERE status = 'failure') AS failed_runs,
			COALESCE(SUM(item_count), 0) AS total_items,
			COALESCE(AVG(item_count) FILTER (WHERE status = 'success'), 0) AS average_items
		FROM aggregation_runs
	`
	err := s.db.QueryRowContext(ctx, totalsQuery).Scan(
		&summary.TotalRuns,
		&summary.FailedRuns,
		&summary.TotalItems,
		&summary.AverageItems,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate run totals: %w", err)
	}

	lastQuery := `
		SELECT finished_at, status
		FROM aggregation_runs
		ORDER BY started_at DESC
		LIMIT 1
	`
	err = s.db.QueryRowContext(ctx, lastQuery).Scan(&summary.LastRunAt, &summary.LastStatus)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to find last run: %w", err)
	}

	return summary, nil
}
