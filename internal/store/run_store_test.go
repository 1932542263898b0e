package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/notion-digest/internal/model"
)

var runColumns = []string{
	"id", "started_at", "finished_at", "selection_mode", "selection_start",
	"selection_end", "limit_per_source", "source_count", "item_count",
	"skipped_subcollections", "status", "error",
}

func newMockRunStore(t *testing.T) (*RunStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewRunStore(db), mock
}

func TestRunStore_Insert(t *testing.T) {
	store, mock := newMockRunStore(t)

	started := time.Date(2026, 2, 13, 9, 0, 0, 0, time.UTC)
	run := &model.AggregationRun{
		ID:                    "8a4f4a3e-1111-4c1e-9d55-0a0b0c0d0e0f",
		StartedAt:             started,
		FinishedAt:            started.Add(2 * time.Second),
		LimitPerSource:        50,
		SourceCount:           2,
		ItemCount:             7,
		SkippedSubCollections: 1,
		Status:                model.RunSuccess,
	}
	run.SetSelection(model.NewSingleSelection("2026-02-13"))

	mock.ExpectExec("INSERT INTO aggregation_runs").
		WithArgs(run.ID, run.StartedAt, run.FinishedAt, "single", "2026-02-13", "2026-02-13",
			50, 2, 7, 1, "success", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Insert(context.Background(), run))
}

func TestRunStore_InsertError(t *testing.T) {
	store, mock := newMockRunStore(t)

	mock.ExpectExec("INSERT INTO aggregation_runs").WillReturnError(errors.New("connection reset"))

	err := store.Insert(context.Background(), &model.AggregationRun{ID: "run-1", Status: model.RunFailure})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert run run-1")
}

func TestRunStore_Recent(t *testing.T) {
	store, mock := newMockRunStore(t)

	started := time.Date(2026, 2, 13, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(runColumns).
		AddRow("run-2", started.Add(time.Hour), started.Add(time.Hour+time.Second), "range", "2026-02-01", "2026-02-09",
			25, 1, 0, 0, "failure", "missing notion token").
		AddRow("run-1", started, started.Add(time.Second), nil, nil, nil,
			50, 2, 9, 1, "success", nil)

	mock.ExpectQuery("SELECT (.+) FROM aggregation_runs ORDER BY started_at DESC LIMIT").
		WithArgs(20).
		WillReturnRows(rows)

	runs, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, model.RunFailure, runs[0].Status)
	assert.Equal(t, model.NewRangeSelection("2026-02-01", "2026-02-09"), runs[0].Selection())
	assert.Equal(t, sql.NullString{String: "missing notion token", Valid: true}, runs[0].Error)

	assert.Equal(t, "run-1", runs[1].ID)
	assert.Nil(t, runs[1].Selection())
	assert.False(t, runs[1].Error.Valid)
	assert.Equal(t, 9, runs[1].ItemCount)
}

func TestRunStore_RecentClampsLimit(t *testing.T) {
	store, mock := newMockRunStore(t)

	mock.ExpectQuery("FROM aggregation_runs").
		WithArgs(200).
		WillReturnRows(sqlmock.NewRows(runColumns))

	runs, err := store.Recent(context.Background(), 5000)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestRunStore_Summary(t *testing.T) {
	store, mock := newMockRunStore(t)

	finished := time.Date(2026, 2, 13, 9, 0, 2, 0, time.UTC)
	mock.ExpectQuery(`COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"total_runs", "failed_runs", "total_items", "average_items"}).
			AddRow(4, 1, 30, 10.0))
	mock.ExpectQuery("SELECT finished_at, status").
		WillReturnRows(sqlmock.NewRows([]string{"finished_at", "status"}).AddRow(finished, "success"))

	summary, err := store.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalRuns)
	assert.Equal(t, 1, summary.FailedRuns)
	assert.Equal(t, 30, summary.TotalItems)
	assert.InDelta(t, 10.0, summary.AverageItems, 0.001)
	assert.Equal(t, sql.NullTime{Time: finished, Valid: true}, summary.LastRunAt)
	assert.Equal(t, "success", summary.LastStatus.String)
}

func TestRunStore_SummaryWithoutRuns(t *testing.T) {
	store, mock := newMockRunStore(t)

	mock.ExpectQuery(`COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"total_runs", "failed_runs", "total_items", "average_items"}).
			AddRow(0, 0, 0, 0.0))
	mock.ExpectQuery("SELECT finished_at, status").
		WillReturnRows(sqlmock.NewRows([]string{"finished_at", "status"}))

	summary, err := store.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalRuns)
	assert.False(t, summary.LastRunAt.Valid)
	assert.False(t, summary.LastStatus.Valid)
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS aggregation_runs").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
