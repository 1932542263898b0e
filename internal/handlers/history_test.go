package handlers

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/notion-digest/internal/model"
)

func sampleRun() model.AggregationRun {
	started := time.Date(2026, 2, 13, 9, 0, 0, 0, time.UTC)
	run := model.AggregationRun{
		ID:             "run-1",
		StartedAt:      started,
		FinishedAt:     started.Add(1500 * time.Millisecond),
		LimitPerSource: 50,
		SourceCount:    2,
		ItemCount:      9,
		Status:         model.RunFailure,
		Error:          sql.NullString{String: "notion query_data_source failed (HTTP 401)", Valid: true},
	}
	run.SetSelection(model.NewSingleSelection("2026-02-13"))
	return run
}

func TestHistory_Disabled(t *testing.T) {
	app := fiber.New()
	app.Get("/api/history", HistoryHandler(nil))

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, CodeHistoryDisabled, body["code"])
}

func TestHistory_ListsRuns(t *testing.T) {
	history := &fakeHistory{runs: []model.AggregationRun{sampleRun()}}
	app := fiber.New()
	app.Get("/api/history", HistoryHandler(history))

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/history?limit=5", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 5, history.lastLimit)

	runs, ok := body["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 1)

	run := runs[0].(map[string]any)
	assert.Equal(t, "run-1", run["id"])
	assert.EqualValues(t, 1500, run["duration_ms"])
	assert.Equal(t, map[string]any{"mode": "single", "date": "2026-02-13"}, run["runtime_date_selection"])
	assert.Equal(t, "failure", run["status"])
	assert.Equal(t, "notion query_data_source failed (HTTP 401)", run["error"])
}

func TestHistory_StoreError(t *testing.T) {
	app := fiber.New()
	app.Get("/api/history", HistoryHandler(&fakeHistory{err: errors.New("db down")}))

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, CodeIO, body["code"])
}

func renderHome(t *testing.T, settings SettingsRepository, history RunHistory) (int, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := fiber.New()
	app.Get("/", HomeHandler(settings, "/srv/config.json", history, logger))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestHome_RendersSourcesAndRuns(t *testing.T) {
	settings := &fakeSettings{settings: &model.AppSettings{SourceDatabases: []model.SourceConfig{
		{DatabaseID: "db-1", Nickname: "Tasks <team>", Enabled: true},
	}}}
	history := &fakeHistory{
		runs:    []model.AggregationRun{sampleRun()},
		summary: &model.RunSummary{TotalRuns: 1, FailedRuns: 1, TotalItems: 9},
	}

	status, html := renderHome(t, settings, history)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, html, "/srv/config.json")
	assert.Contains(t, html, "Tasks &lt;team&gt;")
	assert.Contains(t, html, "2026-02-13 09:00:00")
	assert.Contains(t, html, "failure: notion query_data_source failed (HTTP 401)")
	assert.Equal(t, homeRecentRuns, history.lastLimit)
}

func TestHome_DegradesWithoutSettingsOrHistory(t *testing.T) {
	status, html := renderHome(t, &fakeSettings{err: errors.New("settings document not found")}, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, html, "settings document not found")
	assert.Contains(t, html, "Run history is disabled")
}
