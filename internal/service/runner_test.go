package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/notion-digest/internal/model"
)

type stubSettings struct {
	settings *model.AppSettings
	err      error
	loads    int
}

func (s *stubSettings) Load(context.Context) (*model.AppSettings, error) {
	s.loads++
	return s.settings, s.err
}

type recordingRuns struct {
	runs []*model.AggregationRun
	err  error
}

func (r *recordingRuns) Insert(_ context.Context, run *model.AggregationRun) error {
	r.runs = append(r.runs, run)
	return r.err
}

func TestResolveToken(t *testing.T) {
	tests := []struct {
		name                     string
		override, settings, proc string
		want                     string
		wantErr                  bool
	}{
		{"override wins", "req", "cfg", "env", "req", false},
		{"blank override falls through", "   ", "cfg", "env", "cfg", false},
		{"process default last", "", "", " env ", "env", false},
		{"nothing available", "", " ", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveToken(tt.override, tt.settings, tt.proc)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingCredential)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunner_RecordsSuccessfulRun(t *testing.T) {
	api := newFakeNotion()
	api.databases["db1"] = &model.Database{ID: "db1", DataSources: []model.DataSourceRef{{ID: "ds1"}}}
	api.pages["ds1"] = []model.Page{titledPage("p1", "one"), titledPage("p2", "two")}

	settings := &stubSettings{settings: &model.AppSettings{
		NotionToken:     "settings-token",
		SourceDatabases: []model.SourceConfig{{DatabaseID: "db1", Enabled: true}},
	}}
	runs := &recordingRuns{}

	var usedToken string
	runner := NewRunner(settings, func(token string) NotionAPI {
		usedToken = token
		return api
	}, runs, "env-token", discardLogger())

	payload, err := runner.Run(context.Background(), RunRequest{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, payload.Items, 2)
	assert.Equal(t, "settings-token", usedToken)

	require.Len(t, runs.runs, 1)
	run := runs.runs[0]
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunSuccess, run.Status)
	assert.Equal(t, 1, run.SourceCount)
	assert.Equal(t, 2, run.ItemCount)
	assert.Equal(t, 10, run.LimitPerSource)
	assert.False(t, run.SelectionMode.Valid)
	assert.False(t, run.Error.Valid)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))
}

func TestRunner_ReloadsSettingsEachRun(t *testing.T) {
	settings := &stubSettings{settings: &model.AppSettings{}}
	runner := NewRunner(settings, func(string) NotionAPI { return newFakeNotion() }, nil, "env-token", discardLogger())

	for i := 0; i < 2; i++ {
		_, err := runner.Run(context.Background(), RunRequest{Limit: 1})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, settings.loads)
}

func TestRunner_TokenOverride(t *testing.T) {
	settings := &stubSettings{settings: &model.AppSettings{NotionToken: "settings-token"}}

	var usedToken string
	runner := NewRunner(settings, func(token string) NotionAPI {
		usedToken = token
		return newFakeNotion()
	}, nil, "", discardLogger())

	_, err := runner.Run(context.Background(), RunRequest{Limit: 1, TokenOverride: "header-token"})
	require.NoError(t, err)
	assert.Equal(t, "header-token", usedToken)
}

func TestRunner_MissingCredential(t *testing.T) {
	settings := &stubSettings{settings: &model.AppSettings{}}
	runs := &recordingRuns{}
	called := false
	runner := NewRunner(settings, func(string) NotionAPI {
		called = true
		return newFakeNotion()
	}, runs, "", discardLogger())

	sel := model.NewRangeSelection("2026-02-09", "2026-02-01")
	payload, err := runner.Run(context.Background(), RunRequest{Limit: 5, Selection: sel})
	assert.Nil(t, payload)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.False(t, called)

	require.Len(t, runs.runs, 1)
	run := runs.runs[0]
	assert.Equal(t, model.RunFailure, run.Status)
	assert.True(t, run.Error.Valid)
	assert.Equal(t, "range", run.SelectionMode.String)
	assert.Equal(t, "2026-02-01", run.SelectionStart.String)
	assert.Equal(t, "2026-02-09", run.SelectionEnd.String)
	assert.Equal(t, sel, run.Selection())
}

func TestRunner_SettingsErrorIsWrapped(t *testing.T) {
	missing := errors.New("no such file")
	runner := NewRunner(&stubSettings{err: missing}, func(string) NotionAPI { return newFakeNotion() }, nil, "tok", discardLogger())

	_, err := runner.Run(context.Background(), RunRequest{Limit: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, missing)
	assert.Contains(t, err.Error(), "failed to load settings")
}

func TestRunner_HistoryFailureDoesNotFailRun(t *testing.T) {
	settings := &stubSettings{settings: &model.AppSettings{}}
	runs := &recordingRuns{err: errors.New("database is down")}
	runner := NewRunner(settings, func(string) NotionAPI { return newFakeNotion() }, runs, "tok", discardLogger())

	payload, err := runner.Run(context.Background(), RunRequest{Limit: 1})
	require.NoError(t, err)
	assert.NotNil(t, payload)
	assert.Len(t, runs.runs, 1)
}
