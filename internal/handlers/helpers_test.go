package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/notion-digest/internal/model"
	"github.com/jjenkins/notion-digest/internal/service"
)

type fakeRunner struct {
	payload *model.Payload
	err     error
	reqs    []service.RunRequest
}

func (f *fakeRunner) Run(_ context.Context, req service.RunRequest) (*model.Payload, error) {
	f.reqs = append(f.reqs, req)
	return f.payload, f.err
}

func (f *fakeRunner) last(t *testing.T) service.RunRequest {
	t.Helper()
	require.NotEmpty(t, f.reqs)
	return f.reqs[len(f.reqs)-1]
}

type fakeSettings struct {
	settings *model.AppSettings
	doc      json.RawMessage
	err      error
	saved    []byte
}

func (f *fakeSettings) Load(context.Context) (*model.AppSettings, error) {
	return f.settings, f.err
}

func (f *fakeSettings) LoadDocument(context.Context) (json.RawMessage, error) {
	return f.doc, f.err
}

func (f *fakeSettings) Save(_ context.Context, raw []byte) (*model.AppSettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append([]byte(nil), raw...)
	f.doc = f.saved
	return f.settings, nil
}

type fakeHistory struct {
	runs      []model.AggregationRun
	summary   *model.RunSummary
	err       error
	lastLimit int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]model.AggregationRun, error) {
	f.lastLimit = limit
	return f.runs, f.err
}

func (f *fakeHistory) Summary(context.Context) (*model.RunSummary, error) {
	return f.summary, f.err
}

// fakeNotion serves fixed databases and data sources
type fakeNotion struct {
	databases   map[string]*model.Database
	dataSources map[string]*model.DataSource
	err         error
}

func (f *fakeNotion) RetrieveDatabase(_ context.Context, id string) (*model.Database, error) {
	if f.err != nil {
		return nil, f.err
	}
	db, ok := f.databases[id]
	if !ok {
		return nil, &service.APIError{Operation: "retrieve_database", Status: 404, Code: "object_not_found"}
	}
	return db, nil
}

func (f *fakeNotion) RetrieveDataSource(_ context.Context, id string) (*model.DataSource, error) {
	if f.err != nil {
		return nil, f.err
	}
	ds, ok := f.dataSources[id]
	if !ok {
		return nil, &service.APIError{Operation: "retrieve_data_source", Status: 404, Code: "object_not_found"}
	}
	return ds, nil
}

func (f *fakeNotion) QueryDataSource(context.Context, string, service.QueryRequest) (*model.PageList, error) {
	return &model.PageList{}, nil
}

func (f *fakeNotion) ListBlockChildren(context.Context, string, string) (*model.BlockList, error) {
	return &model.BlockList{}, nil
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &body), string(data))
	}
	return resp.StatusCode, body
}
