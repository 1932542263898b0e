package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/notion-digest/internal/model"
	"github.com/jjenkins/notion-digest/internal/store"
)

func newConfigApp(settings SettingsRepository) *fiber.App {
	app := fiber.New()
	app.Get("/api/config", ConfigGetHandler(settings))
	app.Post("/api/config", ConfigSaveHandler(settings))
	return app
}

func TestConfigGet_ReturnsDocumentAsStored(t *testing.T) {
	settings := &fakeSettings{doc: json.RawMessage(`{
		"notion_token": "secret",
		"theme": "dark",
		"source_databases": [{"database_id": "db-1", "nickname": "Tasks", "enabled": true, "selected_properties": []}]
	}`)}

	status, body := doRequest(t, newConfigApp(settings), httptest.NewRequest(http.MethodGet, "/api/config", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	cfg, ok := body["config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "secret", cfg["notion_token"])
	assert.Equal(t, "dark", cfg["theme"], "unknown keys are kept")

	sources, ok := cfg["source_databases"].([]any)
	require.True(t, ok)
	require.Len(t, sources, 1)
	source := sources[0].(map[string]any)
	assert.Equal(t, "Tasks", source["nickname"])
	assert.NotContains(t, source, "include_page_content", "absent optional keys stay absent")
	assert.NotContains(t, source, "anchor_date_property")
}

func TestConfigGet_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{"missing file", fmt.Errorf("%w: config.json", store.ErrSettingsNotFound), http.StatusNotFound, CodeConfigNotFound, "config.json not found"},
		{"bad shape", store.ErrSettingsInvalid, http.StatusBadRequest, CodeValidation, "Invalid config.json structure"},
		{"read failure", errors.New("permission denied"), http.StatusInternalServerError, CodeIO, "permission denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, newConfigApp(&fakeSettings{err: tt.err}), httptest.NewRequest(http.MethodGet, "/api/config", nil))
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestConfigSave(t *testing.T) {
	settings := &fakeSettings{settings: &model.AppSettings{NotionToken: "new"}}
	raw := `{"notion_token": "new", "extra": 1}`

	status, body := doRequest(t, newConfigApp(settings),
		httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(raw)))
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, raw, string(settings.saved))
	assert.Equal(t, map[string]any{"notion_token": "new", "extra": float64(1)}, body["config"])
}

func TestConfigSave_ValidationFields(t *testing.T) {
	err := fmt.Errorf("%w: %w", store.ErrSettingsInvalid, &store.ValidationError{Errors: map[string]string{
		"source_databases[0].nickname": "source_databases[0].nickname is required",
	}})

	status, body := doRequest(t, newConfigApp(&fakeSettings{err: err}),
		httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeValidation, body["code"])
	assert.Equal(t, "Invalid settings payload", body["error"])
	assert.Equal(t, map[string]any{
		"source_databases[0].nickname": "source_databases[0].nickname is required",
	}, body["fields"])
}
