package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jjenkins/notion-digest/internal/model"
)

var (
	// ErrSettingsNotFound is returned when the settings document does not exist
	ErrSettingsNotFound = errors.New("settings document not found")
	// ErrSettingsInvalid is returned when the settings document has the wrong shape
	ErrSettingsInvalid = errors.New("invalid settings document")
)

// ValidationError lists the offending fields of a settings document
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, e.Errors[field])
	}
	return "validation failed: " + strings.Join(messages, ", ")
}

// settingsDocument mirrors model.AppSettings with pointer fields so that a
// missing key can be told apart from a zero value.
type settingsDocument struct {
	NotionToken       *string           `json:"notion_token" validate:"required"`
	GeminiAPIKey      *string           `json:"gemini_api_key" validate:"required"`
	OutputDatabaseIDs *outputIDsDocument `json:"output_database_ids" validate:"required"`
	SourceDatabases   []sourceDocument  `json:"source_databases" validate:"required,dive"`
}

type outputIDsDocument struct {
	Daily  *string `json:"daily" validate:"required"`
	Weekly *string `json:"weekly" validate:"required"`
}

type sourceDocument struct {
	DatabaseID         *string            `json:"database_id" validate:"required"`
	Nickname           *string            `json:"nickname" validate:"required"`
	Enabled            *bool              `json:"enabled" validate:"required"`
	IncludePageContent *bool              `json:"include_page_content"`
	AnchorDateProperty *string            `json:"anchor_date_property"`
	SelectedProperties []selectedDocument `json:"selected_properties" validate:"required,dive"`
}

type selectedDocument struct {
	Name *string `json:"name" validate:"required"`
	Type *string `json:"type" validate:"required"`
}

func newSettingsValidator() *validator.Validate {
	validate := validator.New()

	// Use JSON field names for validation error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// SettingsStore reads and writes the settings document on disk. The file is
// re-read on every Load.
type SettingsStore struct {
	path     string
	validate *validator.Validate
}

// NewSettingsStore creates a store for the document at path
func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{
		path:     path,
		validate: newSettingsValidator(),
	}
}

// Path returns the location of the settings document
func (s *SettingsStore) Path() string {
	return s.path
}

// Load reads and validates the settings document
func (s *SettingsStore) Load(ctx context.Context) (*model.AppSettings, error) {
	raw, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return s.Parse(raw)
}

// LoadDocument validates the settings document and returns it as written,
// including keys this service does not use.
func (s *SettingsStore) LoadDocument(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.Parse(raw); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimSpace(raw)), nil
}

func (s *SettingsStore) read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSettingsNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings %s: %w", s.path, err)
	}
	return raw, nil
}

// Parse validates raw as a settings document
func (s *SettingsStore) Parse(raw []byte) (*model.AppSettings, error) {
	var doc settingsDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSettingsInvalid, decodeValidationError(err))
	}

	if err := s.validate.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, fmt.Errorf("%w: %w", ErrSettingsInvalid, newValidationError(verrs))
		}
		return nil, fmt.Errorf("%w: %w", ErrSettingsInvalid, err)
	}

	return doc.settings(), nil
}

// Save validates raw and replaces the settings document with it. The write
// goes through a temporary file and a rename so readers never see a partial
// document.
func (s *SettingsStore) Save(ctx context.Context, raw []byte) (*model.AppSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	settings, err := s.Parse(raw)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "  "); err != nil {
		return nil, fmt.Errorf("failed to format settings: %w", err)
	}
	buf.WriteByte('\n')

	if err := writeFileAtomic(s.path, buf.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write settings %s: %w", s.path, err)
	}

	return settings, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

func (d settingsDocument) settings() *model.AppSettings {
	settings := &model.AppSettings{
		NotionToken:  *d.NotionToken,
		GeminiAPIKey: *d.GeminiAPIKey,
		OutputDatabaseIDs: model.OutputDatabaseIDs{
			Daily:  *d.OutputDatabaseIDs.Daily,
			Weekly: *d.OutputDatabaseIDs.Weekly,
		},
		SourceDatabases: make([]model.SourceConfig, 0, len(d.SourceDatabases)),
	}

	for _, src := range d.SourceDatabases {
		cfg := model.SourceConfig{
			DatabaseID:         *src.DatabaseID,
			Nickname:           *src.Nickname,
			Enabled:            *src.Enabled,
			SelectedProperties: make([]model.SelectedProperty, 0, len(src.SelectedProperties)),
		}
		if src.IncludePageContent != nil {
			cfg.IncludePageContent = *src.IncludePageContent
		}
		if src.AnchorDateProperty != nil {
			cfg.AnchorDateProperty = *src.AnchorDateProperty
		}
		for _, p := range src.SelectedProperties {
			cfg.SelectedProperties = append(cfg.SelectedProperties, model.SelectedProperty{
				Name: *p.Name,
				Type: model.PropertyType(*p.Type),
			})
		}
		settings.SourceDatabases = append(settings.SourceDatabases, cfg)
	}

	return settings
}

// newValidationError keys each failure by its JSON path, e.g.
// source_databases[0].nickname
func newValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make(map[string]string, len(errs))
	for _, err := range errs {
		field := err.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}

		switch err.Tag() {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", field)
		default:
			fields[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return &ValidationError{Errors: fields}
}

func decodeValidationError(err error) *ValidationError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &ValidationError{Errors: map[string]string{
			typeErr.Field: fmt.Sprintf("%s must be a %s", typeErr.Field, jsonKind(typeErr.Type)),
		}}
	}
	return &ValidationError{Errors: map[string]string{
		"document": "document must be a JSON object: " + err.Error(),
	}}
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "value of another type"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice:
		return "array"
	case reflect.Struct:
		return "object"
	}
	return t.Kind().String()
}
