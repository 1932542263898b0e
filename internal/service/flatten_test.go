package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jjenkins/notion-digest/internal/model"
)

func ptr[T any](v T) *T { return &v }

func runs(texts ...string) []model.RichText {
	out := make([]model.RichText, 0, len(texts))
	for _, t := range texts {
		out = append(out, model.RichText{PlainText: t})
	}
	return out
}

func TestRenderProperty(t *testing.T) {
	tests := []struct {
		name  string
		value model.PropertyValue
		want  string
	}{
		{"title runs concatenate", model.TitleValue{Text: runs("Weekly ", "sync")}, "Weekly sync"},
		{"rich text", model.RichTextValue{Text: runs("a", "b", "c")}, "abc"},
		{"empty rich text", model.RichTextValue{}, ""},
		{"url", model.URLValue{URL: "https://example.com"}, "https://example.com"},
		{"email", model.EmailValue{Email: "a@example.com"}, "a@example.com"},
		{"phone", model.PhoneNumberValue{PhoneNumber: "+1 555"}, "+1 555"},
		{"integer number", model.NumberValue{Number: ptr(42.0)}, "42"},
		{"fractional number", model.NumberValue{Number: ptr(3.25)}, "3.25"},
		{"absent number", model.NumberValue{}, ""},
		{"checkbox true", model.CheckboxValue{Checked: ptr(true)}, "true"},
		{"checkbox false", model.CheckboxValue{Checked: ptr(false)}, "false"},
		{"checkbox absent", model.CheckboxValue{}, ""},
		{"select", model.SelectValue{Option: &model.SelectOption{Name: "High"}}, "High"},
		{"select empty", model.SelectValue{}, ""},
		{"status", model.StatusValue{Option: &model.SelectOption{Name: "Done"}}, "Done"},
		{"multi select drops empties", model.MultiSelectValue{Options: []model.SelectOption{{Name: "a"}, {Name: ""}, {Name: "b"}}}, "a, b"},
		{"date start only", model.DateValue{Date: &model.DateRange{Start: "2026-02-13"}}, "2026-02-13"},
		{"date range", model.DateValue{Date: &model.DateRange{Start: "2026-02-13", End: "2026-02-14"}}, "2026-02-13 → 2026-02-14"},
		{"date null", model.DateValue{}, ""},
		{"people fall back to id then email", model.PeopleValue{People: []model.Person{
			{Name: "Ada", ID: "u1"},
			{ID: "u2", Email: "b@example.com"},
			{Email: "c@example.com"},
			{},
		}}, "Ada, u2, c@example.com"},
		{"files", model.FilesValue{Files: []model.File{{Name: "a.pdf"}, {Name: ""}, {Name: "b.png"}}}, "a.pdf, b.png"},
		{"formula string", model.FormulaValue{Kind: "string", String: ptr("ok")}, "ok"},
		{"formula number", model.FormulaValue{Kind: "number", Number: ptr(1.5)}, "1.5"},
		{"formula boolean", model.FormulaValue{Kind: "boolean", Boolean: ptr(true)}, "true"},
		{"formula date kind", model.FormulaValue{Kind: "date"}, ""},
		{"formula mismatched kind", model.FormulaValue{Kind: "number", String: ptr("x")}, ""},
		{"created time is not rendered", model.TimestampValue{Kind: model.PropertyCreatedTime, Time: "2026-02-13T00:00:00Z"}, ""},
		{"unknown type", model.UnknownValue{Kind: "relation"}, ""},
		{"nil value", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderProperty(tt.value))
		})
	}
}
