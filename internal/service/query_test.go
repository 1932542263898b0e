package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/notion-digest/internal/model"
)

func pageWithDate(name, start, end string) model.Page {
	return model.Page{
		ID: "p1",
		Properties: model.Properties{
			{Name: "Name", Value: model.TitleValue{Text: runs("x")}},
			{Name: name, Value: model.DateValue{Date: &model.DateRange{Start: start, End: end}}},
		},
	}
}

func TestBuildQuery_NoSelection(t *testing.T) {
	q := BuildQuery(ResolvedAnchor{Name: "When", Type: model.PropertyDate}, nil)

	assert.Nil(t, q.Filter)
	assert.Equal(t, []Sort{{Timestamp: "last_edited_time", Direction: "descending"}}, q.Sorts)
	assert.True(t, q.Accept(model.Page{}))
}

func TestBuildQuery_CreatedTimeSingle(t *testing.T) {
	q := BuildQuery(ResolvedAnchor{Name: "Created", Type: model.PropertyCreatedTime}, model.NewSingleSelection("2026-02-13"))

	require.NotNil(t, q.Filter)
	data, err := json.Marshal(q.Filter)
	require.NoError(t, err)
	assert.JSONEq(t, `{"property":"Created","created_time":{"equals":"2026-02-13"}}`, string(data))
	assert.Nil(t, q.PostFilter)
	assert.Empty(t, q.Sorts)
}

func TestBuildQuery_LastEditedRange(t *testing.T) {
	q := BuildQuery(ResolvedAnchor{Name: "Edited", Type: model.PropertyLastEditedTime}, model.NewRangeSelection("2026-02-09", "2026-02-01"))

	data, err := json.Marshal(q.Filter)
	require.NoError(t, err)
	assert.JSONEq(t, `{"and":[
		{"property":"Edited","last_edited_time":{"on_or_after":"2026-02-01"}},
		{"property":"Edited","last_edited_time":{"on_or_before":"2026-02-09"}}
	]}`, string(data))
	assert.Nil(t, q.PostFilter)
}

func TestBuildQuery_DateAnchorUsesSupersetFilter(t *testing.T) {
	q := BuildQuery(ResolvedAnchor{Name: "When", Type: model.PropertyDate}, model.NewRangeSelection("2026-02-01", "2026-02-09"))

	data, err := json.Marshal(q.Filter)
	require.NoError(t, err)
	assert.JSONEq(t, `{"property":"When","date":{"on_or_before":"2026-02-09"}}`, string(data))
	assert.Equal(t, []Sort{{Property: "When", Direction: "descending"}}, q.Sorts)
	require.NotNil(t, q.PostFilter)
}

func TestBuildQuery_DatePostFilter(t *testing.T) {
	tests := []struct {
		name       string
		sel        *model.DateSelection
		start, end string
		want       bool
	}{
		{"datetime range touching the day", model.NewSingleSelection("2026-02-13"), "2026-02-13T12:00:00Z", "2026-02-14T00:00:00Z", true},
		{"range after the window", model.NewRangeSelection("2026-02-01", "2026-02-09"), "2026-02-10", "2026-02-12", false},
		{"year-long value contains the day", model.NewSingleSelection("2026-02-10"), "2026-01-01", "2026-12-31", true},
		{"start only inside range", model.NewRangeSelection("2026-02-01", "2026-02-09"), "2026-02-05", "", true},
		{"start only before range", model.NewRangeSelection("2026-02-01", "2026-02-09"), "2026-01-31", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := BuildQuery(ResolvedAnchor{Name: "When", Type: model.PropertyDate}, tt.sel)
			assert.Equal(t, tt.want, q.Accept(pageWithDate("When", tt.start, tt.end)))
		})
	}
}

func TestBuildQuery_DatePostFilterRejectsMissingValue(t *testing.T) {
	q := BuildQuery(ResolvedAnchor{Name: "When", Type: model.PropertyDate}, model.NewSingleSelection("2026-02-13"))

	assert.False(t, q.Accept(model.Page{ID: "p"}), "property absent")
	assert.False(t, q.Accept(model.Page{ID: "p", Properties: model.Properties{
		{Name: "When", Value: model.DateValue{}},
	}}), "empty date")
	assert.False(t, q.Accept(model.Page{ID: "p", Properties: model.Properties{
		{Name: "When", Value: model.UnknownValue{Kind: "date"}},
	}}), "malformed value")
}
