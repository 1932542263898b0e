package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValues_KeepInsertionOrder(t *testing.T) {
	values := FieldValues{
		{Name: "Zeta", Value: "z"},
		{Name: "Alpha", Value: "a \"quoted\""},
		{Name: "Mid", Value: "m"},
	}

	data, err := json.Marshal(values)
	require.NoError(t, err)
	assert.Equal(t, `{"Zeta":"z","Alpha":"a \"quoted\"","Mid":"m"}`, string(data))

	var decoded FieldValues
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, values, decoded)
}

func TestFieldValues_EmptyEncodesAsObject(t *testing.T) {
	data, err := json.Marshal(FieldValues{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestTimestamp_Format(t *testing.T) {
	ts := Timestamp(time.Date(2026, 2, 13, 18, 30, 5, 123456789, time.FixedZone("JST", 9*3600)))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2026-02-13T09:30:05.123Z"`, string(data))
}

func TestPayload_NullSelection(t *testing.T) {
	data, err := json.Marshal(Payload{Items: []AggregatedItem{}})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "runtime_date_selection")
	assert.Nil(t, decoded["runtime_date_selection"])
	assert.Equal(t, []any{}, decoded["items"])
}

func TestEnabledSources(t *testing.T) {
	settings := AppSettings{SourceDatabases: []SourceConfig{
		{DatabaseID: "a", Enabled: true},
		{DatabaseID: "b"},
		{DatabaseID: "c", Enabled: true},
	}}

	enabled := settings.EnabledSources()
	require.Len(t, enabled, 2)
	assert.Equal(t, "a", enabled[0].DatabaseID)
	assert.Equal(t, "c", enabled[1].DatabaseID)
}
