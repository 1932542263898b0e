package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// FieldValue is one rendered property of an aggregated item
type FieldValue struct {
	Name  string
	Value string
}

// FieldValues is an insertion-ordered name→text mapping. It encodes as a JSON
// object whose keys keep that order.
type FieldValues []FieldValue

// MarshalJSON writes the values as an object in insertion order
func (f FieldValues) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fv := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fv.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(fv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of strings, keeping key order
func (f *FieldValues) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	values := FieldValues{}
	err := WalkObject(dec, func(key string) error {
		var v string
		if err := dec.Decode(&v); err != nil {
			return err
		}
		values = append(values, FieldValue{Name: key, Value: v})
		return nil
	})
	if err != nil {
		return err
	}
	*f = values
	return nil
}

// AggregatedItem is one flattened page ready for summarization
type AggregatedItem struct {
	SourceID             string      `json:"database_id"`
	Nickname             string      `json:"nickname"`
	RecordID             string      `json:"page_id"`
	RecordURL            string      `json:"page_url"`
	Title                string      `json:"title"`
	SelectedValues       FieldValues `json:"selected_properties"`
	IncludePageContent   bool        `json:"include_page_content"`
	AnchorPropertyName   string      `json:"anchor_date_property"`
	PageContent          string      `json:"page_content"`
	PageContentTruncated bool        `json:"page_content_truncated"`
	InputText            string      `json:"input_text"`
}

// Payload is the full result of one aggregation request
type Payload struct {
	GeneratedAt        Timestamp        `json:"generated_at"`
	RequestedSelection *DateSelection   `json:"runtime_date_selection"`
	Items              []AggregatedItem `json:"items"`
}

// Timestamp encodes as an RFC 3339 UTC string with millisecond precision
type Timestamp time.Time

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(timestampLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

var errNotObject = errors.New("expected JSON object")

// WalkObject reads a JSON object from dec, calling fn for each key with the
// decoder positioned at the key's value. fn must consume the value.
func WalkObject(dec *json.Decoder, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errNotObject
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		if err := fn(key); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
