package model

import "strings"

// PropertyType is a Notion property type name
type PropertyType string

const (
	PropertyTitle          PropertyType = "title"
	PropertyRichText       PropertyType = "rich_text"
	PropertyURL            PropertyType = "url"
	PropertyEmail          PropertyType = "email"
	PropertyPhoneNumber    PropertyType = "phone_number"
	PropertyNumber         PropertyType = "number"
	PropertyCheckbox       PropertyType = "checkbox"
	PropertySelect         PropertyType = "select"
	PropertyStatus         PropertyType = "status"
	PropertyMultiSelect    PropertyType = "multi_select"
	PropertyDate           PropertyType = "date"
	PropertyPeople         PropertyType = "people"
	PropertyFiles          PropertyType = "files"
	PropertyFormula        PropertyType = "formula"
	PropertyCreatedTime    PropertyType = "created_time"
	PropertyLastEditedTime PropertyType = "last_edited_time"
)

// IsTemporal reports whether a property of this type can anchor a date filter
func (t PropertyType) IsTemporal() bool {
	switch t {
	case PropertyDate, PropertyCreatedTime, PropertyLastEditedTime:
		return true
	}
	return false
}

// RichText is one formatted-text run; only its plain text is kept
type RichText struct {
	PlainText string
}

// PlainText concatenates the runs in order with no separator
func PlainText(runs []RichText) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.PlainText)
	}
	return b.String()
}

// SelectOption is a select, status or multi_select choice
type SelectOption struct {
	ID   string
	Name string
}

// Person is a Notion user referenced by a people property
type Person struct {
	ID    string
	Name  string
	Email string
}

// File is an entry of a files property
type File struct {
	Name string
	URL  string
}

// DateRange is the value of a date property. End is empty for single dates.
type DateRange struct {
	Start string
	End   string
}

// PropertyValue is the typed value of one page property. The concrete type
// identifies the Notion property type.
type PropertyValue interface {
	PropertyType() PropertyType
}

type TitleValue struct{ Text []RichText }
type RichTextValue struct{ Text []RichText }
type URLValue struct{ URL string }
type EmailValue struct{ Email string }
type PhoneNumberValue struct{ PhoneNumber string }
type NumberValue struct{ Number *float64 }
type CheckboxValue struct{ Checked *bool }
type SelectValue struct{ Option *SelectOption }
type StatusValue struct{ Option *SelectOption }
type MultiSelectValue struct{ Options []SelectOption }
type DateValue struct{ Date *DateRange }
type PeopleValue struct{ People []Person }
type FilesValue struct{ Files []File }

// FormulaValue holds a computed result; Kind names which field is set
type FormulaValue struct {
	Kind    string
	String  *string
	Number  *float64
	Boolean *bool
}

// TimestampValue is a created_time or last_edited_time value
type TimestampValue struct {
	Kind PropertyType
	Time string
}

// UnknownValue stands in for unsupported types and values that failed to decode
type UnknownValue struct{ Kind PropertyType }

func (TitleValue) PropertyType() PropertyType       { return PropertyTitle }
func (RichTextValue) PropertyType() PropertyType    { return PropertyRichText }
func (URLValue) PropertyType() PropertyType         { return PropertyURL }
func (EmailValue) PropertyType() PropertyType       { return PropertyEmail }
func (PhoneNumberValue) PropertyType() PropertyType { return PropertyPhoneNumber }
func (NumberValue) PropertyType() PropertyType      { return PropertyNumber }
func (CheckboxValue) PropertyType() PropertyType    { return PropertyCheckbox }
func (SelectValue) PropertyType() PropertyType      { return PropertySelect }
func (StatusValue) PropertyType() PropertyType      { return PropertyStatus }
func (MultiSelectValue) PropertyType() PropertyType { return PropertyMultiSelect }
func (DateValue) PropertyType() PropertyType        { return PropertyDate }
func (PeopleValue) PropertyType() PropertyType      { return PropertyPeople }
func (FilesValue) PropertyType() PropertyType       { return PropertyFiles }
func (FormulaValue) PropertyType() PropertyType     { return PropertyFormula }
func (v TimestampValue) PropertyType() PropertyType { return v.Kind }
func (v UnknownValue) PropertyType() PropertyType   { return v.Kind }

// Property is a named property value of a page
type Property struct {
	Name  string
	Value PropertyValue
}

// Properties keeps page properties in document order
type Properties []Property

// Get returns the value of the property with the given name
func (p Properties) Get(name string) (PropertyValue, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return nil, false
}

// Page is a Notion page returned by a data source query
type Page struct {
	ID         string
	URL        string
	Properties Properties
}

// PageList is one page of query results
type PageList struct {
	Results    []Page
	HasMore    bool
	NextCursor string
}

// DataSourceRef identifies a queryable partition of a database
type DataSourceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Database is a Notion database container
type Database struct {
	ID          string
	Title       string
	DataSources []DataSourceRef
}

// SchemaProperty is one entry of a data source schema
type SchemaProperty struct {
	Key  string       `json:"key"`
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Type PropertyType `json:"type"`
}

// DataSource is a data source with its live schema in document order
type DataSource struct {
	ID         string
	Title      string
	DatabaseID string
	Properties []SchemaProperty
}

// Block is a child block of a page. HasRichText and HasCaption record
// whether the typed content carried those arrays at all.
type Block struct {
	ID          string
	Type        string
	HasChildren bool
	RichText    []RichText
	HasRichText bool
	Title       string
	Caption     []RichText
	HasCaption  bool
}

// BlockList is one page of child blocks
type BlockList struct {
	Results    []Block
	HasMore    bool
	NextCursor string
}
