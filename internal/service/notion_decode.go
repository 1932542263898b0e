package service

import (
	"bytes"
	"encoding/json"

	"github.com/jjenkins/notion-digest/internal/model"
)

// Notion returns properties as JSON objects whose key order is the order the
// user sees, so the decoders below walk tokens instead of unmarshalling maps.

func decodeSchema(raw json.RawMessage) ([]model.SchemaProperty, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	var schema []model.SchemaProperty
	err := model.WalkObject(dec, func(key string) error {
		var entry struct {
			ID   string             `json:"id"`
			Name string             `json:"name"`
			Type model.PropertyType `json:"type"`
		}
		if err := dec.Decode(&entry); err != nil {
			return err
		}
		name := entry.Name
		if name == "" {
			name = key
		}
		schema = append(schema, model.SchemaProperty{Key: key, ID: entry.ID, Name: name, Type: entry.Type})
		return nil
	})
	return schema, err
}

// decodePage reads a page object. Non-page results are skipped.
func decodePage(raw json.RawMessage) (model.Page, bool) {
	var head struct {
		Object     string          `json:"object"`
		ID         string          `json:"id"`
		URL        string          `json:"url"`
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || head.ID == "" {
		return model.Page{}, false
	}
	if head.Object != "" && head.Object != "page" {
		return model.Page{}, false
	}

	page := model.Page{ID: head.ID, URL: head.URL}
	if len(head.Properties) == 0 {
		return page, true
	}

	dec := json.NewDecoder(bytes.NewReader(head.Properties))
	var props model.Properties
	// a malformed tail keeps the properties decoded before it
	_ = model.WalkObject(dec, func(key string) error {
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		props = append(props, model.Property{Name: key, Value: decodePropertyValue(value)})
		return nil
	})
	page.Properties = props
	return page, true
}

type optionJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (o optionJSON) model() model.SelectOption {
	return model.SelectOption{ID: o.ID, Name: o.Name}
}

// decodePropertyValue never fails: anything that does not match the shape
// of its declared type becomes an UnknownValue.
func decodePropertyValue(raw json.RawMessage) model.PropertyValue {
	var head struct {
		Type model.PropertyType `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return model.UnknownValue{}
	}
	unknown := model.UnknownValue{Kind: head.Type}

	switch head.Type {
	case model.PropertyTitle:
		var v struct {
			Title []richTextJSON `json:"title"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		return model.TitleValue{Text: toRichText(v.Title)}

	case model.PropertyRichText:
		var v struct {
			RichText []richTextJSON `json:"rich_text"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		return model.RichTextValue{Text: toRichText(v.RichText)}

	case model.PropertyURL:
		var v struct {
			URL *string `json:"url"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		return model.URLValue{URL: derefString(v.URL)}

	case model.PropertyEmail:
		var v struct {
			Email *string `json:"email"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		return model.EmailValue{Email: derefString(v.Email)}

	case model.PropertyPhoneNumber:
		var v struct {
			PhoneNumber *string `json:"phone_number"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		return model.PhoneNumberValue{PhoneNumber: derefString(v.PhoneNumber)}

	case model.PropertyNumber:
		var v struct {
			Number *float64 `json:"number"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		return model.NumberValue{Number: v.Number}

	case model.PropertyCheckbox:
		var v struct {
			Checkbox *bool `json:"checkbox"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		return model.CheckboxValue{Checked: v.Checkbox}

	case model.PropertySelect, model.PropertyStatus:
		var v struct {
			Select *optionJSON `json:"select"`
			Status *optionJSON `json:"status"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		opt := v.Select
		if head.Type == model.PropertyStatus {
			opt = v.Status
		}
		var option *model.SelectOption
		if opt != nil {
			o := opt.model()
			option = &o
		}
		if head.Type == model.PropertyStatus {
			return model.StatusValue{Option: option}
		}
		return model.SelectValue{Option: option}

	case model.PropertyMultiSelect:
		var v struct {
			MultiSelect []optionJSON `json:"multi_select"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		options := make([]model.SelectOption, 0, len(v.MultiSelect))
		for _, o := range v.MultiSelect {
			options = append(options, o.model())
		}
		return model.MultiSelectValue{Options: options}

	case model.PropertyDate:
		var v struct {
			Date *struct {
				Start *string `json:"start"`
				End   *string `json:"end"`
			} `json:"date"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		if v.Date == nil {
			return model.DateValue{}
		}
		return model.DateValue{Date: &model.DateRange{
			Start: derefString(v.Date.Start),
			End:   derefString(v.Date.End),
		}}

	case model.PropertyPeople:
		var v struct {
			People []struct {
				ID     string `json:"id"`
				Name   string `json:"name"`
				Person *struct {
					Email string `json:"email"`
				} `json:"person"`
			} `json:"people"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		people := make([]model.Person, 0, len(v.People))
		for _, p := range v.People {
			person := model.Person{ID: p.ID, Name: p.Name}
			if p.Person != nil {
				person.Email = p.Person.Email
			}
			people = append(people, person)
		}
		return model.PeopleValue{People: people}

	case model.PropertyFiles:
		var v struct {
			Files []struct {
				Name     string `json:"name"`
				External *struct {
					URL string `json:"url"`
				} `json:"external"`
				File *struct {
					URL string `json:"url"`
				} `json:"file"`
			} `json:"files"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		files := make([]model.File, 0, len(v.Files))
		for _, f := range v.Files {
			file := model.File{Name: f.Name}
			switch {
			case f.External != nil:
				file.URL = f.External.URL
			case f.File != nil:
				file.URL = f.File.URL
			}
			files = append(files, file)
		}
		return model.FilesValue{Files: files}

	case model.PropertyFormula:
		var v struct {
			Formula struct {
				Type    string   `json:"type"`
				String  *string  `json:"string"`
				Number  *float64 `json:"number"`
				Boolean *bool    `json:"boolean"`
			} `json:"formula"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		return model.FormulaValue{
			Kind:    v.Formula.Type,
			String:  v.Formula.String,
			Number:  v.Formula.Number,
			Boolean: v.Formula.Boolean,
		}

	case model.PropertyCreatedTime:
		var v struct {
			CreatedTime string `json:"created_time"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		return model.TimestampValue{Kind: head.Type, Time: v.CreatedTime}

	case model.PropertyLastEditedTime:
		var v struct {
			LastEditedTime string `json:"last_edited_time"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return unknown
		}
		return model.TimestampValue{Kind: head.Type, Time: v.LastEditedTime}
	}

	return unknown
}

// decodeBlock reads a block object. Partial blocks without a type are skipped.
func decodeBlock(raw json.RawMessage) (model.Block, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.Block{}, false
	}

	var block model.Block
	_ = json.Unmarshal(fields["id"], &block.ID)
	_ = json.Unmarshal(fields["type"], &block.Type)
	_ = json.Unmarshal(fields["has_children"], &block.HasChildren)
	if block.Type == "" {
		return model.Block{}, false
	}

	var content map[string]json.RawMessage
	if json.Unmarshal(fields[block.Type], &content) != nil {
		return block, true
	}

	if runs, ok := richTextArray(content["rich_text"]); ok {
		block.RichText = runs
		block.HasRichText = true
	}
	var title string
	if json.Unmarshal(content["title"], &title) == nil {
		block.Title = title
	}
	if runs, ok := richTextArray(content["caption"]); ok {
		block.Caption = runs
		block.HasCaption = true
	}

	return block, true
}

// richTextArray decodes raw only when it is a JSON array
func richTextArray(raw json.RawMessage) ([]model.RichText, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var runs []richTextJSON
	if err := json.Unmarshal(trimmed, &runs); err != nil {
		return nil, false
	}
	return toRichText(runs), true
}

func toRichText(runs []richTextJSON) []model.RichText {
	out := make([]model.RichText, 0, len(runs))
	for _, r := range runs {
		out = append(out, model.RichText{PlainText: r.PlainText})
	}
	return out
}
