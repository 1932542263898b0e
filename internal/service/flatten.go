package service

import (
	"strconv"
	"strings"

	"github.com/jjenkins/notion-digest/internal/model"
)

const listSeparator = ", "

// RenderProperty flattens a property value into display text. Unsupported or
// malformed values render as "".
func RenderProperty(v model.PropertyValue) string {
	switch p := v.(type) {
	case model.TitleValue:
		return model.PlainText(p.Text)
	case model.RichTextValue:
		return model.PlainText(p.Text)
	case model.URLValue:
		return p.URL
	case model.EmailValue:
		return p.Email
	case model.PhoneNumberValue:
		return p.PhoneNumber
	case model.NumberValue:
		return formatNumber(p.Number)
	case model.CheckboxValue:
		return formatBool(p.Checked)
	case model.SelectValue:
		return optionName(p.Option)
	case model.StatusValue:
		return optionName(p.Option)
	case model.MultiSelectValue:
		names := make([]string, 0, len(p.Options))
		for _, o := range p.Options {
			names = append(names, o.Name)
		}
		return joinNonEmpty(names)
	case model.DateValue:
		if p.Date == nil {
			return ""
		}
		if p.Date.End == "" {
			return p.Date.Start
		}
		return p.Date.Start + " → " + p.Date.End
	case model.PeopleValue:
		names := make([]string, 0, len(p.People))
		for _, person := range p.People {
			names = append(names, firstNonEmpty(person.Name, person.ID, person.Email))
		}
		return joinNonEmpty(names)
	case model.FilesValue:
		names := make([]string, 0, len(p.Files))
		for _, f := range p.Files {
			names = append(names, f.Name)
		}
		return joinNonEmpty(names)
	case model.FormulaValue:
		return renderFormula(p)
	}
	return ""
}

func renderFormula(f model.FormulaValue) string {
	switch f.Kind {
	case "string":
		if f.String == nil {
			return ""
		}
		return *f.String
	case "number":
		return formatNumber(f.Number)
	case "boolean":
		return formatBool(f.Boolean)
	}
	return ""
}

func formatNumber(n *float64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatFloat(*n, 'f', -1, 64)
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func optionName(o *model.SelectOption) string {
	if o == nil {
		return ""
	}
	return o.Name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(values []string) string {
	kept := values[:0]
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, listSeparator)
}
