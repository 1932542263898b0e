package service

import "github.com/jjenkins/notion-digest/internal/model"

// Filter is a Notion data source query filter. Exactly one of the condition
// fields is set on a leaf; And combines leaves.
type Filter struct {
	Property       string         `json:"property,omitempty"`
	Date           *DateCondition `json:"date,omitempty"`
	CreatedTime    *DateCondition `json:"created_time,omitempty"`
	LastEditedTime *DateCondition `json:"last_edited_time,omitempty"`
	And            []Filter       `json:"and,omitempty"`
}

// DateCondition is a date comparison on a filter leaf
type DateCondition struct {
	Equals     string `json:"equals,omitempty"`
	OnOrAfter  string `json:"on_or_after,omitempty"`
	OnOrBefore string `json:"on_or_before,omitempty"`
}

// Sort orders query results by a property or a page timestamp
type Sort struct {
	Property  string `json:"property,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Direction string `json:"direction"`
}

const sortDescending = "descending"

// Query is the server-side part of a data source query plus the client-side
// check every returned page must pass
type Query struct {
	Filter     *Filter
	Sorts      []Sort
	PostFilter func(model.Page) bool
}

// Accept reports whether a returned page belongs in the result
func (q Query) Accept(p model.Page) bool {
	return q.PostFilter == nil || q.PostFilter(p)
}

// UnfilteredQuery returns the most recently edited pages first
func UnfilteredQuery() Query {
	return Query{
		Sorts: []Sort{{Timestamp: string(model.PropertyLastEditedTime), Direction: sortDescending}},
	}
}

// BuildQuery derives the query for a resolved anchor and selection.
//
// created_time and last_edited_time filters are exact on the server. A date
// property may hold a multi-day range whose end the server cannot compare, so
// the server only excludes pages starting after the window and the overlap
// test runs on each returned page.
func BuildQuery(anchor ResolvedAnchor, sel *model.DateSelection) Query {
	window, ok := SelectionInterval(sel)
	if !ok {
		return UnfilteredQuery()
	}

	if anchor.Type == model.PropertyDate {
		name := anchor.Name
		return Query{
			Filter: &Filter{
				Property: name,
				Date:     &DateCondition{OnOrBefore: window.End},
			},
			Sorts: []Sort{{Property: name, Direction: sortDescending}},
			PostFilter: func(p model.Page) bool {
				v, ok := p.Properties.Get(name)
				if !ok {
					return false
				}
				iv, ok := DateValueInterval(v)
				if !ok {
					return false
				}
				return Overlaps(iv, window)
			},
		}
	}

	if sel.Mode == model.SelectionSingle {
		return Query{Filter: timestampFilter(anchor, DateCondition{Equals: window.Start})}
	}
	return Query{
		Filter: &Filter{And: []Filter{
			*timestampFilter(anchor, DateCondition{OnOrAfter: window.Start}),
			*timestampFilter(anchor, DateCondition{OnOrBefore: window.End}),
		}},
	}
}

func timestampFilter(anchor ResolvedAnchor, cond DateCondition) *Filter {
	f := &Filter{Property: anchor.Name}
	if anchor.Type == model.PropertyCreatedTime {
		f.CreatedTime = &cond
	} else {
		f.LastEditedTime = &cond
	}
	return f
}
