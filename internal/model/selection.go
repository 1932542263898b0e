package model

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

const calendarDateLayout = "2006-01-02"

var calendarDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// SelectionMode distinguishes a single-day selection from a range
type SelectionMode string

const (
	SelectionSingle SelectionMode = "single"
	SelectionRange  SelectionMode = "range"
)

// DateSelection is the runtime date filter of one aggregation request.
// Single uses Date; Range uses Start and End with Start <= End.
type DateSelection struct {
	Mode  SelectionMode `json:"mode"`
	Date  string        `json:"date,omitempty"`
	Start string        `json:"start,omitempty"`
	End   string        `json:"end,omitempty"`
}

// IsCalendarDate reports whether s is exactly YYYY-MM-DD and names a real day
func IsCalendarDate(s string) bool {
	if !calendarDatePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(calendarDateLayout, s)
	return err == nil
}

// NewSingleSelection returns a single-day selection, or nil if date is not a calendar date
func NewSingleSelection(date string) *DateSelection {
	date = strings.TrimSpace(date)
	if !IsCalendarDate(date) {
		return nil
	}
	return &DateSelection{Mode: SelectionSingle, Date: date}
}

// NewRangeSelection returns a range selection with its ends ordered, or nil if
// either end is not a calendar date
func NewRangeSelection(start, end string) *DateSelection {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if !IsCalendarDate(start) || !IsCalendarDate(end) {
		return nil
	}
	if start > end {
		start, end = end, start
	}
	return &DateSelection{Mode: SelectionRange, Start: start, End: end}
}

// ParseDateSelection validates a raw selection object. Anything malformed or
// partial yields nil, which callers treat as "no date filter".
func ParseDateSelection(raw json.RawMessage) *DateSelection {
	if len(raw) == 0 {
		return nil
	}

	var body struct {
		Mode  any `json:"mode"`
		Date  any `json:"date"`
		Start any `json:"start"`
		End   any `json:"end"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}

	switch SelectionMode(asString(body.Mode)) {
	case SelectionSingle:
		return NewSingleSelection(asString(body.Date))
	case SelectionRange:
		return NewRangeSelection(asString(body.Start), asString(body.End))
	default:
		return nil
	}
}

// SelectionFromQuery builds a selection from targetDate, or from the
// startDate/endDate pair when targetDate is absent or invalid
func SelectionFromQuery(targetDate, startDate, endDate string) *DateSelection {
	if sel := NewSingleSelection(targetDate); sel != nil {
		return sel
	}
	if strings.TrimSpace(startDate) == "" || strings.TrimSpace(endDate) == "" {
		return nil
	}
	return NewRangeSelection(startDate, endDate)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
