package service

import (
	"regexp"

	"github.com/jjenkins/notion-digest/internal/model"
)

var leadingDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// Interval is an inclusive span of calendar dates (YYYY-MM-DD)
type Interval struct {
	Start string
	End   string
}

// ToCalendarDate returns the leading YYYY-MM-DD of a date or datetime string,
// or "" when there is none
func ToCalendarDate(s string) string {
	return leadingDatePattern.FindString(s)
}

// Normalize validates both ends and orders them. ok is false when either end
// is not a calendar date.
func Normalize(iv Interval) (Interval, bool) {
	if !model.IsCalendarDate(iv.Start) || !model.IsCalendarDate(iv.End) {
		return Interval{}, false
	}
	if iv.Start > iv.End {
		return Interval{Start: iv.End, End: iv.Start}, true
	}
	return iv, true
}

// SelectionInterval converts a date selection into an interval
func SelectionInterval(sel *model.DateSelection) (Interval, bool) {
	if sel == nil {
		return Interval{}, false
	}
	switch sel.Mode {
	case model.SelectionSingle:
		if !model.IsCalendarDate(sel.Date) {
			return Interval{}, false
		}
		return Interval{Start: sel.Date, End: sel.Date}, true
	case model.SelectionRange:
		return Normalize(Interval{Start: sel.Start, End: sel.End})
	}
	return Interval{}, false
}

// DateValueInterval converts a date property value into an interval. A value
// with only a start is a single day.
func DateValueInterval(v model.PropertyValue) (Interval, bool) {
	dv, ok := v.(model.DateValue)
	if !ok || dv.Date == nil {
		return Interval{}, false
	}
	start := ToCalendarDate(dv.Date.Start)
	if start == "" {
		return Interval{}, false
	}
	end := ToCalendarDate(dv.Date.End)
	if end == "" {
		end = start
	}
	return Normalize(Interval{Start: start, End: end})
}

// Overlaps reports whether two closed intervals share at least one day
func Overlaps(a, b Interval) bool {
	na, ok := Normalize(a)
	if !ok {
		return false
	}
	nb, ok := Normalize(b)
	if !ok {
		return false
	}
	return na.Start <= nb.End && na.End >= nb.Start
}
