// Package templates renders the HTML status pages.
//
//go:generate templ generate
package templates

import (
	"strings"

	"github.com/jjenkins/notion-digest/internal/model"
)

// HomeView is the data behind the status page
type HomeView struct {
	SettingsPath   string
	SettingsError  string
	Sources        []model.SourceConfig
	HistoryEnabled bool
	HistoryError   string
	Summary        *model.RunSummary
	Runs           []model.AggregationRun
}

// DescribeSelection renders a selection for display
func DescribeSelection(sel *model.DateSelection) string {
	if sel == nil {
		return "unfiltered"
	}
	if sel.Mode == model.SelectionSingle {
		return sel.Date
	}
	return sel.Start + " → " + sel.End
}

func anchorLabel(src model.SourceConfig) string {
	if src.AnchorDateProperty == "" {
		return "auto"
	}
	return src.AnchorDateProperty
}

func propertyNames(src model.SourceConfig) string {
	names := make([]string, 0, len(src.SelectedProperties))
	for _, p := range src.SelectedProperties {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

func lastRunLabel(s *model.RunSummary) string {
	if !s.LastRunAt.Valid {
		return "never"
	}
	return s.LastRunAt.Time.UTC().Format("2006-01-02 15:04 MST")
}

func runStatus(r model.AggregationRun) string {
	if r.Error.Valid {
		return string(r.Status) + ": " + r.Error.String
	}
	return string(r.Status)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
