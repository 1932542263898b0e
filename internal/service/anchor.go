package service

import (
	"strings"

	"github.com/jjenkins/notion-digest/internal/model"
)

// ResolvedAnchor is the temporal property used to date-filter a data source
type ResolvedAnchor struct {
	Name string
	Type model.PropertyType
}

// ResolveAnchor picks the anchor property of a data source schema.
//
// A non-empty preferred name wins when it matches a temporal property exactly
// or case-insensitively. Without one, a single temporal property among the
// selected properties decides. Otherwise the anchor is only chosen when the
// schema has exactly one temporal property; several candidates with nothing
// to disambiguate them resolve to nothing.
func ResolveAnchor(schema []model.SchemaProperty, preferred string, selected []model.SelectedProperty) (ResolvedAnchor, bool) {
	var candidates []ResolvedAnchor
	for _, p := range schema {
		if p.Name == "" || !p.Type.IsTemporal() {
			continue
		}
		candidates = append(candidates, ResolvedAnchor{Name: p.Name, Type: p.Type})
	}

	if preferred = strings.TrimSpace(preferred); preferred != "" {
		if a, ok := matchAnchor(candidates, preferred); ok {
			return a, true
		}
		return soleCandidate(candidates)
	}

	var selectedTemporal []model.SelectedProperty
	for _, p := range selected {
		if p.Type.IsTemporal() {
			selectedTemporal = append(selectedTemporal, p)
		}
	}
	if len(selectedTemporal) == 1 {
		if a, ok := matchAnchor(candidates, selectedTemporal[0].Name); ok {
			return a, true
		}
	}

	return soleCandidate(candidates)
}

// matchAnchor finds name exactly, then case-insensitively
func matchAnchor(candidates []ResolvedAnchor, name string) (ResolvedAnchor, bool) {
	for _, c := range candidates {
		if c.Name == name {
			return c, true
		}
	}
	lower := strings.ToLower(name)
	for _, c := range candidates {
		if strings.ToLower(c.Name) == lower {
			return c, true
		}
	}
	return ResolvedAnchor{}, false
}

func soleCandidate(candidates []ResolvedAnchor) (ResolvedAnchor, bool) {
	if len(candidates) == 1 {
		return candidates[0], true
	}
	return ResolvedAnchor{}, false
}
