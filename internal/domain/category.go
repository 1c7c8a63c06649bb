package domain

import (
	"fmt"
	"iter"
	"strings"
)

// Category classifies an observation.
type Category string

const (
	CategoryGalaxy  Category = "Galaxy"
	CategoryNebula  Category = "Nebula"
	CategoryCluster Category = "Cluster"
	CategoryOther   Category = "Other"
)

// DefaultCategory is preselected in the form and used when none is given.
const DefaultCategory = CategoryGalaxy

// Categories lists every category in display order.
var Categories = []Category{CategoryGalaxy, CategoryNebula, CategoryCluster, CategoryOther}

// ParseCategory matches s case-insensitively. Empty input yields
// DefaultCategory.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCategory, nil
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// CategoryFilter selects observations by category. FilterAll matches
// everything.
type CategoryFilter string

const FilterAll CategoryFilter = "all"

// ParseFilter accepts "all" (or empty) and every category name.
func ParseFilter(s string) (CategoryFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(FilterAll)) {
		return FilterAll, nil
	}
	c, err := ParseCategory(s)
	if err != nil {
		return "", fmt.Errorf("unknown category filter %q: %w", s, err)
	}
	return CategoryFilter(c), nil
}

// Matches reports whether o passes the filter.
func (f CategoryFilter) Matches(o Observation) bool {
	return f == FilterAll || Category(f) == o.Category
}

// FilterByCategory lazily yields the observations of seq that pass f, in
// their original order. seq is never modified.
func FilterByCategory(seq []Observation, f CategoryFilter) iter.Seq[Observation] {
	return func(yield func(Observation) bool) {
		for _, o := range seq {
			if !f.Matches(o) {
				continue
			}
			if !yield(o) {
				return
			}
		}
	}
}
