// Package category derives a coarse age category when the upstream omits
// one. The bracket table is injected configuration: federations differ, so
// the engine never hard-codes a single federation's table.
package category

import (
	"strconv"
	"strings"
)

// Bracket maps an inclusive age range, optionally restricted to one sex, to
// a category code.
type Bracket struct {
	MinAge int
	MaxAge int
	Sex    string // "" matches any sex
	Code   string
}

// Table is an ordered bracket list; the first matching bracket wins.
type Table struct {
	brackets []Bracket
}

// NewTable builds a derivation table from an ordered bracket list.
func NewTable(brackets []Bracket) *Table {
	return &Table{brackets: brackets}
}

// Derive computes the category code for an athlete whose age is taken as
// seasonYear minus birth year, the federation convention. Returns "" when no
// bracket matches or the inputs are unusable.
func (t *Table) Derive(birthDate, sex string, seasonYear int) string {
	year := birthYear(birthDate)
	if year == 0 || seasonYear < year {
		return ""
	}
	age := seasonYear - year
	for _, b := range t.brackets {
		if age < b.MinAge || age > b.MaxAge {
			continue
		}
		if b.Sex != "" && !strings.EqualFold(b.Sex, sex) {
			continue
		}
		return b.Code
	}
	return ""
}

// birthYear extracts the year from a dd/mm/yyyy birth reference. A bare
// year is also accepted since some upstream records carry only that.
func birthYear(birthDate string) int {
	birthDate = strings.TrimSpace(birthDate)
	if birthDate == "" {
		return 0
	}
	parts := strings.Split(birthDate, "/")
	raw := parts[len(parts)-1]
	if len(raw) != 4 {
		return 0
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return year
}
