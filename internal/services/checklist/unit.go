// Package checklist holds the text rules behind ambulance checklist submissions:
// unit code normalisation, label compaction, submission parsing and the form definition.
package checklist

import (
	"regexp"
	"strings"
)

var (
	unitStripRe = regexp.MustCompile(`[^A-Z0-9]+`)
	unitShortRe = regexp.MustCompile(`^[A-Z]{2}[0-9]$`)
)

// NormalizeUnit canonicalises a free-text unit code: "sm 1", "SM-01" and "SM1" all become "SM01".
func NormalizeUnit(raw string) string {
	s := unitStripRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), "")
	if unitShortRe.MatchString(s) {
		s = s[:2] + "0" + s[2:]
	}
	return s
}

// Roster is the ordered set of canonical unit codes expected to submit every day.
type Roster struct {
	units []string
	index map[string]string
}

// NewRoster normalises the configured codes, keeping the first occurrence of each.
func NewRoster(units []string) *Roster {
	r := &Roster{index: make(map[string]string, len(units))}
	for _, u := range units {
		key := NormalizeUnit(u)
		if key == "" {
			continue
		}
		if _, ok := r.index[key]; ok {
			continue
		}
		r.index[key] = u
		r.units = append(r.units, key)
	}
	return r
}

// Units returns the canonical codes in roster order.
func (r *Roster) Units() []string {
	return append([]string(nil), r.units...)
}

// Contains reports whether a canonical code belongs to the roster.
func (r *Roster) Contains(unit string) bool {
	_, ok := r.index[unit]
	return ok
}

// Display returns the configured spelling of a canonical code.
func (r *Roster) Display(unit string) string {
	if d, ok := r.index[unit]; ok {
		return d
	}
	return unit
}
