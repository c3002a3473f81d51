package checklist

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// ObsMarker separates an item label from its free-text observation.
const ObsMarker = "— Obs:"

var parentheticalRe = regexp.MustCompile(`\s*\([^)]*\)\s*`)

// LabelCompactor shortens checklist labels for chat messages and inbox previews.
// The alias table is read-only after construction and safe for concurrent use.
type LabelCompactor struct {
	aliases map[string]string
}

// NewLabelCompactor pairs the full and compact label lists by position.
// Mismatched or empty lists yield a compactor that only applies the heuristic.
func NewLabelCompactor(full, compact []string) *LabelCompactor {
	c := &LabelCompactor{aliases: map[string]string{}}
	if len(full) == 0 || len(full) != len(compact) {
		return c
	}
	for i, label := range full {
		short := strings.TrimSpace(compact[i])
		if short == "" {
			continue
		}
		c.aliases[LabelKey(label)] = short
	}
	return c
}

// LoadLabelCompactor builds the alias table from the task lists of the full and compact checklist files.
// A missing compact file is not an error.
func LoadLabelCompactor(fullPath, compactPath string) (*LabelCompactor, error) {
	fullMD, err := os.ReadFile(fullPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return NewLabelCompactor(nil, nil), err
	}
	compactMD, err := os.ReadFile(compactPath)
	if errors.Is(err, fs.ErrNotExist) {
		return NewLabelCompactor(nil, nil), nil
	}
	if err != nil {
		return NewLabelCompactor(nil, nil), err
	}
	return NewLabelCompactor(TaskItems(fullMD), TaskItems(compactMD)), nil
}

// Len returns the number of aliases.
func (c *LabelCompactor) Len() int {
	if c == nil {
		return 0
	}
	return len(c.aliases)
}

// Compact returns the alias of label when one is configured, otherwise a heuristic
// short form: no observation, asides or secondary clauses, at most three words, title-cased.
func (c *LabelCompactor) Compact(label string) string {
	label = collapseSpace(label)
	if label == "" {
		return ""
	}

	// Filled fields arrive as "CHECADA EM: 2026-01-17"; only the left side is looked up.
	lookup := label
	if i := strings.Index(lookup, ":"); i >= 0 {
		lookup = strings.TrimSpace(lookup[:i])
	}
	if c != nil {
		if alias, ok := c.aliases[LabelKey(lookup)]; ok {
			return strings.TrimSpace(alias)
		}
	}

	t := cutBefore(label, ObsMarker)
	t = strings.TrimSpace(parentheticalRe.ReplaceAllString(t, " "))
	t = cutBefore(t, ";")
	t = cutBefore(t, "—")
	t = cutBefore(t, "/")

	if words := strings.Fields(t); len(words) > 3 {
		t = strings.Join(words[:3], " ")
	}
	return smartTitle(StripAccents(t))
}

func cutBefore(s, sep string) string {
	before, _, _ := strings.Cut(s, sep)
	return strings.TrimSpace(before)
}
