package checklist

import "strings"

const (
	okGlyph      = "✅"
	missingGlyph = "🚫"
)

// Parser extracts flagged entries from a submitted checklist body.
type Parser struct {
	compactor *LabelCompactor
}

func NewParser(compactor *LabelCompactor) *Parser {
	return &Parser{compactor: compactor}
}

// Extract returns the missing items (lines starting with 🚫) and the observations
// (lines carrying "— Obs:") in line order. A line can land in both lists.
// With compact set, labels go through the LabelCompactor; otherwise lines are kept as typed.
func (p *Parser) Extract(text string, compact bool) (missing, observations []string) {
	missing = []string{}
	observations = []string{}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.Contains(line, ObsMarker) {
			if compact {
				clean := strings.TrimSpace(strings.TrimLeft(line, okGlyph+missingGlyph))
				left, right, _ := strings.Cut(clean, ObsMarker)
				label := p.compactor.Compact(left)
				if msg := strings.TrimSpace(right); msg != "" {
					if label != "" {
						observations = append(observations, label+": "+msg)
					} else {
						observations = append(observations, msg)
					}
				}
			} else {
				observations = append(observations, line)
			}
		}

		if strings.HasPrefix(line, missingGlyph) {
			body := strings.TrimSpace(strings.TrimLeft(line, missingGlyph))
			if compact {
				missing = append(missing, p.compactor.Compact(cutBefore(body, ObsMarker)))
			} else {
				missing = append(missing, body)
			}
		}
	}
	return missing, observations
}
