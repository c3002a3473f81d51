package checklist

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
)

// Item kinds of the checklist form.
const (
	KindCheckbox = "checkbox"
	KindField    = "field"
)

// FormItem is one task list entry of the checklist form.
type FormItem struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
	Kind    string `json:"kind"`
}

type FormSubgroup struct {
	Title string     `json:"title"`
	Items []FormItem `json:"items"`
}

type FormGroup struct {
	Title     string          `json:"title"`
	Items     []FormItem      `json:"items"`
	Subgroups []*FormSubgroup `json:"subgroups"`
}

var (
	slugStripRe = regexp.MustCompile(`[^a-z0-9\-\s_]+`)
	slugSpaceRe = regexp.MustCompile(`[\s_]+`)
)

// Slugify builds an ASCII identifier from a label ("Oxigênio / O2" -> "oxigenio-o2").
func Slugify(s string) string {
	s = strings.ToLower(StripAccents(strings.TrimSpace(s)))
	s = slugStripRe.ReplaceAllString(s, "")
	s = strings.Trim(slugSpaceRe.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return "item"
	}
	return s
}

// itemKind tells fill-in fields (seals, dates) apart from plain checkboxes.
func itemKind(label string) string {
	upper := strings.ToUpper(label)
	switch {
	case strings.HasPrefix(upper, "LACRE"),
		strings.HasPrefix(upper, "CHECADA EM"),
		strings.HasPrefix(upper, "DATA DA PRÓXIMA TROCA"),
		strings.Contains(upper, "PREENCHER DATA"):
		return KindField
	}
	return KindCheckbox
}

// ParseForm reads the checklist form: "##" headings open groups, "###" headings open
// subgroups and task list items fill the innermost open section. Items that appear
// before any heading go to a "GERAL" group.
func ParseForm(source []byte) []*FormGroup {
	doc := parseMarkdown(source)
	groups := []*FormGroup{}
	var group *FormGroup
	var sub *FormSubgroup

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			title := inlineText(node, source)
			switch node.Level {
			case 2:
				group = &FormGroup{Title: title, Items: []FormItem{}, Subgroups: []*FormSubgroup{}}
				groups = append(groups, group)
				sub = nil
			case 3:
				if group != nil {
					sub = &FormSubgroup{Title: title, Items: []FormItem{}}
					group.Subgroups = append(group.Subgroups, sub)
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			box := taskCheckBox(node)
			if box == nil {
				return ast.WalkContinue, nil
			}
			label := inlineText(node.FirstChild(), source)
			if label == "" {
				return ast.WalkContinue, nil
			}
			if group == nil {
				group = &FormGroup{Title: "GERAL", Items: []FormItem{}, Subgroups: []*FormSubgroup{}}
				groups = append(groups, group)
			}
			item := FormItem{
				ID:      itemID(group, sub, label),
				Label:   label,
				Checked: box.IsChecked,
				Kind:    itemKind(label),
			}
			if sub != nil {
				sub.Items = append(sub.Items, item)
			} else {
				group.Items = append(group.Items, item)
			}
		}
		return ast.WalkContinue, nil
	})
	return groups
}

func itemID(group *FormGroup, sub *FormSubgroup, label string) string {
	parts := []string{Slugify(group.Title)}
	if sub != nil {
		parts = append(parts, Slugify(sub.Title))
	}
	parts = append(parts, Slugify(label))
	return strings.Join(parts, "-")
}
