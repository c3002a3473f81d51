package checklist

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New(goldmark.WithExtensions(extension.TaskList))

func parseMarkdown(source []byte) ast.Node {
	return md.Parser().Parse(text.NewReader(source))
}

// inlineText flattens the inline children of n, turning soft line breaks into spaces.
func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *ast.Text:
				b.Write(v.Segment.Value(source))
				if v.SoftLineBreak() || v.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *ast.String:
				b.Write(v.Value)
			case *ast.AutoLink:
				b.Write(v.Label(source))
			case *extast.TaskCheckBox:
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return collapseSpace(b.String())
}

// taskCheckBox returns the checkbox of a task list item, or nil for a plain item.
func taskCheckBox(item *ast.ListItem) *extast.TaskCheckBox {
	block := item.FirstChild()
	if block == nil {
		return nil
	}
	box, _ := block.FirstChild().(*extast.TaskCheckBox)
	return box
}

// TaskItems lists the labels of every "- [ ]" / "- [x]" item in document order.
func TaskItems(source []byte) []string {
	doc := parseMarkdown(source)
	var items []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		item, ok := n.(*ast.ListItem)
		if !ok || taskCheckBox(item) == nil {
			return ast.WalkContinue, nil
		}
		if label := inlineText(item.FirstChild(), source); label != "" {
			items = append(items, label)
		}
		return ast.WalkContinue, nil
	})
	return items
}
