package output

import (
	"fmt"
	"strings"

	"github.com/modm-io/lbuild/internal/option"
	"github.com/modm-io/lbuild/internal/tree"
)

const (
	treeEdge  = "├── "
	treeLast  = "└── "
	treeVert  = "│   "
	treeSpace = "    "

	// Description alignment column
	descriptionColumn = 48
)

// RenderTree renders the node forest below root, one line per node,
// with descriptions aligned in a right column. Unavailable subtrees
// are skipped.
func RenderTree(root *tree.Node) string {
	var sb strings.Builder
	children := available(root.Children())
	for i, child := range children {
		renderNode(&sb, child, "", i == len(children)-1)
	}
	return sb.String()
}

func renderNode(sb *strings.Builder, n *tree.Node, prefix string, last bool) {
	edge := treeEdge
	cont := treeVert
	if last {
		edge = treeLast
		cont = treeSpace
	}

	line := prefix + edge + Label(n)
	plain := lineWidth(prefix+edge, n)
	if desc := firstLine(n.Description()); desc != "" {
		padding := descriptionColumn - plain
		if padding < 2 {
			padding = 2
		}
		line += strings.Repeat(" ", padding) + StyleDim.Render(desc)
	}
	sb.WriteString(line + "\n")

	children := available(n.Children())
	for i, child := range children {
		renderNode(sb, child, prefix+cont, i == len(children)-1)
	}
}

// Label formats one node as `Kind(fullname)`, with the current value
// appended for options.
func Label(n *tree.Node) string {
	label := StyleDim.Render(n.Kind().String()+"(") +
		StyleName.Render(n.FullName()) +
		StyleDim.Render(")")

	if opt, ok := n.Payload.(*option.Option); ok {
		label += StyleDim.Render(" = ") + valueOf(opt)
	}
	return label
}

func valueOf(opt *option.Option) string {
	raw, err := opt.Serialize()
	if err != nil {
		return StyleRequired.Render("REQUIRED")
	}
	if raw == "" {
		raw = `""`
	}
	return StyleValue.Render(raw)
}

func lineWidth(lead string, n *tree.Node) int {
	width := len([]rune(lead)) + len(n.Kind().String()) + len(n.FullName()) + 2
	if opt, ok := n.Payload.(*option.Option); ok {
		raw, err := opt.Serialize()
		switch {
		case err != nil:
			raw = "REQUIRED"
		case raw == "":
			raw = `""`
		}
		width += 3 + len(raw)
	}
	return width
}

func available(nodes []*tree.Node) []*tree.Node {
	out := make([]*tree.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Available() {
			out = append(out, n)
		}
	}
	return out
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return text
}

// DescribeOption renders the full help text of one option: name,
// kind, current and default value, and the long description.
func DescribeOption(n *tree.Node) string {
	opt, ok := n.Payload.(*option.Option)
	if !ok {
		return Label(n) + "\n"
	}

	var sb strings.Builder
	sb.WriteString(Label(n) + "\n")
	sb.WriteString(StyleDim.Render(fmt.Sprintf("  kind: %s", describeKind(opt))) + "\n")
	if opt.Required() {
		sb.WriteString("  " + StyleRequired.Render("REQUIRED") + "\n")
	}
	if desc := strings.TrimSpace(n.Description()); desc != "" {
		sb.WriteString("\n" + desc + "\n")
	}
	return sb.String()
}

func describeKind(opt *option.Option) string {
	kind := opt.Kind().String()
	if opt.IsSet() {
		kind = "Set(" + kind + ")"
	}
	return kind
}
