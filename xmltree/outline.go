package xmltree

import (
	"fmt"
	"iter"
	"strings"

	"github.com/xlab/treeprint"
)

// OutlineString renders an indented one-line-per-element view of a tree,
// meant for logs and test failures rather than machine consumption. Each
// line shows the syntactic name, the attribute count when not zero, and a
// clipped summary of the element's direct text. Comments and processing
// instructions appear as leaves; text layout is not preserved.
//
// It works for every element representation: scoped, Clark and
// ancestry-aware.
func OutlineString[E Queryable[E]](e E) string {
	tree := treeprint.NewWithRoot(outlineLabel(e))
	outlineChildren(tree, e)
	return tree.String()
}

func outlineChildren[E Queryable[E]](tree treeprint.Tree, e E) {
	next, stop := iter.Pull(e.ChildElems())
	defer stop()
	for child := range e.ChildNodes() {
		switch node := child.(type) {
		case Text:
			// folded into the parent label
		case Comment:
			tree.AddNode(fmt.Sprintf("<!-- %s -->", summarizeText(node.Value)))
		case ProcInst:
			if node.Data == "" {
				tree.AddNode(fmt.Sprintf("<?%s?>", node.Target))
			} else {
				tree.AddNode(fmt.Sprintf("<?%s %s?>", node.Target, summarizeText(node.Data)))
			}
		default:
			// ChildElems yields the same elements in the same order.
			if elem, ok := next(); ok {
				branch := tree.AddBranch(outlineLabel(elem))
				outlineChildren(branch, elem)
			}
		}
	}
}

func outlineLabel[E Queryable[E]](e E) string {
	var sb strings.Builder
	sb.WriteString(e.Name().String())
	if n := len(e.Attributes()); n > 0 {
		fmt.Fprintf(&sb, " (%d attrs)", n)
	}
	if text := summarizeText(directText(e)); text != "" {
		fmt.Fprintf(&sb, " %q", text)
	}
	return sb.String()
}

func directText[E Queryable[E]](e E) string {
	var sb strings.Builder
	for child := range e.ChildNodes() {
		if t, ok := child.(Text); ok {
			sb.WriteString(t.Value)
		}
	}
	return sb.String()
}

// summarizeText collapses runs of whitespace and clips long values.
func summarizeText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const max = 32
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
