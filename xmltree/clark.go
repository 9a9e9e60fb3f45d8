package xmltree

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// ClarkElement is an element in the Clark projection of a tree: a name and
// attributes keyed by {namespace}local only, with no prefix-hints and no
// namespace scope. Text, comment and processing instruction nodes are the
// same types as in the scoped tree.
//
// Two scoped trees describe the same XML content exactly when their Clark
// projections are equal, whatever prefixes and declarations each uses.
type ClarkElement struct {
	name     QName
	attrs    []Attr
	children []Node
}

// NewClarkElement builds a Clark element. Prefix-hints on the name and the
// attribute names are stripped. Attribute names must be unique by namespace
// and local name and must not be namespace declarations (ErrInvalidName);
// children must be Clark elements, text, comments or processing
// instructions.
func NewClarkElement(name QName, attrs []Attr, children ...Node) (ClarkElement, error) {
	if name.local == "" {
		return ClarkElement{}, fmt.Errorf("%w: empty local name", ErrInvalidName)
	}
	cleaned := make([]Attr, len(attrs))
	for i, attr := range attrs {
		if attr.Name.space == XMLNSNamespace || (attr.Name.space == "" && attr.Name.local == "xmlns") {
			return ClarkElement{}, fmt.Errorf("%w: attribute %s is a namespace declaration", ErrInvalidName, attr.Name)
		}
		if attr.Name.local == "" {
			return ClarkElement{}, fmt.Errorf("%w: empty attribute local name", ErrInvalidName)
		}
		for _, prev := range cleaned[:i] {
			if prev.Name.Equal(attr.Name) {
				return ClarkElement{}, fmt.Errorf("%w: duplicate attribute %s", ErrInvalidName, attr.Name.ClarkString())
			}
		}
		cleaned[i] = Attr{Name: attr.Name.WithoutPrefix(), Value: attr.Value}
	}
	for i, child := range children {
		switch child.(type) {
		case ClarkElement, Text, Comment, ProcInst:
		case Element:
			return ClarkElement{}, fmt.Errorf("xmltree: scoped element child at index %d in clark element", i)
		default:
			return ClarkElement{}, fmt.Errorf("xmltree: nil child node at index %d", i)
		}
	}
	return ClarkElement{
		name:     name.WithoutPrefix(),
		attrs:    cleaned,
		children: slices.Clone(children),
	}, nil
}

// ToClark projects the element and its whole subtree: scopes are erased,
// prefix-hints on names and attributes are stripped, and text, comment and
// processing instruction nodes carry over unchanged.
func (e Element) ToClark() ClarkElement {
	attrs := make([]Attr, len(e.attrs))
	for i, attr := range e.attrs {
		attrs[i] = Attr{Name: attr.Name.WithoutPrefix(), Value: attr.Value}
	}
	children := make([]Node, len(e.children))
	for i, child := range e.children {
		if elem, ok := child.(Element); ok {
			children[i] = elem.ToClark()
		} else {
			children[i] = child
		}
	}
	return ClarkElement{name: e.name.WithoutPrefix(), attrs: attrs, children: children}
}

// ClarkNodeOf projects any node: elements via ToClark, everything else
// unchanged. A ClarkElement is returned as is.
func ClarkNodeOf(n Node) Node {
	if elem, ok := n.(Element); ok {
		return elem.ToClark()
	}
	return n
}

// Kind returns KindElement.
func (e ClarkElement) Kind() NodeKind { return KindElement }

func (e ClarkElement) isNode() {}

// Name returns the element name; its prefix-hint is always empty.
func (e ClarkElement) Name() QName { return e.name }

// Attributes returns a copy of the attributes in document order.
func (e ClarkElement) Attributes() []Attr { return slices.Clone(e.attrs) }

// Attr looks up an attribute value by namespace and local name.
func (e ClarkElement) Attr(space, local string) (string, bool) {
	for _, attr := range e.attrs {
		if attr.Name.space == space && attr.Name.local == local {
			return attr.Value, true
		}
	}
	return "", false
}

// AttrValue returns the attribute value, or the empty string when absent.
func (e ClarkElement) AttrValue(space, local string) string {
	value, _ := e.Attr(space, local)
	return value
}

// Children returns a copy of the child nodes in document order.
func (e ClarkElement) Children() []Node { return slices.Clone(e.children) }

// ChildNodes iterates over the child nodes in document order.
func (e ClarkElement) ChildNodes() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, child := range e.children {
			if !yield(child) {
				return
			}
		}
	}
}

// ChildElems iterates over the element children in document order.
func (e ClarkElement) ChildElems() iter.Seq[ClarkElement] {
	return func(yield func(ClarkElement) bool) {
		for _, child := range e.children {
			if elem, ok := child.(ClarkElement); ok {
				if !yield(elem) {
					return
				}
			}
		}
	}
}

// Text concatenates the values of the direct text children.
func (e ClarkElement) Text() string {
	var b strings.Builder
	for _, child := range e.children {
		if t, ok := child.(Text); ok {
			b.WriteString(t.Value)
		}
	}
	return b.String()
}

// TrimmedText returns Text with surrounding whitespace removed.
func (e ClarkElement) TrimmedText() string {
	return strings.TrimSpace(e.Text())
}

// DescendantElemsOrSelf walks the element and all its descendants in
// document pre-order.
func (e ClarkElement) DescendantElemsOrSelf() iter.Seq[ClarkElement] {
	return DescendantElemsOrSelf(e)
}

// DescendantElems walks the descendant elements in document pre-order,
// excluding the element itself.
func (e ClarkElement) DescendantElems() iter.Seq[ClarkElement] {
	return DescendantElems(e)
}

// TopmostElemsOrSelf emits matching elements in pre-order without
// descending into matches.
func (e ClarkElement) TopmostElemsOrSelf(pred func(ClarkElement) bool) iter.Seq[ClarkElement] {
	return TopmostElemsOrSelf(e, pred)
}

// TopmostElems is TopmostElemsOrSelf excluding the element itself.
func (e ClarkElement) TopmostElems(pred func(ClarkElement) bool) iter.Seq[ClarkElement] {
	return TopmostElems(e, pred)
}

// Equal reports deep equality with another Clark element: names by
// namespace and local name, attributes as unordered sets, children in
// order. Text children compare by value, ignoring the CDATA flag.
func (e ClarkElement) Equal(other ClarkElement) bool {
	return Comparer{}.Equal(e, other)
}

// String renders the subtree in a canonical, deterministic form: Clark
// names, attributes sorted by name, children in document order. Equal
// trees render identically, so the string is usable as a hash key.
func (e ClarkElement) String() string {
	var b strings.Builder
	writeCanonicalClark(&b, e)
	return b.String()
}

func writeCanonicalClark(b *strings.Builder, n Node) {
	switch node := n.(type) {
	case ClarkElement:
		b.WriteString("e(")
		b.WriteString(node.name.ClarkString())
		attrs := slices.Clone(node.attrs)
		slices.SortFunc(attrs, func(x, y Attr) int {
			return strings.Compare(x.Name.ClarkString(), y.Name.ClarkString())
		})
		for _, attr := range attrs {
			fmt.Fprintf(b, " @%s=%q", attr.Name.ClarkString(), attr.Value)
		}
		for _, child := range node.children {
			b.WriteString(" ")
			writeCanonicalClark(b, child)
		}
		b.WriteString(")")
	case Text:
		fmt.Fprintf(b, "t(%q)", node.Value)
	case Comment:
		fmt.Fprintf(b, "c(%q)", node.Value)
	case ProcInst:
		fmt.Fprintf(b, "pi(%s %q)", node.Target, node.Data)
	}
}
