package xmltree

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// NodeKind identifies the variant of a Node.
type NodeKind int

const (
	// KindElement is an element node.
	KindElement NodeKind = iota
	// KindText is a text node, possibly CDATA-bracketed.
	KindText
	// KindComment is a comment node.
	KindComment
	// KindProcInst is a processing instruction node.
	KindProcInst
)

// String returns a human-readable kind name.
func (k NodeKind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	case KindProcInst:
		return "processing-instruction"
	default:
		return "unknown"
	}
}

// Node is an XML tree node: an Element, Text, Comment or ProcInst.
// The variant set is closed; switch on Kind or type-assert.
//
// All nodes are immutable values and safe to share across goroutines.
type Node interface {
	// Kind returns the node variant.
	Kind() NodeKind

	isNode()
}

// Text is a run of character data. CData records whether the run was (or
// should be) written in a CDATA section; it is lexical detail, and the
// comparison layer ignores it by default.
type Text struct {
	Value string
	CData bool
}

// Kind returns KindText.
func (Text) Kind() NodeKind { return KindText }

func (Text) isNode() {}

// Comment is a comment node.
type Comment struct {
	Value string
}

// Kind returns KindComment.
func (Comment) Kind() NodeKind { return KindComment }

func (Comment) isNode() {}

// ProcInst is a processing instruction node.
type ProcInst struct {
	Target string
	Data   string
}

// Kind returns KindProcInst.
func (ProcInst) Kind() NodeKind { return KindProcInst }

func (ProcInst) isNode() {}

// Attr is one attribute: a name and a string value. Attribute order is kept
// for serialization but does not participate in equality. Namespace
// declarations are never attributes; they live in the element's Scope.
type Attr struct {
	Name  QName
	Value string
}

// Element is an XML element: a name, attributes, in-scope namespace
// bindings and an ordered sequence of child nodes.
//
// Elements are immutable. Every "update" method returns a new element
// sharing unchanged subtrees with the receiver, so trees may be shared
// across goroutines without coordination.
type Element struct {
	name     QName
	attrs    []Attr
	scope    Scope
	children []Node
}

// NewElement builds an element and checks the model invariants: the name
// and every attribute name with a non-reserved prefix must be bound in the
// scope to that name's namespace (ErrUnboundPrefix otherwise), attribute
// names must be unique by namespace and local name and must not be
// namespace declarations (ErrInvalidName), and no child may be nil.
//
// The attrs and children slices are copied; callers keep ownership of the
// originals.
func NewElement(name QName, attrs []Attr, scope Scope, children ...Node) (Element, error) {
	if err := checkNameInScope(name, scope); err != nil {
		return Element{}, err
	}
	if err := checkAttrs(attrs, scope); err != nil {
		return Element{}, err
	}
	for i, child := range children {
		switch child.(type) {
		case Element, Text, Comment, ProcInst:
		case ClarkElement:
			return Element{}, fmt.Errorf("xmltree: clark element child at index %d in scoped element", i)
		default:
			return Element{}, fmt.Errorf("xmltree: nil child node at index %d", i)
		}
	}
	return Element{
		name:     name,
		attrs:    slices.Clone(attrs),
		scope:    scope,
		children: slices.Clone(children),
	}, nil
}

// checkNameInScope verifies a prefix-hint against the scope.
// An empty prefix and the implicit "xml" prefix are always consistent.
func checkNameInScope(name QName, scope Scope) error {
	if name.local == "" {
		return fmt.Errorf("%w: empty local name", ErrInvalidName)
	}
	if name.prefix == "" || name.prefix == "xml" {
		return nil
	}
	ns, ok := scope.NamespaceOfPrefix(name.prefix)
	if !ok {
		return fmt.Errorf("%w: %q in %s", ErrUnboundPrefix, name.prefix, name)
	}
	if ns != name.space {
		return fmt.Errorf("%w: %q bound to %q, name %s wants %q",
			ErrUnboundPrefix, name.prefix, ns, name, name.space)
	}
	return nil
}

func checkAttrs(attrs []Attr, scope Scope) error {
	for i, attr := range attrs {
		if attr.Name.space == XMLNSNamespace || (attr.Name.space == "" && attr.Name.local == "xmlns") {
			return fmt.Errorf("%w: attribute %s is a namespace declaration", ErrInvalidName, attr.Name)
		}
		if err := checkNameInScope(attr.Name, scope); err != nil {
			return err
		}
		for _, prev := range attrs[:i] {
			if prev.Name.Equal(attr.Name) {
				return fmt.Errorf("%w: duplicate attribute %s", ErrInvalidName, attr.Name.ClarkString())
			}
		}
	}
	return nil
}

// Kind returns KindElement.
func (e Element) Kind() NodeKind { return KindElement }

func (e Element) isNode() {}

// Name returns the element name.
func (e Element) Name() QName { return e.name }

// Scope returns the in-scope namespace bindings.
func (e Element) Scope() Scope { return e.scope }

// Attributes returns a copy of the attributes in document order.
func (e Element) Attributes() []Attr { return slices.Clone(e.attrs) }

// Attr looks up an attribute value by namespace and local name.
func (e Element) Attr(space, local string) (string, bool) {
	for _, attr := range e.attrs {
		if attr.Name.space == space && attr.Name.local == local {
			return attr.Value, true
		}
	}
	return "", false
}

// AttrValue returns the attribute value, or the empty string when absent.
func (e Element) AttrValue(space, local string) string {
	value, _ := e.Attr(space, local)
	return value
}

// Children returns a copy of the child nodes in document order.
// Prefer ChildNodes or ChildElems for iteration; they do not copy.
func (e Element) Children() []Node { return slices.Clone(e.children) }

// ChildCount returns the number of child nodes of any kind.
func (e Element) ChildCount() int { return len(e.children) }

// ChildNodes iterates over the child nodes in document order.
func (e Element) ChildNodes() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, child := range e.children {
			if !yield(child) {
				return
			}
		}
	}
}

// ChildElems iterates over the element children in document order.
func (e Element) ChildElems() iter.Seq[Element] {
	return func(yield func(Element) bool) {
		for _, child := range e.children {
			if elem, ok := child.(Element); ok {
				if !yield(elem) {
					return
				}
			}
		}
	}
}

// ChildElemCount returns the number of element children.
func (e Element) ChildElemCount() int {
	n := 0
	for _, child := range e.children {
		if _, ok := child.(Element); ok {
			n++
		}
	}
	return n
}

// childElemAt returns the index-th element child, counting elements only.
func (e Element) childElemAt(index int) (Element, bool) {
	if index < 0 {
		return Element{}, false
	}
	n := 0
	for _, child := range e.children {
		if elem, ok := child.(Element); ok {
			if n == index {
				return elem, true
			}
			n++
		}
	}
	return Element{}, false
}

// ElementAtPath resolves a navigation path against the element. The empty
// path resolves to the element itself. Fails with ErrPathOutOfRange when an
// entry exceeds the child element count at its level.
func (e Element) ElementAtPath(p Path) (Element, error) {
	current := e
	for depth, index := range p.entries {
		next, ok := current.childElemAt(index)
		if !ok {
			return Element{}, fmt.Errorf("%w: entry %d at depth %d, element %s has %d child elements",
				ErrPathOutOfRange, index, depth, current.name, current.ChildElemCount())
		}
		current = next
	}
	return current, nil
}

// Text concatenates the values of the direct text children.
// Text inside descendant elements is not included.
func (e Element) Text() string {
	var b strings.Builder
	for _, child := range e.children {
		if t, ok := child.(Text); ok {
			b.WriteString(t.Value)
		}
	}
	return b.String()
}

// TrimmedText returns Text with leading and trailing whitespace removed.
func (e Element) TrimmedText() string {
	return strings.TrimSpace(e.Text())
}

// String renders the element name; it is a debugging aid, not serialization.
func (e Element) String() string {
	return fmt.Sprintf("<%s children=%d>", e.name, len(e.children))
}

// Validate re-checks the element invariants that NewElement enforces, for
// the whole subtree. The With/Plus update family is total and can produce
// an element whose prefix-hints no longer agree with its scope; Validate
// reports the first such violation in pre-order.
func (e Element) Validate() error {
	if err := checkNameInScope(e.name, e.scope); err != nil {
		return err
	}
	if err := checkAttrs(e.attrs, e.scope); err != nil {
		return err
	}
	for i, child := range e.children {
		switch node := child.(type) {
		case Element:
			if err := node.Validate(); err != nil {
				return err
			}
		case Text, Comment, ProcInst:
		default:
			return fmt.Errorf("xmltree: foreign child node at index %d in scoped element", i)
		}
	}
	return nil
}

// Document is an XML document: an optional base URI and an ordered sequence
// of document children, exactly one of which is an element. Comments and
// processing instructions before and after the document element are kept in
// position. A Document is not itself a Node.
type Document struct {
	baseURI  string
	children []Node
	elemIdx  int
}

// NewDocument builds a document from its children. Exactly one child must
// be an Element, the rest Comment or ProcInst nodes; anything else fails
// with ErrMalformedDocument. The baseURI may be empty for "no base URI".
func NewDocument(baseURI string, children ...Node) (Document, error) {
	elemIdx := -1
	for i, child := range children {
		switch child.(type) {
		case Element:
			if elemIdx >= 0 {
				return Document{}, fmt.Errorf("%w: more than one document element", ErrMalformedDocument)
			}
			elemIdx = i
		case Comment, ProcInst:
			// fine in the prolog and epilog
		case Text:
			return Document{}, fmt.Errorf("%w: text node at document level", ErrMalformedDocument)
		case ClarkElement:
			return Document{}, fmt.Errorf("%w: clark element at document level", ErrMalformedDocument)
		default:
			return Document{}, fmt.Errorf("%w: nil document child at index %d", ErrMalformedDocument, i)
		}
	}
	if elemIdx < 0 {
		return Document{}, fmt.Errorf("%w: no document element", ErrMalformedDocument)
	}
	return Document{
		baseURI:  baseURI,
		children: slices.Clone(children),
		elemIdx:  elemIdx,
	}, nil
}

// NewDocumentForElement wraps a single element as a complete document with
// no base URI and no prolog.
func NewDocumentForElement(root Element) Document {
	return Document{children: []Node{root}, elemIdx: 0}
}

// BaseURI returns the document base URI, if one is set.
func (d Document) BaseURI() (string, bool) {
	return d.baseURI, d.baseURI != ""
}

// Children returns a copy of the document children in order.
func (d Document) Children() []Node { return slices.Clone(d.children) }

// DocumentElement returns the single element child.
func (d Document) DocumentElement() Element {
	if d.elemIdx < 0 || d.elemIdx >= len(d.children) {
		return Element{}
	}
	elem, _ := d.children[d.elemIdx].(Element)
	return elem
}

// WithBaseURI returns a document with the base URI replaced.
func (d Document) WithBaseURI(baseURI string) Document {
	result := d
	result.baseURI = baseURI
	return result
}

// WithDocumentElement returns a document with the element child replaced in
// place, keeping surrounding comments and processing instructions.
func (d Document) WithDocumentElement(root Element) Document {
	children := slices.Clone(d.children)
	if d.elemIdx >= 0 && d.elemIdx < len(children) {
		children[d.elemIdx] = root
		return Document{baseURI: d.baseURI, children: children, elemIdx: d.elemIdx}
	}
	return NewDocumentForElement(root).WithBaseURI(d.baseURI)
}

// TransformDocumentElement applies f to the element child and returns the
// document with the result in the element child's position.
func (d Document) TransformDocumentElement(f func(Element) Element) Document {
	return d.WithDocumentElement(f(d.DocumentElement()))
}

// Validate re-checks the document shape and the element invariants of the
// whole tree.
func (d Document) Validate() error {
	elems := 0
	for _, child := range d.children {
		switch node := child.(type) {
		case Element:
			elems++
			if err := node.Validate(); err != nil {
				return err
			}
		case Comment, ProcInst:
		case Text:
			return fmt.Errorf("%w: text node at document level", ErrMalformedDocument)
		default:
			return fmt.Errorf("%w: foreign document child", ErrMalformedDocument)
		}
	}
	if elems != 1 {
		return fmt.Errorf("%w: %d document elements", ErrMalformedDocument, elems)
	}
	return nil
}
