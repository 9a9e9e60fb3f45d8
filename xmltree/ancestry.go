package xmltree

import (
	"iter"
	"slices"
)

// AncestryAwareElement pairs an element with the root it came from and the
// navigation path from that root, giving it upward axes the plain Element
// cannot have: parent, ancestors and the effective base URI.
//
// The view is a cheap value over the immutable tree; parents are resolved
// through the root on demand. It implements Queryable over itself, so all
// query axes and predicates work on it, with children staying
// ancestry-aware.
type AncestryAwareElement struct {
	root    Element
	path    Path
	elem    Element
	docBase string
}

// RootAncestryAware wraps the document element of a document, carrying the
// document base URI into BaseURI derivation.
func RootAncestryAware(d Document) AncestryAwareElement {
	root := d.DocumentElement()
	return AncestryAwareElement{root: root, elem: root, docBase: d.baseURI}
}

// AncestryAwareOf wraps a free-standing element as its own root, with no
// document base URI.
func AncestryAwareOf(root Element) AncestryAwareElement {
	return AncestryAwareElement{root: root, elem: root}
}

// Underlying returns the element this view wraps.
func (ae AncestryAwareElement) Underlying() Element { return ae.elem }

// Root returns the element the navigation path is relative to.
func (ae AncestryAwareElement) Root() Element { return ae.root }

// NavigationPath returns the path from the root to this element.
func (ae AncestryAwareElement) NavigationPath() Path { return ae.path }

// Name returns the element name.
func (ae AncestryAwareElement) Name() QName { return ae.elem.Name() }

// Scope returns the in-scope namespace bindings.
func (ae AncestryAwareElement) Scope() Scope { return ae.elem.Scope() }

// Attributes returns a copy of the attributes in document order.
func (ae AncestryAwareElement) Attributes() []Attr { return ae.elem.Attributes() }

// Attr looks up an attribute value by namespace and local name.
func (ae AncestryAwareElement) Attr(space, local string) (string, bool) {
	return ae.elem.Attr(space, local)
}

// AttrValue returns the attribute value, or the empty string when absent.
func (ae AncestryAwareElement) AttrValue(space, local string) string {
	return ae.elem.AttrValue(space, local)
}

// Text concatenates the values of the direct text children.
func (ae AncestryAwareElement) Text() string { return ae.elem.Text() }

// TrimmedText returns Text with surrounding whitespace removed.
func (ae AncestryAwareElement) TrimmedText() string { return ae.elem.TrimmedText() }

// ChildNodes iterates over the child nodes in document order.
func (ae AncestryAwareElement) ChildNodes() iter.Seq[Node] { return ae.elem.ChildNodes() }

// ChildElems iterates over the element children in document order, each
// wrapped with its own path.
func (ae AncestryAwareElement) ChildElems() iter.Seq[AncestryAwareElement] {
	return func(yield func(AncestryAwareElement) bool) {
		index := 0
		for child := range ae.elem.ChildElems() {
			wrapped := AncestryAwareElement{
				root:    ae.root,
				path:    ae.path.Append(index),
				elem:    child,
				docBase: ae.docBase,
			}
			if !yield(wrapped) {
				return
			}
			index++
		}
	}
}

// ParentOption returns the parent element view, or false at the root.
func (ae AncestryAwareElement) ParentOption() (AncestryAwareElement, bool) {
	parentPath, ok := ae.path.WithoutLast()
	if !ok {
		return AncestryAwareElement{}, false
	}
	parent, err := ae.root.ElementAtPath(parentPath)
	if err != nil {
		return AncestryAwareElement{}, false
	}
	return AncestryAwareElement{root: ae.root, path: parentPath, elem: parent, docBase: ae.docBase}, true
}

// AncestorElemsOrSelf walks from this element up to the root, self first.
func (ae AncestryAwareElement) AncestorElemsOrSelf() iter.Seq[AncestryAwareElement] {
	return func(yield func(AncestryAwareElement) bool) {
		along := ae.elemsAlongPath()
		for i := len(along) - 1; i >= 0; i-- {
			if !yield(along[i]) {
				return
			}
		}
	}
}

// AncestorElemsOrSelfWhere filters AncestorElemsOrSelf by a predicate.
func (ae AncestryAwareElement) AncestorElemsOrSelfWhere(pred func(AncestryAwareElement) bool) iter.Seq[AncestryAwareElement] {
	return filterSeq(ae.AncestorElemsOrSelf(), pred)
}

// AncestorElems walks the proper ancestors, parent first.
func (ae AncestryAwareElement) AncestorElems() iter.Seq[AncestryAwareElement] {
	return func(yield func(AncestryAwareElement) bool) {
		along := ae.elemsAlongPath()
		for i := len(along) - 2; i >= 0; i-- {
			if !yield(along[i]) {
				return
			}
		}
	}
}

// AncestorElemsWhere filters AncestorElems by a predicate.
func (ae AncestryAwareElement) AncestorElemsWhere(pred func(AncestryAwareElement) bool) iter.Seq[AncestryAwareElement] {
	return filterSeq(ae.AncestorElems(), pred)
}

// elemsAlongPath materializes the views from the root down to this element,
// in root-first order. The slice length is the path length plus one.
func (ae AncestryAwareElement) elemsAlongPath() []AncestryAwareElement {
	along := make([]AncestryAwareElement, 0, ae.path.Len()+1)
	current := AncestryAwareElement{root: ae.root, elem: ae.root, docBase: ae.docBase}
	along = append(along, current)
	for depth, index := range ae.path.entries {
		child, ok := current.elem.childElemAt(index)
		if !ok {
			break
		}
		current = AncestryAwareElement{
			root:    ae.root,
			path:    NewPath(ae.path.entries[:depth+1]...),
			elem:    child,
			docBase: ae.docBase,
		}
		along = append(along, current)
	}
	return along
}

// BaseURI derives the effective base URI: the document base URI, refined by
// resolving each xml:base attribute from the root down to this element
// against the base in force at that point. False when nothing contributes
// a base.
func (ae AncestryAwareElement) BaseURI() (string, bool) {
	base := ae.docBase
	for _, anc := range ae.elemsAlongPath() {
		if ref, ok := anc.elem.Attr(XMLNamespace, "base"); ok {
			base = resolveXMLBase(base, ref)
		}
	}
	return base, base != ""
}

// DescendantElemsOrSelf walks this element and all its descendants in
// document pre-order, every result ancestry-aware.
func (ae AncestryAwareElement) DescendantElemsOrSelf() iter.Seq[AncestryAwareElement] {
	return DescendantElemsOrSelf(ae)
}

// DescendantElems walks the descendant elements in document pre-order,
// excluding this element.
func (ae AncestryAwareElement) DescendantElems() iter.Seq[AncestryAwareElement] {
	return DescendantElems(ae)
}

// TopmostElemsOrSelf emits matching elements in pre-order without
// descending into matches.
func (ae AncestryAwareElement) TopmostElemsOrSelf(pred func(AncestryAwareElement) bool) iter.Seq[AncestryAwareElement] {
	return TopmostElemsOrSelf(ae, pred)
}

// TopmostElems is TopmostElemsOrSelf excluding this element.
func (ae AncestryAwareElement) TopmostElems(pred func(AncestryAwareElement) bool) iter.Seq[AncestryAwareElement] {
	return TopmostElems(ae, pred)
}

// Equal reports whether two views address the same position in equal trees.
func (ae AncestryAwareElement) Equal(other AncestryAwareElement) bool {
	return ae.path.Equal(other.path) && ae.root.Equal(other.root) && ae.docBase == other.docBase
}

// ElementAtPath resolves a navigation path relative to this element,
// returning an ancestry-aware view of the target.
func (ae AncestryAwareElement) ElementAtPath(p Path) (AncestryAwareElement, error) {
	target, err := ae.elem.ElementAtPath(p)
	if err != nil {
		return AncestryAwareElement{}, err
	}
	combined := slices.Concat(ae.path.Entries(), p.Entries())
	return AncestryAwareElement{
		root:    ae.root,
		path:    NewPath(combined...),
		elem:    target,
		docBase: ae.docBase,
	}, nil
}
