package xmltree

import (
	"fmt"
	"maps"
	"slices"
)

// Functional updates. Every method below returns a new element sharing all
// unchanged state with the receiver; the receiver is never modified.
//
// The With/Plus family is total and does not re-check model invariants, so
// it can produce elements whose prefix-hints disagree with their scope.
// Use Validate to re-check a tree after such surgery; NewElement,
// the builder and the ingestion sink only ever produce valid trees.

// WithName returns the element with its name replaced.
func (e Element) WithName(name QName) Element {
	result := e
	result.name = name
	return result
}

// WithAttrs returns the element with its attributes replaced.
// The slice is copied.
func (e Element) WithAttrs(attrs []Attr) Element {
	result := e
	result.attrs = slices.Clone(attrs)
	return result
}

// WithScope returns the element with its in-scope bindings replaced.
// Descendant scopes are untouched; see NotUndeclaringPrefixes for a
// scope rewrite that respects descendants.
func (e Element) WithScope(scope Scope) Element {
	result := e
	result.scope = scope
	return result
}

// WithChildren returns the element with its children replaced.
// The slice is copied; nil entries are dropped.
func (e Element) WithChildren(children []Node) Element {
	cleaned := make([]Node, 0, len(children))
	for _, child := range children {
		if child != nil {
			cleaned = append(cleaned, child)
		}
	}
	return e.withChildrenNoCopy(cleaned)
}

// withChildrenNoCopy installs a children slice the caller owns outright.
func (e Element) withChildrenNoCopy(children []Node) Element {
	result := e
	result.children = children
	return result
}

// PlusChild returns the element with one child appended.
// A nil child leaves the element unchanged.
func (e Element) PlusChild(child Node) Element {
	if child == nil {
		return e
	}
	children := make([]Node, 0, len(e.children)+1)
	children = append(children, e.children...)
	children = append(children, child)
	return e.withChildrenNoCopy(children)
}

// PlusChildOption is PlusChild for an optional child: nil means absent.
func (e Element) PlusChildOption(child Node) Element {
	return e.PlusChild(child)
}

// PlusChildren returns the element with the given children appended in
// order. Nil entries are dropped.
func (e Element) PlusChildren(children []Node) Element {
	result := e
	appended := slices.Clone(e.children)
	for _, child := range children {
		if child != nil {
			appended = append(appended, child)
		}
	}
	result.children = appended
	return result
}

// PlusAttr returns the element with the attribute added, or with its value
// replaced when an attribute with the same namespace and local name is
// already present. Attribute order is preserved on replacement.
func (e Element) PlusAttr(name QName, value string) Element {
	attrs := slices.Clone(e.attrs)
	for i, attr := range attrs {
		if attr.Name.Equal(name) {
			attrs[i] = Attr{Name: name, Value: value}
			result := e
			result.attrs = attrs
			return result
		}
	}
	attrs = append(attrs, Attr{Name: name, Value: value})
	result := e
	result.attrs = attrs
	return result
}

// TransformChildrenToNodeLists replaces each child node with the node list
// f returns for it, flattening the lists in order. The child count may
// grow or shrink; returning nil removes the child. Nil nodes inside a
// returned list are dropped.
func (e Element) TransformChildrenToNodeLists(f func(Node) []Node) Element {
	children := make([]Node, 0, len(e.children))
	for _, child := range e.children {
		for _, replacement := range f(child) {
			if replacement != nil {
				children = append(children, replacement)
			}
		}
	}
	return e.withChildrenNoCopy(children)
}

// TransformChildElemsToNodeLists is TransformChildrenToNodeLists applied to
// element children only; text, comment and processing instruction children
// pass through unchanged.
func (e Element) TransformChildElemsToNodeLists(f func(Element) []Node) Element {
	return e.TransformChildrenToNodeLists(func(child Node) []Node {
		if elem, ok := child.(Element); ok {
			return f(elem)
		}
		return []Node{child}
	})
}

// TransformChildElems rewrites each element child with f, one to one.
// Non-element children and the child count are unchanged.
func (e Element) TransformChildElems(f func(Element) Element) Element {
	if e.ChildElemCount() == 0 {
		return e
	}
	children := slices.Clone(e.children)
	for i, child := range children {
		if elem, ok := child.(Element); ok {
			children[i] = f(elem)
		}
	}
	return e.withChildrenNoCopy(children)
}

// TransformDescendantElemsOrSelf rewrites the element and every descendant
// element with f, bottom-up: children are rewritten before their parent,
// so f sees an element whose subtree is already transformed.
func (e Element) TransformDescendantElemsOrSelf(f func(Element) Element) Element {
	rewritten := e.TransformChildElems(func(child Element) Element {
		return child.TransformDescendantElemsOrSelf(f)
	})
	return f(rewritten)
}

// TransformDescendantElems rewrites every descendant element with f,
// bottom-up, leaving the element itself untouched.
func (e Element) TransformDescendantElems(f func(Element) Element) Element {
	return e.TransformChildElems(func(child Element) Element {
		return child.TransformDescendantElemsOrSelf(f)
	})
}

// UpdateElems applies g to the element at each given path, relative to the
// receiver. Paths form a set; duplicates are applied once. Deeper paths are
// applied before shallower ones, so an update never sees stale descendants
// and shallow updates never invalidate deep paths.
//
// g receives each path as given and the element currently at it. An error
// from g aborts the update and propagates unchanged. A path that does not
// resolve fails with ErrPathOutOfRange.
func (e Element) UpdateElems(paths []Path, g func(Path, Element) (Element, error)) (Element, error) {
	return e.updateAt(RootPath, paths, g)
}

func (e Element) updateAt(at Path, paths []Path, g func(Path, Element) (Element, error)) (Element, error) {
	selfUpdate := false
	var tailsByIndex map[int][]Path
	for _, p := range paths {
		first, ok := p.FirstEntry()
		if !ok {
			selfUpdate = true
			continue
		}
		tail, _ := p.WithoutFirst()
		if tailsByIndex == nil {
			tailsByIndex = make(map[int][]Path)
		}
		tailsByIndex[first] = append(tailsByIndex[first], tail)
	}

	result := e
	if len(tailsByIndex) > 0 {
		children := slices.Clone(e.children)
		elemIndex := 0
		for i, child := range children {
			elem, ok := child.(Element)
			if !ok {
				continue
			}
			if tails, hit := tailsByIndex[elemIndex]; hit {
				updated, err := elem.updateAt(at.Append(elemIndex), tails, g)
				if err != nil {
					return Element{}, err
				}
				children[i] = updated
				delete(tailsByIndex, elemIndex)
			}
			elemIndex++
		}
		if len(tailsByIndex) > 0 {
			missing := slices.Min(slices.Collect(maps.Keys(tailsByIndex)))
			return Element{}, fmt.Errorf("%w: no child element %d under %s (element %s has %d child elements)",
				ErrPathOutOfRange, missing, at, e.name, e.ChildElemCount())
		}
		result = e.withChildrenNoCopy(children)
	}

	if selfUpdate {
		return g(at, result)
	}
	return result, nil
}

// RemoveInterElementWhitespace removes whitespace-only text children from
// every element, recursively, when the element has at least one element
// child and no non-whitespace text children. The xml:space attribute is
// not consulted. The operation is idempotent.
func (e Element) RemoveInterElementWhitespace() Element {
	stripped := e
	if kept := stripWhitespaceChildren(e.children); len(kept) != len(e.children) {
		stripped = e.withChildrenNoCopy(kept)
	}
	return stripped.TransformChildElems(func(child Element) Element {
		return child.RemoveInterElementWhitespace()
	})
}

// RemoveInterElementWhitespace applies the element-level cleanup to the
// document element.
func (d Document) RemoveInterElementWhitespace() Document {
	return d.TransformDocumentElement(Element.RemoveInterElementWhitespace)
}

// NotUndeclaringPrefixes rewrites descendant scopes so that no prefix
// bound in startScope, or in any ancestor inside the tree, is unbound
// further down. The default namespace may still be undeclared (that is the
// one undeclaration XML 1.0 can express). Names, attributes and non-scope
// content are untouched, so the Clark projection is unchanged.
//
// Serializing the result against startScope emits no prefixed namespace
// undeclarations.
func (e Element) NotUndeclaringPrefixes(startScope Scope) Element {
	decls := WithoutPrefixedUndeclarations(startScope.Relativize(e.scope))
	newScope := startScope.applyDelta(decls)
	rewritten := e
	rewritten.scope = newScope
	return rewritten.TransformChildElems(func(child Element) Element {
		return child.NotUndeclaringPrefixes(newScope)
	})
}
