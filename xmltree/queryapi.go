package xmltree

import (
	"iter"
	"slices"
)

// Queryable is the capability surface the query engine runs on. Element,
// ClarkElement and AncestryAwareElement all implement it with E set to
// themselves, so the axis functions and predicates below work uniformly
// over every backend.
type Queryable[E any] interface {
	// Name returns the element name.
	Name() QName
	// Attributes returns the attributes in document order.
	Attributes() []Attr
	// ChildNodes iterates over child nodes of all kinds in document order.
	ChildNodes() iter.Seq[Node]
	// ChildElems iterates over element children in document order.
	ChildElems() iter.Seq[E]
}

// SelfElems returns the singleton sequence holding e.
func SelfElems[E Queryable[E]](e E) iter.Seq[E] {
	return func(yield func(E) bool) {
		yield(e)
	}
}

// SelfElemsWhere returns the singleton sequence holding e, or the empty
// sequence when the predicate rejects it.
func SelfElemsWhere[E Queryable[E]](e E, pred func(E) bool) iter.Seq[E] {
	return func(yield func(E) bool) {
		if pred(e) {
			yield(e)
		}
	}
}

// ChildElems returns the element children of e in document order.
func ChildElems[E Queryable[E]](e E) iter.Seq[E] {
	return e.ChildElems()
}

// ChildElemsWhere returns the element children of e matching the predicate,
// in document order.
func ChildElemsWhere[E Queryable[E]](e E, pred func(E) bool) iter.Seq[E] {
	return filterSeq(e.ChildElems(), pred)
}

// DescendantElemsOrSelf walks e and all its descendant elements in
// document pre-order. Each range over the result starts a fresh walk, and
// stopping early abandons the rest of the walk.
func DescendantElemsOrSelf[E Queryable[E]](e E) iter.Seq[E] {
	return func(yield func(E) bool) {
		stack := []E{e}
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(current) {
				return
			}
			stack = pushChildren(stack, current)
		}
	}
}

// DescendantElemsOrSelfWhere is DescendantElemsOrSelf filtered by a
// predicate; the walk still visits every descendant.
func DescendantElemsOrSelfWhere[E Queryable[E]](e E, pred func(E) bool) iter.Seq[E] {
	return filterSeq(DescendantElemsOrSelf(e), pred)
}

// DescendantElems walks the descendant elements of e in document
// pre-order, excluding e itself.
func DescendantElems[E Queryable[E]](e E) iter.Seq[E] {
	return func(yield func(E) bool) {
		stack := pushChildren(nil, e)
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(current) {
				return
			}
			stack = pushChildren(stack, current)
		}
	}
}

// DescendantElemsWhere is DescendantElems filtered by a predicate.
func DescendantElemsWhere[E Queryable[E]](e E, pred func(E) bool) iter.Seq[E] {
	return filterSeq(DescendantElems(e), pred)
}

// TopmostElemsOrSelf walks in document pre-order starting at e and emits
// each matching element without descending into it. The result is the
// maximal set of matching elements none of which is a descendant of
// another.
func TopmostElemsOrSelf[E Queryable[E]](e E, pred func(E) bool) iter.Seq[E] {
	return func(yield func(E) bool) {
		stack := []E{e}
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if pred(current) {
				if !yield(current) {
					return
				}
				continue
			}
			stack = pushChildren(stack, current)
		}
	}
}

// TopmostElems is TopmostElemsOrSelf starting below e: e itself is never
// emitted, even when it matches.
func TopmostElems[E Queryable[E]](e E, pred func(E) bool) iter.Seq[E] {
	return func(yield func(E) bool) {
		stack := pushChildren(nil, e)
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if pred(current) {
				if !yield(current) {
					return
				}
				continue
			}
			stack = pushChildren(stack, current)
		}
	}
}

// pushChildren pushes the element children of e onto the walk stack in
// reverse, so the stack pops them in document order.
func pushChildren[E Queryable[E]](stack []E, e E) []E {
	mark := len(stack)
	for child := range e.ChildElems() {
		stack = append(stack, child)
	}
	slices.Reverse(stack[mark:])
	return stack
}

// filterSeq returns the elements of seq matching the predicate.
func filterSeq[E any](seq iter.Seq[E], pred func(E) bool) iter.Seq[E] {
	return func(yield func(E) bool) {
		for e := range seq {
			if pred(e) && !yield(e) {
				return
			}
		}
	}
}

// First returns the first value of a sequence, if any.
func First[T any](seq iter.Seq[T]) (T, bool) {
	for v := range seq {
		return v, true
	}
	var zero T
	return zero, false
}

// Count drains a sequence and returns the number of values it produced.
func Count[T any](seq iter.Seq[T]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}

// FindChildElem returns the first element child matching the predicate.
func FindChildElem[E Queryable[E]](e E, pred func(E) bool) (E, bool) {
	return First(ChildElemsWhere(e, pred))
}

// FindDescendantElemOrSelf returns the first element in document pre-order
// of e and its descendants that matches the predicate.
func FindDescendantElemOrSelf[E Queryable[E]](e E, pred func(E) bool) (E, bool) {
	return First(DescendantElemsOrSelfWhere(e, pred))
}

// FindDescendantElem returns the first descendant element of e in document
// pre-order that matches the predicate.
func FindDescendantElem[E Queryable[E]](e E, pred func(E) bool) (E, bool) {
	return First(DescendantElemsWhere(e, pred))
}

// DescendantElemsOrSelf walks the element and all its descendant elements
// in document pre-order.
func (e Element) DescendantElemsOrSelf() iter.Seq[Element] {
	return DescendantElemsOrSelf(e)
}

// DescendantElems walks the descendant elements in document pre-order,
// excluding the element itself.
func (e Element) DescendantElems() iter.Seq[Element] {
	return DescendantElems(e)
}

// TopmostElemsOrSelf emits matching elements in pre-order without
// descending into matches; see the package-level TopmostElemsOrSelf.
func (e Element) TopmostElemsOrSelf(pred func(Element) bool) iter.Seq[Element] {
	return TopmostElemsOrSelf(e, pred)
}

// TopmostElems is TopmostElemsOrSelf excluding the element itself.
func (e Element) TopmostElems(pred func(Element) bool) iter.Seq[Element] {
	return TopmostElems(e, pred)
}
