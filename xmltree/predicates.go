package xmltree

import "strings"

// Element predicates for the query axes. Each factory works at the
// Queryable level, so one predicate definition serves Element,
// ClarkElement and AncestryAwareElement alike.

// HasName matches elements whose name equals the given name, ignoring
// prefix-hints.
func HasName[E Queryable[E]](name QName) func(E) bool {
	return func(e E) bool { return e.Name().Equal(name) }
}

// HasNameParts matches elements by namespace URI and local name.
func HasNameParts[E Queryable[E]](space, local string) func(E) bool {
	return func(e E) bool { return e.Name().IsName(space, local) }
}

// HasLocalName matches elements by local name only, in any namespace.
func HasLocalName[E Queryable[E]](local string) func(E) bool {
	return func(e E) bool { return e.Name().LocalName() == local }
}

// HasAttr matches elements carrying an attribute with the given namespace
// URI and local name.
func HasAttr[E Queryable[E]](space, local string) func(E) bool {
	return func(e E) bool {
		_, ok := attrLookup(e, space, local)
		return ok
	}
}

// HasAttrValue matches elements carrying the given attribute with exactly
// the given value.
func HasAttrValue[E Queryable[E]](space, local, value string) func(E) bool {
	return func(e E) bool {
		got, ok := attrLookup(e, space, local)
		return ok && got == value
	}
}

// HasOnlyText matches elements whose children are all text nodes. An
// element with no children matches.
func HasOnlyText[E Queryable[E]]() func(E) bool {
	return func(e E) bool {
		for node := range e.ChildNodes() {
			if node.Kind() != KindText {
				return false
			}
		}
		return true
	}
}

// HasOnlyStrippedText matches elements whose children are all text nodes
// and whose concatenated text carries no leading or trailing whitespace.
func HasOnlyStrippedText[E Queryable[E]]() func(E) bool {
	return func(e E) bool {
		var b strings.Builder
		for node := range e.ChildNodes() {
			t, ok := node.(Text)
			if !ok {
				return false
			}
			b.WriteString(t.Value)
		}
		text := b.String()
		return text == strings.TrimSpace(text)
	}
}

// AndPred matches when every given predicate matches.
func AndPred[E any](preds ...func(E) bool) func(E) bool {
	return func(e E) bool {
		for _, pred := range preds {
			if !pred(e) {
				return false
			}
		}
		return true
	}
}

// OrPred matches when at least one of the given predicates matches.
func OrPred[E any](preds ...func(E) bool) func(E) bool {
	return func(e E) bool {
		for _, pred := range preds {
			if pred(e) {
				return true
			}
		}
		return false
	}
}

// NotPred inverts a predicate.
func NotPred[E any](pred func(E) bool) func(E) bool {
	return func(e E) bool { return !pred(e) }
}

// attrLookup finds an attribute by namespace and local name through the
// capability surface.
func attrLookup[E Queryable[E]](e E, space, local string) (string, bool) {
	for _, attr := range e.Attributes() {
		if attr.Name.IsName(space, local) {
			return attr.Value, true
		}
	}
	return "", false
}
