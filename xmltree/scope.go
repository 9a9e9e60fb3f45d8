package xmltree

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Reserved XML namespaces.
const (
	// XMLNamespace is the namespace implicitly bound to the "xml" prefix.
	XMLNamespace = "http://www.w3.org/XML/1998/namespace"
	// XMLNSNamespace is the namespace of namespace declaration attributes.
	// It never occurs in a Scope; declarations are modeled as Scope entries.
	XMLNSNamespace = "http://www.w3.org/2000/xmlns/"
)

// Scope is an immutable set of in-scope namespace bindings: a mapping from
// prefix to namespace URI. The empty prefix denotes the default namespace.
//
// The "xml" prefix is implicitly bound to XMLNamespace in every scope and is
// never stored; "xmlns" is never a legal prefix. No stored namespace URI is
// ever empty: an empty URI acts only as an undeclaration while resolving
// declarations, and undeclared entries are removed on the spot.
//
// Scopes are values. Sharing them across goroutines is safe; every operation
// returns a new Scope (or the receiver itself when nothing changed).
type Scope struct {
	bindings map[string]string
}

// EmptyScope is the scope with no bindings.
var EmptyScope = Scope{}

// NewScope builds a scope from prefix → namespace bindings.
// An explicit ("xml", XMLNamespace) entry is permitted and stripped.
// Fails with ErrInvalidPrefix for an "xmlns" key or a key that is not an
// NCName, ErrReservedPrefixMisuse for an "xml" key bound to any other URI,
// and ErrEmptyNamespaceValue for an empty URI value.
func NewScope(bindings map[string]string) (Scope, error) {
	if len(bindings) == 0 {
		return EmptyScope, nil
	}
	m := make(map[string]string, len(bindings))
	for prefix, ns := range bindings {
		if prefix == "xml" {
			if ns != XMLNamespace {
				return Scope{}, fmt.Errorf("%w: \"xml\" bound to %q", ErrReservedPrefixMisuse, ns)
			}
			continue
		}
		if prefix == "xmlns" {
			return Scope{}, fmt.Errorf("%w: \"xmlns\"", ErrInvalidPrefix)
		}
		if prefix != "" && !isNCName(prefix) {
			return Scope{}, fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
		}
		if ns == "" {
			return Scope{}, fmt.Errorf("%w: prefix %q", ErrEmptyNamespaceValue, prefix)
		}
		m[prefix] = ns
	}
	if len(m) == 0 {
		return EmptyScope, nil
	}
	return Scope{bindings: m}, nil
}

// MustScope is like NewScope but panics on invalid input.
// It is intended for package-level scope constants and tests.
func MustScope(bindings map[string]string) Scope {
	sc, err := NewScope(bindings)
	if err != nil {
		panic(err)
	}
	return sc
}

// IsEmpty reports whether the scope has no bindings.
func (sc Scope) IsEmpty() bool { return len(sc.bindings) == 0 }

// Len returns the number of bindings (not counting the implicit "xml" one).
func (sc Scope) Len() int { return len(sc.bindings) }

// DefaultNamespace returns the namespace bound to the empty prefix, if any.
func (sc Scope) DefaultNamespace() (string, bool) {
	ns, ok := sc.bindings[""]
	return ns, ok
}

// NamespaceOfPrefix looks up the namespace bound to a prefix.
// The "xml" prefix always resolves to XMLNamespace, whatever the scope holds.
func (sc Scope) NamespaceOfPrefix(prefix string) (string, bool) {
	if prefix == "xml" {
		return XMLNamespace, true
	}
	ns, ok := sc.bindings[prefix]
	return ns, ok
}

// Bindings returns a copy of the prefix → namespace map.
func (sc Scope) Bindings() map[string]string {
	if len(sc.bindings) == 0 {
		return map[string]string{}
	}
	return maps.Clone(sc.bindings)
}

// Equal reports whether two scopes hold exactly the same bindings.
func (sc Scope) Equal(other Scope) bool {
	return maps.Equal(sc.bindings, other.bindings)
}

// SubScopeOf reports whether every binding of this scope appears in the
// other scope with the same namespace.
func (sc Scope) SubScopeOf(other Scope) bool {
	for prefix, ns := range sc.bindings {
		if got, ok := other.bindings[prefix]; !ok || got != ns {
			return false
		}
	}
	return true
}

// Resolve applies a single namespace declaration and returns the resulting
// scope. An empty namespace undeclares the prefix; XML 1.0 permits that only
// for the default prefix, but Resolve accepts both forms and leaves XML 1.0
// sanitizing to WithoutPrefixedUndeclarations before serialization.
//
// Binding "xml" to XMLNamespace is a no-op; binding it to anything else
// fails with ErrReservedPrefixMisuse. Binding "xmlns" fails with
// ErrInvalidPrefix. When the binding is already in force the receiver is
// returned unchanged.
func (sc Scope) Resolve(prefix, namespace string) (Scope, error) {
	if prefix == "xml" {
		if namespace != XMLNamespace && namespace != "" {
			return Scope{}, fmt.Errorf("%w: \"xml\" bound to %q", ErrReservedPrefixMisuse, namespace)
		}
		return sc, nil
	}
	if prefix == "xmlns" {
		return Scope{}, fmt.Errorf("%w: \"xmlns\"", ErrInvalidPrefix)
	}
	if prefix != "" && !isNCName(prefix) {
		return Scope{}, fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	if namespace == "" {
		return sc.withoutBinding(prefix), nil
	}
	if got, ok := sc.bindings[prefix]; ok && got == namespace {
		return sc, nil
	}
	m := make(map[string]string, len(sc.bindings)+1)
	maps.Copy(m, sc.bindings)
	m[prefix] = namespace
	return Scope{bindings: m}, nil
}

// ResolveAll folds Resolve over a set of declarations.
// Empty namespace values undeclare their prefixes. The receiver is returned
// unchanged when the declarations leave every binding as it was.
func (sc Scope) ResolveAll(decls map[string]string) (Scope, error) {
	result := sc
	for prefix, ns := range decls {
		next, err := result.Resolve(prefix, ns)
		if err != nil {
			return Scope{}, err
		}
		result = next
	}
	return result, nil
}

// applyDelta applies declarations whose keys and values already satisfy the
// scope invariants, skipping validation. Callers pass deltas produced by the
// scope algebra itself (Relativize output, possibly sanitized).
func (sc Scope) applyDelta(decls map[string]string) Scope {
	changed := false
	for prefix, ns := range decls {
		got, ok := sc.bindings[prefix]
		if ns == "" {
			if ok {
				changed = true
			}
		} else if !ok || got != ns {
			changed = true
		}
	}
	if !changed {
		return sc
	}
	m := make(map[string]string, len(sc.bindings)+len(decls))
	maps.Copy(m, sc.bindings)
	for prefix, ns := range decls {
		if ns == "" {
			delete(m, prefix)
			continue
		}
		m[prefix] = ns
	}
	if len(m) == 0 {
		return EmptyScope
	}
	return Scope{bindings: m}
}

// WithoutDefaultNamespace removes the default namespace binding, if present.
func (sc Scope) WithoutDefaultNamespace() Scope { return sc.withoutBinding("") }

// WithoutPrefix removes the binding for the given prefix, if present.
func (sc Scope) WithoutPrefix(prefix string) Scope { return sc.withoutBinding(prefix) }

func (sc Scope) withoutBinding(prefix string) Scope {
	if _, ok := sc.bindings[prefix]; !ok {
		return sc
	}
	if len(sc.bindings) == 1 {
		return EmptyScope
	}
	m := maps.Clone(sc.bindings)
	delete(m, prefix)
	return Scope{bindings: m}
}

// Relativize computes the smallest set of declarations that turns this scope
// into the other one: for any scopes a and b,
// a.ResolveAll(a.Relativize(b)) equals b.
//
// The result may contain undeclarations (empty values) for prefixes bound
// here but not in the other scope. XML 1.0 forbids prefixed undeclarations;
// run the result through WithoutPrefixedUndeclarations when targeting it.
func (sc Scope) Relativize(other Scope) map[string]string {
	decls := make(map[string]string)
	for prefix, ns := range other.bindings {
		if got, ok := sc.bindings[prefix]; !ok || got != ns {
			decls[prefix] = ns
		}
	}
	for prefix := range sc.bindings {
		if _, ok := other.bindings[prefix]; !ok {
			decls[prefix] = ""
		}
	}
	return decls
}

// WithoutPrefixedUndeclarations filters a declaration set down to what
// XML 1.0 can express: entries undeclaring a non-default prefix (non-empty
// key, empty value) are removed. The input map is not modified.
func WithoutPrefixedUndeclarations(decls map[string]string) map[string]string {
	result := make(map[string]string, len(decls))
	for prefix, ns := range decls {
		if ns == "" && prefix != "" {
			continue
		}
		result[prefix] = ns
	}
	return result
}

// ResolveElementName resolves a lexical element name ("local" or
// "prefix:local") against the scope. Unprefixed names take the default
// namespace when one is in force. The "xml" prefix is always recognized.
// Fails with ErrMalformedQName for a name that does not lex, and
// ErrUnboundPrefix for a prefix with no binding.
func (sc Scope) ResolveElementName(s string) (QName, error) {
	return sc.resolveName(s, true)
}

// ResolveAttributeName resolves a lexical attribute name against the scope.
// Unlike element names, unprefixed attribute names are always in no
// namespace: the default namespace does not apply to attributes.
func (sc Scope) ResolveAttributeName(s string) (QName, error) {
	return sc.resolveName(s, false)
}

// ResolveContentName resolves a lexical name occurring in element content or
// attribute values (a QName-in-content). The rules are those of element
// names: the default namespace applies.
func (sc Scope) ResolveContentName(s string) (QName, error) {
	return sc.resolveName(s, true)
}

func (sc Scope) resolveName(s string, useDefault bool) (QName, error) {
	prefix, local, err := splitSyntacticName(s)
	if err != nil {
		return QName{}, err
	}
	if !isNCName(local) || (prefix != "" && !isNCName(prefix)) {
		return QName{}, fmt.Errorf("%w: %q", ErrMalformedQName, s)
	}
	if prefix == "" {
		if useDefault {
			if ns, ok := sc.DefaultNamespace(); ok {
				return QName{space: ns, local: local}, nil
			}
		}
		return QName{local: local}, nil
	}
	ns, ok := sc.NamespaceOfPrefix(prefix)
	if !ok {
		return QName{}, fmt.Errorf("%w: %q in %q", ErrUnboundPrefix, prefix, s)
	}
	return QName{space: ns, local: local, prefix: prefix}, nil
}

// String renders the bindings in prefix order, the default namespace first.
func (sc Scope) String() string {
	if len(sc.bindings) == 0 {
		return "Scope()"
	}
	prefixes := sortedPrefixes(sc.bindings)
	var b strings.Builder
	b.WriteString("Scope(")
	for i, prefix := range prefixes {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q -> %q", prefix, sc.bindings[prefix])
	}
	b.WriteString(")")
	return b.String()
}

// sortedPrefixes returns map keys sorted, putting the default prefix first.
func sortedPrefixes(m map[string]string) []string {
	prefixes := slices.Collect(maps.Keys(m))
	slices.Sort(prefixes)
	return prefixes
}
