package xmltree

import (
	"fmt"
	"strings"
)

// QName is a qualified element or attribute name: a namespace URI plus a
// local name, with an optional prefix recording how the name was (or should
// be) written syntactically.
//
// The prefix is a serialization hint only: Equal ignores it, and two names
// that differ solely in prefix are interchangeable everywhere except when
// rendering markup.
type QName struct {
	space  string
	local  string
	prefix string
}

// NewName builds a QName in the given namespace with no prefix hint.
// The namespace may be empty (the "no namespace" case).
// Fails with ErrInvalidName when the local name is empty or not an NCName.
func NewName(space, local string) (QName, error) {
	return NewPrefixedName(space, local, "")
}

// NewPrefixedName builds a QName carrying a prefix hint.
// Fails with ErrInvalidName when the local name is not an NCName, when the
// prefix is present but not an NCName or reserved ("xmlns", or "xml" bound
// to anything but the XML namespace), or when a prefixed name has an empty
// namespace.
func NewPrefixedName(space, local, prefix string) (QName, error) {
	if !isNCName(local) {
		return QName{}, fmt.Errorf("%w: local name %q", ErrInvalidName, local)
	}
	if prefix != "" {
		if !isNCName(prefix) {
			return QName{}, fmt.Errorf("%w: prefix %q", ErrInvalidName, prefix)
		}
		if prefix == "xmlns" {
			return QName{}, fmt.Errorf("%w: prefix \"xmlns\"", ErrInvalidName)
		}
		if prefix == "xml" && space != XMLNamespace {
			return QName{}, fmt.Errorf("%w: prefix \"xml\" requires namespace %s", ErrInvalidName, XMLNamespace)
		}
		if space == "" {
			return QName{}, fmt.Errorf("%w: prefixed name %s:%s has no namespace", ErrInvalidName, prefix, local)
		}
	}
	return QName{space: space, local: local, prefix: prefix}, nil
}

// MustName is like NewName but panics on invalid input.
// It is intended for package-level name constants and tests.
func MustName(space, local string) QName {
	q, err := NewName(space, local)
	if err != nil {
		panic(err)
	}
	return q
}

// MustPrefixedName is like NewPrefixedName but panics on invalid input.
// It is intended for package-level name constants and tests.
func MustPrefixedName(space, local, prefix string) QName {
	q, err := NewPrefixedName(space, local, prefix)
	if err != nil {
		panic(err)
	}
	return q
}

// Namespace returns the namespace URI, or the empty string for a name in no
// namespace.
func (q QName) Namespace() string { return q.space }

// LocalName returns the local part of the name.
func (q QName) LocalName() string { return q.local }

// Prefix returns the prefix hint, or the empty string when none was recorded.
func (q QName) Prefix() string { return q.prefix }

// WithoutPrefix returns the same name with the prefix hint cleared.
func (q QName) WithoutPrefix() QName { return QName{space: q.space, local: q.local} }

// Equal reports whether two names have the same namespace and local name.
// Prefix hints are ignored.
func (q QName) Equal(other QName) bool {
	return q.space == other.space && q.local == other.local
}

// IsName reports whether the name has the given namespace and local name,
// ignoring prefix hints.
func (q QName) IsName(space, local string) bool {
	return q.space == space && q.local == local
}

// String renders the syntactic form of the name: "prefix:local" when a
// prefix hint is present, "local" otherwise.
func (q QName) String() string {
	if q.prefix == "" {
		return q.local
	}
	return q.prefix + ":" + q.local
}

// ClarkString renders the name in Clark notation: "{namespace}local", or
// just "local" for a name in no namespace.
func (q QName) ClarkString() string {
	if q.space == "" {
		return q.local
	}
	return "{" + q.space + "}" + q.local
}

// splitSyntacticName splits a lexical QName on its first colon.
// The returned prefix is empty for unprefixed names.
// Fails with ErrMalformedQName for empty input, an empty prefix or local
// part, or a local part that itself contains a colon.
func splitSyntacticName(s string) (prefix, local string, err error) {
	if s == "" {
		return "", "", fmt.Errorf("%w: empty name", ErrMalformedQName)
	}
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return "", s, nil
	}
	prefix, local = s[:idx], s[idx+1:]
	if prefix == "" || local == "" || strings.IndexByte(local, ':') >= 0 {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedQName, s)
	}
	return prefix, local, nil
}

// isNCName reports whether the string is a non-colonized XML name
// (XML 1.0 fifth edition production, minus the colon).
func isNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !isNameStartRune(r) {
				return false
			}
		} else if !isNameRune(r) {
			return false
		}
	}
	return true
}

func isNameStartRune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r == '_':
		return true
	case r >= 0xC0 && r <= 0xD6, r >= 0xD8 && r <= 0xF6, r >= 0xF8 && r <= 0x2FF:
		return true
	case r >= 0x370 && r <= 0x37D, r >= 0x37F && r <= 0x1FFF:
		return true
	case r >= 0x200C && r <= 0x200D, r >= 0x2070 && r <= 0x218F:
		return true
	case r >= 0x2C00 && r <= 0x2FEF, r >= 0x3001 && r <= 0xD7FF:
		return true
	case r >= 0xF900 && r <= 0xFDCF, r >= 0xFDF0 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0xEFFFF:
		return true
	}
	return false
}

func isNameRune(r rune) bool {
	if isNameStartRune(r) {
		return true
	}
	switch {
	case r == '-', r == '.', r >= '0' && r <= '9', r == 0xB7:
		return true
	case r >= 0x300 && r <= 0x36F, r >= 0x203F && r <= 0x2040:
		return true
	}
	return false
}
