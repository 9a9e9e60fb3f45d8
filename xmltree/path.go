package xmltree

import (
	"slices"
	"strconv"
	"strings"
)

// Path navigates from an element to a descendant element by zero-based
// child element indices. Each entry counts element children only: text,
// comment and processing instruction siblings do not shift the index.
//
// The empty path addresses the element itself. Paths are immutable values.
type Path struct {
	entries []int
}

// RootPath is the empty path, addressing the start element itself.
var RootPath = Path{}

// NewPath builds a path from child element indices, outermost first.
// Indices are not validated here; resolving a path with a negative or
// too-large entry fails with ErrPathOutOfRange.
func NewPath(entries ...int) Path {
	if len(entries) == 0 {
		return RootPath
	}
	return Path{entries: slices.Clone(entries)}
}

// IsRoot reports whether the path is empty.
func (p Path) IsRoot() bool { return len(p.entries) == 0 }

// Len returns the number of entries.
func (p Path) Len() int { return len(p.entries) }

// Entries returns a copy of the child element indices, outermost first.
func (p Path) Entries() []int {
	if len(p.entries) == 0 {
		return nil
	}
	return slices.Clone(p.entries)
}

// Append returns the path extended with one more child element index at the
// deep end.
func (p Path) Append(index int) Path {
	entries := make([]int, 0, len(p.entries)+1)
	entries = append(entries, p.entries...)
	entries = append(entries, index)
	return Path{entries: entries}
}

// Prepend returns the path extended with a child element index at the
// shallow end, so that the old path is relative to the new first step.
func (p Path) Prepend(index int) Path {
	entries := make([]int, 0, len(p.entries)+1)
	entries = append(entries, index)
	entries = append(entries, p.entries...)
	return Path{entries: entries}
}

// FirstEntry returns the first child element index, or false on the root
// path.
func (p Path) FirstEntry() (int, bool) {
	if len(p.entries) == 0 {
		return 0, false
	}
	return p.entries[0], true
}

// WithoutFirst returns the path minus its first entry, or false on the root
// path.
func (p Path) WithoutFirst() (Path, bool) {
	switch len(p.entries) {
	case 0:
		return Path{}, false
	case 1:
		return RootPath, true
	default:
		return Path{entries: slices.Clone(p.entries[1:])}, true
	}
}

// LastEntry returns the last child element index, or false on the root path.
func (p Path) LastEntry() (int, bool) {
	if len(p.entries) == 0 {
		return 0, false
	}
	return p.entries[len(p.entries)-1], true
}

// WithoutLast returns the path minus its last entry, or false on the root
// path. For a non-root path this is the parent path.
func (p Path) WithoutLast() (Path, bool) {
	switch len(p.entries) {
	case 0:
		return Path{}, false
	case 1:
		return RootPath, true
	default:
		return Path{entries: slices.Clone(p.entries[:len(p.entries)-1])}, true
	}
}

// Equal reports whether two paths hold the same entries.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p.entries, other.entries)
}

// Compare orders paths lexicographically by their entries, a proper prefix
// sorting before its extensions. This matches document order among paths
// into the same tree.
func (p Path) Compare(other Path) int {
	return slices.Compare(p.entries, other.entries)
}

// String renders the path as "/" separated indices; the root path is "/".
func (p Path) String() string {
	if len(p.entries) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, index := range p.entries {
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(index))
	}
	return b.String()
}
