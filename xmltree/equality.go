package xmltree

// Comparer compares nodes for semantic equality: elements by their Clark
// projections (namespace and local name, attributes as unordered sets,
// children in order), so prefix choices and namespace declarations never
// influence the outcome. Scoped and Clark elements compare against each
// other through the same projection.
//
// The zero Comparer ignores the CDATA flag on text nodes; set StrictText
// to make the flag significant.
type Comparer struct {
	StrictText bool
}

// Equal compares any two nodes.
func (c Comparer) Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch an := a.(type) {
	case Text:
		bn, ok := b.(Text)
		if !ok {
			return false
		}
		if c.StrictText && an.CData != bn.CData {
			return false
		}
		return an.Value == bn.Value
	case Comment:
		bn, ok := b.(Comment)
		return ok && an == bn
	case ProcInst:
		bn, ok := b.(ProcInst)
		return ok && an == bn
	default:
		aName, aAttrs, aChildren, ok := elemParts(a)
		if !ok {
			return false
		}
		bName, bAttrs, bChildren, ok := elemParts(b)
		if !ok {
			return false
		}
		if !aName.Equal(bName) || !c.equalAttrSets(aAttrs, bAttrs) {
			return false
		}
		if len(aChildren) != len(bChildren) {
			return false
		}
		for i := range aChildren {
			if !c.Equal(aChildren[i], bChildren[i]) {
				return false
			}
		}
		return true
	}
}

// EqualElems compares two scoped elements by their Clark projections.
func (c Comparer) EqualElems(a, b Element) bool { return c.Equal(a, b) }

// EqualDocuments compares the document children pairwise. The base URI is
// metadata and does not participate.
func (c Comparer) EqualDocuments(a, b Document) bool {
	if len(a.children) != len(b.children) {
		return false
	}
	for i := range a.children {
		if !c.Equal(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}

func (c Comparer) equalAttrSets(a, b []Attr) bool {
	if len(a) != len(b) {
		return false
	}
	for _, attr := range a {
		found := false
		for _, other := range b {
			if attr.Name.Equal(other.Name) {
				found = attr.Value == other.Value
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// elemParts uncovers the element content of either element flavor.
func elemParts(n Node) (QName, []Attr, []Node, bool) {
	switch elem := n.(type) {
	case Element:
		return elem.name, elem.attrs, elem.children, true
	case ClarkElement:
		return elem.name, elem.attrs, elem.children, true
	default:
		return QName{}, nil, nil, false
	}
}

// Equal compares two nodes with the default comparer: Clark projections
// for elements, CDATA-insensitive text.
func Equal(a, b Node) bool { return Comparer{}.Equal(a, b) }

// EqualElem compares two elements with the default comparer.
func EqualElem(a, b Element) bool { return Comparer{}.EqualElems(a, b) }

// EqualDocuments compares two documents with the default comparer.
func EqualDocuments(a, b Document) bool { return Comparer{}.EqualDocuments(a, b) }

// Equal compares with another element by Clark projection, with the
// default comparer.
func (e Element) Equal(other Element) bool { return Comparer{}.EqualElems(e, other) }

// Equal compares with another document, with the default comparer.
func (d Document) Equal(other Document) bool { return Comparer{}.EqualDocuments(d, other) }
