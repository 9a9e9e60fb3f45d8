// Package xmltree provides immutable, namespace-aware XML document trees.
//
// Copyright 2026 Geoknoesis LLC (www.geoknoesis.com)
//
// Every value in the package is immutable: elements, documents, names,
// scopes and paths can be shared between goroutines without locks, and
// every "update" returns a new value while the old one stays valid. The
// package focuses on namespace correctness and a small, composable query
// surface:
//   - Names: QName pairs a namespace URI with a local name and keeps the
//     original prefix as a serialization hint that never takes part in
//     equality.
//   - Scopes: Scope models the xmlns declarations in force, including
//     undeclarations, with Resolve/Relativize forming the algebra the
//     serializer and the event layer are built on.
//   - Queries: axes such as DescendantElemsOrSelf return lazy iter.Seq
//     sequences and are defined once, generically, for every element
//     representation (scoped, Clark and ancestry-aware).
//   - Transforms: the With/Plus family and the functional
//     TransformDescendantElems helpers rebuild only the spine above a
//     change.
//
// Example (find and rewrite):
//
//	doc, err := xmltree.ParseString(input)
//	if err != nil {
//	    // handle error
//	}
//	root := doc.DocumentElement()
//	items := xmltree.DescendantElemsWhere(root, xmltree.HasLocalName[xmltree.Element]("item"))
//	for item := range items {
//	    // process item
//	}
//	renamed := root.TransformDescendantElemsOrSelf(func(e xmltree.Element) xmltree.Element {
//	    // rewrite e
//	    return e
//	})
//
// Parsing has two front-ends. Parse and ParseEvents read through
// encoding/xml and keep the most fidelity; ParseWithTokenizer and
// ParseWithTokenizerEvents read through github.com/muktihari/xmltokenizer,
// report prefixes exactly as written, and trade whitespace and CDATA
// fidelity for speed on large data documents. Both feed the same event
// protocol, so a TreeBuilder, a Serializer or any EventHandler can sit on
// either end, and Emit replays an existing tree as the same events.
//
// Serialization repairs namespaces: declarations missing from a scope are
// generated rather than reported, so any tree built through the package
// serializes to namespace-well-formed XML.
//
// Comparison is by structure, not representation: Equal projects scoped
// elements down to their Clark form (expanded names only), ignoring
// prefixes, attribute order and CDATA-ness. Use Comparer{StrictText: true}
// when CDATA boundaries matter.
//
// Element nesting depth during ingestion is capped (DefaultMaxDepth) to
// keep untrusted input from exhausting the stack; raise or lower the cap
// with OptMaxDepth.
package xmltree
