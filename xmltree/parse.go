package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseEvents reads XML bytes with encoding/xml and streams the ingestion
// protocol to h. Namespace declarations become prefix mapping events;
// element and attribute names arrive resolved, with prefix-hints recovered
// from the declarations in force.
//
// encoding/xml quirks this front-end inherits: CDATA sections are reported
// as plain text, and the exact prefixes of names are reconstructed by
// reverse lookup, so a document binding two prefixes to one namespace may
// come back with the other prefix. ParseWithTokenizerEvents reads prefixes
// straight from the document bytes instead.
// Non-UTF-8 input is converted through Options.CharsetReader.
func ParseEvents(r io.Reader, h EventHandler, opts ...Option) error {
	options := applyOptions(opts)
	dec := xml.NewDecoder(r)
	dec.CharsetReader = options.CharsetReader

	if err := h(Event{Kind: EventStartDocument, BaseURI: options.BaseURI}); err != nil {
		return err
	}

	type frame struct {
		scope    Scope
		prefixes []string
	}
	var stack []frame
	currentScope := func() Scope {
		if len(stack) > 0 {
			return stack[len(stack)-1].scope
		}
		return options.StartScope
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return wrapDecodeError(dec, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if options.MaxDepth > 0 && len(stack) >= options.MaxDepth {
				return wrapDecodeError(dec, fmt.Errorf("%w: %d", ErrDepthExceeded, options.MaxDepth))
			}
			decls := xmlnsDecls(t.Attr)
			scope, err := currentScope().ResolveAll(decls)
			if err != nil {
				return wrapDecodeError(dec, err)
			}
			prefixes := sortedPrefixes(decls)
			for _, prefix := range prefixes {
				ev := Event{Kind: EventStartPrefixMapping, Prefix: prefix, Namespace: decls[prefix]}
				if err := h(ev); err != nil {
					return err
				}
			}
			space, local, prefix, err := recoverElemName(t.Name, scope)
			if err != nil {
				return wrapDecodeError(dec, err)
			}
			var attrs []EventAttr
			for _, attr := range t.Attr {
				if isXMLNSDecl(attr.Name) {
					continue
				}
				aSpace, aLocal, aPrefix, err := recoverAttrName(attr.Name, scope)
				if err != nil {
					return wrapDecodeError(dec, err)
				}
				attrs = append(attrs, EventAttr{Namespace: aSpace, LocalName: aLocal, Prefix: aPrefix, Value: attr.Value})
			}
			start := Event{Kind: EventStartElement, Namespace: space, LocalName: local, Prefix: prefix, Attrs: attrs}
			if err := h(start); err != nil {
				return err
			}
			stack = append(stack, frame{scope: scope, prefixes: prefixes})
		case xml.EndElement:
			if len(stack) == 0 {
				return wrapDecodeError(dec, fmt.Errorf("xmltree: end element %s without open element", t.Name.Local))
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			space, local, prefix, err := recoverElemName(t.Name, top.scope)
			if err != nil {
				return wrapDecodeError(dec, err)
			}
			end := Event{Kind: EventEndElement, Namespace: space, LocalName: local, Prefix: prefix}
			if err := h(end); err != nil {
				return err
			}
			for i := len(top.prefixes) - 1; i >= 0; i-- {
				if err := h(Event{Kind: EventEndPrefixMapping, Prefix: top.prefixes[i]}); err != nil {
					return err
				}
			}
		case xml.CharData:
			if err := h(Event{Kind: EventCharacters, Text: string(t)}); err != nil {
				return err
			}
		case xml.Comment:
			if err := h(Event{Kind: EventComment, Text: string(t)}); err != nil {
				return err
			}
		case xml.ProcInst:
			if t.Target == "xml" {
				continue
			}
			ev := Event{Kind: EventProcInst, Target: t.Target, Data: string(t.Inst)}
			if err := h(ev); err != nil {
				return err
			}
		case xml.Directive:
			// DOCTYPE and friends carry no tree content
		}
	}
	return h(Event{Kind: EventEndDocument})
}

// Parse reads XML bytes into a document using the encoding/xml front-end.
func Parse(r io.Reader, opts ...Option) (Document, error) {
	builder := NewTreeBuilder(opts...)
	if err := ParseEvents(r, builder.Handle, opts...); err != nil {
		return Document{}, err
	}
	return builder.Document()
}

// ParseString parses a document from a string.
func ParseString(s string, opts ...Option) (Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// ParseBytes parses a document from a byte slice.
func ParseBytes(b []byte, opts ...Option) (Document, error) {
	return Parse(bytes.NewReader(b), opts...)
}

// isXMLNSDecl reports whether an encoding/xml attribute name is a
// namespace declaration. The decoder leaves those untranslated: a prefixed
// declaration keeps the literal space "xmlns", the default declaration has
// no space and the local name "xmlns".
func isXMLNSDecl(n xml.Name) bool {
	return n.Space == "xmlns" || (n.Space == "" && n.Local == "xmlns")
}

// xmlnsDecls collects the namespace declarations among an element's
// attributes as a prefix → namespace map, empty values meaning
// undeclaration.
func xmlnsDecls(attrs []xml.Attr) map[string]string {
	var decls map[string]string
	for _, attr := range attrs {
		if !isXMLNSDecl(attr.Name) {
			continue
		}
		if decls == nil {
			decls = make(map[string]string)
		}
		if attr.Name.Space == "xmlns" {
			decls[attr.Name.Local] = attr.Value
		} else {
			decls[""] = attr.Value
		}
	}
	return decls
}

// recoverElemName rebuilds (namespace, local, prefix-hint) for an element
// name the decoder resolved. The decoder erases prefixes, so the hint is
// recovered from the scope: the default namespace wins for its namespace,
// otherwise the first prefix bound to it. A prefix the decoder could not
// resolve is passed through verbatim in the space; it may still be bound
// in the scope, e.g. through OptStartScope.
func recoverElemName(n xml.Name, scope Scope) (space, local, prefix string, err error) {
	if n.Space == "" {
		return "", n.Local, "", nil
	}
	if def, ok := scope.DefaultNamespace(); ok && def == n.Space {
		return n.Space, n.Local, "", nil
	}
	if p, ok := scope.prefixForNamespace(n.Space, ""); ok {
		return n.Space, n.Local, p, nil
	}
	if n.Space == XMLNamespace {
		return n.Space, n.Local, "xml", nil
	}
	if ns, ok := scope.NamespaceOfPrefix(n.Space); ok {
		return ns, n.Local, n.Space, nil
	}
	return "", "", "", fmt.Errorf("%w: %q in %q", ErrUnboundPrefix, n.Space, n.Space+":"+n.Local)
}

// recoverAttrName is recoverElemName under attribute rules: no default
// namespace, the xml prefix implicit.
func recoverAttrName(n xml.Name, scope Scope) (space, local, prefix string, err error) {
	if n.Space == "" {
		return "", n.Local, "", nil
	}
	if n.Space == XMLNamespace {
		return n.Space, n.Local, "xml", nil
	}
	if p, ok := scope.prefixForNamespace(n.Space, ""); ok {
		return n.Space, n.Local, p, nil
	}
	if ns, ok := scope.NamespaceOfPrefix(n.Space); ok {
		return ns, n.Local, n.Space, nil
	}
	return "", "", "", fmt.Errorf("%w: %q in %q", ErrUnboundPrefix, n.Space, n.Space+":"+n.Local)
}

// wrapDecodeError attaches the decoder position to a fault.
func wrapDecodeError(dec *xml.Decoder, err error) error {
	if err == nil {
		return nil
	}
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ParseError{Line: syntaxErr.Line, Offset: dec.InputOffset(), Err: err}
	}
	return wrapParseError(0, 0, dec.InputOffset(), err)
}
