package xmltree

// Emit walks a document and pushes the symmetric event stream to h:
// start-document, the document children in order with elements expanded
// recursively, end-document. At each element boundary the element's scope
// is relativized against the scope in force outside it, sanitized for
// XML 1.0 (prefixed undeclarations are dropped), and emitted as prefix
// mapping events around the element events.
//
// An error from h aborts the walk and propagates unchanged.
func Emit(d Document, h EventHandler, opts ...Option) error {
	options := applyOptions(opts)
	baseURI := d.baseURI
	if options.BaseURI != "" {
		baseURI = options.BaseURI
	}
	if err := h(Event{Kind: EventStartDocument, BaseURI: baseURI}); err != nil {
		return err
	}
	for _, child := range d.children {
		if err := emitNode(child, options.StartScope, h); err != nil {
			return err
		}
	}
	return h(Event{Kind: EventEndDocument})
}

// EmitElement pushes the event stream for a single element, without
// document events. Feed it to a TreeBuilder and collect with Root.
func EmitElement(e Element, h EventHandler, opts ...Option) error {
	options := applyOptions(opts)
	return emitElement(e, options.StartScope, h)
}

func emitNode(n Node, parentScope Scope, h EventHandler) error {
	switch node := n.(type) {
	case Element:
		return emitElement(node, parentScope, h)
	case Text:
		return h(Event{Kind: EventCharacters, Text: node.Value, CData: node.CData})
	case Comment:
		return h(Event{Kind: EventComment, Text: node.Value})
	case ProcInst:
		return h(Event{Kind: EventProcInst, Target: node.Target, Data: node.Data})
	default:
		return nil
	}
}

func emitElement(e Element, parentScope Scope, h EventHandler) error {
	decls := WithoutPrefixedUndeclarations(parentScope.Relativize(e.scope))
	effective := parentScope.applyDelta(decls)

	prefixes := sortedPrefixes(decls)
	for _, prefix := range prefixes {
		ev := Event{Kind: EventStartPrefixMapping, Prefix: prefix, Namespace: decls[prefix]}
		if err := h(ev); err != nil {
			return err
		}
	}

	var attrs []EventAttr
	if len(e.attrs) > 0 {
		attrs = make([]EventAttr, len(e.attrs))
		for i, attr := range e.attrs {
			attrs[i] = EventAttr{
				Namespace: attr.Name.space,
				LocalName: attr.Name.local,
				Prefix:    attr.Name.prefix,
				Value:     attr.Value,
			}
		}
	}
	start := Event{
		Kind:      EventStartElement,
		Namespace: e.name.space,
		LocalName: e.name.local,
		Prefix:    e.name.prefix,
		Attrs:     attrs,
	}
	if err := h(start); err != nil {
		return err
	}

	for _, child := range e.children {
		if err := emitNode(child, effective, h); err != nil {
			return err
		}
	}

	end := Event{Kind: EventEndElement, Namespace: e.name.space, LocalName: e.name.local, Prefix: e.name.prefix}
	if err := h(end); err != nil {
		return err
	}
	for i := len(prefixes) - 1; i >= 0; i-- {
		if err := h(Event{Kind: EventEndPrefixMapping, Prefix: prefixes[i]}); err != nil {
			return err
		}
	}
	return nil
}
