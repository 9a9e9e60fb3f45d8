package xmltree

import (
	"errors"
	"fmt"
	"strings"
)

// TreeBuilder is an event sink that assembles an immutable document from
// the ingestion protocol: prefix mappings are folded into scopes, elements
// are validated on close, and document-level comments and processing
// instructions are kept in position.
//
// The zero value is not usable; create builders with NewTreeBuilder. Feed
// events through Handle (an EventHandler), then collect the result with
// Document or Root. The first error is sticky: every later Handle call
// returns it unchanged.
type TreeBuilder struct {
	opts        Options
	baseURI     string
	pending     map[string]string
	stack       []buildFrame
	docChildren []Node
	done        bool
	err         error
}

type buildFrame struct {
	name     QName
	attrs    []Attr
	scope    Scope
	children []Node
}

// NewTreeBuilder creates a tree-building event sink.
func NewTreeBuilder(opts ...Option) *TreeBuilder {
	return &TreeBuilder{opts: applyOptions(opts)}
}

// Handle consumes one event. It is an EventHandler.
func (b *TreeBuilder) Handle(ev Event) error {
	if b.err != nil {
		return b.err
	}
	if err := b.handle(ev); err != nil {
		b.err = err
		return err
	}
	return nil
}

func (b *TreeBuilder) handle(ev Event) error {
	if b.done && ev.Kind != EventStartDocument {
		return errors.New("xmltree: event after end of document")
	}
	switch ev.Kind {
	case EventStartDocument:
		if b.done || len(b.stack) > 0 || len(b.docChildren) > 0 {
			return errors.New("xmltree: start of document after content")
		}
		b.baseURI = ev.BaseURI
	case EventEndDocument:
		if len(b.stack) > 0 {
			return fmt.Errorf("xmltree: end of document with %d open elements", len(b.stack))
		}
		b.done = true
	case EventStartPrefixMapping:
		if b.pending == nil {
			b.pending = make(map[string]string)
		}
		b.pending[ev.Prefix] = ev.Namespace
	case EventEndPrefixMapping:
		// scopes already carry the bookkeeping
	case EventStartElement:
		return b.startElement(ev)
	case EventEndElement:
		return b.endElement(ev)
	case EventCharacters:
		if len(b.stack) == 0 {
			if strings.TrimSpace(ev.Text) != "" {
				return fmt.Errorf("%w: text node at document level", ErrMalformedDocument)
			}
			return nil
		}
		b.appendChild(Text{Value: ev.Text, CData: ev.CData})
	case EventComment:
		b.appendChild(Comment{Value: ev.Text})
	case EventProcInst:
		b.appendChild(ProcInst{Target: ev.Target, Data: ev.Data})
	default:
		return fmt.Errorf("xmltree: unknown event kind %d", ev.Kind)
	}
	return nil
}

func (b *TreeBuilder) startElement(ev Event) error {
	if b.opts.MaxDepth > 0 && len(b.stack) >= b.opts.MaxDepth {
		return fmt.Errorf("%w: %d", ErrDepthExceeded, b.opts.MaxDepth)
	}
	parentScope := b.opts.StartScope
	if len(b.stack) > 0 {
		parentScope = b.stack[len(b.stack)-1].scope
	}
	scope, err := parentScope.ResolveAll(b.pending)
	b.pending = nil
	if err != nil {
		return err
	}
	name, err := eventName(ev.Namespace, ev.LocalName, ev.Prefix)
	if err != nil {
		return err
	}
	var attrs []Attr
	if len(ev.Attrs) > 0 {
		attrs = make([]Attr, len(ev.Attrs))
		for i, attr := range ev.Attrs {
			attrName, err := eventName(attr.Namespace, attr.LocalName, attr.Prefix)
			if err != nil {
				return err
			}
			attrs[i] = Attr{Name: attrName, Value: attr.Value}
		}
	}
	b.stack = append(b.stack, buildFrame{name: name, attrs: attrs, scope: scope})
	return nil
}

func (b *TreeBuilder) endElement(ev Event) error {
	if len(b.stack) == 0 {
		return fmt.Errorf("xmltree: end element {%s}%s without open element", ev.Namespace, ev.LocalName)
	}
	frame := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	if frame.name.space != ev.Namespace || frame.name.local != ev.LocalName {
		return fmt.Errorf("xmltree: end element {%s}%s does not match open element %s",
			ev.Namespace, ev.LocalName, frame.name.ClarkString())
	}
	children := frame.children
	if b.opts.StripInterElementWhitespace {
		children = stripWhitespaceChildren(children)
	}
	elem, err := NewElement(frame.name, frame.attrs, frame.scope, children...)
	if err != nil {
		return err
	}
	b.appendChild(elem)
	return nil
}

func (b *TreeBuilder) appendChild(n Node) {
	if len(b.stack) > 0 {
		top := &b.stack[len(b.stack)-1]
		top.children = append(top.children, n)
		return
	}
	b.docChildren = append(b.docChildren, n)
}

// eventName builds a QName from the resolved parts an event carries.
func eventName(space, local, prefix string) (QName, error) {
	if prefix == "" {
		return NewName(space, local)
	}
	return NewPrefixedName(space, local, prefix)
}

// stripWhitespaceChildren drops whitespace-only text children when the
// slice holds at least one element and no non-whitespace text, mirroring
// RemoveInterElementWhitespace one element at a time.
func stripWhitespaceChildren(children []Node) []Node {
	hasElem := false
	hasText := false
	for _, child := range children {
		switch node := child.(type) {
		case Element:
			hasElem = true
		case Text:
			if strings.TrimSpace(node.Value) != "" {
				return children
			}
			hasText = true
		}
	}
	if !hasElem || !hasText {
		return children
	}
	kept := make([]Node, 0, len(children))
	for _, child := range children {
		if _, ok := child.(Text); ok {
			continue
		}
		kept = append(kept, child)
	}
	return kept
}

// Document returns the built document. It fails when the event stream has
// not ended, ended with faults, or did not form a well-shaped document.
func (b *TreeBuilder) Document() (Document, error) {
	if b.err != nil {
		return Document{}, b.err
	}
	if !b.done {
		return Document{}, errors.New("xmltree: event stream not finished")
	}
	baseURI := b.baseURI
	if b.opts.BaseURI != "" {
		baseURI = b.opts.BaseURI
	}
	return NewDocument(baseURI, b.docChildren...)
}

// Root returns the root element. Unlike Document it does not require
// document events, so it collects the result of element-only streams such
// as EmitElement's.
func (b *TreeBuilder) Root() (Element, error) {
	if b.err != nil {
		return Element{}, b.err
	}
	if len(b.stack) > 0 {
		return Element{}, fmt.Errorf("xmltree: %d elements still open", len(b.stack))
	}
	var root Element
	found := false
	for _, child := range b.docChildren {
		if elem, ok := child.(Element); ok {
			if found {
				return Element{}, fmt.Errorf("%w: more than one document element", ErrMalformedDocument)
			}
			root = elem
			found = true
		}
	}
	if !found {
		return Element{}, fmt.Errorf("%w: no document element", ErrMalformedDocument)
	}
	return root, nil
}
