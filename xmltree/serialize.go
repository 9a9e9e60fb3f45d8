package xmltree

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Serializer is an event sink that writes the stream as XML 1.0 bytes.
// Feed it the emission protocol (Emit, EmitElement) or any stream shaped
// like it; Handle is an EventHandler.
//
// The serializer repairs namespace problems instead of failing: a name
// whose prefix-hint is not bound in the scope written so far gets an
// existing prefix for its namespace, or a generated one declared on the
// spot. Prefixed undeclarations, which XML 1.0 cannot express, are
// silently dropped.
type Serializer struct {
	w       *bufio.Writer
	opts    Options
	pending map[string]string
	stack   []serializerFrame
	openTag bool
	buf     []byte
	genSeq  int
}

type serializerFrame struct {
	tag   string
	scope Scope
}

// NewSerializer creates a serializer writing to w.
func NewSerializer(w io.Writer, opts ...Option) *Serializer {
	return &Serializer{w: bufio.NewWriter(w), opts: applyOptions(opts)}
}

// Flush writes any buffered output to the underlying writer.
func (s *Serializer) Flush() error { return s.w.Flush() }

// Handle consumes one event and writes its rendering. It is an
// EventHandler.
func (s *Serializer) Handle(ev Event) error {
	switch ev.Kind {
	case EventStartDocument:
		if s.opts.XMLDeclaration {
			if _, err := s.w.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n"); err != nil {
				return err
			}
		}
		return nil
	case EventEndDocument:
		return s.w.Flush()
	case EventStartPrefixMapping:
		if s.pending == nil {
			s.pending = make(map[string]string)
		}
		s.pending[ev.Prefix] = ev.Namespace
		return nil
	case EventEndPrefixMapping:
		return nil
	case EventStartElement:
		return s.startElement(ev)
	case EventEndElement:
		return s.endElement()
	case EventCharacters:
		return s.characters(ev)
	case EventComment:
		return s.comment(ev)
	case EventProcInst:
		return s.procInst(ev)
	default:
		return fmt.Errorf("xmltree: unknown event kind %d", ev.Kind)
	}
}

func (s *Serializer) currentScope() Scope {
	if len(s.stack) > 0 {
		return s.stack[len(s.stack)-1].scope
	}
	return s.opts.StartScope
}

func (s *Serializer) closeOpenTag() error {
	if !s.openTag {
		return nil
	}
	s.openTag = false
	return s.w.WriteByte('>')
}

func (s *Serializer) startElement(ev Event) error {
	if err := s.closeOpenTag(); err != nil {
		return err
	}
	decls := WithoutPrefixedUndeclarations(s.pending)
	s.pending = nil
	scope, err := s.currentScope().ResolveAll(decls)
	if err != nil {
		return err
	}

	tag, scope, decls, err := s.elementTag(ev, scope, decls)
	if err != nil {
		return err
	}

	buf := s.buf[:0]
	buf = append(buf, '<')
	buf = append(buf, tag...)
	for _, prefix := range sortedPrefixes(decls) {
		if prefix == "" {
			buf = append(buf, ` xmlns="`...)
		} else {
			buf = append(buf, " xmlns:"...)
			buf = append(buf, prefix...)
			buf = append(buf, '=', '"')
		}
		if buf, err = appendEscapedAttr(buf, decls[prefix]); err != nil {
			return err
		}
		buf = append(buf, '"')
	}
	for _, attr := range ev.Attrs {
		var name string
		name, scope, decls, err = s.attributeName(attr, scope, decls, &buf)
		if err != nil {
			return err
		}
		buf = append(buf, ' ')
		buf = append(buf, name...)
		buf = append(buf, '=', '"')
		if buf, err = appendEscapedAttr(buf, attr.Value); err != nil {
			return err
		}
		buf = append(buf, '"')
	}
	if _, err := s.w.Write(buf); err != nil {
		return err
	}
	s.buf = buf[:0]
	s.openTag = true
	s.stack = append(s.stack, serializerFrame{tag: tag, scope: scope})
	return nil
}

// elementTag renders the element name against the written scope, adding a
// declaration when no usable binding exists. Unprefixed no-namespace names
// force a default-namespace undeclaration when one is in scope.
func (s *Serializer) elementTag(ev Event, scope Scope, decls map[string]string) (string, Scope, map[string]string, error) {
	if !isNCName(ev.LocalName) {
		return "", Scope{}, nil, fmt.Errorf("%w: %q", ErrInvalidName, ev.LocalName)
	}
	if ev.Namespace == "" {
		if ev.Prefix != "" {
			return "", Scope{}, nil, fmt.Errorf("%w: prefixed name %s:%s with no namespace",
				ErrInvalidName, ev.Prefix, ev.LocalName)
		}
		if _, ok := scope.DefaultNamespace(); ok {
			decls = withDecl(decls, "", "")
			scope = scope.WithoutDefaultNamespace()
		}
		return ev.LocalName, scope, decls, nil
	}
	if ev.Namespace == XMLNamespace && (ev.Prefix == "xml" || ev.Prefix == "") {
		return "xml:" + ev.LocalName, scope, decls, nil
	}
	if ev.Prefix != "" {
		if ns, ok := scope.NamespaceOfPrefix(ev.Prefix); ok && ns == ev.Namespace {
			return ev.Prefix + ":" + ev.LocalName, scope, decls, nil
		}
	}
	if def, ok := scope.DefaultNamespace(); ok && def == ev.Namespace {
		return ev.LocalName, scope, decls, nil
	}
	if prefix, ok := scope.prefixForNamespace(ev.Namespace, ev.Prefix); ok {
		return prefix + ":" + ev.LocalName, scope, decls, nil
	}
	prefix := s.freshPrefix(scope, ev.Prefix)
	decls = withDecl(decls, prefix, ev.Namespace)
	scope = scope.applyDelta(map[string]string{prefix: ev.Namespace})
	return prefix + ":" + ev.LocalName, scope, decls, nil
}

// attributeName renders an attribute name, declaring a prefix when needed.
// New declarations are appended to buf immediately so they precede the
// attribute that needed them.
func (s *Serializer) attributeName(attr EventAttr, scope Scope, decls map[string]string, buf *[]byte) (string, Scope, map[string]string, error) {
	if !isNCName(attr.LocalName) {
		return "", Scope{}, nil, fmt.Errorf("%w: %q", ErrInvalidName, attr.LocalName)
	}
	if attr.Namespace == "" {
		if attr.LocalName == "xmlns" {
			return "", Scope{}, nil, fmt.Errorf("%w: attribute xmlns", ErrInvalidName)
		}
		return attr.LocalName, scope, decls, nil
	}
	if attr.Namespace == XMLNamespace {
		return "xml:" + attr.LocalName, scope, decls, nil
	}
	if attr.Namespace == XMLNSNamespace {
		return "", Scope{}, nil, fmt.Errorf("%w: attribute %s is a namespace declaration", ErrInvalidName, attr.LocalName)
	}
	if attr.Prefix != "" {
		if ns, ok := scope.NamespaceOfPrefix(attr.Prefix); ok && ns == attr.Namespace {
			return attr.Prefix + ":" + attr.LocalName, scope, decls, nil
		}
	}
	if prefix, ok := scope.prefixForNamespace(attr.Namespace, attr.Prefix); ok {
		return prefix + ":" + attr.LocalName, scope, decls, nil
	}
	prefix := s.freshPrefix(scope, attr.Prefix)
	decls = withDecl(decls, prefix, attr.Namespace)
	scope = scope.applyDelta(map[string]string{prefix: attr.Namespace})
	out := *buf
	out = append(out, " xmlns:"...)
	out = append(out, prefix...)
	out = append(out, '=', '"')
	var err error
	if out, err = appendEscapedAttr(out, attr.Namespace); err != nil {
		return "", Scope{}, nil, err
	}
	out = append(out, '"')
	*buf = out
	return prefix + ":" + attr.LocalName, scope, decls, nil
}

// freshPrefix picks a prefix unused in the scope, reusing the hint when it
// is a usable NCName.
func (s *Serializer) freshPrefix(scope Scope, hint string) string {
	if hint != "" && hint != "xml" && hint != "xmlns" && isNCName(hint) {
		if _, taken := scope.NamespaceOfPrefix(hint); !taken {
			return hint
		}
	}
	for {
		s.genSeq++
		candidate := "ns" + strconv.Itoa(s.genSeq)
		if _, taken := scope.NamespaceOfPrefix(candidate); !taken {
			return candidate
		}
	}
}

func withDecl(decls map[string]string, prefix, ns string) map[string]string {
	if decls == nil {
		decls = make(map[string]string, 1)
	}
	decls[prefix] = ns
	return decls
}

func (s *Serializer) endElement() error {
	if len(s.stack) == 0 {
		return fmt.Errorf("xmltree: end element without open element")
	}
	frame := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	if s.openTag {
		s.openTag = false
		_, err := s.w.WriteString("/>")
		return err
	}
	if _, err := s.w.WriteString("</"); err != nil {
		return err
	}
	if _, err := s.w.WriteString(frame.tag); err != nil {
		return err
	}
	return s.w.WriteByte('>')
}

func (s *Serializer) characters(ev Event) error {
	if len(s.stack) == 0 && !s.openTag {
		if strings.TrimSpace(ev.Text) != "" {
			return fmt.Errorf("%w: text at document level", ErrMalformedDocument)
		}
		_, err := s.w.WriteString(ev.Text)
		return err
	}
	if err := s.closeOpenTag(); err != nil {
		return err
	}
	var err error
	buf := s.buf[:0]
	if ev.CData {
		buf, err = appendCDATA(buf, ev.Text)
	} else {
		buf, err = appendEscapedText(buf, ev.Text)
	}
	if err != nil {
		return err
	}
	if _, err = s.w.Write(buf); err != nil {
		return err
	}
	s.buf = buf[:0]
	return nil
}

func (s *Serializer) comment(ev Event) error {
	if err := s.closeOpenTag(); err != nil {
		return err
	}
	if err := checkCommentText(ev.Text); err != nil {
		return err
	}
	if _, err := s.w.WriteString("<!--"); err != nil {
		return err
	}
	if _, err := s.w.WriteString(ev.Text); err != nil {
		return err
	}
	_, err := s.w.WriteString("-->")
	return err
}

func (s *Serializer) procInst(ev Event) error {
	if err := s.closeOpenTag(); err != nil {
		return err
	}
	if err := checkProcInst(ev.Target, ev.Data); err != nil {
		return err
	}
	if _, err := s.w.WriteString("<?"); err != nil {
		return err
	}
	if _, err := s.w.WriteString(ev.Target); err != nil {
		return err
	}
	if ev.Data != "" {
		if err := s.w.WriteByte(' '); err != nil {
			return err
		}
		if _, err := s.w.WriteString(ev.Data); err != nil {
			return err
		}
	}
	_, err := s.w.WriteString("?>")
	return err
}

// prefixForNamespace finds a non-default prefix bound to the namespace,
// preferring the given one, then the lexicographically first.
func (sc Scope) prefixForNamespace(space, preferred string) (string, bool) {
	if preferred != "" {
		if ns, ok := sc.NamespaceOfPrefix(preferred); ok && ns == space {
			return preferred, true
		}
	}
	for _, prefix := range sortedPrefixes(sc.bindings) {
		if prefix != "" && sc.bindings[prefix] == space {
			return prefix, true
		}
	}
	return "", false
}

// Serialize writes a document as XML bytes: the emission event stream of d
// rendered through a Serializer. An XML declaration is written unless
// OptNoXMLDeclaration is given.
func Serialize(w io.Writer, d Document, opts ...Option) error {
	ser := NewSerializer(w, opts...)
	if err := Emit(d, ser.Handle, opts...); err != nil {
		return err
	}
	return ser.Flush()
}

// SerializeString renders a document as a string.
func SerializeString(d Document, opts ...Option) (string, error) {
	var b strings.Builder
	if err := Serialize(&b, d, opts...); err != nil {
		return "", err
	}
	return b.String(), nil
}

// SerializeElement writes a single element as XML bytes, with no XML
// declaration and no document events.
func SerializeElement(w io.Writer, e Element, opts ...Option) error {
	ser := NewSerializer(w, opts...)
	if err := EmitElement(e, ser.Handle, opts...); err != nil {
		return err
	}
	return ser.Flush()
}

// SerializeElementString renders a single element as a string.
func SerializeElementString(e Element, opts ...Option) (string, error) {
	var b strings.Builder
	if err := SerializeElement(&b, e, opts...); err != nil {
		return "", err
	}
	return b.String(), nil
}
