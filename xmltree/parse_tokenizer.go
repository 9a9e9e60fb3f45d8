package xmltree

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muktihari/xmltokenizer"
)

// ParseWithTokenizerEvents reads XML bytes with the muktihari/xmltokenizer
// scanner and streams the ingestion protocol to h. Unlike ParseEvents it
// reports prefixes exactly as they appear in the document bytes, and it
// avoids the token allocations of encoding/xml, which makes it the faster
// front-end for large data-oriented documents.
//
// The scanner trades fidelity for speed, and this front-end inherits the
// trade: character data loses its surrounding whitespace, CDATA sections
// fold into plain text before this front-end sees them (so references
// inside them decode like ordinary text), character data directly after a
// comment or processing instruction is dropped, attribute values must be
// double-quoted, DOCTYPE declarations are skipped, and input must be
// UTF-8 (Options.CharsetReader is not consulted). Use ParseEvents when
// those details matter.
func ParseWithTokenizerEvents(r io.Reader, h EventHandler, opts ...Option) error {
	options := applyOptions(opts)
	run := &tokenizerRun{h: h, opts: options}
	tok := xmltokenizer.New(r)

	if err := h(Event{Kind: EventStartDocument, BaseURI: options.BaseURI}); err != nil {
		return err
	}
	for {
		token, err := tok.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return wrapParseError(0, 0, -1, err)
		}
		if err := run.handle(&token); err != nil {
			return err
		}
	}
	if open := len(run.stack) - 1; open >= 0 {
		top := run.stack[open]
		return wrapParseError(0, 0, -1, fmt.Errorf("xmltree: element <%s> left open at end of input", top.tagName()))
	}
	return h(Event{Kind: EventEndDocument})
}

// ParseWithTokenizer reads XML bytes into a document using the tokenizer
// front-end. See ParseWithTokenizerEvents for the fidelity trade-offs.
func ParseWithTokenizer(r io.Reader, opts ...Option) (Document, error) {
	builder := NewTreeBuilder(opts...)
	if err := ParseWithTokenizerEvents(r, builder.Handle, opts...); err != nil {
		return Document{}, err
	}
	return builder.Document()
}

// ParseWithTokenizerString parses a document from a string using the
// tokenizer front-end.
func ParseWithTokenizerString(s string, opts ...Option) (Document, error) {
	return ParseWithTokenizer(strings.NewReader(s), opts...)
}

// ParseWithTokenizerBytes parses a document from a byte slice using the
// tokenizer front-end.
func ParseWithTokenizerBytes(data []byte, opts ...Option) (Document, error) {
	return ParseWithTokenizer(bytes.NewReader(data), opts...)
}

// tokenizerRun holds the per-document state of the tokenizer front-end.
// The scanner reports names without resolving them, so the run tracks the
// namespace scope opened by every element still on the stack.
type tokenizerRun struct {
	h     EventHandler
	opts  Options
	stack []tokenizerFrame
}

// tokenizerFrame remembers an open element: the resolved name parts for
// the mirrored end events, and the scope and prefixes it declared.
type tokenizerFrame struct {
	space    string
	local    string
	prefix   string
	scope    Scope
	prefixes []string
}

func (f *tokenizerFrame) tagName() string {
	if f.prefix != "" {
		return f.prefix + ":" + f.local
	}
	return f.local
}

func (p *tokenizerRun) currentScope() Scope {
	if len(p.stack) > 0 {
		return p.stack[len(p.stack)-1].scope
	}
	return p.opts.StartScope
}

func (p *tokenizerRun) handle(token *xmltokenizer.Token) error {
	if len(token.Name.Full) == 0 {
		// "<?...?>" and "<!...>" arrive nameless with the raw tag in Data.
		if token.SelfClosing && len(token.Data) > 0 {
			return p.rawTag(token.Data)
		}
		return nil
	}
	if token.IsEndElement {
		if err := p.endElement(token.Name); err != nil {
			return err
		}
		return p.characters(token.Data)
	}
	if err := p.startElement(token); err != nil {
		return err
	}
	if token.SelfClosing {
		if err := p.closeElement(); err != nil {
			return err
		}
	}
	// Data carries the character data that followed the tag.
	return p.characters(token.Data)
}

func (p *tokenizerRun) startElement(token *xmltokenizer.Token) error {
	if p.opts.MaxDepth > 0 && len(p.stack) >= p.opts.MaxDepth {
		return wrapParseError(0, 0, -1, fmt.Errorf("%w: %d", ErrDepthExceeded, p.opts.MaxDepth))
	}
	var decls map[string]string
	var attrs []EventAttr
	for i := range token.Attrs {
		attr := &token.Attrs[i]
		value, err := unescapeXML(attr.Value)
		if err != nil {
			return wrapParseError(0, 0, -1, err)
		}
		switch {
		case len(attr.Name.Prefix) == 0 && string(attr.Name.Local) == "xmlns":
			if decls == nil {
				decls = make(map[string]string)
			}
			decls[""] = value
		case string(attr.Name.Prefix) == "xmlns":
			if decls == nil {
				decls = make(map[string]string)
			}
			decls[string(attr.Name.Local)] = value
		default:
			attrs = append(attrs, EventAttr{
				LocalName: string(attr.Name.Local),
				Prefix:    string(attr.Name.Prefix),
				Value:     value,
			})
		}
	}
	scope, err := p.currentScope().ResolveAll(decls)
	if err != nil {
		return wrapParseError(0, 0, -1, err)
	}
	for i := range attrs {
		if attrs[i].Prefix == "" {
			continue
		}
		space, ok := scope.NamespaceOfPrefix(attrs[i].Prefix)
		if !ok {
			return wrapParseError(0, 0, -1, fmt.Errorf("%w: %q in %q",
				ErrUnboundPrefix, attrs[i].Prefix, attrs[i].Prefix+":"+attrs[i].LocalName))
		}
		attrs[i].Namespace = space
	}
	prefix := string(token.Name.Prefix)
	local := string(token.Name.Local)
	var space string
	if prefix == "" {
		space, _ = scope.DefaultNamespace()
	} else {
		resolved, ok := scope.NamespaceOfPrefix(prefix)
		if !ok {
			return wrapParseError(0, 0, -1, fmt.Errorf("%w: %q in %q",
				ErrUnboundPrefix, prefix, string(token.Name.Full)))
		}
		space = resolved
	}
	prefixes := sortedPrefixes(decls)
	for _, declared := range prefixes {
		ev := Event{Kind: EventStartPrefixMapping, Prefix: declared, Namespace: decls[declared]}
		if err := p.h(ev); err != nil {
			return err
		}
	}
	start := Event{Kind: EventStartElement, Namespace: space, LocalName: local, Prefix: prefix, Attrs: attrs}
	if err := p.h(start); err != nil {
		return err
	}
	p.stack = append(p.stack, tokenizerFrame{
		space:    space,
		local:    local,
		prefix:   prefix,
		scope:    scope,
		prefixes: prefixes,
	})
	return nil
}

func (p *tokenizerRun) endElement(name xmltokenizer.Name) error {
	if len(p.stack) == 0 {
		return wrapParseError(0, 0, -1, fmt.Errorf("xmltree: end element </%s> without open element", name.Full))
	}
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	// Well-formed XML closes an element with its literal start-tag name.
	if string(name.Prefix) != top.prefix || string(name.Local) != top.local {
		return wrapParseError(0, 0, -1, fmt.Errorf("xmltree: element <%s> closed by </%s>", top.tagName(), name.Full))
	}
	return p.emitEnd(top)
}

// closeElement mirrors the end events for a self-closing tag.
func (p *tokenizerRun) closeElement() error {
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return p.emitEnd(top)
}

func (p *tokenizerRun) emitEnd(top tokenizerFrame) error {
	end := Event{Kind: EventEndElement, Namespace: top.space, LocalName: top.local, Prefix: top.prefix}
	if err := p.h(end); err != nil {
		return err
	}
	for i := len(top.prefixes) - 1; i >= 0; i-- {
		if err := p.h(Event{Kind: EventEndPrefixMapping, Prefix: top.prefixes[i]}); err != nil {
			return err
		}
	}
	return nil
}

func (p *tokenizerRun) characters(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	text, err := unescapeXML(data)
	if err != nil {
		return wrapParseError(0, 0, -1, err)
	}
	return p.h(Event{Kind: EventCharacters, Text: text})
}

// rawTag dispatches a "<?" or "<!" token on its raw bytes.
func (p *tokenizerRun) rawTag(data []byte) error {
	s := string(data)
	switch {
	case strings.HasPrefix(s, "<!--"):
		body, ok := strings.CutSuffix(strings.TrimPrefix(s, "<!--"), "-->")
		if !ok {
			return wrapParseError(0, 0, -1, errors.New("xmltree: malformed comment"))
		}
		return p.h(Event{Kind: EventComment, Text: body})
	case strings.HasPrefix(s, "<?"):
		body, ok := strings.CutSuffix(strings.TrimPrefix(s, "<?"), "?>")
		if !ok {
			return wrapParseError(0, 0, -1, errors.New("xmltree: malformed processing instruction"))
		}
		target, rest := splitProcInst(body)
		if strings.EqualFold(target, "xml") {
			return nil
		}
		return p.h(Event{Kind: EventProcInst, Target: target, Data: rest})
	default:
		// DOCTYPE and other "<!" directives carry no tree content.
		return nil
	}
}

// splitProcInst separates a processing instruction body into its target
// and the data after the first whitespace run.
func splitProcInst(body string) (target, data string) {
	i := strings.IndexAny(body, " \t\r\n")
	if i < 0 {
		return body, ""
	}
	return body[:i], strings.TrimLeft(body[i+1:], " \t\r\n")
}

// unescapeXML expands the predefined entity and character references the
// tokenizer leaves in place. References XML does not predefine fail;
// DTD-declared entities are not supported on this path.
func unescapeXML(b []byte) (string, error) {
	amp := bytes.IndexByte(b, '&')
	if amp < 0 {
		return string(b), nil
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for amp >= 0 {
		sb.Write(b[:amp])
		rest := b[amp:]
		end := bytes.IndexByte(rest, ';')
		if end < 0 {
			return "", fmt.Errorf("xmltree: unterminated reference %q", clipForError(rest))
		}
		if err := appendReference(&sb, string(rest[1:end])); err != nil {
			return "", err
		}
		b = rest[end+1:]
		amp = bytes.IndexByte(b, '&')
	}
	sb.Write(b)
	return sb.String(), nil
}

func appendReference(sb *strings.Builder, ref string) error {
	switch ref {
	case "amp":
		sb.WriteByte('&')
	case "lt":
		sb.WriteByte('<')
	case "gt":
		sb.WriteByte('>')
	case "quot":
		sb.WriteByte('"')
	case "apos":
		sb.WriteByte('\'')
	default:
		if len(ref) < 2 || ref[0] != '#' {
			return fmt.Errorf("xmltree: unknown entity reference %q", "&"+ref+";")
		}
		digits, base := ref[1:], 10
		if digits[0] == 'x' {
			digits, base = digits[1:], 16
		}
		n, err := strconv.ParseUint(digits, base, 32)
		if err != nil {
			return fmt.Errorf("xmltree: malformed character reference %q", "&"+ref+";")
		}
		if r := rune(n); isXMLChar(r) {
			sb.WriteRune(r)
			return nil
		}
		return fmt.Errorf("xmltree: character reference %q outside the XML character range", "&"+ref+";")
	}
	return nil
}

func clipForError(b []byte) []byte {
	const max = 16
	if len(b) > max {
		return b[:max]
	}
	return b
}
