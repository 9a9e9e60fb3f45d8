package xmltree

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// isXMLChar reports whether a rune is in the XML 1.0 Char production.
func isXMLChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	default:
		return false
	}
}

// appendEscapedText escapes character data for element content.
// Carriage returns become character references so they survive the
// parser's line-end normalization.
func appendEscapedText(dst []byte, s string) ([]byte, error) {
	for _, r := range s {
		switch r {
		case '&':
			dst = append(dst, "&amp;"...)
		case '<':
			dst = append(dst, "&lt;"...)
		case '>':
			dst = append(dst, "&gt;"...)
		case '\r':
			dst = append(dst, "&#xD;"...)
		default:
			if !isXMLChar(r) {
				return dst, fmt.Errorf("xmltree: character %#U not allowed in XML 1.0", r)
			}
			dst = utf8.AppendRune(dst, r)
		}
	}
	return dst, nil
}

// appendEscapedAttr escapes an attribute value for a double-quoted
// attribute. Tabs and line ends become character references so they
// survive attribute-value normalization.
func appendEscapedAttr(dst []byte, s string) ([]byte, error) {
	for _, r := range s {
		switch r {
		case '&':
			dst = append(dst, "&amp;"...)
		case '<':
			dst = append(dst, "&lt;"...)
		case '"':
			dst = append(dst, "&quot;"...)
		case '\t':
			dst = append(dst, "&#x9;"...)
		case '\n':
			dst = append(dst, "&#xA;"...)
		case '\r':
			dst = append(dst, "&#xD;"...)
		default:
			if !isXMLChar(r) {
				return dst, fmt.Errorf("xmltree: character %#U not allowed in XML 1.0", r)
			}
			dst = utf8.AppendRune(dst, r)
		}
	}
	return dst, nil
}

// appendCDATA writes s as one or more CDATA sections, splitting on "]]>"
// occurrences so the terminator never appears inside a section.
func appendCDATA(dst []byte, s string) ([]byte, error) {
	for _, r := range s {
		if !isXMLChar(r) {
			return dst, fmt.Errorf("xmltree: character %#U not allowed in XML 1.0", r)
		}
	}
	dst = append(dst, "<![CDATA["...)
	for {
		i := strings.Index(s, "]]>")
		if i < 0 {
			dst = append(dst, s...)
			break
		}
		dst = append(dst, s[:i+2]...)
		dst = append(dst, "]]><![CDATA["...)
		s = s[i+2:]
	}
	dst = append(dst, "]]>"...)
	return dst, nil
}

// checkCommentText rejects comment values XML cannot hold.
func checkCommentText(s string) error {
	if strings.Contains(s, "--") {
		return fmt.Errorf("xmltree: comment contains %q", "--")
	}
	if strings.HasSuffix(s, "-") {
		return fmt.Errorf("xmltree: comment ends with %q", "-")
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("xmltree: character %#U not allowed in XML 1.0", r)
		}
	}
	return nil
}

// checkProcInst rejects processing instructions XML cannot hold.
func checkProcInst(target, data string) error {
	if target == "" || !isNCName(target) {
		return fmt.Errorf("%w: processing instruction target %q", ErrInvalidName, target)
	}
	if strings.EqualFold(target, "xml") {
		return fmt.Errorf("%w: processing instruction target %q is reserved", ErrInvalidName, target)
	}
	if strings.Contains(data, "?>") {
		return fmt.Errorf("xmltree: processing instruction data contains %q", "?>")
	}
	for _, r := range data {
		if !isXMLChar(r) {
			return fmt.Errorf("xmltree: character %#U not allowed in XML 1.0", r)
		}
	}
	return nil
}
