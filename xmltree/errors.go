package xmltree

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrorCode represents a programmatic error code for error handling.
type ErrorCode string

const (
	// ErrCodeInvalidName indicates a malformed local name or qualified name.
	ErrCodeInvalidName ErrorCode = "INVALID_NAME"
	// ErrCodeInvalidPrefix indicates an attempt to bind a reserved prefix such as "xmlns".
	ErrCodeInvalidPrefix ErrorCode = "INVALID_PREFIX"
	// ErrCodeReservedPrefixMisuse indicates an attempt to rebind "xml" to a non-reserved URI.
	ErrCodeReservedPrefixMisuse ErrorCode = "RESERVED_PREFIX_MISUSE"
	// ErrCodeEmptyNamespaceValue indicates a scope construction with an empty namespace value.
	ErrCodeEmptyNamespaceValue ErrorCode = "EMPTY_NAMESPACE_VALUE"
	// ErrCodeUnboundPrefix indicates a syntactic name used a prefix not bound in scope.
	ErrCodeUnboundPrefix ErrorCode = "UNBOUND_PREFIX"
	// ErrCodeMalformedQName indicates a syntactic name that cannot be split into prefix and local part.
	ErrCodeMalformedQName ErrorCode = "MALFORMED_QNAME"
	// ErrCodePathOutOfRange indicates a navigation path index beyond the child element count.
	ErrCodePathOutOfRange ErrorCode = "PATH_OUT_OF_RANGE"
	// ErrCodeMalformedDocument indicates a document without exactly one element child.
	ErrCodeMalformedDocument ErrorCode = "MALFORMED_DOCUMENT"
	// ErrCodeDepthExceeded indicates input nested deeper than the configured limit.
	ErrCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"
	// ErrCodeParserFault indicates a fault reported by the external token source.
	ErrCodeParserFault ErrorCode = "PARSER_FAULT"
)

var (
	// ErrInvalidName indicates a malformed local name or qualified name.
	ErrInvalidName = errors.New("xmltree: invalid XML name")
	// ErrInvalidPrefix indicates an attempt to bind a reserved prefix such as "xmlns".
	ErrInvalidPrefix = errors.New("xmltree: invalid namespace prefix")
	// ErrReservedPrefixMisuse indicates an attempt to rebind "xml" away from the XML namespace.
	ErrReservedPrefixMisuse = errors.New("xmltree: reserved prefix bound to wrong namespace")
	// ErrEmptyNamespaceValue indicates a scope construction with an empty namespace value.
	ErrEmptyNamespaceValue = errors.New("xmltree: empty namespace value in scope")
	// ErrUnboundPrefix indicates a syntactic name used a prefix not bound in scope.
	ErrUnboundPrefix = errors.New("xmltree: unbound namespace prefix")
	// ErrMalformedQName indicates a syntactic name that cannot be split into prefix and local part.
	ErrMalformedQName = errors.New("xmltree: malformed qualified name")
	// ErrPathOutOfRange indicates a navigation path index beyond the child element count.
	ErrPathOutOfRange = errors.New("xmltree: navigation path out of range")
	// ErrMalformedDocument indicates a document without exactly one element child,
	// or with document children of a kind documents cannot hold.
	ErrMalformedDocument = errors.New("xmltree: malformed document")
	// ErrDepthExceeded indicates input nested deeper than the configured limit.
	ErrDepthExceeded = errors.New("xmltree: nesting depth exceeds configured limit")
)

// Code returns the error code for an error, or ErrCodeParserFault if unknown.
// Returns the empty string for nil errors or io.EOF (which is not an error condition).
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if err == io.EOF {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidName):
		return ErrCodeInvalidName
	case errors.Is(err, ErrInvalidPrefix):
		return ErrCodeInvalidPrefix
	case errors.Is(err, ErrReservedPrefixMisuse):
		return ErrCodeReservedPrefixMisuse
	case errors.Is(err, ErrEmptyNamespaceValue):
		return ErrCodeEmptyNamespaceValue
	case errors.Is(err, ErrUnboundPrefix):
		return ErrCodeUnboundPrefix
	case errors.Is(err, ErrMalformedQName):
		return ErrCodeMalformedQName
	case errors.Is(err, ErrPathOutOfRange):
		return ErrCodePathOutOfRange
	case errors.Is(err, ErrMalformedDocument):
		return ErrCodeMalformedDocument
	case errors.Is(err, ErrDepthExceeded):
		return ErrCodeDepthExceeded
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		underlying := Code(parseErr.Err)
		if underlying != ErrCodeParserFault && underlying != "" {
			return underlying
		}
		return ErrCodeParserFault
	}

	return ErrCodeParserFault
}

// ParseError provides structured context for faults reported while turning
// byte streams or event streams into trees.
type ParseError struct {
	Line   int   // 1-based line number (0 if unknown)
	Column int   // 1-based column number (0 if unknown)
	Offset int64 // byte offset in input (negative if unknown)
	Err    error // underlying error
}

func (e *ParseError) Error() string {
	var msg strings.Builder
	msg.WriteString("xml")
	if e.Line > 0 {
		if e.Column > 0 {
			fmt.Fprintf(&msg, ":%d:%d", e.Line, e.Column)
		} else {
			fmt.Fprintf(&msg, ":%d", e.Line)
		}
	} else if e.Offset >= 0 {
		fmt.Fprintf(&msg, " (offset %d)", e.Offset)
	}
	msg.WriteString(": ")
	msg.WriteString(e.Err.Error())
	return msg.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// wrapParseError adds position context to a fault from an external token source.
// An error that is already a ParseError keeps its positions; only missing ones
// are filled in, and the payload error is never wrapped twice.
func wrapParseError(line, column int, offset int64, err error) error {
	if err == nil {
		return nil
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		merged := *parseErr
		if merged.Line == 0 {
			merged.Line = line
		}
		if merged.Column == 0 {
			merged.Column = column
		}
		if merged.Offset < 0 {
			merged.Offset = offset
		}
		return &merged
	}
	return &ParseError{Line: line, Column: column, Offset: offset, Err: err}
}
