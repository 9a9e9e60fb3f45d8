package xmltree

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"eof", io.EOF, ""},
		{"invalid name", ErrInvalidName, ErrCodeInvalidName},
		{"invalid prefix", ErrInvalidPrefix, ErrCodeInvalidPrefix},
		{"reserved prefix", ErrReservedPrefixMisuse, ErrCodeReservedPrefixMisuse},
		{"empty namespace", ErrEmptyNamespaceValue, ErrCodeEmptyNamespaceValue},
		{"unbound prefix", ErrUnboundPrefix, ErrCodeUnboundPrefix},
		{"malformed qname", ErrMalformedQName, ErrCodeMalformedQName},
		{"path out of range", ErrPathOutOfRange, ErrCodePathOutOfRange},
		{"malformed document", ErrMalformedDocument, ErrCodeMalformedDocument},
		{"depth exceeded", ErrDepthExceeded, ErrCodeDepthExceeded},
		{"wrapped sentinel", fmt.Errorf("context: %w", ErrUnboundPrefix), ErrCodeUnboundPrefix},
		{"unknown error", errors.New("boom"), ErrCodeParserFault},
		{"parse error with sentinel", &ParseError{Offset: -1, Err: ErrDepthExceeded}, ErrCodeDepthExceeded},
		{"parse error with unknown", &ParseError{Offset: -1, Err: errors.New("boom")}, ErrCodeParserFault},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Code(tc.err); got != tc.want {
				t.Fatalf("Code = %q, expected %q", got, tc.want)
			}
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name string
		err  *ParseError
		want string
	}{
		{"line only", &ParseError{Line: 3, Offset: -1, Err: boom}, "xml:3: boom"},
		{"line and column", &ParseError{Line: 3, Column: 14, Offset: -1, Err: boom}, "xml:3:14: boom"},
		{"offset only", &ParseError{Offset: 27, Err: boom}, "xml (offset 27): boom"},
		{"no position", &ParseError{Offset: -1, Err: boom}, "xml: boom"},
		{"line wins over offset", &ParseError{Line: 2, Offset: 27, Err: boom}, "xml:2: boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Fatalf("message = %q, expected %q", got, tc.want)
			}
		})
	}
}

func TestParseErrorUnwrap(t *testing.T) {
	err := &ParseError{Offset: -1, Err: ErrUnboundPrefix}
	if !errors.Is(err, ErrUnboundPrefix) {
		t.Fatalf("sentinel lost: %v", err)
	}
}

func TestWrapParseError(t *testing.T) {
	if wrapParseError(1, 2, 3, nil) != nil {
		t.Fatalf("nil should stay nil")
	}

	wrapped := wrapParseError(3, 14, 27, errors.New("boom"))
	var parseErr *ParseError
	if !errors.As(wrapped, &parseErr) {
		t.Fatalf("expected a ParseError, got %T", wrapped)
	}
	if parseErr.Line != 3 || parseErr.Column != 14 || parseErr.Offset != 27 {
		t.Fatalf("positions = %d:%d offset %d", parseErr.Line, parseErr.Column, parseErr.Offset)
	}

	// Rewrapping fills only the missing positions and keeps the payload.
	inner := &ParseError{Line: 7, Offset: -1, Err: ErrDepthExceeded}
	rewrapped := wrapParseError(99, 5, 42, inner)
	if !errors.As(rewrapped, &parseErr) {
		t.Fatalf("expected a ParseError, got %T", rewrapped)
	}
	if parseErr.Line != 7 || parseErr.Column != 5 || parseErr.Offset != 42 {
		t.Fatalf("merged positions = %d:%d offset %d", parseErr.Line, parseErr.Column, parseErr.Offset)
	}
	if parseErr.Err != ErrDepthExceeded {
		t.Fatalf("payload rewrapped: %v", parseErr.Err)
	}
	if inner.Column != 0 || inner.Offset != -1 {
		t.Fatalf("original mutated: %+v", inner)
	}
}
