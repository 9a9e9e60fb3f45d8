package xmltree

import (
	"io"

	"golang.org/x/net/html/charset"
)

// Default limits for untrusted input.
const (
	// DefaultMaxDepth caps element nesting during ingestion.
	DefaultMaxDepth = 1024
)

// Option configures parsing, ingestion and emission behavior.
type Option func(*Options)

// Options configures parser, tree builder and serializer behavior.
type Options struct {
	// Security limits for untrusted input
	MaxDepth int

	// Tree construction
	StripInterElementWhitespace bool
	StartScope                  Scope
	BaseURI                     string

	// Byte-stream decoding for the encoding/xml front-end
	CharsetReader func(label string, input io.Reader) (io.Reader, error)

	// Emission and serialization
	XMLDeclaration bool
}

// OptMaxDepth sets the maximum element nesting depth limit.
func OptMaxDepth(maxDepth int) Option {
	return func(opts *Options) {
		opts.MaxDepth = maxDepth
	}
}

// OptStripInterElementWhitespace removes whitespace-only text between
// elements while building the tree, in the same sense as
// Element.RemoveInterElementWhitespace after full construction.
func OptStripInterElementWhitespace() Option {
	return func(opts *Options) {
		opts.StripInterElementWhitespace = true
	}
}

// OptStartScope sets the namespace scope in force outside the root
// element. Ingestion resolves the root's declarations against it, and
// emission relativizes the root's scope against it. Default is the empty
// scope.
func OptStartScope(scope Scope) Option {
	return func(opts *Options) {
		opts.StartScope = scope
	}
}

// OptBaseURI sets the document base URI, overriding any base reported by
// the event source.
func OptBaseURI(baseURI string) Option {
	return func(opts *Options) {
		opts.BaseURI = baseURI
	}
}

// OptCharsetReader sets the converter used by the encoding/xml front-end
// for inputs not encoded in UTF-8. The default handles the usual charset
// labels; set nil to reject non-UTF-8 input.
func OptCharsetReader(f func(label string, input io.Reader) (io.Reader, error)) Option {
	return func(opts *Options) {
		opts.CharsetReader = f
	}
}

// OptNoXMLDeclaration suppresses the XML declaration when serializing a
// document.
func OptNoXMLDeclaration() Option {
	return func(opts *Options) {
		opts.XMLDeclaration = false
	}
}

// Internal helpers

func defaultOptions() Options {
	return Options{
		MaxDepth:       DefaultMaxDepth,
		StartScope:     EmptyScope,
		CharsetReader:  charset.NewReaderLabel,
		XMLDeclaration: true,
	}
}

func applyOptions(opts []Option) Options {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
