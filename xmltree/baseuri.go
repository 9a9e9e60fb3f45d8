package xmltree

import (
	"net/url"
	"strings"
)

// resolveXMLBase resolves an xml:base value against an inherited base URI
// according to RFC 3986. An empty inherited base leaves the value as is; an
// absolute value replaces the base outright.
func resolveXMLBase(base, ref string) string {
	if base == "" {
		return ref
	}
	if ref == "" {
		return base
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return joinFallback(base, ref)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return joinFallback(base, ref)
	}
	if refURL.Scheme != "" {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

// joinFallback glues a reference onto a base that net/url cannot parse.
func joinFallback(base, ref string) string {
	if strings.HasSuffix(base, "/") {
		return base + ref
	}
	if lastSlash := strings.LastIndex(base, "/"); lastSlash >= 0 {
		return base[:lastSlash+1] + ref
	}
	return base + "/" + ref
}
