package xmltree

import (
	"errors"
	"fmt"
)

// ElementBuilder assembles one element tree top-down while threading a
// namespace scope. Syntactic names such as "p:item" resolve when they are
// written, against the scope in force at that point, so every element the
// builder returns carries prefix hints its own scope binds.
//
// Elem opens an element, End closes the innermost open one, and Build
// closes whatever is still open and returns the outermost element.
// Declare extends the scope seen by everything written afterwards; the
// serializer later turns the extension into xmlns attributes on the
// element that declared it. The first fault is sticky: later calls do
// nothing and Build reports it.
//
//	scope := MustScope(map[string]string{"p": "urn:demo"})
//	elem, err := NewBuilder(scope).
//		Elem("p:order").Attr("id", "7").
//		Elem("p:item").Text("coffee").End().
//		Build()
type ElementBuilder struct {
	base  Scope
	stack []builderFrame
	root  Element
	built bool
	err   error
}

type builderFrame struct {
	name     QName
	attrs    []Attr
	scope    Scope
	children []Node
}

// NewBuilder starts a builder whose outermost element resolves names
// against scope.
func NewBuilder(scope Scope) *ElementBuilder {
	return &ElementBuilder{base: scope}
}

func (b *ElementBuilder) currentScope() Scope {
	if len(b.stack) > 0 {
		return b.stack[len(b.stack)-1].scope
	}
	return b.base
}

func (b *ElementBuilder) fail(err error) *ElementBuilder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Elem opens an element with the given syntactic name. Until the matching
// End (or Build), attributes and content apply to it.
func (b *ElementBuilder) Elem(name string) *ElementBuilder {
	if b.err != nil {
		return b
	}
	if b.built {
		return b.fail(errors.New("xmltree: builder already produced its element"))
	}
	scope := b.currentScope()
	resolved, err := scope.ResolveElementName(name)
	if err != nil {
		return b.fail(err)
	}
	b.stack = append(b.stack, builderFrame{name: resolved, scope: scope})
	return b
}

// Declare binds prefix to namespace for everything written after it. An
// empty namespace undeclares. Called before the first Elem it adjusts the
// scope of the outermost element; called inside an element it is recorded
// on that element, like an xmlns attribute.
func (b *ElementBuilder) Declare(prefix, namespace string) *ElementBuilder {
	if b.err != nil {
		return b
	}
	scope, err := b.currentScope().Resolve(prefix, namespace)
	if err != nil {
		return b.fail(err)
	}
	if len(b.stack) > 0 {
		b.stack[len(b.stack)-1].scope = scope
	} else {
		b.base = scope
	}
	return b
}

// Attr adds an attribute to the open element, resolving the syntactic
// name without the default namespace.
func (b *ElementBuilder) Attr(name, value string) *ElementBuilder {
	if b.err != nil {
		return b
	}
	if len(b.stack) == 0 {
		return b.fail(fmt.Errorf("xmltree: attribute %q outside an element", name))
	}
	top := &b.stack[len(b.stack)-1]
	resolved, err := top.scope.ResolveAttributeName(name)
	if err != nil {
		return b.fail(err)
	}
	for _, attr := range top.attrs {
		if attr.Name.Equal(resolved) {
			return b.fail(fmt.Errorf("%w: duplicate attribute %s", ErrInvalidName, resolved.ClarkString()))
		}
	}
	top.attrs = append(top.attrs, Attr{Name: resolved, Value: value})
	return b
}

// Text appends a text child to the open element.
func (b *ElementBuilder) Text(value string) *ElementBuilder {
	return b.content("text", Text{Value: value})
}

// CDataText appends a text child marked as a CDATA section.
func (b *ElementBuilder) CDataText(value string) *ElementBuilder {
	return b.content("text", Text{Value: value, CData: true})
}

// Comment appends a comment child to the open element.
func (b *ElementBuilder) Comment(value string) *ElementBuilder {
	return b.content("comment", Comment{Value: value})
}

// ProcInst appends a processing instruction child to the open element.
func (b *ElementBuilder) ProcInst(target, data string) *ElementBuilder {
	return b.content("processing instruction", ProcInst{Target: target, Data: data})
}

// Child appends an already built node to the open element. A nil node is
// ignored.
func (b *ElementBuilder) Child(n Node) *ElementBuilder {
	if n == nil {
		return b
	}
	return b.content("child", n)
}

func (b *ElementBuilder) content(what string, n Node) *ElementBuilder {
	if b.err != nil {
		return b
	}
	if len(b.stack) == 0 {
		return b.fail(fmt.Errorf("xmltree: %s outside an element", what))
	}
	top := &b.stack[len(b.stack)-1]
	top.children = append(top.children, n)
	return b
}

// End closes the innermost open element, validating it and attaching it
// to its parent.
func (b *ElementBuilder) End() *ElementBuilder {
	if b.err != nil {
		return b
	}
	if len(b.stack) == 0 {
		return b.fail(errors.New("xmltree: End without open element"))
	}
	top := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	elem, err := NewElement(top.name, top.attrs, top.scope, top.children...)
	if err != nil {
		return b.fail(err)
	}
	if len(b.stack) > 0 {
		parent := &b.stack[len(b.stack)-1]
		parent.children = append(parent.children, elem)
		return b
	}
	b.root = elem
	b.built = true
	return b
}

// Build closes any elements still open and returns the outermost one.
func (b *ElementBuilder) Build() (Element, error) {
	for b.err == nil && len(b.stack) > 0 {
		b.End()
	}
	if b.err != nil {
		return Element{}, b.err
	}
	if !b.built {
		return Element{}, errors.New("xmltree: builder holds no element")
	}
	return b.root, nil
}

// MustBuild is like Build but panics on error.
func (b *ElementBuilder) MustBuild() Element {
	elem, err := b.Build()
	if err != nil {
		panic(err)
	}
	return elem
}
