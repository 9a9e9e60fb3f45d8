package xmltree

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestWithMethodsDoNotMutate(t *testing.T) {
	orig := elem(MustName("", "root"),
		[]Attr{{Name: MustName("", "id"), Value: "1"}},
		EmptyScope, el("a"))

	renamed := orig.WithName(MustName("", "other"))
	if renamed.Name().LocalName() != "other" || orig.Name().LocalName() != "root" {
		t.Fatalf("WithName: got %v, receiver now %v", renamed.Name(), orig.Name())
	}
	restyled := orig.WithAttrs(nil)
	if len(restyled.Attributes()) != 0 || len(orig.Attributes()) != 1 {
		t.Fatalf("WithAttrs leaked into the receiver")
	}
	rescoped := orig.WithScope(MustScope(map[string]string{"p": testNS}))
	if _, ok := orig.Scope().NamespaceOfPrefix("p"); ok {
		t.Fatalf("WithScope leaked into the receiver")
	}
	if _, ok := rescoped.Scope().NamespaceOfPrefix("p"); !ok {
		t.Fatalf("WithScope did not install the new scope")
	}
	emptied := orig.WithChildren(nil)
	if emptied.ChildCount() != 0 || orig.ChildCount() != 1 {
		t.Fatalf("WithChildren leaked into the receiver")
	}
}

func TestWithChildrenDropsNil(t *testing.T) {
	e := el("root").WithChildren([]Node{el("a"), nil, Text{Value: "x"}})
	if e.ChildCount() != 2 {
		t.Fatalf("expected nils dropped, got %d children", e.ChildCount())
	}
}

func TestWithAttrsIsCopy(t *testing.T) {
	attrs := []Attr{{Name: MustName("", "id"), Value: "1"}}
	e := el("root").WithAttrs(attrs)
	attrs[0].Value = "mutated"
	if e.AttrValue("", "id") != "1" {
		t.Fatalf("WithAttrs aliased the caller's slice")
	}
}

func TestPlusChild(t *testing.T) {
	root := el("root", el("a"))
	grown := root.PlusChild(el("b")).PlusChild(Text{Value: "t"})
	if got := localNames(grown.ChildElems()); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("children after PlusChild = %v", got)
	}
	if grown.ChildCount() != 3 {
		t.Fatalf("ChildCount = %d", grown.ChildCount())
	}
	if root.ChildCount() != 1 {
		t.Fatalf("PlusChild mutated the receiver")
	}
	if same := root.PlusChild(nil); same.ChildCount() != 1 {
		t.Fatalf("nil child changed the element")
	}
	if same := root.PlusChildOption(nil); same.ChildCount() != 1 {
		t.Fatalf("absent optional child changed the element")
	}
}

func TestPlusChildren(t *testing.T) {
	root := el("root")
	grown := root.PlusChildren([]Node{el("a"), nil, el("b")})
	if got := localNames(grown.ChildElems()); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("children = %v", got)
	}
}

func TestPlusAttr(t *testing.T) {
	e := el("root").
		PlusAttr(MustName("", "a"), "1").
		PlusAttr(MustName("", "b"), "2")
	if e.AttrValue("", "a") != "1" || e.AttrValue("", "b") != "2" {
		t.Fatalf("attributes after PlusAttr: %v", e.Attributes())
	}

	// Replacement keeps the original position.
	replaced := e.PlusAttr(MustName("", "a"), "9")
	attrs := replaced.Attributes()
	if len(attrs) != 2 || attrs[0].Value != "9" || attrs[0].Name.LocalName() != "a" {
		t.Fatalf("replacement reordered attributes: %v", attrs)
	}
	if e.AttrValue("", "a") != "1" {
		t.Fatalf("PlusAttr mutated the receiver")
	}
}

func TestTransformChildrenToNodeLists(t *testing.T) {
	root := el("root", el("drop"), Text{Value: "keep"}, el("dup"))
	result := root.TransformChildrenToNodeLists(func(n Node) []Node {
		e, ok := n.(Element)
		if !ok {
			return []Node{n}
		}
		switch e.Name().LocalName() {
		case "drop":
			return nil
		case "dup":
			return []Node{e, nil, e}
		}
		return []Node{e}
	})
	if got := localNames(result.ChildElems()); !slices.Equal(got, []string{"dup", "dup"}) {
		t.Fatalf("elements after rewrite = %v", got)
	}
	if result.ChildCount() != 3 {
		t.Fatalf("ChildCount = %d", result.ChildCount())
	}
	if result.Children()[0].Kind() != KindText {
		t.Fatalf("text child did not keep its relative position")
	}
}

func TestTransformChildElemsToNodeLists(t *testing.T) {
	root := el("root", Comment{Value: "c"}, el("a"), Text{Value: "t"})
	result := root.TransformChildElemsToNodeLists(func(e Element) []Node { return nil })
	var kinds []NodeKind
	for n := range result.ChildNodes() {
		kinds = append(kinds, n.Kind())
	}
	if !slices.Equal(kinds, []NodeKind{KindComment, KindText}) {
		t.Fatalf("non-element children disturbed: %v", kinds)
	}
}

func TestTransformChildElems(t *testing.T) {
	root := el("root", el("a"), Text{Value: "t"}, el("b"))
	upper := root.TransformChildElems(func(e Element) Element {
		return e.WithName(MustName("", strings.ToUpper(e.Name().LocalName())))
	})
	if got := localNames(upper.ChildElems()); !slices.Equal(got, []string{"A", "B"}) {
		t.Fatalf("rewritten children = %v", got)
	}
	if upper.ChildCount() != 3 {
		t.Fatalf("child count changed: %d", upper.ChildCount())
	}
	// Direct children only.
	deep := el("root", el("a", el("aa")))
	kept := deep.TransformChildElems(func(e Element) Element { return e })
	inner, _ := kept.ElementAtPath(NewPath(0, 0))
	if inner.Name().LocalName() != "aa" {
		t.Fatalf("grandchild disturbed: %v", inner.Name())
	}
}

func TestTransformDescendantElemsOrSelfIdentity(t *testing.T) {
	root := el("root", el("a", el("aa")), Text{Value: "t"}, el("b"))
	same := root.TransformDescendantElemsOrSelf(func(e Element) Element { return e })
	if !EqualElem(same, root) {
		t.Fatalf("identity transform changed the tree")
	}
}

func TestTransformDescendantElemsOrSelfBottomUp(t *testing.T) {
	root := el("root", el("a", el("aa")), el("b"))
	var visited []string
	root.TransformDescendantElemsOrSelf(func(e Element) Element {
		visited = append(visited, e.Name().LocalName())
		return e
	})
	// Children are rewritten before their parent.
	want := []string{"aa", "a", "b", "root"}
	if !slices.Equal(visited, want) {
		t.Fatalf("visit order = %v, expected %v", visited, want)
	}

	// The parent sees already-transformed children.
	counted := root.TransformDescendantElemsOrSelf(func(e Element) Element {
		n := 0
		for c := range e.ChildElems() {
			if strings.HasSuffix(c.Name().LocalName(), "!") {
				n++
			}
		}
		if n != e.ChildElemCount() {
			t.Fatalf("element %s saw %d of %d rewritten children",
				e.Name(), n, e.ChildElemCount())
		}
		return e.WithName(MustName("", e.Name().LocalName()+"!"))
	})
	if counted.Name().LocalName() != "root!" {
		t.Fatalf("self not rewritten: %v", counted.Name())
	}
}

func TestTransformDescendantElemsExcludesSelf(t *testing.T) {
	root := el("root", el("a", el("aa")))
	marked := root.TransformDescendantElems(func(e Element) Element {
		return e.WithName(MustName("", e.Name().LocalName()+"!"))
	})
	if marked.Name().LocalName() != "root" {
		t.Fatalf("self was rewritten: %v", marked.Name())
	}
	if got := localNames(marked.DescendantElems()); !slices.Equal(got, []string{"a!", "aa!"}) {
		t.Fatalf("descendants = %v", got)
	}
}

func TestTransformComposition(t *testing.T) {
	root := el("root", el("item", el("item")), el("other"))
	f := func(e Element) Element {
		return e.WithName(MustName("", strings.ToUpper(e.Name().LocalName())))
	}
	g := func(e Element) Element {
		return e.PlusAttr(MustName("", "seen"), "yes")
	}
	sequential := root.TransformDescendantElemsOrSelf(f).TransformDescendantElemsOrSelf(g)
	fused := root.TransformDescendantElemsOrSelf(func(e Element) Element { return g(f(e)) })
	if !sequential.ToClark().Equal(fused.ToClark()) {
		t.Fatalf("composed transforms diverge:\n%s\n%s",
			sequential.ToClark(), fused.ToClark())
	}
}

func TestUpdateElems(t *testing.T) {
	root := el("root", el("a"), el("b"), el("c"))
	rename := func(p Path, e Element) (Element, error) {
		return e.WithName(MustName("", strings.ToUpper(e.Name().LocalName()))), nil
	}

	updated, err := root.UpdateElems([]Path{NewPath(1)}, rename)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := localNames(updated.ChildElems()); !slices.Equal(got, []string{"a", "B", "c"}) {
		t.Fatalf("children after update = %v", got)
	}
	if got := localNames(root.ChildElems()); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("UpdateElems mutated the receiver: %v", got)
	}

	// Renaming B again is a no-op rename of an already-uppercase name.
	again, err := updated.UpdateElems([]Path{NewPath(1)}, rename)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !EqualElem(again, updated) {
		t.Fatalf("second identical update changed the tree")
	}
}

func TestUpdateElemsDuplicatePathsApplyOnce(t *testing.T) {
	root := el("root", el("a"))
	calls := 0
	_, err := root.UpdateElems([]Path{NewPath(0), NewPath(0)}, func(p Path, e Element) (Element, error) {
		calls++
		return e, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("duplicate path applied %d times", calls)
	}
}

func TestUpdateElemsDeepBeforeShallow(t *testing.T) {
	root := el("root", el("a", el("aa")))
	var order []string
	updated, err := root.UpdateElems([]Path{RootPath, NewPath(0, 0), NewPath(0)},
		func(p Path, e Element) (Element, error) {
			order = append(order, p.String())
			return e.PlusAttr(MustName("", "touched"), "yes"), nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"/0/0", "/0", "/"}) {
		t.Fatalf("update order = %v", order)
	}
	// The shallow update saw the deep update's result.
	inner, err := updated.ElementAtPath(NewPath(0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.AttrValue("", "touched") != "yes" {
		t.Fatalf("deep update lost under the shallow one")
	}
}

func TestUpdateElemsPathOutOfRange(t *testing.T) {
	root := el("root", el("a"))
	identity := func(p Path, e Element) (Element, error) { return e, nil }
	if _, err := root.UpdateElems([]Path{NewPath(3)}, identity); !errors.Is(err, ErrPathOutOfRange) {
		t.Fatalf("expected ErrPathOutOfRange, got %v", err)
	}
	if _, err := root.UpdateElems([]Path{NewPath(0, 0)}, identity); !errors.Is(err, ErrPathOutOfRange) {
		t.Fatalf("expected ErrPathOutOfRange below a leaf, got %v", err)
	}
}

func TestUpdateElemsCallbackError(t *testing.T) {
	root := el("root", el("a"))
	boom := errors.New("boom")
	_, err := root.UpdateElems([]Path{NewPath(0)}, func(p Path, e Element) (Element, error) {
		return Element{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("callback error not propagated: %v", err)
	}
}

func TestUpdateElemsIdentity(t *testing.T) {
	root := el("root", el("a", el("aa")), el("b"))
	paths := []Path{RootPath, NewPath(0), NewPath(0, 0), NewPath(1)}
	same, err := root.UpdateElems(paths, func(p Path, e Element) (Element, error) {
		return e, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !EqualElem(same, root) {
		t.Fatalf("identity updates changed the tree")
	}
}

func TestRemoveInterElementWhitespace(t *testing.T) {
	root := elem(MustName("", "root"), nil, EmptyScope,
		Text{Value: " "}, el("a"), Text{Value: "\n  "}, el("b"), Text{Value: " "})
	cleaned := root.RemoveInterElementWhitespace()
	if cleaned.ChildCount() != 2 {
		t.Fatalf("expected 2 children, got %d", cleaned.ChildCount())
	}
	if got := localNames(cleaned.ChildElems()); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("children = %v", got)
	}
	if !EqualElem(cleaned.RemoveInterElementWhitespace(), cleaned) {
		t.Fatalf("cleanup is not idempotent")
	}
}

func TestRemoveInterElementWhitespaceKeepsContent(t *testing.T) {
	// Text-only elements keep their text.
	textual := elem(MustName("", "root"), nil, EmptyScope, Text{Value: "hello"})
	if got := textual.RemoveInterElementWhitespace(); !EqualElem(got, textual) {
		t.Fatalf("text-only element changed: %v", got)
	}
	// Mixed content keeps everything; some text is significant.
	mixed := elem(MustName("", "root"), nil, EmptyScope,
		Text{Value: "hi "}, el("a"), Text{Value: " "})
	if got := mixed.RemoveInterElementWhitespace(); !EqualElem(got, mixed) {
		t.Fatalf("mixed content changed: %v", got)
	}
	// Whitespace-only text with no element siblings stays too.
	spacer := elem(MustName("", "root"), nil, EmptyScope, Text{Value: "  "})
	if got := spacer.RemoveInterElementWhitespace(); !EqualElem(got, spacer) {
		t.Fatalf("whitespace text without element siblings removed")
	}
}

func TestRemoveInterElementWhitespaceRecurses(t *testing.T) {
	inner := elem(MustName("", "inner"), nil, EmptyScope,
		Text{Value: "\n"}, el("leaf"), Text{Value: "\n"})
	root := elem(MustName("", "root"), nil, EmptyScope, Text{Value: "\n"}, inner, Text{Value: "\n"})
	cleaned := root.RemoveInterElementWhitespace()
	got, err := cleaned.ElementAtPath(NewPath(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ChildCount() != 1 {
		t.Fatalf("nested whitespace kept: %d children", got.ChildCount())
	}
}

func TestDocumentRemoveInterElementWhitespace(t *testing.T) {
	root := elem(MustName("", "root"), nil, EmptyScope, Text{Value: " "}, el("a"), Text{Value: " "})
	d := NewDocumentForElement(root)
	cleaned := d.RemoveInterElementWhitespace()
	if cleaned.DocumentElement().ChildCount() != 1 {
		t.Fatalf("document cleanup did not reach the root element")
	}
}

func TestNotUndeclaringPrefixes(t *testing.T) {
	start := MustScope(map[string]string{"p": testNS})
	// The child scope drops p, which XML 1.0 cannot express.
	child := elem(MustName("", "child"), nil, EmptyScope)
	root := elem(MustName("", "root"), nil, start, child)

	fixed := root.NotUndeclaringPrefixes(start)
	fixedChild, err := fixed.ElementAtPath(NewPath(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ns, ok := fixedChild.Scope().NamespaceOfPrefix("p"); !ok || ns != testNS {
		t.Fatalf("prefixed undeclaration survived: %q, %v", ns, ok)
	}
	// Only scopes move; the Clark projection is untouched.
	if !fixed.ToClark().Equal(root.ToClark()) {
		t.Fatalf("scope repair changed content:\n%s\n%s", fixed.ToClark(), root.ToClark())
	}
}

func TestNotUndeclaringPrefixesKeepsDefaultUndeclaration(t *testing.T) {
	start := MustScope(map[string]string{"": testNS, "p": testNS2})
	child := elem(MustName("", "child"), nil, MustScope(map[string]string{"p": testNS2}))
	root := elem(MustPrefixedName(testNS2, "root", "p"), nil, start, child)

	fixed := root.NotUndeclaringPrefixes(start)
	fixedChild, err := fixed.ElementAtPath(NewPath(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// xmlns="" is expressible and stays.
	if ns, ok := fixedChild.Scope().DefaultNamespace(); ok {
		t.Fatalf("default undeclaration removed, default now %q", ns)
	}
	if ns, ok := fixedChild.Scope().NamespaceOfPrefix("p"); !ok || ns != testNS2 {
		t.Fatalf("kept prefix disturbed: %q, %v", ns, ok)
	}
}
