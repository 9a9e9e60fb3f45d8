package xmltree

import (
	"errors"
	"testing"
)

func TestToClark(t *testing.T) {
	scope := MustScope(map[string]string{"p": testNS, "": testNS2})
	inner := elem(MustName(testNS2, "inner"), nil, scope, Text{Value: "hi"})
	root := elem(MustPrefixedName(testNS, "root", "p"),
		[]Attr{{Name: MustPrefixedName(testNS, "id", "p"), Value: "1"}},
		scope, inner, Comment{Value: "c"})

	clark := root.ToClark()
	if !clark.Name().Equal(MustName(testNS, "root")) || clark.Name().Prefix() != "" {
		t.Fatalf("projected name = %v", clark.Name())
	}
	attrs := clark.Attributes()
	if len(attrs) != 1 || attrs[0].Name.Prefix() != "" || !attrs[0].Name.IsName(testNS, "id") {
		t.Fatalf("projected attrs = %v", attrs)
	}
	kids := clark.Children()
	if len(kids) != 2 {
		t.Fatalf("expected 2 children, got %d", len(kids))
	}
	innerClark, ok := kids[0].(ClarkElement)
	if !ok {
		t.Fatalf("element child did not project to a clark element: %T", kids[0])
	}
	if !innerClark.Name().Equal(MustName(testNS2, "inner")) {
		t.Fatalf("projected inner name = %v", innerClark.Name())
	}
	if innerClark.Text() != "hi" {
		t.Fatalf("inner text = %q", innerClark.Text())
	}
	if kids[1] != (Comment{Value: "c"}) {
		t.Fatalf("comment child disturbed: %v", kids[1])
	}
}

func TestNewClarkElementStripsPrefixes(t *testing.T) {
	e, err := NewClarkElement(MustPrefixedName(testNS, "item", "p"),
		[]Attr{{Name: MustPrefixedName(testNS2, "kind", "q"), Value: "x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Name().Prefix() != "" {
		t.Fatalf("name kept its prefix-hint: %v", e.Name())
	}
	if e.Attributes()[0].Name.Prefix() != "" {
		t.Fatalf("attribute kept its prefix-hint: %v", e.Attributes()[0].Name)
	}
}

func TestNewClarkElementFaults(t *testing.T) {
	name := MustName(testNS, "item")
	cases := []struct {
		name     string
		attrs    []Attr
		sentinel error
	}{
		{"xmlns attr", []Attr{{Name: MustName("", "xmlns"), Value: testNS}}, ErrInvalidName},
		{"xmlns namespace", []Attr{{Name: MustName(XMLNSNamespace, "p"), Value: testNS}}, ErrInvalidName},
		{"duplicate", []Attr{
			{Name: MustName(testNS, "a"), Value: "1"},
			{Name: MustName(testNS, "a"), Value: "2"},
		}, ErrInvalidName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewClarkElement(name, tc.attrs); !errors.Is(err, tc.sentinel) {
				t.Fatalf("expected %v, got %v", tc.sentinel, err)
			}
		})
	}

	if _, err := NewClarkElement(QName{space: testNS}, nil); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("empty local name accepted")
	}
	scoped := el("scoped")
	if _, err := NewClarkElement(name, nil, scoped); err == nil {
		t.Fatalf("scoped element child accepted")
	}
	if _, err := NewClarkElement(name, nil, nil); err == nil {
		t.Fatalf("nil child accepted")
	}
}

func TestClarkNodeOf(t *testing.T) {
	e := elem(MustName(testNS, "item"), nil, EmptyScope)
	if _, ok := ClarkNodeOf(e).(ClarkElement); !ok {
		t.Fatalf("scoped element not projected")
	}
	text := Text{Value: "x", CData: true}
	if got := ClarkNodeOf(text); got != text {
		t.Fatalf("text node changed: %v", got)
	}
	clark, err := NewClarkElement(MustName(testNS, "item"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ClarkNodeOf(clark); !got.(ClarkElement).Equal(clark) {
		t.Fatalf("clark element changed: %v", got)
	}
}

func TestClarkStringCanonical(t *testing.T) {
	a, err := NewClarkElement(MustName(testNS, "item"), []Attr{
		{Name: MustName("", "b"), Value: "2"},
		{Name: MustName("", "a"), Value: "1"},
	}, Text{Value: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewClarkElement(MustPrefixedName(testNS, "item", "p"), []Attr{
		{Name: MustName("", "a"), Value: "1"},
		{Name: MustName("", "b"), Value: "2"},
	}, Text{Value: "x", CData: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Attribute order, prefix-hints and the CDATA flag do not show.
	if a.String() != b.String() {
		t.Fatalf("canonical strings differ:\n%s\n%s", a, b)
	}
	want := `e({http://example.com/ns}item @a="1" @b="2" t("x"))`
	if a.String() != want {
		t.Fatalf("canonical string = %s, expected %s", a, want)
	}
}

func TestClarkStringDistinguishesContent(t *testing.T) {
	a, _ := NewClarkElement(MustName(testNS, "item"), nil, Text{Value: "x"})
	b, _ := NewClarkElement(MustName(testNS, "item"), nil, Text{Value: "y"})
	if a.String() == b.String() {
		t.Fatalf("different trees rendered identically: %s", a)
	}
}

func TestClarkChildrenIsCopy(t *testing.T) {
	inner, _ := NewClarkElement(MustName("", "inner"), nil)
	root, err := NewClarkElement(MustName("", "root"), nil, inner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kids := root.Children()
	kids[0] = Text{Value: "mutated"}
	if root.Children()[0].Kind() != KindElement {
		t.Fatalf("mutating the returned slice changed the element")
	}
}

func TestClarkTrimmedText(t *testing.T) {
	e, err := NewClarkElement(MustName("", "e"), nil,
		Text{Value: "  a"}, Text{Value: "b \n"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Text() != "  ab \n" {
		t.Fatalf("Text = %q", e.Text())
	}
	if e.TrimmedText() != "ab" {
		t.Fatalf("TrimmedText = %q", e.TrimmedText())
	}
}
