package xmltree

import (
	"strings"
	"testing"
)

func TestOutlineString(t *testing.T) {
	scope := MustScope(map[string]string{"p": testNS})
	root := elem(MustPrefixedName(testNS, "root", "p"),
		[]Attr{{Name: MustName("", "a"), Value: "1"}, {Name: MustName("", "b"), Value: "2"}},
		scope,
		Text{Value: "  hello   world  "},
		Comment{Value: "a note"},
		elem(MustPrefixedName(testNS, "item", "p"), nil, scope,
			elem(MustName("", "leaf"), nil, scope)),
		ProcInst{Target: "app", Data: "cfg"},
	)
	out := OutlineString(root)
	for _, want := range []string{
		`p:root (2 attrs) "hello world"`,
		"<!-- a note -->",
		"p:item",
		"leaf",
		"<?app cfg?>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("outline lacks %q:\n%s", want, out)
		}
	}
	// Indentation places leaf under item, one level deeper.
	itemLine := lineContaining(out, "p:item")
	leafLine := lineContaining(out, "leaf")
	if itemLine == "" || leafLine == "" {
		t.Fatalf("outline lines missing:\n%s", out)
	}
	if strings.Index(leafLine, "leaf") <= strings.Index(itemLine, "p:item") {
		t.Fatalf("leaf not nested under item:\n%s", out)
	}
}

func lineContaining(s, substr string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, substr) {
			return line
		}
	}
	return ""
}

func TestOutlineStringClark(t *testing.T) {
	scope := MustScope(map[string]string{"p": testNS})
	root := elem(MustPrefixedName(testNS, "root", "p"), nil, scope,
		elem(MustPrefixedName(testNS, "child", "p"), nil, scope))
	out := OutlineString(root.ToClark())
	// Projection drops the prefix hints, so Clark outlines show bare
	// local names.
	if strings.Contains(out, "p:root") || !strings.Contains(out, "root") {
		t.Fatalf("unexpected outline:\n%s", out)
	}
	if lineContaining(out, "child") == "" {
		t.Fatalf("outline lacks the child:\n%s", out)
	}
}

func TestSummarizeText(t *testing.T) {
	long := strings.Repeat("ab", 20)
	wide := strings.Repeat("\u00e9", 20) // 40 bytes, 20 runes
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  a \n\t b  ", "a b"},
		{strings.Repeat("x", 32), strings.Repeat("x", 32)},
		{long, long[:32] + "..."},
		{wide, wide},
	}
	for _, tc := range cases {
		if got := summarizeText(tc.in); got != tc.want {
			t.Errorf("summarizeText(%q) = %q, expected %q", tc.in, got, tc.want)
		}
	}
}
