package ast

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, src string) *Element {
	t.Helper()
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q): %v", src, err)
	}
	root, err := Parse(toks)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return root
}

func TestParseProgramRootShape(t *testing.T) {
	root := mustParse(t, "[] [[[void] main [] [return]]]")
	if root.Kind != ElList || len(root.List) != 2 {
		t.Fatalf("program root = %v, want a 2-element List", root)
	}
	if root.At(0).Kind != ElList || len(root.At(0).List) != 0 {
		t.Fatalf("type decl list = %v, want empty List", root.At(0))
	}
}

func TestParseLiteralKinds(t *testing.T) {
	root := mustParse(t, `[1 2.5 'c' "str" word]`)
	list := root.At(0)
	if list == nil || list.Kind != ElList || len(list.List) != 5 {
		t.Fatalf("got %v, want a 5-element List", list)
	}
	if list.List[0].Kind != ElInt || list.List[0].IntVal != 1 {
		t.Fatalf("element 0 = %v, want Int 1", list.List[0])
	}
	if list.List[1].Kind != ElFloat || list.List[1].FloatVal != 2.5 {
		t.Fatalf("element 1 = %v, want Float 2.5", list.List[1])
	}
	if list.List[2].Kind != ElChar || list.List[2].Ch != 'c' {
		t.Fatalf("element 2 = %v, want Char 'c'", list.List[2])
	}
	if list.List[3].Kind != ElString || list.List[3].Str != "str" {
		t.Fatalf("element 3 = %v, want String \"str\"", list.List[3])
	}
	if list.List[4].Kind != ElWord || list.List[4].Word != "word" {
		t.Fatalf("element 4 = %v, want Word word", list.List[4])
	}
}

func TestRoundTrip(t *testing.T) {
	src := "[[Pair [struct [[[int] a] [[int] b]]]]] [[[int] main [] [return 1]]]"
	root := mustParse(t, src)

	// root is the implicit program root: its top-level children are
	// exactly the bracketed forms in src, with no enclosing bracket of
	// their own. Re-render each and rejoin with whitespace rather than
	// calling root.String() directly, which would wrap them in one.
	parts := make([]string, len(root.List))
	for i, e := range root.List {
		parts[i] = e.String()
	}
	rendered := strings.Join(parts, " ")

	reparsed := mustParse(t, rendered)
	if !root.Equal(reparsed) {
		t.Fatalf("round trip mismatch:\n%s\nvs\n%s", rendered, reparsed.String())
	}
	if diff := cmp.Diff(root, reparsed); diff != "" {
		t.Fatalf("round trip structural diff (-original +reparsed):\n%s", diff)
	}
}
