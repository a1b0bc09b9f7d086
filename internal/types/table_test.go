package types

import (
	"testing"

	"github.com/AshKmo/armlitian/internal/ast"
)

// typeExpr parses src as a standalone type expression by wrapping it in
// the program root's implicit outer list and pulling out the first child.
func typeExpr(t *testing.T, src string) *ast.Element {
	t.Helper()
	toks, err := ast.Lex("[" + src + "]")
	if err != nil {
		t.Fatalf("Lex(%q): %v", src, err)
	}
	root, err := ast.Parse(toks)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return root.At(0)
}

func TestConstructTypeScalars(t *testing.T) {
	tbl := NewTable()
	for _, name := range []string{"int", "float", "char", "void"} {
		ty, err := tbl.ConstructType(typeExpr(t, name), false, false)
		if err != nil {
			t.Fatalf("ConstructType(%q): %v", name, err)
		}
		if ty == nil || ty.Name != name {
			t.Fatalf("ConstructType(%q) = %v", name, ty)
		}
	}
}

func TestConstructTypeArrayAndStruct(t *testing.T) {
	tbl := NewTable()

	arr, err := tbl.ConstructType(typeExpr(t, "array [int] 4"), false, false)
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	if arr.Kind != KArray || arr.ArrayCount != 4 || arr.Size() != 16 {
		t.Fatalf("array = %+v", arr)
	}

	st, err := tbl.ConstructType(typeExpr(t, "struct [[[char] a] [[int] b]]"), false, false)
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	if st.Kind != KStruct || len(st.Fields) != 2 {
		t.Fatalf("struct = %+v", st)
	}
	// Raw size is 1 + 4 = 5, not word-aligned.
	if st.Size() != 5 {
		t.Fatalf("struct.Size() = %d, want 5 (raw, unpadded)", st.Size())
	}
	// But field b's Position steps by WordBytes(a.size) = 4, not 1.
	if st.Fields[0].Position != 0 || st.Fields[1].Position != 4 {
		t.Fatalf("field positions = %d, %d, want 0, 4", st.Fields[0].Position, st.Fields[1].Position)
	}
}

func TestResolveDeclarationsForwardReference(t *testing.T) {
	// Node holds a ptr to itself — the fixpoint pass leaves it an
	// UnresolvedPtrValue placeholder, and ResolvePtrTypes patches the
	// pointer's target in place afterward.
	decls := typeExpr(t, "[Node [struct [[[ptr Node] next] [[int] val]]]]")

	tbl := NewTable()
	if err := tbl.ResolveDeclarations(decls); err != nil {
		t.Fatalf("ResolveDeclarations: %v", err)
	}
	if err := tbl.ResolvePtrTypes(); err != nil {
		t.Fatalf("ResolvePtrTypes: %v", err)
	}

	node := tbl.Lookup("Node")
	if node == nil || node.Kind != KStruct {
		t.Fatalf("Node = %v", node)
	}
	next := node.Fields[0].Type
	if next.Kind != KPtr || next.PtrValue == nil || next.PtrValue.Kind != KStruct {
		t.Fatalf("Node.next = %+v, want resolved ptr to struct", next)
	}
	if next.PtrValue.Name != "Node" {
		t.Fatalf("Node.next ptr target name = %q, want Node", next.PtrValue.Name)
	}
}

func TestResolveDeclarationsDuplicateName(t *testing.T) {
	decls := typeExpr(t, "[Foo [int]] [Foo [char]]")
	tbl := NewTable()
	if err := tbl.ResolveDeclarations(decls); err == nil {
		t.Fatal("expected duplicate type name error")
	}
}

func TestResolveDeclarationsUnresolvable(t *testing.T) {
	// Unlike ptr (which always succeeds immediately, leaving an
	// UnresolvedPtrValue placeholder for later), array recurses into its
	// item type right away — a never-defined item type never lets this
	// declaration progress, so the fixpoint loop itself must fail.
	decls := typeExpr(t, "[A [array [B] 4]]")
	tbl := NewTable()
	if err := tbl.ResolveDeclarations(decls); err == nil {
		t.Fatal("expected unresolvable type error")
	}
}

func TestAreEqualByName(t *testing.T) {
	tbl := NewTable()
	a, err := tbl.ConstructType(typeExpr(t, "int"), false, false)
	if err != nil {
		t.Fatalf("construct a: %v", err)
	}
	b, err := tbl.ConstructType(typeExpr(t, "int"), false, false)
	if err != nil {
		t.Fatalf("construct b: %v", err)
	}
	eq, err := AreEqual(a, b)
	if err != nil || !eq {
		t.Fatalf("AreEqual(int, int) = %v, %v", eq, err)
	}
}

func TestAreEqualStructuralUnnamed(t *testing.T) {
	tbl := NewTable()
	a, err := tbl.ConstructType(typeExpr(t, "struct [[[int] x] [[char] y]]"), false, false)
	if err != nil {
		t.Fatalf("construct a: %v", err)
	}
	b, err := tbl.ConstructType(typeExpr(t, "struct [[[int] different_name] [[char] also_different]]"), false, false)
	if err != nil {
		t.Fatalf("construct b: %v", err)
	}
	eq, err := AreEqual(a, b)
	if err != nil || !eq {
		t.Fatalf("structurally identical anonymous structs should be equal regardless of field names: %v, %v", eq, err)
	}
}

func TestAreEqualUnresolvedIsError(t *testing.T) {
	u := &Type{Kind: KUnresolvedPtrValue}
	i := &Type{Kind: KInt, Name: "int"}
	if _, err := AreEqual(u, i); err == nil {
		t.Fatal("expected error comparing an UnresolvedPtrValue")
	}
}
