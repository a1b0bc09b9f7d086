package compiler

import (
	"strings"
	"testing"
)

func TestCompileSimpleReturn(t *testing.T) {
	src := `
		[]
		[[[int] main [] [return 42]]]
	`
	c := &Compiler{}
	listing, err := c.Compile(src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(listing, "HALT") {
		t.Fatalf("listing missing HALT:\n%s", listing)
	}
	if !strings.Contains(listing, "MOV R0,#42") {
		t.Fatalf("listing missing literal load:\n%s", listing)
	}
	if strings.Count(listing, "BL ") < 1 {
		t.Fatalf("listing missing call into main:\n%s", listing)
	}
}

func TestCompileNoMainAborts(t *testing.T) {
	src := `
		[]
		[[[void] helper [] [return]]]
	`
	c := &Compiler{}
	if _, err := c.Compile(src); err == nil {
		t.Fatal("expected an error when no main function is declared")
	}
}

func TestCompileWhileLoopHasBackEdge(t *testing.T) {
	src := `
		[]
		[[[int] main []
			[do [[[int] i]]
				[[<- i 0]
				 [while [< $i 3] [do [] [[<- i [+ $i 1]]]]]
				 [return $i]]]]]
	`
	c := &Compiler{}
	listing, err := c.Compile(src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(listing, "CMP") {
		t.Fatalf("listing missing loop condition check:\n%s", listing)
	}
	if strings.Count(listing, "B label__") < 1 {
		t.Fatalf("listing missing a back-edge branch:\n%s", listing)
	}
}

func TestCompileMultiplyEmitsRepeatedAddLoop(t *testing.T) {
	src := `
		[]
		[[[int] main [] [return [* 2 3]]]]
	`
	c := &Compiler{}
	listing, err := c.Compile(src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(listing, "ADD R2,R2,R0") {
		t.Fatalf("listing missing the multiply accumulator add:\n%s", listing)
	}
}

func TestCompileUnknownFunctionIsAnError(t *testing.T) {
	src := `
		[]
		[[[int] main [] [return [nope]]]]
	`
	c := &Compiler{}
	if _, err := c.Compile(src); err == nil {
		t.Fatal("expected an error calling an undeclared function")
	}
}

func TestCompileFunctionCall(t *testing.T) {
	src := `
		[]
		[[[int] square [[[int] x]] [return [* $x $x]]]
		 [[int] main [] [return [square 5]]]]
	`
	c := &Compiler{}
	listing, err := c.Compile(src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if strings.Count(listing, "BL ") < 2 {
		t.Fatalf("listing should call into both main and square:\n%s", listing)
	}
}

func TestCompileStructFieldAccessRepeatsFirstName(t *testing.T) {
	// Per the field-access bug reproduction, a multi-level `.` access
	// always reads the FIRST name, applied len(names) times — so
	// `[. $p a b]` adds field a's offset twice, never touching b.
	src := `
		[[Pair [struct [[[int] a] [[int] b]]]]]
		[[[int] access [[[ptr Pair] p]] [return [$ [. $p a b]]]]
		 [[int] main [] [return 0]]]
	`
	c := &Compiler{}
	listing, err := c.Compile(src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	// field a is at position 0, so both (buggy) iterations add #0.
	if strings.Count(listing, "ADD R0,R0,#0") < 2 {
		t.Fatalf("expected the first field's offset applied twice:\n%s", listing)
	}
}

func TestCompileFieldAccessStoreAndLoad(t *testing.T) {
	// spec.md §8 scenario 2: `.` yields a Ptr(field type), so it can sit
	// on either side of `<-`'s lhs or under `$`, letting a field be
	// stored into and read back.
	src := `
		[[Pair [struct [[[int] a] [[int] b]]]]]
		[[[int] main []
			[do [[[Pair] p]]
				[[<- [. p a] 5]
				 [return [$ [. p a]]]]]]]
	`
	c := &Compiler{}
	listing, err := c.Compile(src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(listing, "MOV R0,#5") {
		t.Fatalf("listing missing the stored literal:\n%s", listing)
	}
}

func TestCompilePrintDispatchesOnType(t *testing.T) {
	src := `
		[]
		[[[void] main [] [print 'x']]]
	`
	c := &Compiler{}
	listing, err := c.Compile(src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(listing, ".WriteChar") {
		t.Fatalf("printing a Char should target .WriteChar:\n%s", listing)
	}
}

func TestCompileEqualityByteLoopForLargerThanWord(t *testing.T) {
	src := `
		[[Pair [struct [[[int] a] [[int] b]]]]]
		[[[int] main [[[Pair] x] [[Pair] y]] [return [== $x $y]]]]
	`
	c := &Compiler{}
	listing, err := c.Compile(src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(listing, "LDRB R0,[R2+R4]") {
		t.Fatalf("comparing two 8-byte structs should fall back to the byte loop:\n%s", listing)
	}
}

func TestCompileCoalescesAdjacentLabels(t *testing.T) {
	// main falls straight into an if with no else: the if's endLbl sits
	// directly after the skipLbl of its only branch, so the two should
	// coalesce into one label definition in the final listing.
	src := `
		[]
		[[[void] main [] [if 1 [return]]]]
	`
	c := &Compiler{}
	listing, err := c.Compile(src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(listing, "\n"), "\n")
	for i := 0; i+1 < len(lines); i++ {
		if strings.HasSuffix(lines[i], ":") && strings.HasSuffix(lines[i+1], ":") {
			t.Fatalf("adjacent label lines at %d/%d survived coalescing:\n%s", i, i+1, listing)
		}
	}
}
