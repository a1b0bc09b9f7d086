package asmir

import (
	"strings"
	"testing"

	"github.com/AshKmo/armlitian/internal/diag"
)

func TestOperandRender(t *testing.T) {
	lbl := NewLabel()
	cases := []struct {
		op   Operand
		want string
	}{
		{Reg("R0"), "R0"},
		{Imm(-3), "#-3"},
		{SpecialImm(".WriteChar"), "#.WriteChar"},
		{LabelImm(lbl), "#" + lbl.Sym()},
		{Mem("SP"), "[SP]"},
		{MemOff("SP", 8), "[SP+8]"},
		{MemOff("SP", -4), "[SP-4]"},
		{MemOffReg("R2", "R4"), "[R2+R4]"},
	}
	for _, c := range cases {
		if got := c.op.Render(); got != c.want {
			t.Errorf("Render() = %q, want %q", got, c.want)
		}
	}
}

func TestLineRenderInstrAndLabel(t *testing.T) {
	lbl := NewLabel()
	if got, want := LabelDef(lbl).Render(), lbl.Sym()+":"; got != want {
		t.Errorf("LabelDef.Render() = %q, want %q", got, want)
	}
	instr := Instr("ADD", Reg("R0"), Reg("R1"), Imm(4))
	if got, want := instr.Render(), "ADD R0,R1,#4"; got != want {
		t.Errorf("Instr.Render() = %q, want %q", got, want)
	}
}

func TestEscapeString(t *testing.T) {
	got := EscapeString("a\nb\"c")
	want := `a\nb\"c`
	if got != want {
		t.Errorf("EscapeString = %q, want %q", got, want)
	}
}

func TestCoalesceLabelsMergesAdjacentRuns(t *testing.T) {
	a, b, c := NewLabel(), NewLabel(), NewLabel()
	lines := []Line{
		LabelDef(a),
		LabelDef(b),
		Instr("NOP"),
		LabelDef(c),
	}
	out := CoalesceLabels(lines)

	var labelCount int
	for _, l := range out {
		if l.Kind == LKLabel {
			labelCount++
		}
	}
	if labelCount != 2 {
		t.Fatalf("got %d label lines after coalescing, want 2 (a/b merged, c alone)", labelCount)
	}
	// No two label lines are adjacent.
	for i := 0; i+1 < len(out); i++ {
		if out[i].Kind == LKLabel && out[i+1].Kind == LKLabel {
			t.Fatalf("adjacent label lines survived coalescing at index %d", i)
		}
	}
	// b's ID was reassigned to a's, so any existing *Label reference to b
	// now renders as a's symbol.
	if b.ID != a.ID {
		t.Fatalf("b.ID = %v, want reassigned to a.ID = %v", b.ID, a.ID)
	}
	if c.ID == a.ID {
		t.Fatalf("c should not have been merged into the first run")
	}
}

func TestFinalizeRequiresMain(t *testing.T) {
	sink := diag.NewSink(false)
	_, err := Finalize(Program{StackLabel: NewLabel()}, sink)
	if err == nil {
		t.Fatal("expected error when no main label is supplied")
	}
}

func TestFinalizeAssemblesPrologueAndEpilogue(t *testing.T) {
	sink := diag.NewSink(false)
	main := NewLabel()
	listing, err := Finalize(Program{
		MainEntry:  main,
		CopySub:    []Line{LabelDef(NewLabel()), Instr("RET")},
		FuncCode:   [][]Line{{LabelDef(main), Instr("RET")}},
		Data:       nil,
		StackLabel: NewLabel(),
	}, sink)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !strings.Contains(listing, "BL "+main.Sym()) {
		t.Fatalf("listing missing call into main:\n%s", listing)
	}
	if !strings.HasPrefix(listing, "MOV SP,#") && !strings.Contains(listing, "MOV SP,#") {
		t.Fatalf("listing missing stack init:\n%s", listing)
	}
	if !strings.Contains(listing, "HALT") {
		t.Fatalf("listing missing HALT:\n%s", listing)
	}
	if !strings.Contains(listing, ".ALIGN 4") {
		t.Fatalf("listing missing trailing alignment directive:\n%s", listing)
	}
}
