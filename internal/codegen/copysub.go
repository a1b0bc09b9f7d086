package codegen

import "github.com/AshKmo/armlitian/internal/asmir"

// CopySubroutine emits the generic byte-copy helper, once, at program
// start: R0=src, R1=dst, R2=byte count.
func (cg *CodeGen) CopySubroutine() []asmir.Line {
	loopLbl := asmir.NewLabel()
	doneLbl := asmir.NewLabel()
	return []asmir.Line{
		asmir.LabelDef(cg.CopyLabel),
		asmir.LabelDef(loopLbl),
		asmir.Instr("CMP", asmir.Reg("R2"), asmir.Imm(0)),
		asmir.Instr("BEQ", asmir.LabelImm(doneLbl)),
		asmir.Instr("LDRB", asmir.Reg("R3"), asmir.Mem("R0")),
		asmir.Instr("STRB", asmir.Reg("R3"), asmir.Mem("R1")),
		asmir.Instr("ADD", asmir.Reg("R0"), asmir.Reg("R0"), asmir.Imm(1)),
		asmir.Instr("ADD", asmir.Reg("R1"), asmir.Reg("R1"), asmir.Imm(1)),
		asmir.Instr("SUB", asmir.Reg("R2"), asmir.Reg("R2"), asmir.Imm(1)),
		asmir.Instr("B", asmir.LabelImm(loopLbl)),
		asmir.LabelDef(doneLbl),
		asmir.Instr("RET"),
	}
}
