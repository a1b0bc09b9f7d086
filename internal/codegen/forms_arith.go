package codegen

import (
	"github.com/pkg/errors"

	"github.com/AshKmo/armlitian/internal/asmir"
	"github.com/AshKmo/armlitian/internal/ast"
	"github.com/AshKmo/armlitian/internal/types"
)

// compileIntOperands compiles a left-associative chain of Int-typed
// operands: the first lands at memoryStart (the running accumulator),
// every later one lands at memoryStart+4 and is folded in by stepEmitter.
func (c *ctx) compileIntOperands(operands []*ast.Element, memoryStart int32, stepEmitter func(accOff, rhsOff int32) []asmir.Line) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	if len(operands) == 0 {
		return nil, nil, nil, errors.New("codegen: arity mismatch")
	}
	code, data, t0, err := c.compile(operands[0], memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	if t0.Kind != types.KInt {
		return nil, nil, nil, errors.New("codegen: operand must be Int")
	}
	rhsOff := memoryStart + 4
	for _, rhsExpr := range operands[1:] {
		rc, rd, rt, err := c.compile(rhsExpr, rhsOff)
		if err != nil {
			return nil, nil, nil, err
		}
		if rt.Kind != types.KInt {
			return nil, nil, nil, errors.New("codegen: operand must be Int")
		}
		code = append(code, rc...)
		data = append(data, rd...)
		code = append(code, stepEmitter(memoryStart, rhsOff)...)
	}
	return code, data, c.intType(), nil
}

// compileAddSub handles variadic `+` and `-`.
func (c *ctx) compileAddSub(expr *ast.Element, memoryStart int32, op string) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	mnemonic := "ADD"
	if op == "-" {
		mnemonic = "SUB"
	}
	return c.compileIntOperands(expr.List[1:], memoryStart, func(accOff, rhsOff int32) []asmir.Line {
		return []asmir.Line{
			asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", accOff)),
			asmir.Instr("LDR", asmir.Reg("R1"), asmir.MemOff("SP", rhsOff)),
			asmir.Instr(mnemonic, asmir.Reg("R0"), asmir.Reg("R0"), asmir.Reg("R1")),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", accOff)),
		}
	})
}

// compileMultiply handles binary-chained `*`: a signed repeated-addition
// loop. The sign fixup subtracts BOTH operands from zero whenever the
// second operand is non-positive, so the loop counter is never negative
// and the product keeps its correct sign.
func (c *ctx) compileMultiply(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	return c.compileIntOperands(expr.List[1:], memoryStart, func(accOff, rhsOff int32) []asmir.Line {
		skipNegLbl := asmir.NewLabel()
		loopLbl := asmir.NewLabel()
		loopEndLbl := asmir.NewLabel()
		return []asmir.Line{
			asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", accOff)),
			asmir.Instr("LDR", asmir.Reg("R1"), asmir.MemOff("SP", rhsOff)),
			asmir.Instr("CMP", asmir.Reg("R1"), asmir.Imm(0)),
			asmir.Instr("BGT", asmir.LabelImm(skipNegLbl)),
			asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(0)),
			asmir.Instr("SUB", asmir.Reg("R0"), asmir.Reg("R2"), asmir.Reg("R0")),
			asmir.Instr("SUB", asmir.Reg("R1"), asmir.Reg("R2"), asmir.Reg("R1")),
			asmir.LabelDef(skipNegLbl),
			asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(0)),
			asmir.LabelDef(loopLbl),
			asmir.Instr("CMP", asmir.Reg("R1"), asmir.Imm(0)),
			asmir.Instr("BEQ", asmir.LabelImm(loopEndLbl)),
			asmir.Instr("ADD", asmir.Reg("R2"), asmir.Reg("R2"), asmir.Reg("R0")),
			asmir.Instr("SUB", asmir.Reg("R1"), asmir.Reg("R1"), asmir.Imm(1)),
			asmir.Instr("B", asmir.LabelImm(loopLbl)),
			asmir.LabelDef(loopEndLbl),
			asmir.Instr("STR", asmir.Reg("R2"), asmir.MemOff("SP", accOff)),
		}
	})
}

// compileDivMod handles binary-chained `/` and `%`: a signed
// repeated-subtraction loop with the result's sign flipped based on the
// xor of the operand signs, tracked in R3. Division by zero loops forever
// — undefined behavior by spec, not guarded against here.
func (c *ctx) compileDivMod(expr *ast.Element, memoryStart int32, wantRemainder bool) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	return c.compileIntOperands(expr.List[1:], memoryStart, func(accOff, rhsOff int32) []asmir.Line {
		aPosLbl := asmir.NewLabel()
		bPosLbl := asmir.NewLabel()
		loopLbl := asmir.NewLabel()
		loopEndLbl := asmir.NewLabel()
		noFlipLbl := asmir.NewLabel()
		lines := []asmir.Line{
			asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", accOff)),
			asmir.Instr("LDR", asmir.Reg("R1"), asmir.MemOff("SP", rhsOff)),
			asmir.Instr("MOV", asmir.Reg("R3"), asmir.Imm(0)),
			asmir.Instr("CMP", asmir.Reg("R0"), asmir.Imm(0)),
			asmir.Instr("BGT", asmir.LabelImm(aPosLbl)),
			asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(0)),
			asmir.Instr("SUB", asmir.Reg("R0"), asmir.Reg("R2"), asmir.Reg("R0")),
			asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(1)),
			asmir.Instr("XOR", asmir.Reg("R3"), asmir.Reg("R3"), asmir.Reg("R2")),
			asmir.LabelDef(aPosLbl),
			asmir.Instr("CMP", asmir.Reg("R1"), asmir.Imm(0)),
			asmir.Instr("BGT", asmir.LabelImm(bPosLbl)),
			asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(0)),
			asmir.Instr("SUB", asmir.Reg("R1"), asmir.Reg("R2"), asmir.Reg("R1")),
			asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(1)),
			asmir.Instr("XOR", asmir.Reg("R3"), asmir.Reg("R3"), asmir.Reg("R2")),
			asmir.LabelDef(bPosLbl),
			asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(0)),
			asmir.LabelDef(loopLbl),
			asmir.Instr("CMP", asmir.Reg("R0"), asmir.Reg("R1")),
			asmir.Instr("BLT", asmir.LabelImm(loopEndLbl)),
			asmir.Instr("SUB", asmir.Reg("R0"), asmir.Reg("R0"), asmir.Reg("R1")),
			asmir.Instr("ADD", asmir.Reg("R2"), asmir.Reg("R2"), asmir.Imm(1)),
			asmir.Instr("B", asmir.LabelImm(loopLbl)),
			asmir.LabelDef(loopEndLbl),
			asmir.Instr("CMP", asmir.Reg("R3"), asmir.Imm(0)),
			asmir.Instr("BEQ", asmir.LabelImm(noFlipLbl)),
			asmir.Instr("MOV", asmir.Reg("R1"), asmir.Imm(0)),
			asmir.Instr("SUB", asmir.Reg("R2"), asmir.Reg("R1"), asmir.Reg("R2")),
			asmir.Instr("SUB", asmir.Reg("R0"), asmir.Reg("R1"), asmir.Reg("R0")),
			asmir.LabelDef(noFlipLbl),
		}
		result := "R2"
		if wantRemainder {
			result = "R0"
		}
		lines = append(lines, asmir.Instr("STR", asmir.Reg(result), asmir.MemOff("SP", accOff)))
		return lines
	})
}

// compileComparison handles binary `<`, `>`, `<=`, `>=`. The target only
// has BEQ/BNE/BGT/BLT, so `<=` and `>=` are synthesized from two branches.
func (c *ctx) compileComparison(expr *ast.Element, memoryStart int32, op string) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	if len(expr.List) != 3 {
		return nil, nil, nil, errors.New("codegen: comparison is binary")
	}
	lhsExpr, rhsExpr := expr.At(1), expr.At(2)
	lc, ld, lt, err := c.compile(lhsExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	if lt.Kind != types.KInt {
		return nil, nil, nil, errors.New("codegen: comparison operand must be Int")
	}
	rc, rd, rt, err := c.compile(rhsExpr, memoryStart+4)
	if err != nil {
		return nil, nil, nil, err
	}
	if rt.Kind != types.KInt {
		return nil, nil, nil, errors.New("codegen: comparison operand must be Int")
	}

	trueLbl := asmir.NewLabel()
	doneLbl := asmir.NewLabel()
	code := append(append([]asmir.Line{}, lc...), rc...)
	data := append(append([]asmir.Line{}, ld...), rd...)
	code = append(code,
		asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
		asmir.Instr("LDR", asmir.Reg("R1"), asmir.MemOff("SP", memoryStart+4)),
		asmir.Instr("CMP", asmir.Reg("R0"), asmir.Reg("R1")),
	)
	switch op {
	case "<":
		code = append(code, asmir.Instr("BLT", asmir.LabelImm(trueLbl)))
	case ">":
		code = append(code, asmir.Instr("BGT", asmir.LabelImm(trueLbl)))
	case "<=":
		code = append(code, asmir.Instr("BLT", asmir.LabelImm(trueLbl)), asmir.Instr("BEQ", asmir.LabelImm(trueLbl)))
	case ">=":
		code = append(code, asmir.Instr("BGT", asmir.LabelImm(trueLbl)), asmir.Instr("BEQ", asmir.LabelImm(trueLbl)))
	}
	code = append(code,
		asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(0)),
		asmir.Instr("STR", asmir.Reg("R2"), asmir.MemOff("SP", memoryStart)),
		asmir.Instr("B", asmir.LabelImm(doneLbl)),
		asmir.LabelDef(trueLbl),
		asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(1)),
		asmir.Instr("STR", asmir.Reg("R2"), asmir.MemOff("SP", memoryStart)),
		asmir.LabelDef(doneLbl),
	)
	return code, data, c.intType(), nil
}

// compileEquality handles `==`/`!=`. Size-0 types compare equal
// trivially, size-4 types compare via one CMP, and every other size
// compares byte by byte with an early exit on mismatch. The second
// operand is compiled at, and read back from, memoryStart plus the
// word-aligned size of the first.
func (c *ctx) compileEquality(expr *ast.Element, memoryStart int32, negate bool) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	if len(expr.List) != 3 {
		return nil, nil, nil, errors.New("codegen: equality is binary")
	}
	lhsExpr, rhsExpr := expr.At(1), expr.At(2)
	lc, ld, lt, err := c.compile(lhsExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	if lt.Kind == types.KVoid {
		return nil, nil, nil, errors.New("codegen: equality operand must not be Void")
	}
	size := lt.Size()
	rhsOff := memoryStart + types.WordBytes(size)
	rc, rd, rt, err := c.compile(rhsExpr, rhsOff)
	if err != nil {
		return nil, nil, nil, err
	}
	eq, err := types.AreEqual(lt, rt)
	if err != nil || !eq {
		return nil, nil, nil, errors.New("codegen: equality operand type mismatch")
	}

	trueVal, falseVal := int32(1), int32(0)
	if negate {
		trueVal, falseVal = 0, 1
	}

	code := append(append([]asmir.Line{}, lc...), rc...)
	data := append(append([]asmir.Line{}, ld...), rd...)

	switch {
	case size == 0:
		code = append(code,
			asmir.Instr("MOV", asmir.Reg("R0"), asmir.Imm(trueVal)),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
		)
	case size == 4:
		eqLbl := asmir.NewLabel()
		doneLbl := asmir.NewLabel()
		code = append(code,
			asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
			asmir.Instr("LDR", asmir.Reg("R1"), asmir.MemOff("SP", rhsOff)),
			asmir.Instr("CMP", asmir.Reg("R0"), asmir.Reg("R1")),
			asmir.Instr("BEQ", asmir.LabelImm(eqLbl)),
			asmir.Instr("MOV", asmir.Reg("R0"), asmir.Imm(falseVal)),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
			asmir.Instr("B", asmir.LabelImm(doneLbl)),
			asmir.LabelDef(eqLbl),
			asmir.Instr("MOV", asmir.Reg("R0"), asmir.Imm(trueVal)),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
			asmir.LabelDef(doneLbl),
		)
	default:
		loopLbl := asmir.NewLabel()
		mismatchLbl := asmir.NewLabel()
		continueLbl := asmir.NewLabel()
		allEqualLbl := asmir.NewLabel()
		doneLbl := asmir.NewLabel()
		code = append(code,
			asmir.Instr("ADD", asmir.Reg("R2"), asmir.Reg("SP"), asmir.Imm(memoryStart)),
			asmir.Instr("ADD", asmir.Reg("R3"), asmir.Reg("SP"), asmir.Imm(rhsOff)),
			asmir.Instr("MOV", asmir.Reg("R4"), asmir.Imm(0)),
			asmir.LabelDef(loopLbl),
			asmir.Instr("CMP", asmir.Reg("R4"), asmir.Imm(size)),
			asmir.Instr("BEQ", asmir.LabelImm(allEqualLbl)),
			asmir.Instr("LDRB", asmir.Reg("R0"), asmir.MemOffReg("R2", "R4")),
			asmir.Instr("LDRB", asmir.Reg("R1"), asmir.MemOffReg("R3", "R4")),
			asmir.Instr("CMP", asmir.Reg("R0"), asmir.Reg("R1")),
			asmir.Instr("BEQ", asmir.LabelImm(continueLbl)),
			asmir.Instr("B", asmir.LabelImm(mismatchLbl)),
			asmir.LabelDef(continueLbl),
			asmir.Instr("ADD", asmir.Reg("R4"), asmir.Reg("R4"), asmir.Imm(1)),
			asmir.Instr("B", asmir.LabelImm(loopLbl)),
			asmir.LabelDef(mismatchLbl),
			asmir.Instr("MOV", asmir.Reg("R0"), asmir.Imm(falseVal)),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
			asmir.Instr("B", asmir.LabelImm(doneLbl)),
			asmir.LabelDef(allEqualLbl),
			asmir.Instr("MOV", asmir.Reg("R0"), asmir.Imm(trueVal)),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
			asmir.LabelDef(doneLbl),
		)
	}
	return code, data, c.intType(), nil
}

// compileLogical handles short-circuit `&&`/`||`.
func (c *ctx) compileLogical(expr *ast.Element, memoryStart int32, isAnd bool) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	lhsExpr, rhsExpr := expr.At(1), expr.At(2)
	if lhsExpr == nil || rhsExpr == nil {
		return nil, nil, nil, errors.New("codegen: malformed &&/||")
	}
	lc, ld, lt, err := c.compile(lhsExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	if lt.Kind != types.KInt {
		return nil, nil, nil, errors.New("codegen: &&/|| operand must be Int")
	}
	skipLbl := asmir.NewLabel()
	branch := "BNE"
	if isAnd {
		branch = "BEQ"
	}
	code := append([]asmir.Line{}, lc...)
	data := append([]asmir.Line{}, ld...)
	code = append(code,
		asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
		asmir.Instr("CMP", asmir.Reg("R0"), asmir.Imm(0)),
		asmir.Instr(branch, asmir.LabelImm(skipLbl)),
	)
	rc, rd, rt, err := c.compile(rhsExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	if rt.Kind != types.KInt {
		return nil, nil, nil, errors.New("codegen: &&/|| operand must be Int")
	}
	code = append(code, rc...)
	data = append(data, rd...)
	code = append(code, asmir.LabelDef(skipLbl))
	return code, data, c.intType(), nil
}

// compileBitwise handles binary `&`, `|`, `^`.
func (c *ctx) compileBitwise(expr *ast.Element, memoryStart int32, op string) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	mnemonic := map[string]string{"&": "AND", "|": "OR", "^": "XOR"}[op]
	return c.compileIntOperands(expr.List[1:], memoryStart, func(accOff, rhsOff int32) []asmir.Line {
		return []asmir.Line{
			asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", accOff)),
			asmir.Instr("LDR", asmir.Reg("R1"), asmir.MemOff("SP", rhsOff)),
			asmir.Instr(mnemonic, asmir.Reg("R0"), asmir.Reg("R0"), asmir.Reg("R1")),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", accOff)),
		}
	})
}

// compileShift handles `<<` (logical left), `>>>` (logical right) and
// `>>` (arithmetic right, synthesized from a logical shift since the
// target has no arithmetic-shift mnemonic, via the XOR/subtract
// sign-extension trick: (x>>>n ^ m) - m where m = 1<<(31-n)).
func (c *ctx) compileShift(expr *ast.Element, memoryStart int32, op string) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	if len(expr.List) != 3 {
		return nil, nil, nil, errors.New("codegen: shift is binary")
	}
	lhsExpr, rhsExpr := expr.At(1), expr.At(2)
	lc, ld, lt, err := c.compile(lhsExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	if lt.Kind != types.KInt {
		return nil, nil, nil, errors.New("codegen: shift operand must be Int")
	}
	rc, rd, rt, err := c.compile(rhsExpr, memoryStart+4)
	if err != nil {
		return nil, nil, nil, err
	}
	if rt.Kind != types.KInt {
		return nil, nil, nil, errors.New("codegen: shift operand must be Int")
	}
	code := append(append([]asmir.Line{}, lc...), rc...)
	data := append(append([]asmir.Line{}, ld...), rd...)
	code = append(code,
		asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
		asmir.Instr("LDR", asmir.Reg("R1"), asmir.MemOff("SP", memoryStart+4)),
	)
	switch op {
	case "<<":
		code = append(code, asmir.Instr("LSL", asmir.Reg("R0"), asmir.Reg("R0"), asmir.Reg("R1")))
	case ">>>":
		code = append(code, asmir.Instr("LSR", asmir.Reg("R0"), asmir.Reg("R0"), asmir.Reg("R1")))
	case ">>":
		code = append(code,
			asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(31)),
			asmir.Instr("SUB", asmir.Reg("R2"), asmir.Reg("R2"), asmir.Reg("R1")),
			asmir.Instr("MOV", asmir.Reg("R3"), asmir.Imm(1)),
			asmir.Instr("LSL", asmir.Reg("R3"), asmir.Reg("R3"), asmir.Reg("R2")),
			asmir.Instr("LSR", asmir.Reg("R0"), asmir.Reg("R0"), asmir.Reg("R1")),
			asmir.Instr("XOR", asmir.Reg("R0"), asmir.Reg("R0"), asmir.Reg("R3")),
			asmir.Instr("SUB", asmir.Reg("R0"), asmir.Reg("R0"), asmir.Reg("R3")),
		)
	}
	code = append(code, asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)))
	return code, data, c.intType(), nil
}

// compileNot handles unary `!`.
func (c *ctx) compileNot(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	operandExpr := expr.At(1)
	oc, od, ot, err := c.compile(operandExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	if ot.Kind != types.KInt {
		return nil, nil, nil, errors.New("codegen: ! operand must be Int")
	}
	zeroLbl := asmir.NewLabel()
	doneLbl := asmir.NewLabel()
	code := append([]asmir.Line{}, oc...)
	code = append(code,
		asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
		asmir.Instr("CMP", asmir.Reg("R0"), asmir.Imm(0)),
		asmir.Instr("BEQ", asmir.LabelImm(zeroLbl)),
		asmir.Instr("MOV", asmir.Reg("R1"), asmir.Imm(0)),
		asmir.Instr("STR", asmir.Reg("R1"), asmir.MemOff("SP", memoryStart)),
		asmir.Instr("B", asmir.LabelImm(doneLbl)),
		asmir.LabelDef(zeroLbl),
		asmir.Instr("MOV", asmir.Reg("R1"), asmir.Imm(1)),
		asmir.Instr("STR", asmir.Reg("R1"), asmir.MemOff("SP", memoryStart)),
		asmir.LabelDef(doneLbl),
	)
	return code, od, c.intType(), nil
}

// compileSizeOf handles `[size_of <typeExpr>]`.
func (c *ctx) compileSizeOf(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	typeExpr := expr.At(1)
	if typeExpr == nil {
		return nil, nil, nil, errors.New("codegen: malformed size_of")
	}
	t, err := c.cg.Types.ConstructType(typeExpr, true, true)
	if err != nil || t == nil {
		return nil, nil, nil, errors.New("codegen: size_of on an unresolvable type")
	}
	code := []asmir.Line{
		asmir.Instr("MOV", asmir.Reg("R0"), asmir.Imm(t.Size())),
		asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
	}
	return code, nil, c.intType(), nil
}

// compileSizeOfValue handles `[size_of_value <expr>]`: the expression's
// code still runs for its side effects, but its slot is overwritten with
// the constant size of its type.
func (c *ctx) compileSizeOfValue(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	operandExpr := expr.At(1)
	if operandExpr == nil {
		return nil, nil, nil, errors.New("codegen: malformed size_of_value")
	}
	oc, od, ot, err := c.compile(operandExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	code := append([]asmir.Line{}, oc...)
	code = append(code,
		asmir.Instr("MOV", asmir.Reg("R0"), asmir.Imm(ot.Size())),
		asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
	)
	return code, od, c.intType(), nil
}
