package codegen

import (
	"github.com/pkg/errors"

	"github.com/AshKmo/armlitian/internal/asmir"
	"github.com/AshKmo/armlitian/internal/ast"
	"github.com/AshKmo/armlitian/internal/types"
)

// compileStore handles `[<- <lhs> <value>]`.
func (c *ctx) compileStore(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	lhsExpr := expr.At(1)
	valueExpr := expr.At(2)
	if lhsExpr == nil || valueExpr == nil {
		return nil, nil, nil, errors.New("codegen: malformed <-")
	}

	vc, vd, vt, err := c.compile(valueExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	lhsOffset := memoryStart + types.WordBytes(vt.Size())
	lc, ld, lt, err := c.compile(lhsExpr, lhsOffset)
	if err != nil {
		return nil, nil, nil, err
	}
	if lt.Kind != types.KPtr {
		return nil, nil, nil, errors.New("codegen: <- lhs must be a pointer")
	}
	eq, err := types.AreEqual(lt.PtrValue, vt)
	if err != nil || !eq {
		return nil, nil, nil, errors.New("codegen: <- operand type mismatch")
	}

	code := append(append([]asmir.Line{}, vc...), lc...)
	data := append(append([]asmir.Line{}, vd...), ld...)

	if vt.Kind == types.KInt || vt.Kind == types.KPtr {
		code = append(code,
			asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
			asmir.Instr("LDR", asmir.Reg("R1"), asmir.MemOff("SP", lhsOffset)),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.Mem("R1")),
		)
	} else {
		code = append(code,
			asmir.Instr("ADD", asmir.Reg("R0"), asmir.Reg("SP"), asmir.Imm(memoryStart)),
			asmir.Instr("LDR", asmir.Reg("R1"), asmir.MemOff("SP", lhsOffset)),
			asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(vt.Size())),
			asmir.Instr("BL", asmir.LabelImm(c.cg.CopyLabel)),
		)
	}
	return code, data, c.voidType(), nil
}

// compileCast handles `[cast <typeExpr> <value>]`: bits untouched, only
// the static type changes.
func (c *ctx) compileCast(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	typeExpr := expr.At(1)
	valueExpr := expr.At(2)
	if typeExpr == nil || valueExpr == nil {
		return nil, nil, nil, errors.New("codegen: malformed cast")
	}
	code, data, _, err := c.compile(valueExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	newType, err := c.cg.Types.ConstructType(typeExpr, true, true)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "codegen: resolving cast target type")
	}
	if newType == nil {
		return nil, nil, nil, errors.New("codegen: unknown cast target type")
	}
	return code, data, newType, nil
}

// compileDeref handles `[$ <expr>]`: the operator form, distinct from the
// `$name` leaf-word shorthand for a local variable's value.
func (c *ctx) compileDeref(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	operandExpr := expr.At(1)
	if operandExpr == nil {
		return nil, nil, nil, errors.New("codegen: malformed $")
	}
	oc, od, ot, err := c.compile(operandExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	if ot.Kind != types.KPtr {
		return nil, nil, nil, errors.New("codegen: $ of a non-pointer")
	}
	target := ot.PtrValue
	code := append(append([]asmir.Line{}, oc...),
		asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
		asmir.Instr("ADD", asmir.Reg("R1"), asmir.Reg("SP"), asmir.Imm(memoryStart)),
		asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(target.Size())),
		asmir.Instr("BL", asmir.LabelImm(c.cg.CopyLabel)),
	)
	return code, od, target, nil
}

// compilePointerOffset handles `[@ <ptr> <int>]` and `[@@ <ptr> <int>]`.
func (c *ctx) compilePointerOffset(expr *ast.Element, memoryStart int32, isArrayIndex bool) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	ptrExpr := expr.At(1)
	idxExpr := expr.At(2)
	if ptrExpr == nil || idxExpr == nil {
		return nil, nil, nil, errors.New("codegen: malformed @/@@")
	}
	pc, pd, pt, err := c.compile(ptrExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	if pt.Kind != types.KPtr {
		return nil, nil, nil, errors.New("codegen: @/@@ operand must be a pointer")
	}
	ic, id, it, err := c.compile(idxExpr, memoryStart+4)
	if err != nil {
		return nil, nil, nil, err
	}
	if it.Kind != types.KInt {
		return nil, nil, nil, errors.New("codegen: @/@@ index must be Int")
	}

	var stride *types.Type
	if isArrayIndex {
		if pt.PtrValue.Kind != types.KArray {
			return nil, nil, nil, errors.New("codegen: @@ of a non-array pointer")
		}
		stride = pt.PtrValue.ArrayItem
	} else {
		stride = pt.PtrValue
	}

	loopLbl := asmir.NewLabel()
	doneLbl := asmir.NewLabel()
	code := append(append([]asmir.Line{}, pc...), ic...)
	data := append(append([]asmir.Line{}, pd...), id...)
	code = append(code,
		asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
		asmir.Instr("LDR", asmir.Reg("R1"), asmir.MemOff("SP", memoryStart+4)),
		asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(0)),
		asmir.LabelDef(loopLbl),
		asmir.Instr("CMP", asmir.Reg("R2"), asmir.Reg("R1")),
		asmir.Instr("BEQ", asmir.LabelImm(doneLbl)),
		asmir.Instr("ADD", asmir.Reg("R0"), asmir.Reg("R0"), asmir.Imm(stride.Size())),
		asmir.Instr("ADD", asmir.Reg("R2"), asmir.Reg("R2"), asmir.Imm(1)),
		asmir.Instr("B", asmir.LabelImm(loopLbl)),
		asmir.LabelDef(doneLbl),
		asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
	)
	return code, data, &types.Type{Kind: types.KPtr, PtrValue: stride}, nil
}

// compileTernary handles `[? <cond> <then> <else>]`.
func (c *ctx) compileTernary(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	condExpr := expr.At(1)
	thenExpr := expr.At(2)
	elseExpr := expr.At(3)
	if condExpr == nil || thenExpr == nil || elseExpr == nil {
		return nil, nil, nil, errors.New("codegen: malformed ?")
	}
	cc, cd, ct, err := c.compile(condExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	if ct.Kind != types.KInt {
		return nil, nil, nil, errors.New("codegen: ? condition must be Int")
	}
	elseLbl := asmir.NewLabel()
	doneLbl := asmir.NewLabel()

	code := append([]asmir.Line{}, cc...)
	data := append([]asmir.Line{}, cd...)
	code = append(code,
		asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
		asmir.Instr("CMP", asmir.Reg("R0"), asmir.Imm(0)),
		asmir.Instr("BEQ", asmir.LabelImm(elseLbl)),
	)
	tc, td, tt, err := c.compile(thenExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	code = append(code, tc...)
	data = append(data, td...)
	code = append(code, asmir.Instr("B", asmir.LabelImm(doneLbl)), asmir.LabelDef(elseLbl))
	ec, ed, et, err := c.compile(elseExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	code = append(code, ec...)
	data = append(data, ed...)
	code = append(code, asmir.LabelDef(doneLbl))

	eq, err := types.AreEqual(tt, et)
	if err != nil || !eq {
		return nil, nil, nil, errors.New("codegen: ? branch type mismatch")
	}
	return code, data, tt, nil
}

// compileFieldAccess handles `[. <structPtr> <name1> <name2> ...]`. The
// result is Ptr(field type), an address like any other lvalue form, so
// it can feed `<-`'s lhs or `$`'s operand directly.
//
// The name list is looped over by index, but the original reads the
// field name from the same AST slot on every iteration, so multi-level
// access only ever applies the first name, repeatedly. Reproduced as-is.
func (c *ctx) compileFieldAccess(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	structPtrExpr := expr.At(1)
	if structPtrExpr == nil || len(expr.List) < 3 {
		return nil, nil, nil, errors.New("codegen: malformed .")
	}
	names := expr.List[2:]

	pc, pd, pt, err := c.compile(structPtrExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	if pt.Kind != types.KPtr || pt.PtrValue.Kind != types.KStruct {
		return nil, nil, nil, errors.New("codegen: . through a non-struct")
	}
	structType := pt.PtrValue
	firstName := names[0].Word

	code := append([]asmir.Line{}, pc...)
	code = append(code, asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)))

	var lastField types.Field
	for range names {
		field, ok := findField(structType, firstName)
		if !ok {
			return nil, nil, nil, errors.Errorf("codegen: struct has no field %q", firstName)
		}
		lastField = field
		code = append(code, asmir.Instr("ADD", asmir.Reg("R0"), asmir.Reg("R0"), asmir.Imm(field.Position)))
	}
	code = append(code, asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)))
	return code, pd, &types.Type{Kind: types.KPtr, PtrValue: lastField.Type}, nil
}
