package codegen

import (
	"github.com/pkg/errors"

	"github.com/AshKmo/armlitian/internal/asmir"
	"github.com/AshKmo/armlitian/internal/ast"
	"github.com/AshKmo/armlitian/internal/types"
)

// compileDo handles `[do <body>]` and `[do [<varDecl>...] <body>]`. A
// three-element list is the var-decl form; a two-element list is bare.
func (c *ctx) compileDo(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	var declsExpr, bodyExpr *ast.Element
	switch len(expr.List) {
	case 2:
		bodyExpr = expr.At(1)
	case 3:
		declsExpr = expr.At(1)
		bodyExpr = expr.At(2)
	default:
		return nil, nil, nil, errors.New("codegen: malformed do")
	}
	if bodyExpr == nil || bodyExpr.Kind != ast.ElList {
		return nil, nil, nil, errors.New("codegen: malformed do body")
	}

	pos := memoryStart
	if declsExpr != nil {
		if declsExpr.Kind != ast.ElList {
			return nil, nil, nil, errors.New("codegen: malformed do variable declarations")
		}
		for _, decl := range declsExpr.List {
			typeExpr := decl.At(0)
			nameExpr := decl.At(1)
			if typeExpr == nil || nameExpr == nil || nameExpr.Kind != ast.ElWord {
				return nil, nil, nil, errors.New("codegen: malformed variable declaration")
			}
			vt, err := c.cg.Types.ConstructType(typeExpr, true, true)
			if err != nil {
				return nil, nil, nil, errors.Wrap(err, "codegen: resolving declared variable type")
			}
			if vt == nil {
				return nil, nil, nil, errors.New("codegen: unknown declared variable type")
			}
			c.vars[nameExpr.Word] = types.Field{Name: nameExpr.Word, Type: vt, Position: pos}
			pos += types.WordBytes(vt.Size())
		}
	}

	var code, data []asmir.Line
	for _, sub := range bodyExpr.List {
		sc, sd, _, err := c.compile(sub, pos)
		if err != nil {
			return nil, nil, nil, err
		}
		code = append(code, sc...)
		data = append(data, sd...)
	}
	return code, data, c.voidType(), nil
}

// compileReturn handles `[return]` and `[return <value>]`.
func (c *ctx) compileReturn(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	retSize := c.fn.ReturnType.Size()
	var code, data []asmir.Line

	switch len(expr.List) {
	case 1:
		if c.fn.ReturnType.Kind != types.KVoid {
			return nil, nil, nil, errors.New("codegen: return with no value from a non-void function")
		}
	case 2:
		valueExpr := expr.At(1)
		vc, vd, vt, err := c.compile(valueExpr, memoryStart)
		if err != nil {
			return nil, nil, nil, err
		}
		eq, err := types.AreEqual(vt, c.fn.ReturnType)
		if err != nil || !eq {
			return nil, nil, nil, errors.New("codegen: return type mismatch")
		}
		code = append(code, vc...)
		data = append(data, vd...)
		code = append(code,
			asmir.Instr("ADD", asmir.Reg("R0"), asmir.Reg("SP"), asmir.Imm(memoryStart)),
			asmir.Instr("ADD", asmir.Reg("R1"), asmir.Reg("SP"), asmir.Imm(0)),
			asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(retSize)),
			asmir.Instr("BL", asmir.LabelImm(c.cg.CopyLabel)),
		)
	default:
		return nil, nil, nil, errors.New("codegen: malformed return")
	}

	code = append(code,
		asmir.Instr("LDR", asmir.Reg("LR"), asmir.MemOff("SP", retSize)),
		asmir.Instr("RET"),
	)
	return code, data, c.voidType(), nil
}

// compileIf handles `[if <c1> <e1> <c2> <e2> ... [<eelse>]]`.
func (c *ctx) compileIf(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	args := expr.List[1:]
	var code, data []asmir.Line
	endLbl := asmir.NewLabel()

	i := 0
	for i+1 < len(args) {
		condExpr, bodyExpr := args[i], args[i+1]
		cc, cd, ct, err := c.compile(condExpr, memoryStart)
		if err != nil {
			return nil, nil, nil, err
		}
		if ct.Kind != types.KInt {
			return nil, nil, nil, errors.New("codegen: if condition must be Int")
		}
		skipLbl := asmir.NewLabel()
		code = append(code, cc...)
		data = append(data, cd...)
		code = append(code,
			asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
			asmir.Instr("CMP", asmir.Reg("R0"), asmir.Imm(0)),
			asmir.Instr("BEQ", asmir.LabelImm(skipLbl)),
		)
		bc, bd, _, err := c.compile(bodyExpr, memoryStart)
		if err != nil {
			return nil, nil, nil, err
		}
		code = append(code, bc...)
		data = append(data, bd...)
		code = append(code, asmir.Instr("B", asmir.LabelImm(endLbl)))
		code = append(code, asmir.LabelDef(skipLbl))
		i += 2
	}
	if i < len(args) {
		ec, ed, _, err := c.compile(args[i], memoryStart)
		if err != nil {
			return nil, nil, nil, err
		}
		code = append(code, ec...)
		data = append(data, ed...)
	}
	code = append(code, asmir.LabelDef(endLbl))
	return code, data, c.voidType(), nil
}

// compileWhile handles `[while <cond> <body>]`.
func (c *ctx) compileWhile(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	condExpr := expr.At(1)
	bodyExpr := expr.At(2)
	if condExpr == nil || bodyExpr == nil {
		return nil, nil, nil, errors.New("codegen: malformed while")
	}
	repeatLbl := asmir.NewLabel()
	skipLbl := asmir.NewLabel()

	cc, cd, ct, err := c.compile(condExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	if ct.Kind != types.KInt {
		return nil, nil, nil, errors.New("codegen: while condition must be Int")
	}
	bc, bd, _, err := c.compile(bodyExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}

	var code, data []asmir.Line
	code = append(code, asmir.LabelDef(repeatLbl))
	code = append(code, cc...)
	data = append(data, cd...)
	code = append(code,
		asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
		asmir.Instr("CMP", asmir.Reg("R0"), asmir.Imm(0)),
		asmir.Instr("BEQ", asmir.LabelImm(skipLbl)),
	)
	code = append(code, bc...)
	data = append(data, bd...)
	code = append(code, asmir.Instr("B", asmir.LabelImm(repeatLbl)))
	code = append(code, asmir.LabelDef(skipLbl))
	return code, data, c.voidType(), nil
}

// compilePrint handles `[print <expr>]`, dispatching on the operand's type.
func (c *ctx) compilePrint(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	operandExpr := expr.At(1)
	oc, od, ot, err := c.compile(operandExpr, memoryStart)
	if err != nil {
		return nil, nil, nil, err
	}
	code := append([]asmir.Line{}, oc...)

	switch {
	case ot.Kind == types.KInt:
		code = append(code,
			asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.SpecialImm(".WriteSignedNum")),
		)
	case ot.Kind == types.KChar:
		code = append(code,
			asmir.Instr("LDRB", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
			asmir.Instr("STRB", asmir.Reg("R0"), asmir.SpecialImm(".WriteChar")),
		)
	case ot.Kind == types.KArray && ot.ArrayItem.Kind == types.KChar:
		code = append(code,
			asmir.Instr("ADD", asmir.Reg("R0"), asmir.Reg("SP"), asmir.Imm(memoryStart)),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.SpecialImm(".WriteString")),
		)
	case ot.Kind == types.KPtr && ot.PtrValue.Kind == types.KChar:
		code = append(code,
			asmir.Instr("LDR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.SpecialImm(".WriteString")),
		)
	default:
		return nil, nil, nil, errors.New("codegen: print does not support this type")
	}
	return code, od, c.voidType(), nil
}
