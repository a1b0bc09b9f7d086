package codegen

import (
	"github.com/pkg/errors"

	"github.com/AshKmo/armlitian/internal/asmir"
	"github.com/AshKmo/armlitian/internal/ast"
	"github.com/AshKmo/armlitian/internal/sema"
	"github.com/AshKmo/armlitian/internal/types"
)

// compileCall handles a function call: the head Word matched a declared
// function name in compileList.
func (c *ctx) compileCall(expr *ast.Element, memoryStart int32, fn *sema.Function) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	argExprs := expr.List[1:]
	if len(argExprs) != len(fn.Params) {
		return nil, nil, nil, errors.Errorf("codegen: call to %q: arity mismatch", fn.Name)
	}

	var code, data []asmir.Line
	offset := memoryStart + fn.ReturnType.Size() + 4
	for i, argExpr := range argExprs {
		ac, ad, at, err := c.compile(argExpr, offset)
		if err != nil {
			return nil, nil, nil, err
		}
		eq, err := types.AreEqual(at, fn.Params[i].Type)
		if err != nil || !eq {
			return nil, nil, nil, errors.Errorf("codegen: call to %q: argument %d type mismatch", fn.Name, i)
		}
		code = append(code, ac...)
		data = append(data, ad...)
		offset += types.WordBytes(fn.Params[i].Type.Size())
	}

	code = append(code,
		asmir.Instr("ADD", asmir.Reg("SP"), asmir.Reg("SP"), asmir.Imm(memoryStart)),
		asmir.Instr("BL", asmir.LabelImm(fn.Entry)),
		asmir.Instr("SUB", asmir.Reg("SP"), asmir.Reg("SP"), asmir.Imm(memoryStart)),
	)
	return code, data, fn.ReturnType, nil
}
