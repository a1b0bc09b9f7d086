// Package codegen is the expression-tree-directed code generator: the
// largest component, one emitter per source-language operator, all
// sharing the recursive compile entry point and the memory_start frame
// protocol described in §4.5.
package codegen

import (
	"github.com/pkg/errors"

	"github.com/AshKmo/armlitian/internal/asmir"
	"github.com/AshKmo/armlitian/internal/ast"
	"github.com/AshKmo/armlitian/internal/diag"
	"github.com/AshKmo/armlitian/internal/sema"
	"github.com/AshKmo/armlitian/internal/types"
)

// CodeGen holds everything shared across every function body compiled in
// one program: the resolved type table, the function table (so calls can
// resolve callees), the label minted for the shared copy subroutine, and
// the diagnostics sink.
type CodeGen struct {
	Types     *types.Table
	Funcs     *sema.Table
	CopyLabel *asmir.Label
	Sink      *diag.Sink
}

// New creates a CodeGen with a fresh copy-subroutine label.
func New(tbl *types.Table, funcs *sema.Table, sink *diag.Sink) *CodeGen {
	return &CodeGen{Types: tbl, Funcs: funcs, CopyLabel: asmir.NewLabel(), Sink: sink}
}

// ctx bundles the per-function compile state: the variable table (which
// grows as `do` blocks declare locals) and the function being compiled,
// so every per-form emitter can stay a plain method without threading
// four parameters through every recursive call.
type ctx struct {
	cg   *CodeGen
	vars map[string]types.Field
	fn   *sema.Function
}

func (c *ctx) intType() *types.Type   { return c.cg.Types.Lookup("int") }
func (c *ctx) charType() *types.Type  { return c.cg.Types.Lookup("char") }
func (c *ctx) voidType() *types.Type  { return c.cg.Types.Lookup("void") }

// CompileFunction emits one function's entry label, prologue and body.
func (cg *CodeGen) CompileFunction(fn *sema.Function) (code []asmir.Line, data []asmir.Line, err error) {
	vars := map[string]types.Field{}
	for _, p := range fn.Params {
		vars[p.Name] = p
	}
	c := &ctx{cg: cg, vars: vars, fn: fn}

	code = append(code, asmir.LabelDef(fn.Entry))
	code = append(code, asmir.Instr("STR", asmir.Reg("LR"), asmir.MemOff("SP", fn.ReturnType.Size())))

	memoryStart := fn.TotalParameterSize + fn.ReturnType.Size() + 4
	bodyCode, bodyData, _, err := c.compile(fn.Body, memoryStart)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "codegen: function %q", fn.Name)
	}
	code = append(code, bodyCode...)
	return code, bodyData, nil
}

// compile is the single recursive expression compiler: every per-form
// emitter funnels back through this dispatch. Per §4.5 it must write the
// expression's result as the first size(result_type) bytes at
// SP+memoryStart.
func (c *ctx) compile(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	if expr == nil {
		return nil, nil, nil, errors.New("codegen: nil expression")
	}
	switch expr.Kind {
	case ast.ElInt:
		return []asmir.Line{
			asmir.Instr("MOV", asmir.Reg("R0"), asmir.Imm(expr.IntVal)),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
		}, nil, c.intType(), nil

	case ast.ElChar:
		return []asmir.Line{
			asmir.Instr("MOV", asmir.Reg("R0"), asmir.Imm(int32(expr.Ch))),
			asmir.Instr("STRB", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
		}, nil, c.charType(), nil

	case ast.ElFloat:
		return nil, nil, nil, errors.New("codegen: floating-point code generation is not implemented")

	case ast.ElString:
		lbl := asmir.NewLabel()
		data := []asmir.Line{asmir.LabelDef(lbl), asmir.Ascii(expr.Str)}
		code := []asmir.Line{
			asmir.Instr("MOV", asmir.Reg("R0"), asmir.LabelImm(lbl)),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
		}
		return code, data, &types.Type{Kind: types.KPtr, PtrValue: c.charType()}, nil

	case ast.ElWord:
		return c.compileWord(expr, memoryStart)

	case ast.ElList:
		return c.compileList(expr, memoryStart)

	default:
		return nil, nil, nil, errors.Errorf("codegen: unhandled element kind %v", expr.Kind)
	}
}

// compileWord handles the three leaf Word shapes: a `.name` special
// constant, a `$name` value-of reference, or a bare variable name whose
// address is materialized.
func (c *ctx) compileWord(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	w := expr.Word
	switch {
	case len(w) > 0 && w[0] == '.':
		code := []asmir.Line{
			asmir.Instr("MOV", asmir.Reg("R0"), asmir.SpecialImm(w)),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
		}
		return code, nil, &types.Type{Kind: types.KPtr, PtrValue: c.intType()}, nil

	case len(w) > 0 && w[0] == '$':
		name := w[1:]
		field, ok := c.vars[name]
		if !ok {
			return nil, nil, nil, errors.Errorf("codegen: unknown variable %q", name)
		}
		code := []asmir.Line{
			asmir.Instr("ADD", asmir.Reg("R0"), asmir.Reg("SP"), asmir.Imm(field.Position)),
			asmir.Instr("ADD", asmir.Reg("R1"), asmir.Reg("SP"), asmir.Imm(memoryStart)),
			asmir.Instr("MOV", asmir.Reg("R2"), asmir.Imm(field.Type.Size())),
			asmir.Instr("BL", asmir.LabelImm(c.cg.CopyLabel)),
		}
		return code, nil, field.Type, nil

	default:
		field, ok := c.vars[w]
		if !ok {
			return nil, nil, nil, errors.Errorf("codegen: unknown variable %q", w)
		}
		code := []asmir.Line{
			asmir.Instr("ADD", asmir.Reg("R0"), asmir.Reg("SP"), asmir.Imm(field.Position)),
			asmir.Instr("STR", asmir.Reg("R0"), asmir.MemOff("SP", memoryStart)),
		}
		return code, nil, &types.Type{Kind: types.KPtr, PtrValue: field.Type}, nil
	}
}

// compileList dispatches a List expression by its head Word to the
// matching per-form emitter, or to a function call if the head names a
// declared function.
func (c *ctx) compileList(expr *ast.Element, memoryStart int32) ([]asmir.Line, []asmir.Line, *types.Type, error) {
	head := expr.HeadWord()
	switch head {
	case "do":
		return c.compileDo(expr, memoryStart)
	case "return":
		return c.compileReturn(expr, memoryStart)
	case "<-":
		return c.compileStore(expr, memoryStart)
	case "if":
		return c.compileIf(expr, memoryStart)
	case "while":
		return c.compileWhile(expr, memoryStart)
	case "print":
		return c.compilePrint(expr, memoryStart)
	case "cast":
		return c.compileCast(expr, memoryStart)
	case "$":
		return c.compileDeref(expr, memoryStart)
	case "@", "@@":
		return c.compilePointerOffset(expr, memoryStart, head == "@@")
	case "?":
		return c.compileTernary(expr, memoryStart)
	case ".":
		return c.compileFieldAccess(expr, memoryStart)
	case "+", "-":
		return c.compileAddSub(expr, memoryStart, head)
	case "*":
		return c.compileMultiply(expr, memoryStart)
	case "/", "%":
		return c.compileDivMod(expr, memoryStart, head == "%")
	case "<", ">", "<=", ">=":
		return c.compileComparison(expr, memoryStart, head)
	case "==", "!=":
		return c.compileEquality(expr, memoryStart, head == "!=")
	case "&&", "||":
		return c.compileLogical(expr, memoryStart, head == "&&")
	case "&", "|", "^":
		return c.compileBitwise(expr, memoryStart, head)
	case "<<", ">>", ">>>":
		return c.compileShift(expr, memoryStart, head)
	case "!":
		return c.compileNot(expr, memoryStart)
	case "size_of":
		return c.compileSizeOf(expr, memoryStart)
	case "size_of_value":
		return c.compileSizeOfValue(expr, memoryStart)
	default:
		if fn := c.cg.Funcs.Lookup(head); fn != nil {
			return c.compileCall(expr, memoryStart, fn)
		}
		return nil, nil, nil, errors.Errorf("codegen: unknown operator or function %q", head)
	}
}

func findField(t *types.Type, name string) (types.Field, bool) {
	if t == nil || t.Kind != types.KStruct {
		return types.Field{}, false
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return types.Field{}, false
}
