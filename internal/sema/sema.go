// Package sema registers function declarations: resolving each signature
// against the type table and assigning parameter frame positions.
package sema

import (
	"github.com/pkg/errors"

	"github.com/AshKmo/armlitian/internal/asmir"
	"github.com/AshKmo/armlitian/internal/ast"
	"github.com/AshKmo/armlitian/internal/types"
)

// Function is {name, return_type, parameters, body AST, entry_label}.
type Function struct {
	Name       string
	ReturnType *types.Type
	// Params is the ordered mapping name→Field described in the data
	// model; Field.Position is the byte offset of the parameter within
	// the callee's frame.
	Params             []types.Field
	Body               *ast.Element
	Entry              *asmir.Label
	TotalParameterSize int32
}

// Table is the name→Function map built by RegisterFunctions.
type Table struct {
	byName map[string]*Function
}

func (t *Table) Lookup(name string) *Function { return t.byName[name] }

func (t *Table) Names() []string {
	names := make([]string, 0, len(t.byName))
	for n := range t.byName {
		names = append(names, n)
	}
	return names
}

// RegisterFunctions builds the function table from the second child of the
// program root: a list of [<returnTypeExpr> <name> [<param>...] <body>].
func RegisterFunctions(tbl *types.Table, declList *ast.Element) (*Table, error) {
	if declList == nil || declList.Kind != ast.ElList {
		return nil, errors.New("sema: malformed function declaration list")
	}
	ft := &Table{byName: map[string]*Function{}}

	for _, decl := range declList.List {
		returnTypeExpr := decl.At(0)
		nameExpr := decl.At(1)
		paramsExpr := decl.At(2)
		bodyExpr := decl.At(3)
		if returnTypeExpr == nil || nameExpr == nil || nameExpr.Kind != ast.ElWord ||
			paramsExpr == nil || paramsExpr.Kind != ast.ElList || bodyExpr == nil {
			return nil, errors.New("sema: malformed function declaration")
		}
		name := nameExpr.Word
		if ft.byName[name] != nil {
			return nil, errors.Errorf("sema: duplicate function name %q", name)
		}

		returnType, err := tbl.ConstructType(returnTypeExpr, true, false)
		if err != nil {
			return nil, errors.Wrapf(err, "sema: resolving return type of %q", name)
		}
		if returnType == nil {
			return nil, errors.Errorf("sema: unknown return type of %q", name)
		}

		pos := returnType.Size() + 4
		var params []types.Field
		var totalParamSize int32
		for _, paramExpr := range paramsExpr.List {
			pTypeExpr := paramExpr.At(0)
			pNameExpr := paramExpr.At(1)
			if pTypeExpr == nil || pNameExpr == nil || pNameExpr.Kind != ast.ElWord {
				return nil, errors.Errorf("sema: malformed parameter in %q", name)
			}
			pType, err := tbl.ConstructType(pTypeExpr, true, false)
			if err != nil {
				return nil, errors.Wrapf(err, "sema: resolving parameter type in %q", name)
			}
			if pType == nil {
				return nil, errors.Errorf("sema: unknown parameter type in %q", name)
			}
			params = append(params, types.Field{Name: pNameExpr.Word, Type: pType, Position: pos})
			totalParamSize += pType.Size()
			pos += types.WordBytes(pType.Size())
		}

		ft.byName[name] = &Function{
			Name:               name,
			ReturnType:         returnType,
			Params:             params,
			Body:               bodyExpr,
			Entry:              asmir.NewLabel(),
			TotalParameterSize: totalParamSize,
		}
	}
	return ft, nil
}
