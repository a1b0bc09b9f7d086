// Package compiler wires the phases together: lex, parse, resolve types,
// register functions, generate code per function, then link.
package compiler

import (
	"github.com/pkg/errors"

	"github.com/AshKmo/armlitian/internal/asmir"
	"github.com/AshKmo/armlitian/internal/ast"
	"github.com/AshKmo/armlitian/internal/codegen"
	"github.com/AshKmo/armlitian/internal/diag"
	"github.com/AshKmo/armlitian/internal/sema"
	"github.com/AshKmo/armlitian/internal/types"
)

// Compiler runs the whole pipeline once per Compile call. It is
// synchronous and single-threaded end to end, per spec: every phase
// completes before the next starts, and nothing here is safe to reuse
// concurrently across compiles.
type Compiler struct {
	Verbose bool
}

// Compile turns source text into a target assembly listing.
func (c *Compiler) Compile(source string) (string, error) {
	sink := diag.NewSink(c.Verbose)

	sink.Logf("lex", "scanning %d bytes", len(source))
	toks, err := ast.Lex(source)
	if err != nil {
		return "", errors.Wrap(err, "lex")
	}

	sink.Logf("parse", "%d tokens", len(toks))
	root, err := ast.Parse(toks)
	if err != nil {
		return "", errors.Wrap(err, "parse")
	}
	typeDecls := root.At(0)
	funcDecls := root.At(1)
	if typeDecls == nil || funcDecls == nil {
		return "", errors.New("parse: program root must hold two lists: type declarations, function declarations")
	}

	sink.Logf("resolve", "resolving %d type declarations", len(typeDecls.List))
	tbl := types.NewTable()
	if err := tbl.ResolveDeclarations(typeDecls); err != nil {
		return "", errors.Wrap(err, "resolve")
	}
	if err := tbl.ResolvePtrTypes(); err != nil {
		return "", errors.Wrap(err, "resolve: pointer targets")
	}
	if c.Verbose {
		sink.Logf("resolve", "type table:\n%s", tbl.Dump())
	}

	sink.Logf("sema", "registering %d function declarations", len(funcDecls.List))
	funcs, err := sema.RegisterFunctions(tbl, funcDecls)
	if err != nil {
		return "", errors.Wrap(err, "sema")
	}

	cg := codegen.New(tbl, funcs, sink)
	var funcCode [][]asmir.Line
	var allData []asmir.Line
	for _, name := range orderedNames(funcDecls, funcs) {
		fn := funcs.Lookup(name)
		sink.Logf("codegen", "compiling %q", name)
		code, data, err := cg.CompileFunction(fn)
		if err != nil {
			return "", errors.Wrap(err, "codegen")
		}
		funcCode = append(funcCode, code)
		allData = append(allData, data...)
	}

	main := funcs.Lookup("main")
	var mainEntry *asmir.Label
	if main != nil {
		mainEntry = main.Entry
	}

	sink.Logf("link", "assembling %d function bodies", len(funcCode))
	listing, err := asmir.Finalize(asmir.Program{
		MainEntry:  mainEntry,
		CopySub:    cg.CopySubroutine(),
		FuncCode:   funcCode,
		Data:       allData,
		StackLabel: asmir.NewLabel(),
	}, sink)
	if err != nil {
		return "", errors.Wrap(err, "link")
	}
	return listing, nil
}

// orderedNames preserves declaration order for deterministic output,
// since sema.Table itself is an unordered map.
func orderedNames(funcDecls *ast.Element, funcs *sema.Table) []string {
	var names []string
	for _, decl := range funcDecls.List {
		nameExpr := decl.At(1)
		if nameExpr != nil && nameExpr.Kind == ast.ElWord {
			names = append(names, nameExpr.Word)
		}
	}
	return names
}
