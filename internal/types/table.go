package types

import (
	"github.com/pkg/errors"

	"github.com/AshKmo/armlitian/internal/ast"
)

// Table owns every named Type for the whole compile.
type Table struct {
	byName map[string]*Type
}

// NewTable returns a table pre-seeded with the four builtin scalar types.
func NewTable() *Table {
	t := &Table{byName: map[string]*Type{}}
	t.byName["void"] = &Type{Kind: KVoid, Name: "void"}
	t.byName["int"] = &Type{Kind: KInt, Name: "int"}
	t.byName["float"] = &Type{Kind: KFloat, Name: "float"}
	t.byName["char"] = &Type{Kind: KChar, Name: "char"}
	return t
}

// Lookup returns the named type, or nil if absent.
func (t *Table) Lookup(name string) *Type {
	return t.byName[name]
}

// ConstructType builds a Type from a typeExpr per §4.3. typeExpr is either
// a bare Word naming an already-installed type, or a List whose first
// element is a Word: the name of an already-installed type, or one of the
// keywords ptr/array/struct.
//
// A nil, nil return means "not found yet" — the caller (the fixpoint
// loop) should retry on a later pass.
func (t *Table) ConstructType(typeExpr *ast.Element, resolveImmediately bool, noClones bool) (*Type, error) {
	if typeExpr == nil {
		return nil, errors.New("types: nil type expression")
	}

	// A bare name reference, e.g. ptr's child in [ptr Node], names an
	// existing type directly without the [name] list wrapping used
	// elsewhere (field and parameter typeExprs).
	if typeExpr.Kind == ast.ElWord {
		existing := t.byName[typeExpr.Word]
		if existing == nil {
			return nil, nil
		}
		if noClones {
			return existing, nil
		}
		return existing.Clone(), nil
	}

	if typeExpr.Kind != ast.ElList || len(typeExpr.List) == 0 {
		return nil, errors.New("types: malformed type expression")
	}
	head := typeExpr.HeadWord()

	if existing := t.byName[head]; existing != nil {
		if noClones {
			return existing, nil
		}
		return existing.Clone(), nil
	}

	switch head {
	case "ptr":
		childExpr := typeExpr.At(1)
		if childExpr == nil {
			return nil, errors.New("types: ptr with no target type expression")
		}
		if resolveImmediately {
			target, err := t.ConstructType(childExpr, true, noClones)
			if err != nil {
				return nil, errors.Wrap(err, "types: resolving ptr target")
			}
			if target == nil {
				return nil, errors.New("types: ptr target construction failed")
			}
			return &Type{Kind: KPtr, PtrValue: target}, nil
		}
		return &Type{Kind: KPtr, PtrValue: &Type{Kind: KUnresolvedPtrValue, Unresolved: childExpr}}, nil

	case "array":
		itemExpr := typeExpr.At(1)
		countExpr := typeExpr.At(2)
		if itemExpr == nil || countExpr == nil || countExpr.Kind != ast.ElInt {
			return nil, errors.New("types: malformed array type expression")
		}
		item, err := t.ConstructType(itemExpr, resolveImmediately, noClones)
		if err != nil {
			return nil, errors.Wrap(err, "types: resolving array item type")
		}
		if item == nil {
			return nil, nil
		}
		return &Type{Kind: KArray, ArrayItem: item, ArrayCount: countExpr.IntVal}, nil

	case "struct":
		fieldList := typeExpr.At(1)
		if fieldList == nil || fieldList.Kind != ast.ElList {
			return nil, errors.New("types: malformed struct type expression")
		}
		var fields []Field
		var pos int32
		for _, fieldExpr := range fieldList.List {
			fTypeExpr := fieldExpr.At(0)
			fNameExpr := fieldExpr.At(1)
			if fTypeExpr == nil || fNameExpr == nil || fNameExpr.Kind != ast.ElWord {
				return nil, errors.New("types: malformed struct field")
			}
			fType, err := t.ConstructType(fTypeExpr, resolveImmediately, noClones)
			if err != nil {
				return nil, errors.Wrap(err, "types: resolving struct field type")
			}
			if fType == nil {
				return nil, nil
			}
			fields = append(fields, Field{Name: fNameExpr.Word, Type: fType, Position: pos})
			pos += WordBytes(fType.Size())
		}
		return &Type{Kind: KStruct, Fields: fields}, nil

	default:
		return nil, nil
	}
}

// ResolveDeclarations runs the fixpoint pass over the type-declaration
// list (the first child of the program root): each entry is
// [name typeExpr]. Declarations may forward-reference each other through
// ptr, so ConstructType is retried pass after pass until everything
// succeeds or no progress is made.
func (t *Table) ResolveDeclarations(declList *ast.Element) error {
	if declList == nil || declList.Kind != ast.ElList {
		return errors.New("types: malformed type declaration list")
	}

	pending := append([]*ast.Element(nil), declList.List...)
	for len(pending) > 0 {
		var next []*ast.Element
		progressed := false
		for _, decl := range pending {
			nameExpr := decl.At(0)
			typeExpr := decl.At(1)
			if nameExpr == nil || nameExpr.Kind != ast.ElWord || typeExpr == nil {
				return errors.New("types: malformed type declaration")
			}
			name := nameExpr.Word
			if t.byName[name] != nil {
				return errors.Errorf("types: duplicate type name %q", name)
			}
			constructed, err := t.ConstructType(typeExpr, false, false)
			if err != nil {
				return errors.Wrapf(err, "types: constructing type %q", name)
			}
			if constructed == nil {
				next = append(next, decl)
				continue
			}
			constructed.Name = name
			t.byName[name] = constructed
			progressed = true
		}
		if !progressed && len(next) > 0 {
			return errors.New("types: too many type construction failures")
		}
		pending = next
	}
	return nil
}

// ResolvePtrTypes walks every named Type after the fixpoint and replaces
// each UnresolvedPtrValue target in place, by reconstructing it now that
// every name is known. It recurses into Array.item and Struct.field types
// but not into an already-resolved Ptr's value, since that named type (if
// any) gets its own top-level visit — recursing through it here would
// loop forever on self-referential structures.
func (t *Table) ResolvePtrTypes() error {
	for _, named := range t.byName {
		if err := resolvePtrsIn(named, t); err != nil {
			return errors.Wrapf(err, "types: resolving pointer targets in %q", named.Name)
		}
	}
	return nil
}

func resolvePtrsIn(ty *Type, t *Table) error {
	switch ty.Kind {
	case KPtr:
		if ty.PtrValue != nil && ty.PtrValue.Kind == KUnresolvedPtrValue {
			resolved, err := t.ConstructType(ty.PtrValue.Unresolved, true, true)
			if err != nil {
				return err
			}
			if resolved == nil {
				return errors.New("pointer target unresolvable after fixpoint")
			}
			ty.PtrValue = resolved
		}
	case KArray:
		return resolvePtrsIn(ty.ArrayItem, t)
	case KStruct:
		for i := range ty.Fields {
			if err := resolvePtrsIn(ty.Fields[i].Type, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// AreEqual implements the §3 type-equality rule. Comparing an
// UnresolvedPtrValue on either side is an error: the relation isn't
// defined for a placeholder.
func AreEqual(a, b *Type) (bool, error) {
	if a == nil || b == nil {
		return a == b, nil
	}
	if a.Kind == KUnresolvedPtrValue || b.Kind == KUnresolvedPtrValue {
		return false, errors.New("types: AreEqual of an UnresolvedPtrValue")
	}
	if a.Name != "" && b.Name != "" && a.Name == b.Name {
		return true, nil
	}
	if a.Kind != b.Kind {
		return false, nil
	}
	switch a.Kind {
	case KVoid, KInt, KFloat, KChar:
		return true, nil
	case KPtr:
		return AreEqual(a.PtrValue, b.PtrValue)
	case KArray:
		if a.ArrayCount != b.ArrayCount {
			return false, nil
		}
		return AreEqual(a.ArrayItem, b.ArrayItem)
	case KStruct:
		if len(a.Fields) != len(b.Fields) {
			return false, nil
		}
		for i := range a.Fields {
			eq, err := AreEqual(a.Fields[i].Type, b.Fields[i].Type)
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, nil
	}
}

// Dump renders a deep structural dump of the table for verbose diagnostics.
func (t *Table) Dump() string {
	return dumpTable(t)
}
