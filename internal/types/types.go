// Package types builds the name→Type table: construction of compound
// types from their AST expressions, the fixpoint pass over forward
// pointer references, and the post-fixpoint pointer resolution walk.
package types

import (
	"github.com/AshKmo/armlitian/internal/ast"
)

// Kind tags the variant carried by a Type.
type Kind int

const (
	KVoid Kind = iota
	KInt
	KFloat
	KChar
	KPtr
	KArray
	KStruct
	KUnresolvedPtrValue
)

// Field is {name, type, position} shared by struct fields and function
// parameters/locals. Position is a byte offset whose meaning (struct
// layout vs. stack frame) depends on where the Field is used.
type Field struct {
	Name     string
	Type     *Type
	Position int32
}

// Type is the closed sum described in the data model: a shared optional
// Name plus per-variant payload. Only the fields matching Kind are valid.
type Type struct {
	Kind Kind
	Name string // "" means unnamed

	PtrValue   *Type // KPtr
	ArrayItem  *Type // KArray
	ArrayCount int32 // KArray

	Fields []Field // KStruct, ordered

	Unresolved *ast.Element // KUnresolvedPtrValue: the saved typeExpr
}

// WordBytes rounds n up to the next multiple of 4.
func WordBytes(n int32) int32 {
	return ((n + 3) / 4) * 4
}

// Size returns the byte size of the type per the Size column of the data
// model's Type table. Struct size is the raw sum of field sizes, NOT the
// word-aligned end offset used for field layout — the two are
// deliberately different quantities.
func (t *Type) Size() int32 {
	switch t.Kind {
	case KVoid:
		return 0
	case KInt, KFloat:
		return 4
	case KChar:
		return 1
	case KPtr:
		return 4
	case KArray:
		return t.ArrayItem.Size() * t.ArrayCount
	case KStruct:
		var n int32
		for _, f := range t.Fields {
			n += f.Type.Size()
		}
		return n
	case KUnresolvedPtrValue:
		return 0
	default:
		return 0
	}
}

// Clone makes a structurally identical copy carrying the same Name.
// Used when ConstructType resolves a name reference and the caller asked
// for distinct (non-aliased) Type values.
func (t *Type) Clone() *Type {
	if t == nil {
		return nil
	}
	c := &Type{Kind: t.Kind, Name: t.Name}
	switch t.Kind {
	case KPtr:
		c.PtrValue = t.PtrValue
	case KArray:
		c.ArrayItem = t.ArrayItem
		c.ArrayCount = t.ArrayCount
	case KStruct:
		c.Fields = append([]Field(nil), t.Fields...)
	case KUnresolvedPtrValue:
		c.Unresolved = t.Unresolved
	}
	return c
}
