package ast

import (
	"strconv"

	"github.com/pkg/errors"
)

// Parse turns a token stream into a List AST. The outermost result is the
// implicit program root: a List holding whatever top-level nodes were
// written — conventionally exactly two Lists (type declarations, then
// function declarations). Bracket mismatches are not explicitly checked;
// they surface downstream as malformed AST shapes, per spec.
func Parse(toks []Token) (*Element, error) {
	root := NewList()
	stack := []*Element{root}

	for _, t := range toks {
		top := stack[len(stack)-1]
		switch t.Kind {
		case TokWhitespace:
			// boundary only
		case TokBracketOpen:
			child := NewList()
			top.List = append(top.List, child)
			stack = append(stack, child)
		case TokBracketClose:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case TokWord:
			top.List = append(top.List, NewWord(t.Text))
		case TokString:
			top.List = append(top.List, NewString(t.Text))
		case TokChar:
			r := []rune(t.Text)
			top.List = append(top.List, NewChar(r[0]))
		case TokInt:
			v, err := strconv.ParseInt(t.Text, 10, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "parse: malformed int literal %q", t.Text)
			}
			top.List = append(top.List, NewInt(int32(v)))
		case TokFloat:
			v, err := strconv.ParseFloat(t.Text, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "parse: malformed float literal %q", t.Text)
			}
			top.List = append(top.List, NewFloat(float32(v)))
		case TokHex:
			v, err := strconv.ParseInt(t.Text, 16, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parse: malformed hex literal %q", t.Text)
			}
			top.List = append(top.List, NewInt(int32(v)))
		case TokBin:
			v, err := strconv.ParseInt(t.Text, 2, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parse: malformed bin literal %q", t.Text)
			}
			top.List = append(top.List, NewInt(int32(v)))
		default:
			return nil, errors.Errorf("parse: unhandled token kind %v", t.Kind)
		}
	}
	return stack[0], nil
}
