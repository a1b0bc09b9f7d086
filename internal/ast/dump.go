package ast

import "github.com/davecgh/go-spew/spew"

// Dump renders a deep structural dump of the element, for use behind the
// compiler's verbose switch when diagnosing parser output.
func (e *Element) Dump() string {
	return spew.Sdump(e)
}
