package types

import "github.com/davecgh/go-spew/spew"

func dumpTable(t *Table) string {
	return spew.Sdump(t.byName)
}
