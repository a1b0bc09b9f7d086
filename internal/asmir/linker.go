package asmir

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/AshKmo/armlitian/internal/diag"
)

// Program is the linker's input: the main entry label, the copy
// subroutine lines emitted once, every function's code in declaration
// order, every function's accumulated data-literal lines, and the stack
// label that closes the listing.
type Program struct {
	MainEntry  *Label
	CopySub    []Line
	FuncCode   [][]Line
	Data       []Line
	StackLabel *Label
}

// Finalize assembles the program per §4.6: the fixed prologue (stack
// init, call into main, HALT), the copy subroutine, every function body,
// all data literals, a final alignment directive and the stack label —
// then coalesces adjacent labels and serializes the result.
func Finalize(p Program, sink *diag.Sink) (string, error) {
	if p.MainEntry == nil {
		return "", errors.New("link: no function named main")
	}

	var lines []Line
	lines = append(lines, Instr("MOV", Reg("SP"), LabelImm(p.StackLabel)))
	lines = append(lines, Instr("BL", LabelImm(p.MainEntry)))
	lines = append(lines, Instr("HALT"))
	lines = append(lines, p.CopySub...)
	for _, fc := range p.FuncCode {
		lines = append(lines, fc...)
	}
	lines = append(lines, p.Data...)
	lines = append(lines, Directive(".ALIGN", "4"))
	lines = append(lines, LabelDef(p.StackLabel))

	before := len(lines)
	lines = CoalesceLabels(lines)
	sink.Logf("link", "coalesced %d lines to %d", before, len(lines))

	return Serialize(lines), nil
}

// CoalesceLabels merges runs of adjacent label-definition lines into one:
// every label after the first in a run has its ID reassigned to the
// first's (propagating to every existing reference, since references hold
// a *Label), and the redundant definition lines are dropped. The source
// does this by mutating a list while a foreach iterates over it; a safe
// translation walks by index and advances an explicit write cursor
// instead.
func CoalesceLabels(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	i := 0
	for i < len(lines) {
		out = append(out, lines[i])
		if lines[i].Kind == LKLabel {
			j := i + 1
			for j < len(lines) && lines[j].Kind == LKLabel {
				lines[j].Label.ID = lines[i].Label.ID
				j++
			}
			i = j
		} else {
			i++
		}
	}
	return out
}

// Serialize joins every line's target-syntax rendering with newlines.
func Serialize(lines []Line) string {
	rendered := make([]string, len(lines))
	for i, l := range lines {
		rendered[i] = l.Render()
	}
	return strings.Join(rendered, "\n") + "\n"
}
