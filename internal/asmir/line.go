package asmir

import "strings"

// LineKind tags the variant carried by a Line — the target listing's own
// closed sum, per the design notes.
type LineKind int

const (
	LKLabel LineKind = iota
	LKInstr
	LKDirective
)

// Line is one line of the target assembly listing.
type Line struct {
	Kind LineKind

	Label *Label // LKLabel: the label being defined

	Op       string    // LKInstr: mnemonic
	Operands []Operand // LKInstr

	Directive string // LKDirective: ".ALIGN", ".ASCIZ"
	Arg       string // LKDirective: pre-rendered argument text
}

func LabelDef(l *Label) Line { return Line{Kind: LKLabel, Label: l} }

func Instr(op string, operands ...Operand) Line {
	return Line{Kind: LKInstr, Op: op, Operands: operands}
}

func Directive(dir, arg string) Line { return Line{Kind: LKDirective, Directive: dir, Arg: arg} }

// Ascii builds the ".ASCIZ "<escaped>"" directive line for one data
// literal; it is always preceded by its own LabelDef in the data stream.
func Ascii(s string) Line {
	return Directive(".ASCIZ", `"`+EscapeString(s)+`"`)
}

// EscapeString applies the shared source/output escaping rule.
func EscapeString(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return r.Replace(s)
}

// Render produces one line of target-syntax text.
func (l Line) Render() string {
	switch l.Kind {
	case LKLabel:
		return l.Label.Sym() + ":"
	case LKInstr:
		// Branch targets are written as bare label symbols; a label used as
		// an operand of any other instruction renders as an immediate.
		branch := false
		switch l.Op {
		case "B", "BL", "BEQ", "BNE", "BGT", "BLT":
			branch = true
		}
		s := l.Op
		for i, o := range l.Operands {
			if i == 0 {
				s += " "
			} else {
				s += ","
			}
			if branch && o.Kind == OpLabelImm {
				s += o.Label.Sym()
			} else {
				s += o.Render()
			}
		}
		return s
	case LKDirective:
		if l.Arg == "" {
			return l.Directive
		}
		return l.Directive + " " + l.Arg
	default:
		return "?"
	}
}
