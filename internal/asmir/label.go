package asmir

import (
	"strings"

	"github.com/google/uuid"
)

// Label is a value-identity object: labels compare by their ID, which the
// linker may reassign in place during coalescing (§4.6). Every reference
// to a Label is by pointer so a reassignment is visible everywhere at
// once.
type Label struct {
	ID uuid.UUID
}

// NewLabel mints a fresh, process-unique label.
func NewLabel() *Label {
	return &Label{ID: uuid.New()}
}

// Sym renders the label's target-syntax symbol: label__<32-hex>.
func (l *Label) Sym() string {
	return "label__" + strings.ReplaceAll(l.ID.String(), "-", "")
}
