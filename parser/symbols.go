package parser

import "fmt"

// MaxLabelLength is the longest label name the assembler accepts.
const MaxLabelLength = 31

// ValidLabelName reports whether name is a syntactically legal label:
// 1-31 characters, each alphanumeric or underscore.
func ValidLabelName(name string) bool {
	if len(name) == 0 || len(name) > MaxLabelLength {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !IsAlphanumeric(name[i]) {
			return false
		}
	}
	return true
}

// SymbolTable is the assembler's label table: name -> 16-bit address,
// built during pass 1 and consulted by pass 2 to resolve jump/call
// targets and memory operands.
type SymbolTable struct {
	addrs []uint16
	names []string
	index map[string]int
}

// NewSymbolTable returns an empty label table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{index: make(map[string]int)}
}

// Define records a label at addr. It returns an error if the name is
// not a legal label or is already defined (spec.md requires label
// uniqueness).
func (t *SymbolTable) Define(name string, addr uint16) error {
	if !ValidLabelName(name) {
		return fmt.Errorf("invalid label name %q", name)
	}
	if _, exists := t.index[name]; exists {
		return fmt.Errorf("label %q already defined", name)
	}
	t.index[name] = len(t.names)
	t.names = append(t.names, name)
	t.addrs = append(t.addrs, addr)
	return nil
}

// Find resolves a label name to its address.
func (t *SymbolTable) Find(name string) (uint16, bool) {
	i, ok := t.index[name]
	if !ok {
		return 0, false
	}
	return t.addrs[i], true
}

// FindByAddr returns the first label defined at addr, if any. Several
// labels may share an address (two labels immediately before the same
// instruction); the first one defined wins, matching pass-1's
// definition order.
func (t *SymbolTable) FindByAddr(addr uint16) (string, bool) {
	for i, a := range t.addrs {
		if a == addr {
			return t.names[i], true
		}
	}
	return "", false
}

// Names returns every defined label name, in definition order.
func (t *SymbolTable) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len returns the number of defined labels.
func (t *SymbolTable) Len() int {
	return len(t.names)
}
