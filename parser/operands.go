package parser

import (
	"strings"

	"github.com/y86sim/y86sim/vm"
)

// ParseRegisterOperand parses a `%reg` operand, returning the register
// index.
func ParseRegisterOperand(s string) (int, bool) {
	if !strings.HasPrefix(s, "%") {
		return 0, false
	}
	return vm.RegisterIndex(s[1:])
}

// MemoryOperand is a decoded `disp(%reg)` or bare-label/numeric memory
// operand. HasReg is false for a bare label or absolute address, in
// which case Disp carries the raw (possibly symbolic) text for the
// caller to resolve.
type MemoryOperand struct {
	DispText string
	Reg      int
	HasReg   bool
}

// ParseMemoryOperand parses the `disp(%reg)` or bare-label/numeric form
// used by rmmovl/mrmovl operands.
func ParseMemoryOperand(s string) (MemoryOperand, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		// Bare label or absolute numeric address, no base register.
		if s == "" {
			return MemoryOperand{}, false
		}
		return MemoryOperand{DispText: s, HasReg: false}, true
	}
	if !strings.HasSuffix(s, ")") {
		return MemoryOperand{}, false
	}
	dispText := strings.TrimSpace(s[:open])
	regText := strings.TrimSpace(s[open+1 : len(s)-1])
	reg, ok := ParseRegisterOperand(regText)
	if !ok {
		return MemoryOperand{}, false
	}
	if dispText == "" {
		dispText = "0"
	}
	return MemoryOperand{DispText: dispText, Reg: reg, HasReg: true}, true
}
