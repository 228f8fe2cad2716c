package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/y86sim/y86sim/parser"
	"github.com/y86sim/y86sim/vm"
)

// EvalValueDescriptor evaluates one of the three value-descriptor forms
// spec.md §4.5 defines: a register (`%eax`), a signed decimal/hex
// literal (optionally `$`-prefixed), or a bounded memory load
// (`[addr,width]`, width one of 1/2/4). This is a direct, narrow
// parser rather than an adaptation of the teacher's general
// arithmetic-expression evaluator (debugger/expressions.go): the Y86
// grammar has no operators between terms, so a general expression
// lexer/parser would implement far more than this grammar uses.
// Grounded on the original `condition.c`'s calc_value_descriptor.
func EvalValueDescriptor(expr string, m *vm.VM) (uint32, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, fmt.Errorf("empty value descriptor")
	}

	if strings.HasPrefix(expr, "%") {
		reg, ok := parser.ParseRegisterOperand(expr)
		if !ok {
			return 0, fmt.Errorf("%q is not a valid register", expr)
		}
		return m.CPU.GetRegister(reg), nil
	}

	if strings.HasPrefix(expr, "[") {
		return evalMemoryLoad(expr, m)
	}

	v, ok := parser.ParseIntWithMode(expr)
	if !ok {
		return 0, fmt.Errorf("%q is not a valid value descriptor", expr)
	}
	return uint32(v), nil
}

func evalMemoryLoad(expr string, m *vm.VM) (uint32, error) {
	if !strings.HasSuffix(expr, "]") {
		return 0, fmt.Errorf("malformed memory descriptor %q: missing ']'", expr)
	}
	inner := expr[1 : len(expr)-1]
	parts := strings.SplitN(inner, ",", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed memory descriptor %q: expected [addr,width]", expr)
	}

	addrExpr := strings.TrimSpace(parts[0])
	widthExpr := strings.TrimSpace(parts[1])

	addr, err := EvalValueDescriptor(addrExpr, m)
	if err != nil {
		return 0, fmt.Errorf("memory descriptor address: %w", err)
	}
	width, err := strconv.Atoi(widthExpr)
	if err != nil || (width != 1 && width != 2 && width != 4) {
		return 0, fmt.Errorf("memory descriptor width must be 1, 2 or 4, got %q", widthExpr)
	}
	if uint64(addr)+uint64(width) > vm.MemSize {
		return 0, fmt.Errorf("memory descriptor address 0x%03X+%d exceeds %d-byte memory", addr, width, vm.MemSize)
	}

	return m.Memory.ReadWidth(addr, width)
}
