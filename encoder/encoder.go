package encoder

import (
	"encoding/binary"
	"fmt"

	"github.com/y86sim/y86sim/parser"
	"github.com/y86sim/y86sim/vm"
)

// resolveValue resolves an operand's text to a numeric value: a
// literal (decimal, hex, optionally `$`-prefixed) if it parses as one,
// otherwise a label looked up in the symbol table. Mirrors the
// original assembler's two-source value resolution for irmovl
// immediates and memory/jump/call targets.
func resolveValue(text string, symbols *parser.SymbolTable) (int64, error) {
	if v, ok := parser.ParseIntWithMode(text); ok {
		return v, nil
	}
	if addr, ok := symbols.Find(text); ok {
		return int64(addr), nil
	}
	return 0, fmt.Errorf("undefined symbol %q", text)
}

func put32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

// EncodeInstruction produces the bytecode for one already-normalized
// instruction line. The assembler's pass 1 only checks that the
// mnemonic is known; EncodeInstruction itself reports an unknown
// mnemonic, a wrong operand count, malformed operand syntax and
// undefined symbols.
func EncodeInstruction(line *parser.Line, symbols *parser.SymbolTable) ([]byte, error) {
	inst, ok := vm.InstructionTable[line.Mnemonic]
	if !ok {
		return nil, fmt.Errorf("%s: unknown mnemonic %q", line.Pos, line.Mnemonic)
	}

	switch inst.Family {
	case vm.FamilyNoOperand:
		return []byte{inst.Opcode}, nil

	case vm.FamilyRegReg:
		return encodeRegReg(line, inst)

	case vm.FamilyRegOnly:
		return encodeRegOnly(line, inst)

	case vm.FamilyRegNum:
		return encodeRegNum(line, inst, symbols)

	case vm.FamilyRegMem:
		return encodeRegMem(line, inst, symbols)

	case vm.FamilyJumpAddr:
		return encodeJumpAddr(line, inst, symbols)

	default:
		return nil, fmt.Errorf("%s: unhandled family for %q", line.Pos, line.Mnemonic)
	}
}

func wantOperands(line *parser.Line, n int) error {
	if len(line.Operands) != n {
		return fmt.Errorf("%s: %s expects %d operand(s), got %d", line.Pos, line.Mnemonic, n, len(line.Operands))
	}
	return nil
}

func encodeRegReg(line *parser.Line, inst vm.Instruction) ([]byte, error) {
	if err := wantOperands(line, 2); err != nil {
		return nil, err
	}
	src, ok := parser.ParseRegisterOperand(line.Operands[0])
	if !ok {
		return nil, fmt.Errorf("%s: %q is not a register", line.Pos, line.Operands[0])
	}
	dst, ok := parser.ParseRegisterOperand(line.Operands[1])
	if !ok {
		return nil, fmt.Errorf("%s: %q is not a register", line.Pos, line.Operands[1])
	}
	return []byte{inst.Opcode, byte(src<<4 | dst)}, nil
}

func encodeRegOnly(line *parser.Line, inst vm.Instruction) ([]byte, error) {
	if err := wantOperands(line, 1); err != nil {
		return nil, err
	}
	reg, ok := parser.ParseRegisterOperand(line.Operands[0])
	if !ok {
		return nil, fmt.Errorf("%s: %q is not a register", line.Pos, line.Operands[0])
	}
	return []byte{inst.Opcode, byte(reg<<4) | vm.PushPopSentinel}, nil
}

func encodeRegNum(line *parser.Line, inst vm.Instruction, symbols *parser.SymbolTable) ([]byte, error) {
	if err := wantOperands(line, 2); err != nil {
		return nil, err
	}
	reg, ok := parser.ParseRegisterOperand(line.Operands[1])
	if !ok {
		return nil, fmt.Errorf("%s: %q is not a register", line.Pos, line.Operands[1])
	}
	immText := line.Operands[0]
	val, err := resolveValue(immText, symbols)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", line.Pos, err)
	}

	buf := make([]byte, 6)
	buf[0] = inst.Opcode
	buf[1] = byte(reg) | vm.IRMovlRegTag
	put32(buf[2:], uint32(val))
	return buf, nil
}

func encodeRegMem(line *parser.Line, inst vm.Instruction, symbols *parser.SymbolTable) ([]byte, error) {
	if err := wantOperands(line, 2); err != nil {
		return nil, err
	}

	var valueOperand, memOperand string
	if inst.Mnemonic == "rmmovl" {
		valueOperand, memOperand = line.Operands[0], line.Operands[1]
	} else {
		memOperand, valueOperand = line.Operands[0], line.Operands[1]
	}

	valueReg, ok := parser.ParseRegisterOperand(valueOperand)
	if !ok {
		return nil, fmt.Errorf("%s: %q is not a register", line.Pos, valueOperand)
	}
	mem, ok := parser.ParseMemoryOperand(memOperand)
	if !ok {
		return nil, fmt.Errorf("%s: %q is not a valid memory operand", line.Pos, memOperand)
	}
	disp, err := resolveValue(mem.DispText, symbols)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", line.Pos, err)
	}

	baseReg := vm.NoRegSentinel
	if mem.HasReg {
		baseReg = mem.Reg
	}

	buf := make([]byte, 6)
	buf[0] = inst.Opcode
	buf[1] = byte(valueReg<<4 | baseReg)
	put32(buf[2:], uint32(disp))
	return buf, nil
}

func encodeJumpAddr(line *parser.Line, inst vm.Instruction, symbols *parser.SymbolTable) ([]byte, error) {
	if err := wantOperands(line, 1); err != nil {
		return nil, err
	}
	target, err := resolveValue(line.Operands[0], symbols)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", line.Pos, err)
	}

	buf := make([]byte, 5)
	buf[0] = inst.Opcode
	put32(buf[1:], uint32(target))
	return buf, nil
}

// FormatListing renders one source line's `makeyis` output row:
// `0xAAA: <bytes, 12 hex chars wide> | TEXT`. A label/`.pos`/`.align`
// line (no emitted bytes) gets a 13-space placeholder instead, exactly
// matching the original's column math (3-hex-digit address, each byte
// as two hex chars with no separator, then 13 - 2*len(code) spaces, so
// the longest instruction's 6 bytes plus one space fill 13 columns).
func FormatListing(addr uint16, code []byte, text string) string {
	const byteColumns = 6 // widest instruction (irmovl/rmmovl/mrmovl) is 6 bytes
	var bytesCol string
	if len(code) == 0 {
		bytesCol = fmt.Sprintf("%*s", byteColumns*2+1, "")
	} else {
		for _, b := range code {
			bytesCol += fmt.Sprintf("%02X", b)
		}
		padding := byteColumns*2 + 1 - len(code)*2
		bytesCol += fmt.Sprintf("%*s", padding, "")
	}
	return fmt.Sprintf("0x%03X: %s| %s", addr, bytesCol, text)
}
