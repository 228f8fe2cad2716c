// Package assembler ties parser (lexing, label table, source model)
// and encoder (bytecode emission) together into the two-pass process
// spec.md §4.3 describes: the teacher splits this across parser/
// encoder/loader; this domain's simpler dialect (no macros, no literal
// pool, no segments) collapses the orchestration into one package.
package assembler

import (
	"fmt"
	"strings"

	"github.com/y86sim/y86sim/encoder"
	"github.com/y86sim/y86sim/parser"
	"github.com/y86sim/y86sim/vm"
)

// Program is the result of a successful assembly: a full 4 KiB memory
// image, the label table, and the source model the debugger displays
// and maps breakpoints against.
type Program struct {
	Image   [vm.MemSize]byte
	Symbols *parser.SymbolTable
	Source  *parser.SourceModel
}

// Assemble runs the two-pass assembly of src (the full text of a
// source file, named filename for diagnostics) and returns a Program,
// or the first *parser.Error encountered. Per spec.md §7, malformed
// source aborts assembly entirely rather than producing a partial
// image.
func Assemble(src, filename string) (*Program, error) {
	rawLines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")

	symbols := parser.NewSymbolTable()
	lines := make([]*parser.Line, len(rawLines))

	addr := uint16(0)
	for i, raw := range rawLines {
		line := parser.NormalizeLine(raw, filename, i+1)
		lines[i] = line

		if line.Label != "" {
			if err := symbols.Define(line.Label, addr); err != nil {
				return nil, &parser.Error{Pos: line.Pos, Message: err.Error(), Context: line.RawLine}
			}
		}

		switch line.Kind {
		case parser.LineInstruction:
			size, ok := vm.GetInstrSize(line.Mnemonic)
			if !ok {
				return nil, &parser.Error{Pos: line.Pos, Message: fmt.Sprintf("unknown mnemonic %q", line.Mnemonic), Context: line.RawLine}
			}
			addr += uint16(size)

		case parser.LineDirective:
			next, err := applyDirective(line, addr, symbols, nil, false)
			if err != nil {
				return nil, err
			}
			addr = next
		}
	}

	prog := &Program{Symbols: symbols, Source: parser.NewSourceModel()}

	addr = 0
	for _, line := range lines {
		isLabelOnly := line.Kind == parser.LineBlank || line.Kind == parser.LineLabelOnly
		prog.Source.AddLine(line.Normalized(), addr, isLabelOnly)

		switch line.Kind {
		case parser.LineInstruction:
			code, err := encoder.EncodeInstruction(line, symbols)
			if err != nil {
				return nil, &parser.Error{Pos: line.Pos, Message: err.Error(), Context: line.RawLine}
			}
			if int(addr)+len(code) > vm.MemSize {
				return nil, &parser.Error{Pos: line.Pos, Message: "instruction overruns the 4096-byte memory image", Context: line.RawLine}
			}
			copy(prog.Image[addr:], code)
			addr += uint16(len(code))

		case parser.LineDirective:
			next, err := applyDirective(line, addr, symbols, prog.Image[:], true)
			if err != nil {
				return nil, err
			}
			addr = next
		}
	}

	return prog, nil
}

// applyDirective handles `.pos`, `.align` and `.long`. During pass 1,
// image is nil and emit is false: only the address cursor is updated.
// During pass 2, `.long`'s resolved value is written into image.
func applyDirective(line *parser.Line, addr uint16, symbols *parser.SymbolTable, image []byte, emit bool) (uint16, error) {
	switch line.Directive {
	case "pos":
		if err := wantDirectiveOperands(line, 1); err != nil {
			return 0, err
		}
		n, ok := parser.ParseIntWithMode(line.Operands[0])
		if !ok {
			return 0, directiveErr(line, "invalid .pos operand %q", line.Operands[0])
		}
		return uint16(n), nil

	case "align":
		if err := wantDirectiveOperands(line, 1); err != nil {
			return 0, err
		}
		k, ok := parser.ParseIntWithMode(line.Operands[0])
		if !ok || k <= 0 {
			return 0, directiveErr(line, "invalid .align operand %q", line.Operands[0])
		}
		return uint16(parser.RoundUpToMultiple(int(addr), int(k))), nil

	case "long":
		if err := wantDirectiveOperands(line, 1); err != nil {
			return 0, err
		}
		if emit {
			val, err := resolveDirectiveValue(line.Operands[0], symbols)
			if err != nil {
				return 0, directiveErr(line, "%v", err)
			}
			if int(addr)+4 > len(image) {
				return 0, directiveErr(line, ".long overruns the 4096-byte memory image")
			}
			image[addr] = byte(val)
			image[addr+1] = byte(val >> 8)
			image[addr+2] = byte(val >> 16)
			image[addr+3] = byte(val >> 24)
		}
		return addr + 4, nil

	default:
		return 0, directiveErr(line, "unknown directive %q", line.Directive)
	}
}

func wantDirectiveOperands(line *parser.Line, n int) error {
	if len(line.Operands) != n {
		return directiveErr(line, ".%s expects %d operand(s), got %d", line.Directive, n, len(line.Operands))
	}
	return nil
}

func directiveErr(line *parser.Line, format string, args ...any) error {
	return &parser.Error{Pos: line.Pos, Message: fmt.Sprintf(format, args...), Context: line.RawLine}
}

func resolveDirectiveValue(text string, symbols *parser.SymbolTable) (int64, error) {
	if v, ok := parser.ParseIntWithMode(text); ok {
		return v, nil
	}
	if addr, ok := symbols.Find(text); ok {
		return int64(addr), nil
	}
	return 0, fmt.Errorf("undefined symbol %q", text)
}
