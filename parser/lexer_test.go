package parser

import "testing"

func TestNormalizeLineBlank(t *testing.T) {
	l := NormalizeLine("   # just a comment", "f.y86", 1)
	if l.Kind != LineBlank {
		t.Fatalf("Kind = %v, want LineBlank", l.Kind)
	}
}

func TestNormalizeLineLabelOnly(t *testing.T) {
	l := NormalizeLine("loop:", "f.y86", 1)
	if l.Kind != LineLabelOnly || l.Label != "loop" {
		t.Fatalf("got Kind=%v Label=%q, want LineLabelOnly/loop", l.Kind, l.Label)
	}
}

func TestNormalizeLineInstructionWithLabel(t *testing.T) {
	l := NormalizeLine("loop: addl %eax, %ebx # comment", "f.y86", 1)
	if l.Kind != LineInstruction {
		t.Fatalf("Kind = %v, want LineInstruction", l.Kind)
	}
	if l.Label != "loop" {
		t.Errorf("Label = %q, want loop", l.Label)
	}
	if l.Mnemonic != "addl" {
		t.Errorf("Mnemonic = %q, want addl", l.Mnemonic)
	}
	if len(l.Operands) != 2 || l.Operands[0] != "%eax" || l.Operands[1] != "%ebx" {
		t.Errorf("Operands = %v, want [%%eax %%ebx]", l.Operands)
	}
}

func TestNormalizeLineDirective(t *testing.T) {
	l := NormalizeLine(".long 42", "f.y86", 1)
	if l.Kind != LineDirective {
		t.Fatalf("Kind = %v, want LineDirective", l.Kind)
	}
	if l.Directive != "long" {
		t.Errorf("Directive = %q, want long", l.Directive)
	}
	if len(l.Operands) != 1 || l.Operands[0] != "42" {
		t.Errorf("Operands = %v, want [42]", l.Operands)
	}
}

func TestNormalizeLineMnemonicLowercased(t *testing.T) {
	l := NormalizeLine("HALT", "f.y86", 1)
	if l.Mnemonic != "halt" {
		t.Errorf("Mnemonic = %q, want lowercased halt", l.Mnemonic)
	}
}

func TestParseRegisterOperand(t *testing.T) {
	reg, ok := ParseRegisterOperand("%eax")
	if !ok || reg != 0 {
		t.Fatalf("ParseRegisterOperand(%%eax) = (%d, %v), want (0, true)", reg, ok)
	}
	if _, ok := ParseRegisterOperand("eax"); ok {
		t.Error("expected failure without leading %")
	}
	if _, ok := ParseRegisterOperand("%notareg"); ok {
		t.Error("expected failure for an unknown register name")
	}
}

func TestParseMemoryOperand(t *testing.T) {
	mo, ok := ParseMemoryOperand("100(%ebp)")
	if !ok {
		t.Fatalf("expected %q to parse", "100(%ebp)")
	}
	if mo.DispText != "100" || !mo.HasReg || mo.Reg != 5 {
		t.Errorf("got %+v", mo)
	}

	bare, ok := ParseMemoryOperand("mylabel")
	if !ok || bare.HasReg {
		t.Errorf("expected a bare label to parse with HasReg=false, got %+v, ok=%v", bare, ok)
	}

	if _, ok := ParseMemoryOperand(""); ok {
		t.Error("expected an empty operand to fail")
	}
}
