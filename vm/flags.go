package vm

// updateArithFlags sets ZF/SF from a result and OF from the supplied
// overflow bit, mirroring the teacher's UpdateFlagsNZCV-style "compute
// the bits, then assign" shape (vm/flags.go) but against this domain's
// three condition codes rather than ARM's NZCV.
func updateArithFlags(f *Flags, result uint32, overflow bool) {
	f.ZF = result == 0
	f.SF = result&0x80000000 != 0
	f.OF = overflow
}

// addOverflow reports whether a+b overflows as a signed 32-bit add:
// true when both operands share a sign and the result's sign differs
// from theirs. Same sign-bit comparison the teacher uses in
// CalculateAddOverflow, generalized to this instruction set's add.
func addOverflow(a, b, result uint32) bool {
	signA := a&0x80000000 != 0
	signB := b&0x80000000 != 0
	signR := result&0x80000000 != 0
	return signA == signB && signR != signA
}

// subOverflow reports whether a-b overflows as a signed 32-bit
// subtract: true when the operands' signs differ and the result's sign
// differs from the minuend's. Mirrors the teacher's
// CalculateSubOverflow sign-bit logic.
func subOverflow(a, b, result uint32) bool {
	signA := a&0x80000000 != 0
	signB := b&0x80000000 != 0
	signR := result&0x80000000 != 0
	return signA != signB && signR != signA
}

// mulOverflow reports whether the signed 64-bit product of a and b
// does not fit back into a signed 32-bit result.
func mulOverflow(a, b int32, result int32) bool {
	full := int64(a) * int64(b)
	return full != int64(result)
}

// EvaluateJump reports whether the named conditional-jump mnemonic
// should branch, given the current flags. jmp always branches and is
// not handled here (the executor never needs to ask).
func EvaluateJump(mnemonic string, f Flags) bool {
	switch mnemonic {
	case "je":
		return f.ZF
	case "jne":
		return !f.ZF
	case "jl":
		return f.SF != f.OF
	case "jle":
		return f.ZF || (f.SF != f.OF)
	case "jge":
		return f.SF == f.OF
	case "jg":
		return !f.ZF && (f.SF == f.OF)
	default:
		return false
	}
}
