package vm

import "testing"

func assembleRegReg(opcode byte, src, dst int) []byte {
	return []byte{opcode, byte(src<<4 | dst)}
}

func assembleRegNum(opcode byte, reg int, imm uint32) []byte {
	buf := make([]byte, 6)
	buf[0] = opcode
	buf[1] = byte(reg) | IRMovlRegTag
	buf[2] = byte(imm)
	buf[3] = byte(imm >> 8)
	buf[4] = byte(imm >> 16)
	buf[5] = byte(imm >> 24)
	return buf
}

func TestIRMovlAndRRMovl(t *testing.T) {
	m := NewVM()
	image := append(assembleRegNum(OpIRMovl, EAX, 42), assembleRegReg(OpRRMovl, EAX, EBX)...)
	if err := m.Memory.LoadBytes(image); err != nil {
		t.Fatal(err)
	}
	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if m.CPU.Regs[EAX] != 42 {
		t.Fatalf("eax = %d, want 42", m.CPU.Regs[EAX])
	}
	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if m.CPU.Regs[EBX] != 42 {
		t.Fatalf("ebx = %d, want 42", m.CPU.Regs[EBX])
	}
}

func TestAddlSetsFlags(t *testing.T) {
	m := NewVM()
	image := append(assembleRegNum(OpIRMovl, EAX, 0), assembleRegReg(OpAddl, EAX, EAX)...)
	if err := m.Memory.LoadBytes(image); err != nil {
		t.Fatal(err)
	}
	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if !m.CPU.Flags.ZF {
		t.Error("expected ZF set after 0+0")
	}
	if m.CPU.Flags.SF {
		t.Error("expected SF clear after 0+0")
	}
}

func TestSublOverflow(t *testing.T) {
	m := NewVM()
	var image []byte
	image = append(image, assembleRegNum(OpIRMovl, EAX, 0x80000000)...)
	image = append(image, assembleRegNum(OpIRMovl, EBX, 1)...)
	image = append(image, assembleRegReg(OpSubl, EBX, EAX)...)
	if err := m.Memory.LoadBytes(image); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := m.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if !m.CPU.Flags.OF {
		t.Error("expected OF set: MinInt32 - 1 overflows")
	}
}

func TestDivlByZeroLeavesDestinationUnchanged(t *testing.T) {
	m := NewVM()
	var image []byte
	image = append(image, assembleRegNum(OpIRMovl, EAX, 7)...)
	image = append(image, assembleRegNum(OpIRMovl, EBX, 0)...)
	image = append(image, assembleRegReg(OpDivl, EBX, EAX)...)
	if err := m.Memory.LoadBytes(image); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := m.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if m.CPU.Regs[EAX] != 7 {
		t.Fatalf("eax = %d, want unchanged 7 after divide by zero", m.CPU.Regs[EAX])
	}
	if !m.CPU.Flags.OF {
		t.Error("expected OF set on divide by zero")
	}
}

func TestPushlPopl(t *testing.T) {
	m := NewVM()
	var image []byte
	image = append(image, assembleRegNum(OpIRMovl, EAX, 99)...)
	image = append(image, []byte{OpPushl, byte(EAX<<4) | PushPopSentinel}...)
	image = append(image, assembleRegNum(OpIRMovl, EAX, 0)...)
	image = append(image, []byte{OpPopl, byte(EBX<<4) | PushPopSentinel}...)
	if err := m.Memory.LoadBytes(image); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if err := m.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if m.CPU.Regs[EBX] != 99 {
		t.Fatalf("ebx = %d, want 99", m.CPU.Regs[EBX])
	}
	if m.CPU.Regs[ESP] != InitialESP {
		t.Fatalf("esp = %d, want restored to %d", m.CPU.Regs[ESP], InitialESP)
	}
}

func TestCallRetRoundTrip(t *testing.T) {
	m := NewVM()
	// 0: call 10
	// 5: halt
	// 10: ret
	image := make([]byte, 11)
	image[0] = OpCall
	image[1], image[2], image[3], image[4] = 10, 0, 0, 0
	image[5] = OpHalt
	image[10] = OpRet
	if err := m.Memory.LoadBytes(image); err != nil {
		t.Fatal(err)
	}
	if err := m.Step(); err != nil { // call
		t.Fatal(err)
	}
	if m.CPU.PC != 10 {
		t.Fatalf("PC = %d, want 10 after call", m.CPU.PC)
	}
	if m.Frames.Depth() != 1 {
		t.Fatalf("frame depth = %d, want 1", m.Frames.Depth())
	}
	if err := m.Step(); err != nil { // ret
		t.Fatal(err)
	}
	if m.CPU.PC != 5 {
		t.Fatalf("PC = %d, want 5 after ret", m.CPU.PC)
	}
	if m.Frames.Depth() != 0 {
		t.Fatalf("frame depth = %d, want 0 after ret", m.Frames.Depth())
	}
}

func TestConditionalJumpTaken(t *testing.T) {
	m := NewVM()
	var image []byte
	image = append(image, assembleRegNum(OpIRMovl, EAX, 0)...)
	image = append(image, assembleRegReg(OpAddl, EAX, EAX)...) // 0+0 -> ZF set
	je := []byte{OpJe, 0, 0, 0, 0}
	je[1] = 20
	image = append(image, je...)
	for len(image) < 20 {
		image = append(image, OpHalt)
	}
	image = append(image, OpHalt)
	if err := m.Memory.LoadBytes(image); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := m.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if m.CPU.PC != 20 {
		t.Fatalf("PC = %d, want 20 after je taken", m.CPU.PC)
	}
}

func TestHaltStopsExecution(t *testing.T) {
	m := NewVM()
	if err := m.Memory.LoadBytes([]byte{OpHalt}); err != nil {
		t.Fatal(err)
	}
	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if !m.Halted {
		t.Fatal("expected Halted after halt instruction")
	}
	if err := m.Step(); err == nil {
		t.Fatal("expected an error stepping a halted machine")
	}
}

func TestIllegalOpcode(t *testing.T) {
	m := NewVM()
	if err := m.Memory.LoadBytes([]byte{0xFF}); err != nil {
		t.Fatal(err)
	}
	if err := m.Step(); err == nil {
		t.Fatal("expected an error for an illegal opcode")
	}
}

func TestRmmovlMrmovlRoundTrip(t *testing.T) {
	m := NewVM()
	// rmmovl %eax, 100(%ebp); mrmovl 100(%ebp), %ebx
	var image []byte
	image = append(image, assembleRegNum(OpIRMovl, EAX, 1234)...)
	image = append(image, assembleRegNum(OpIRMovl, EBP, 0)...)
	rmmovl := make([]byte, 6)
	rmmovl[0] = OpRMMovl
	rmmovl[1] = byte(EAX<<4 | EBP)
	rmmovl[2], rmmovl[3], rmmovl[4], rmmovl[5] = 100, 0, 0, 0
	image = append(image, rmmovl...)
	mrmovl := make([]byte, 6)
	mrmovl[0] = OpMRMovl
	mrmovl[1] = byte(EBX<<4 | EBP)
	mrmovl[2], mrmovl[3], mrmovl[4], mrmovl[5] = 100, 0, 0, 0
	image = append(image, mrmovl...)

	if err := m.Memory.LoadBytes(image); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if err := m.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if m.CPU.Regs[EBX] != 1234 {
		t.Fatalf("ebx = %d, want 1234", m.CPU.Regs[EBX])
	}
}
