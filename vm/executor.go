package vm

import "fmt"

// IO is the simulator's side of the console contract (spec.md §4.9):
// the four I/O instructions read and write through it rather than
// touching a terminal directly, so the executor has no dependency on
// any particular console implementation.
type IO interface {
	ReadChar() (byte, error)
	ReadInt() (int32, error)
	WriteChar(byte)
	WriteInt(int32)
}

// NullIO discards writes and fails reads; it is the VM's default IO so
// that a VM can be constructed and stepped in tests without wiring a
// console.
type NullIO struct{}

func (NullIO) ReadChar() (byte, error)  { return 0, fmt.Errorf("no console attached") }
func (NullIO) ReadInt() (int32, error)  { return 0, fmt.Errorf("no console attached") }
func (NullIO) WriteChar(byte)           {}
func (NullIO) WriteInt(int32)           {}

// RuntimeError is a fatal decode/execute failure: illegal opcode, or a
// memory access outside the 4 KiB image. Per spec.md §7 these abort the
// run; they are distinct from divide-by-zero, which sets OF and
// continues rather than trapping.
type RuntimeError struct {
	PC      uint16
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at 0x%03X: %s", e.PC, e.Message)
}

// VM composes the CPU, memory, frame ledger and console IO port into
// one fetch/decode/execute unit.
type VM struct {
	CPU    *CPU
	Memory *Memory
	Frames *FrameLedger
	IO     IO

	Halted bool
}

// NewVM returns a VM with a reset CPU, zeroed memory and NullIO
// attached.
func NewVM() *VM {
	return &VM{
		CPU:    NewCPU(),
		Memory: NewMemory(),
		Frames: &FrameLedger{},
		IO:     NullIO{},
	}
}

// Reset restores the CPU and memory to their power-on state and clears
// the frame ledger. Halted is cleared.
func (m *VM) Reset() {
	m.CPU.Reset()
	m.Memory.Reset()
	m.Frames.Reset()
	m.Halted = false
}

func runtimeErrf(pc uint16, format string, args ...any) *RuntimeError {
	return &RuntimeError{PC: pc, Message: fmt.Sprintf(format, args...)}
}

// Step fetches, decodes and executes exactly one instruction at the
// current PC. It returns a *RuntimeError for an illegal opcode or an
// out-of-bounds memory access; arithmetic/flag conditions (like a zero
// divisor) never return an error, per spec.md §4.4.
func (m *VM) Step() error {
	if m.Halted {
		return runtimeErrf(m.CPU.PC, "machine is halted")
	}

	pc := m.CPU.PC
	opcodeByte, err := m.Memory.ReadByte(uint32(pc))
	if err != nil {
		return runtimeErrf(pc, "fetch failed: %v", err)
	}
	inst, ok := LookupOpcode(opcodeByte)
	if !ok {
		return runtimeErrf(pc, "illegal opcode 0x%02X", opcodeByte)
	}
	if int(pc)+inst.Size > MemSize {
		return runtimeErrf(pc, "instruction at 0x%03X overruns memory", pc)
	}

	switch inst.Family {
	case FamilyNoOperand:
		return m.execNoOperand(inst, pc)
	case FamilyRegReg:
		return m.execRegReg(inst, pc)
	case FamilyRegOnly:
		return m.execRegOnly(inst, pc)
	case FamilyRegNum:
		return m.execRegNum(inst, pc)
	case FamilyRegMem:
		return m.execRegMem(inst, pc)
	case FamilyJumpAddr:
		return m.execJumpAddr(inst, pc)
	default:
		return runtimeErrf(pc, "unhandled instruction family for opcode 0x%02X", opcodeByte)
	}
}

func (m *VM) execNoOperand(inst Instruction, pc uint16) error {
	switch inst.Mnemonic {
	case "nop":
		m.CPU.PC = pc + uint16(inst.Size)
	case "halt":
		m.Halted = true
		m.CPU.PC = pc + uint16(inst.Size)
	case "ret":
		retAddr, err := m.Memory.ReadWord(m.CPU.Regs[ESP])
		if err != nil {
			return runtimeErrf(pc, "ret: stack read failed: %v", err)
		}
		m.CPU.Regs[ESP] += 4
		m.Frames.Pop()
		m.CPU.PC = uint16(retAddr)
	}
	return nil
}

// regRegOperands splits a FamilyRegReg/FamilyRegMem second byte into
// its two 4-bit register fields.
func regRegOperands(b byte) (hi, lo int) {
	return int(b >> 4), int(b & 0xF)
}

func (m *VM) execRegReg(inst Instruction, pc uint16) error {
	b, err := m.Memory.ReadByte(uint32(pc) + 1)
	if err != nil {
		return runtimeErrf(pc, "decode failed: %v", err)
	}
	srcReg, dstReg := regRegOperands(b)
	next := pc + uint16(inst.Size)

	if inst.Mnemonic == "rrmovl" {
		m.CPU.Regs[dstReg] = m.CPU.Regs[srcReg]
		m.CPU.PC = next
		return nil
	}

	a := m.CPU.Regs[dstReg]
	bVal := m.CPU.Regs[srcReg]

	switch inst.Mnemonic {
	case "addl":
		result := a + bVal
		updateArithFlags(&m.CPU.Flags, result, addOverflow(a, bVal, result))
		m.CPU.Regs[dstReg] = result
	case "subl":
		result := a - bVal
		updateArithFlags(&m.CPU.Flags, result, subOverflow(a, bVal, result))
		m.CPU.Regs[dstReg] = result
	case "andl":
		result := a & bVal
		updateArithFlags(&m.CPU.Flags, result, false)
		m.CPU.Regs[dstReg] = result
	case "xorl":
		result := a ^ bVal
		updateArithFlags(&m.CPU.Flags, result, false)
		m.CPU.Regs[dstReg] = result
	case "multl":
		result := int32(a) * int32(bVal)
		updateArithFlags(&m.CPU.Flags, uint32(result), mulOverflow(int32(a), int32(bVal), result))
		m.CPU.Regs[dstReg] = uint32(result)
	case "divl":
		if bVal == 0 {
			m.CPU.Flags.OF = true
		} else {
			result := int32(a) / int32(bVal)
			updateArithFlags(&m.CPU.Flags, uint32(result), false)
			m.CPU.Regs[dstReg] = uint32(result)
		}
	case "modl":
		if bVal == 0 {
			m.CPU.Flags.OF = true
		} else {
			result := int32(a) % int32(bVal)
			updateArithFlags(&m.CPU.Flags, uint32(result), false)
			m.CPU.Regs[dstReg] = uint32(result)
		}
	}
	m.CPU.PC = next
	return nil
}

func (m *VM) execRegOnly(inst Instruction, pc uint16) error {
	b, err := m.Memory.ReadByte(uint32(pc) + 1)
	if err != nil {
		return runtimeErrf(pc, "decode failed: %v", err)
	}
	reg := int(b >> 4)
	next := pc + uint16(inst.Size)

	switch inst.Mnemonic {
	case "pushl":
		newEsp := m.CPU.Regs[ESP] - 4
		if err := m.Memory.WriteWord(newEsp, m.CPU.Regs[reg]); err != nil {
			return runtimeErrf(pc, "pushl: %v", err)
		}
		m.CPU.Regs[ESP] = newEsp
	case "popl":
		val, err := m.Memory.ReadWord(m.CPU.Regs[ESP])
		if err != nil {
			return runtimeErrf(pc, "popl: %v", err)
		}
		m.CPU.Regs[ESP] += 4
		m.CPU.Regs[reg] = val
	case "rdch":
		c, err := m.IO.ReadChar()
		if err != nil {
			return runtimeErrf(pc, "rdch: %v", err)
		}
		m.CPU.Regs[reg] = uint32(c)
	case "wrch":
		m.IO.WriteChar(byte(m.CPU.Regs[reg]))
	case "rdint":
		v, err := m.IO.ReadInt()
		if err != nil {
			return runtimeErrf(pc, "rdint: %v", err)
		}
		m.CPU.Regs[reg] = uint32(v)
	case "wrint":
		m.IO.WriteInt(int32(m.CPU.Regs[reg]))
	}
	m.CPU.PC = next
	return nil
}

func (m *VM) execRegNum(inst Instruction, pc uint16) error {
	b, err := m.Memory.ReadByte(uint32(pc) + 1)
	if err != nil {
		return runtimeErrf(pc, "decode failed: %v", err)
	}
	reg := int(b &^ IRMovlRegTag)
	imm, err := m.Memory.ReadWord(uint32(pc) + 2)
	if err != nil {
		return runtimeErrf(pc, "decode immediate failed: %v", err)
	}
	m.CPU.Regs[reg] = imm
	m.CPU.PC = pc + uint16(inst.Size)
	return nil
}

func (m *VM) execRegMem(inst Instruction, pc uint16) error {
	b, err := m.Memory.ReadByte(uint32(pc) + 1)
	if err != nil {
		return runtimeErrf(pc, "decode failed: %v", err)
	}
	valueReg, baseReg := regRegOperands(b)
	disp, err := m.Memory.ReadWord(uint32(pc) + 2)
	if err != nil {
		return runtimeErrf(pc, "decode displacement failed: %v", err)
	}

	addr := disp
	if baseReg != NoRegSentinel {
		addr = m.CPU.Regs[baseReg] + disp
	}

	switch inst.Mnemonic {
	case "rmmovl":
		if err := m.Memory.WriteWord(addr, m.CPU.Regs[valueReg]); err != nil {
			return runtimeErrf(pc, "rmmovl: %v", err)
		}
	case "mrmovl":
		val, err := m.Memory.ReadWord(addr)
		if err != nil {
			return runtimeErrf(pc, "mrmovl: %v", err)
		}
		m.CPU.Regs[valueReg] = val
	}
	m.CPU.PC = pc + uint16(inst.Size)
	return nil
}

func (m *VM) execJumpAddr(inst Instruction, pc uint16) error {
	target, err := m.Memory.ReadWord(uint32(pc) + 1)
	if err != nil {
		return runtimeErrf(pc, "decode target failed: %v", err)
	}
	next := pc + uint16(inst.Size)

	switch inst.Mnemonic {
	case "jmp":
		m.CPU.PC = uint16(target)
	case "call":
		if err := m.Memory.WriteWord(m.CPU.Regs[ESP]-4, uint32(next)); err != nil {
			return runtimeErrf(pc, "call: %v", err)
		}
		m.CPU.Regs[ESP] -= 4
		m.Frames.Push(Frame{CallSite: pc, Target: uint16(target), ESPOnCall: m.CPU.Regs[ESP]})
		m.CPU.PC = uint16(target)
	default:
		if EvaluateJump(inst.Mnemonic, m.CPU.Flags) {
			m.CPU.PC = uint16(target)
		} else {
			m.CPU.PC = next
		}
	}
	return nil
}
