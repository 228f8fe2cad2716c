package vm

import (
	"encoding/binary"
	"fmt"
)

// Memory is the flat, little-endian, byte-addressable 4 KiB image. It
// replaces the teacher's segmented multi-region model (code/data/heap/
// stack segments with independent permission bits): this machine has a
// single region and no memory protection, exactly as spec.md §3
// describes.
type Memory struct {
	data [MemSize]byte
}

// NewMemory returns a zeroed memory image.
func NewMemory() *Memory {
	return &Memory{}
}

// Reset zeroes the memory image.
func (m *Memory) Reset() {
	for i := range m.data {
		m.data[i] = 0
	}
}

func boundsError(addr uint32, width int) error {
	return fmt.Errorf("memory access out of bounds: address 0x%03X, width %d (memory is %d bytes)", addr, width, MemSize)
}

// ReadByte reads a single byte at addr.
func (m *Memory) ReadByte(addr uint32) (byte, error) {
	if addr >= MemSize {
		return 0, boundsError(addr, 1)
	}
	return m.data[addr], nil
}

// WriteByte stores a single byte at addr.
func (m *Memory) WriteByte(addr uint32, value byte) error {
	if addr >= MemSize {
		return boundsError(addr, 1)
	}
	m.data[addr] = value
	return nil
}

// ReadWidth reads a little-endian value of the given width (1, 2 or 4
// bytes) at addr, zero-extended into a uint32. This backs the
// debugger's `[addr,width]` value-descriptor form.
func (m *Memory) ReadWidth(addr uint32, width int) (uint32, error) {
	if width != 1 && width != 2 && width != 4 {
		return 0, fmt.Errorf("invalid memory access width %d (must be 1, 2 or 4)", width)
	}
	if uint64(addr)+uint64(width) > MemSize {
		return 0, boundsError(addr, width)
	}
	switch width {
	case 1:
		return uint32(m.data[addr]), nil
	case 2:
		return uint32(binary.LittleEndian.Uint16(m.data[addr : addr+2])), nil
	default:
		return binary.LittleEndian.Uint32(m.data[addr : addr+4]), nil
	}
}

// ReadWord reads a 32-bit little-endian word at addr.
func (m *Memory) ReadWord(addr uint32) (uint32, error) {
	return m.ReadWidth(addr, 4)
}

// WriteWord stores a 32-bit little-endian word at addr.
func (m *Memory) WriteWord(addr uint32, value uint32) error {
	if uint64(addr)+4 > MemSize {
		return boundsError(addr, 4)
	}
	binary.LittleEndian.PutUint32(m.data[addr:addr+4], value)
	return nil
}

// LoadBytes copies an assembled bytecode image into memory starting at
// address 0. The image must fit within MemSize; the assembler already
// guarantees this since it shares the same bound.
func (m *Memory) LoadBytes(image []byte) error {
	if len(image) > MemSize {
		return fmt.Errorf("image of %d bytes exceeds %d-byte memory", len(image), MemSize)
	}
	m.Reset()
	copy(m.data[:], image)
	return nil
}

// Bytes returns the full memory image, for snapshotting.
func (m *Memory) Bytes() []byte {
	out := make([]byte, MemSize)
	copy(out, m.data[:])
	return out
}

// SetBytes overwrites the full memory image, for snapshot restore. b
// must be exactly MemSize bytes.
func (m *Memory) SetBytes(b []byte) error {
	if len(b) != MemSize {
		return fmt.Errorf("snapshot memory image is %d bytes, want %d", len(b), MemSize)
	}
	copy(m.data[:], b)
	return nil
}
