package debugger

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/y86sim/y86sim/parser"
	"github.com/y86sim/y86sim/vm"
)

// Snapshot is everything SaveSnapshot/LoadSnapshot persist: full
// machine state, every breakpoint and watch, and enough of the console
// session to restore it to a Headless console. Field order below is
// exactly the order written to and read from the wire — registers,
// PC, flags, memory, watches, source model/breakpoints, then session
// state — per spec.md §4.10.
//
// The original C debugger's pause.c also serializes its curses
// screen's fixed-width line buffers (sim/dbg pane titles and every
// visible line, padded to a fixed column width) so a restored session
// repaints pixel-for-pixel. This Go console is built on tview panes
// and a Headless string-builder console rather than a fixed-width
// curses grid, so there is no equivalent fixed-width buffer to mirror;
// SessionState instead carries the pane-proportion/dimension fields
// that still apply plus the two panes' accumulated text as
// length-prefixed strings. The codec round-trips those fields, but
// Controller.SaveToFile fills only LineWidth and DbgLineCount (SimText
// and DbgText are written empty) and Controller's restore applies
// machine state, watches and breakpoints only, so pane output is not
// restored.
type Snapshot struct {
	CPU    vm.CPU
	Memory [vm.MemSize]byte

	Watches []Condition

	SourceFilename string
	SourceLines    []SnapshotSourceLine

	Session SessionState
}

// SnapshotSourceLine is one source line's text plus its breakpoint
// state, used both to repopulate the source model and to validate on
// restore that the source file being debugged has not changed since
// the snapshot was taken.
type SnapshotSourceLine struct {
	Text          string
	Addr          uint16
	Unconditional bool
	Conditions    []Condition
}

// SessionState is the console-facing part of a snapshot.
type SessionState struct {
	DbgPaneFraction float64
	LineWidth       int
	DbgLineCount    int
	SimLineCount    int
	SimText         string
	DbgText         string
}

// writeString writes s as spec.md §4.10 requires: a 2-byte length
// prefix that counts the trailing NUL, then the bytes, then the NUL.
func writeString(w io.Writer, s string) error {
	n := uint16(len(s) + 1)
	if err := binary.Write(w, binary.LittleEndian, n); err != nil {
		return err
	}
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n == 0 {
		return "", fmt.Errorf("malformed string length 0: must include the trailing NUL")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf[:n-1]), nil
}

func writeCondition(w io.Writer, c Condition) error {
	if err := writeString(w, c.X); err != nil {
		return err
	}
	if err := writeString(w, c.Y); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, uint16(c.Op))
}

func readCondition(r io.Reader) (Condition, error) {
	var c Condition
	x, err := readString(r)
	if err != nil {
		return c, err
	}
	y, err := readString(r)
	if err != nil {
		return c, err
	}
	var op uint16
	if err := binary.Read(r, binary.LittleEndian, &op); err != nil {
		return c, err
	}
	return Condition{X: x, Y: y, Op: Op(op)}, nil
}

// SaveSnapshot writes snap to w in the field order documented on
// Snapshot, using encoding/binary.LittleEndian throughout. Beyond the
// machine/watch/source-line fields it also writes the source filename
// (before the source lines) and stores each condition's operator as a
// uint16; the session block is the SessionState fields, not
// fixed-width pane buffers.
func SaveSnapshot(w io.Writer, snap *Snapshot) error {
	bw := bufio.NewWriter(w)

	for _, reg := range snap.CPU.Regs {
		if err := binary.Write(bw, binary.LittleEndian, reg); err != nil {
			return fmt.Errorf("write registers: %w", err)
		}
	}
	if err := binary.Write(bw, binary.LittleEndian, snap.CPU.PC); err != nil {
		return fmt.Errorf("write PC: %w", err)
	}
	for _, flag := range []bool{snap.CPU.Flags.OF, snap.CPU.Flags.SF, snap.CPU.Flags.ZF} {
		v := uint32(0)
		if flag {
			v = 1
		}
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write flags: %w", err)
		}
	}
	if _, err := bw.Write(snap.Memory[:]); err != nil {
		return fmt.Errorf("write memory: %w", err)
	}

	if err := binary.Write(bw, binary.LittleEndian, uint16(len(snap.Watches))); err != nil {
		return err
	}
	for _, c := range snap.Watches {
		if err := writeCondition(bw, c); err != nil {
			return fmt.Errorf("write watch: %w", err)
		}
	}

	if err := writeString(bw, snap.SourceFilename); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint16(len(snap.SourceLines))); err != nil {
		return err
	}
	for _, line := range snap.SourceLines {
		if err := writeString(bw, line.Text); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, line.Addr); err != nil {
			return err
		}
		hasBP := uint8(0)
		if line.Unconditional {
			hasBP = 1
		}
		hasCondBP := uint8(0)
		if len(line.Conditions) > 0 {
			hasCondBP = 1
		}
		if err := binary.Write(bw, binary.LittleEndian, hasBP); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, hasCondBP); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(line.Conditions))); err != nil {
			return err
		}
		for _, c := range line.Conditions {
			if err := writeCondition(bw, c); err != nil {
				return fmt.Errorf("write line condition: %w", err)
			}
		}
	}

	if err := binary.Write(bw, binary.LittleEndian, snap.Session.DbgPaneFraction); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, int32(snap.Session.LineWidth)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, int32(snap.Session.DbgLineCount)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, int32(snap.Session.SimLineCount)); err != nil {
		return err
	}
	if err := writeString(bw, snap.Session.SimText); err != nil {
		return err
	}
	if err := writeString(bw, snap.Session.DbgText); err != nil {
		return err
	}

	return bw.Flush()
}

// RestoreError reports why a snapshot could not be restored into the
// current session: either spec.md §7's "different source file" or
// "terminal too small" abort conditions.
type RestoreError struct {
	Reason string
}

func (e *RestoreError) Error() string { return e.Reason }

// LoadSnapshot reads a snapshot from r and, after validating it
// against currentSourceLines (the source file text currently loaded)
// and the console's current (width, dbgLines) dimensions, returns the
// decoded Snapshot. It aborts with a *RestoreError rather than
// partially restoring if the source text has diverged line-for-line,
// or the current terminal is smaller than the snapshot's line width or
// debugger-pane line count.
func LoadSnapshot(r io.Reader, currentSourceLines []string, width, dbgLines int) (*Snapshot, error) {
	br := bufio.NewReader(r)
	snap := &Snapshot{}

	for i := range snap.CPU.Regs {
		if err := binary.Read(br, binary.LittleEndian, &snap.CPU.Regs[i]); err != nil {
			return nil, fmt.Errorf("read registers: %w", err)
		}
	}
	if err := binary.Read(br, binary.LittleEndian, &snap.CPU.PC); err != nil {
		return nil, fmt.Errorf("read PC: %w", err)
	}
	for _, flagPtr := range []*bool{&snap.CPU.Flags.OF, &snap.CPU.Flags.SF, &snap.CPU.Flags.ZF} {
		var v uint32
		if err := binary.Read(br, binary.LittleEndian, &v); err != nil {
			return nil, fmt.Errorf("read flags: %w", err)
		}
		*flagPtr = v != 0
	}
	if _, err := io.ReadFull(br, snap.Memory[:]); err != nil {
		return nil, fmt.Errorf("read memory: %w", err)
	}

	var watchCount uint16
	if err := binary.Read(br, binary.LittleEndian, &watchCount); err != nil {
		return nil, err
	}
	snap.Watches = make([]Condition, watchCount)
	for i := range snap.Watches {
		c, err := readCondition(br)
		if err != nil {
			return nil, fmt.Errorf("read watch: %w", err)
		}
		snap.Watches[i] = c
	}

	filename, err := readString(br)
	if err != nil {
		return nil, err
	}
	snap.SourceFilename = filename

	var lineCount uint16
	if err := binary.Read(br, binary.LittleEndian, &lineCount); err != nil {
		return nil, err
	}
	snap.SourceLines = make([]SnapshotSourceLine, lineCount)
	for i := range snap.SourceLines {
		text, err := readString(br)
		if err != nil {
			return nil, err
		}
		var addr uint16
		if err := binary.Read(br, binary.LittleEndian, &addr); err != nil {
			return nil, err
		}
		var hasBP, hasCondBP uint8
		if err := binary.Read(br, binary.LittleEndian, &hasBP); err != nil {
			return nil, err
		}
		if err := binary.Read(br, binary.LittleEndian, &hasCondBP); err != nil {
			return nil, err
		}
		var condCount uint16
		if err := binary.Read(br, binary.LittleEndian, &condCount); err != nil {
			return nil, err
		}
		conds := make([]Condition, condCount)
		for j := range conds {
			c, err := readCondition(br)
			if err != nil {
				return nil, err
			}
			conds[j] = c
		}
		snap.SourceLines[i] = SnapshotSourceLine{
			Text:          text,
			Addr:          addr,
			Unconditional: hasBP != 0,
			Conditions:    conds,
		}
	}

	if err := binary.Read(br, binary.LittleEndian, &snap.Session.DbgPaneFraction); err != nil {
		return nil, err
	}
	var lineWidth, dbgLineCount, simLineCount int32
	if err := binary.Read(br, binary.LittleEndian, &lineWidth); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &dbgLineCount); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &simLineCount); err != nil {
		return nil, err
	}
	snap.Session.LineWidth = int(lineWidth)
	snap.Session.DbgLineCount = int(dbgLineCount)
	snap.Session.SimLineCount = int(simLineCount)

	simText, err := readString(br)
	if err != nil {
		return nil, err
	}
	dbgText, err := readString(br)
	if err != nil {
		return nil, err
	}
	snap.Session.SimText = simText
	snap.Session.DbgText = dbgText

	if err := validateRestore(snap, currentSourceLines, width, dbgLines); err != nil {
		return nil, err
	}

	return snap, nil
}

func validateRestore(snap *Snapshot, currentSourceLines []string, width, dbgLines int) error {
	if len(snap.SourceLines) != len(currentSourceLines) {
		return &RestoreError{Reason: fmt.Sprintf("snapshot was taken against a %d-line source file, current file has %d lines", len(snap.SourceLines), len(currentSourceLines))}
	}
	for i, line := range snap.SourceLines {
		if line.Text != currentSourceLines[i] {
			return &RestoreError{Reason: fmt.Sprintf("source file has changed since the snapshot was taken (line %d differs)", i+1)}
		}
	}
	if width < snap.Session.LineWidth || dbgLines < snap.Session.DbgLineCount {
		return &RestoreError{Reason: "current terminal is smaller than the snapshot's session"}
	}
	return nil
}

// SourceLineTexts extracts the normalized text of every line in a SourceModel,
// for passing to LoadSnapshot's divergence check.
func SourceLineTexts(m *parser.SourceModel) []string {
	out := make([]string, len(m.Lines))
	for i, l := range m.Lines {
		out[i] = l.Text
	}
	return out
}
