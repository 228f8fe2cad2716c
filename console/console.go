// Package console is the external UI collaborator spec.md §4.9
// describes: two write channels (simulator output, debugger output),
// one line prompt with a format hint, pane dimensions, and a
// wait-for-keypress-then-exit step. The debugger core only depends on
// the UI interface below; console.TUI and console.Headless are its two
// concrete realizations.
package console

import "fmt"

// PromptFormat is the display hint a `rdch`/`rdint` prompt carries,
// mirroring the original console's "%s"/"%c"/scanf-integer hints.
type PromptFormat int

const (
	FormatString PromptFormat = iota
	FormatChar
	FormatInt
)

// UI is the contract the debugger's Controller drives the console
// through. WriteSim carries the simulated program's own I/O; WriteDbg
// carries debugger command output and diagnostics — the two panes
// spec.md §4.9 describes.
type UI interface {
	WriteSim(s string)
	WriteDbg(s string)
	Prompt(hint string, format PromptFormat) (string, error)
	ReadCommand() (string, error)
	Dimensions() (width, dbgLines int)
	WaitKeyThenExit()
}

// IOAdapter implements vm.IO on top of a UI, so the simulator's
// rdch/wrch/rdint/wrint instructions can drive whichever console
// implementation the Controller was built with.
type IOAdapter struct {
	UI UI
}

func (a IOAdapter) ReadChar() (byte, error) {
	s, err := a.UI.Prompt("char", FormatChar)
	if err != nil {
		return 0, err
	}
	if len(s) == 0 {
		return 0, fmt.Errorf("no character entered")
	}
	return s[0], nil
}

func (a IOAdapter) ReadInt() (int32, error) {
	s, err := a.UI.Prompt("int", FormatInt)
	if err != nil {
		return 0, err
	}
	var v int32
	if _, scanErr := fmt.Sscanf(s, "%d", &v); scanErr != nil {
		return 0, fmt.Errorf("invalid integer input %q", s)
	}
	return v, nil
}

func (a IOAdapter) WriteChar(b byte) {
	a.UI.WriteSim(string(rune(b)))
}

func (a IOAdapter) WriteInt(v int32) {
	a.UI.WriteSim(fmt.Sprintf("%d", v))
}
