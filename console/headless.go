package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Headless is a UI with no terminal: it buffers both output panes and
// answers prompts line by line from a supplied reader. It exists so the debugger core and the assembler/simulator
// can be driven end-to-end without a real terminal, and is what the
// package's own tests use.
type Headless struct {
	Sim strings.Builder
	Dbg strings.Builder

	width    int
	dbgLines int

	in     *bufio.Reader
	exited bool
}

// NewHeadless returns a Headless console reading prompt answers from
// in, reporting the given pane dimensions.
func NewHeadless(in io.Reader, width, dbgLines int) *Headless {
	return &Headless{in: bufio.NewReader(in), width: width, dbgLines: dbgLines}
}

func (h *Headless) WriteSim(s string) { h.Sim.WriteString(s) }
func (h *Headless) WriteDbg(s string) { h.Dbg.WriteString(s) }

func (h *Headless) Prompt(hint string, format PromptFormat) (string, error) {
	line, err := h.in.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("prompt %q: %w", hint, err)
	}
	if err == io.EOF && line == "" {
		return "", fmt.Errorf("prompt %q: no more input", hint)
	}
	return line, nil
}

// ReadCommand reads the next debugger command line the same way
// Prompt reads simulated-program input: headless mode has only one
// input stream.
func (h *Headless) ReadCommand() (string, error) {
	return h.Prompt("command", FormatString)
}

func (h *Headless) Dimensions() (int, int) { return h.width, h.dbgLines }

func (h *Headless) WaitKeyThenExit() { h.exited = true }

// Exited reports whether WaitKeyThenExit has been called.
func (h *Headless) Exited() bool { return h.exited }
