package console

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the two-pane terminal console (spec.md §4.9): a simulator
// output pane, a debugger output pane, and one command/input line
// shared by both REPL commands and simulated-program prompts. Grounded
// on the teacher's debugger/tui.go, which lays out the same
// output-pane-plus-input-field tview.Flex shape for its own (ARM)
// debugger.
type TUI struct {
	app      *tview.Application
	simView  *tview.TextView
	dbgView  *tview.TextView
	input    *tview.InputField
	flex     *tview.Flex
	dbgLines int

	lineCh chan string
}

// NewTUI constructs the tview application and widget tree but does not
// start the event loop; call Run to start it (typically from its own
// goroutine, since tview.Application.Run blocks).
func NewTUI() *TUI {
	t := &TUI{
		simView:  tview.NewTextView().SetDynamicColors(true).SetScrollable(true),
		dbgView:  tview.NewTextView().SetDynamicColors(true).SetScrollable(true),
		dbgLines: 15,
		lineCh:   make(chan string),
	}
	t.simView.SetBorder(true).SetTitle(" simulator ")
	t.dbgView.SetBorder(true).SetTitle(" debugger ")

	t.input = tview.NewInputField().SetLabel("(y86sim) ")
	t.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		line := t.input.GetText()
		t.input.SetText("")
		t.lineCh <- line
	})

	t.flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.simView, 0, 1, false).
		AddItem(t.dbgView, t.dbgLines, 0, false).
		AddItem(t.input, 1, 0, true)

	t.app = tview.NewApplication().SetRoot(t.flex, true).SetFocus(t.input)
	return t
}

// Run starts the tview event loop. It blocks until the application
// stops (WaitKeyThenExit or an application-level quit), so callers
// should start it in its own goroutine and drive the debugger core
// from another.
func (t *TUI) Run() error {
	return t.app.Run()
}

func (t *TUI) WriteSim(s string) {
	t.app.QueueUpdateDraw(func() {
		fmt.Fprint(t.simView, s)
	})
}

func (t *TUI) WriteDbg(s string) {
	t.app.QueueUpdateDraw(func() {
		fmt.Fprint(t.dbgView, s)
	})
}

func (t *TUI) Prompt(hint string, format PromptFormat) (string, error) {
	t.app.QueueUpdateDraw(func() {
		t.input.SetLabel(fmt.Sprintf("(%s) ", hint))
	})
	line, ok := <-t.lineCh
	t.app.QueueUpdateDraw(func() {
		t.input.SetLabel("(y86sim) ")
	})
	if !ok {
		return "", fmt.Errorf("console closed")
	}
	return line, nil
}

func (t *TUI) ReadCommand() (string, error) {
	line, ok := <-t.lineCh
	if !ok {
		return "", fmt.Errorf("console closed")
	}
	return line, nil
}

func (t *TUI) Dimensions() (width, dbgLines int) {
	_, _, w, _ := t.flex.GetRect()
	return w, t.dbgLines
}

func (t *TUI) WaitKeyThenExit() {
	t.app.QueueUpdateDraw(func() {
		t.dbgView.SetText(t.dbgView.GetText(false) + "\n(press any key to exit)")
	})
	t.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		t.app.Stop()
		close(t.lineCh)
		return nil
	})
}
