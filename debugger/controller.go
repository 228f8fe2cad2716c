package debugger

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/y86sim/y86sim/assembler"
	"github.com/y86sim/y86sim/console"
	"github.com/y86sim/y86sim/encoder"
	"github.com/y86sim/y86sim/parser"
	"github.com/y86sim/y86sim/vm"
)

// Controller is the debugger's REPL core: it owns the machine, the
// assembled program, every breakpoint and watch, and drives a
// console.UI through the run/step/suspend cycle. It has no knowledge
// of whether the UI it is talking to is the tview console or the
// headless one — it only ever calls through the console.UI interface,
// exactly as spec.md §4.9 requires of the debugger core.
type Controller struct {
	VM          *vm.VM
	Program     *assembler.Program
	Breakpoints *BreakpointSet
	Watches     *WatchList
	History     *CommandHistory
	UI          console.UI

	Filename string

	// StepCounter is the remaining number of instructions a `step N`
	// is letting run before it forces a suspend; `run` clears it to 0
	// so only breakpoints/watches stop execution.
	StepCounter int

	quit bool
}

// NewController wires a freshly assembled program into a VM and
// console, ready to drive.
func NewController(prog *assembler.Program, filename string, ui console.UI) *Controller {
	m := vm.NewVM()
	m.IO = console.IOAdapter{UI: ui}
	if err := m.Memory.LoadBytes(prog.Image[:]); err != nil {
		panic(err) // prog.Image is always exactly vm.MemSize bytes
	}
	return &Controller{
		VM:          m,
		Program:     prog,
		Breakpoints: NewBreakpointSet(),
		Watches:     NewWatchList(),
		History:     NewCommandHistory(),
		UI:          ui,
		Filename:    filename,
	}
}

// ShouldSuspend implements spec.md §4.8's four suspend conditions,
// OR'd together: the step counter reaching zero, an unconditional
// breakpoint at the current PC, a conditional breakpoint at the
// current PC that currently holds, or any global watch that currently
// holds. It is idempotent only while StepCounter is 0: each call made
// while a `step N` is pending consumes one count, so repeated calls
// with no instruction run in between report true once the count
// reaches zero.
func (c *Controller) ShouldSuspend() bool {
	stepDone := false
	if c.StepCounter > 0 {
		c.StepCounter--
		if c.StepCounter == 0 {
			stepDone = true
		}
	}

	line := c.Breakpoints.Line(c.VM.CPU.PC)
	_, condHit := FindFirstTrue(&line.Conditions, c.VM)
	_, watchHit := c.Watches.FindFirstHolding(c.VM)

	return stepDone || line.Unconditional || condHit || watchHit
}

// Dispatch executes one REPL command line, returning its output (to be
// written to the debugger pane) and any error. Every command in
// spec.md §4.7's table is handled here.
func (c *Controller) Dispatch(cmd string, args []string) (string, error) {
	c.History.Add(strings.TrimSpace(cmd + " " + strings.Join(args, " ")))

	switch cmd {
	case "run", "r":
		return c.cmdRun()
	case "step", "s":
		return c.cmdStep(args)
	case "bp":
		return c.cmdBreakpoint(args)
	case "watch":
		return c.cmdWatch(args)
	case "view":
		return c.cmdView(args)
	case "pause":
		return c.cmdPause(args)
	case "restore":
		return c.cmdRestore(args)
	case "makeyis":
		return c.cmdMakeyis(args)
	case "help":
		return c.cmdHelp(args), nil
	case "exit", "quit", "q":
		c.quit = true
		return "goodbye", nil
	default:
		return "", fmt.Errorf("unknown command %q (try \"help\")", cmd)
	}
}

// Quit reports whether an `exit` command has been dispatched.
func (c *Controller) Quit() bool { return c.quit }

func (c *Controller) cmdRun() (string, error) {
	c.StepCounter = 0
	if c.VM.Halted {
		return "machine is halted; use \"restore\" or reload to run again", nil
	}
	for {
		if err := c.VM.Step(); err != nil {
			return "", err
		}
		if c.VM.Halted {
			return fmt.Sprintf("halted at 0x%03X", c.VM.CPU.PC), nil
		}
		if c.ShouldSuspend() {
			return c.suspendReport(), nil
		}
	}
}

func (c *Controller) cmdStep(args []string) (string, error) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return "", fmt.Errorf("step count must be a positive integer, got %q", args[0])
		}
		n = v
	}
	c.StepCounter = n
	for {
		if c.VM.Halted {
			return fmt.Sprintf("halted at 0x%03X", c.VM.CPU.PC), nil
		}
		if err := c.VM.Step(); err != nil {
			return "", err
		}
		if c.ShouldSuspend() {
			return c.suspendReport(), nil
		}
	}
}

func (c *Controller) suspendReport() string {
	pc := c.VM.CPU.PC
	if idx, ok := c.Program.Source.FindLine(pc); ok {
		return fmt.Sprintf("suspended at 0x%03X: %s", pc, c.Program.Source.Lines[idx].Text)
	}
	return fmt.Sprintf("suspended at 0x%03X", pc)
}

// cmdBreakpoint handles `bp ADDR`, `bp ADDR if EXPR` and `bp ADDR del`.
// The `del` form disambiguates interactively when a line carries both
// an unconditional breakpoint and one or more conditional ones,
// mirroring the original debugger.c's sequence of yes/no prompts
// followed by a numbered pick among the conditional breakpoints.
func (c *Controller) cmdBreakpoint(args []string) (string, error) {
	if len(args) == 0 {
		return c.listBreakpoints(), nil
	}
	addr, err := c.resolveAddrOrLabel(args[0])
	if err != nil {
		return "", err
	}

	if len(args) == 1 {
		c.Breakpoints.SetUnconditional(addr)
		return fmt.Sprintf("breakpoint set at 0x%03X", addr), nil
	}

	switch args[1] {
	case "del", "delete":
		return c.cmdBreakpointDelete(addr)
	case "if":
		if len(args) < 3 {
			return "", fmt.Errorf("bp ADDR if EXPR requires a condition")
		}
		expr := strings.Join(args[2:], " ")
		cond, err := BuildCondition(expr)
		if err != nil {
			return "", err
		}
		c.Breakpoints.AddConditional(addr, *cond)
		return fmt.Sprintf("conditional breakpoint set at 0x%03X: %s", addr, cond), nil
	default:
		return "", fmt.Errorf("unrecognized bp syntax: %q", strings.Join(args[1:], " "))
	}
}

// cmdBreakpointDelete implements the supplemented interactive
// disambiguation: when both kinds of breakpoint exist at addr it asks
// the user which to remove, and which conditional one if there is more
// than one, before removing anything.
func (c *Controller) cmdBreakpointDelete(addr uint16) (string, error) {
	line := c.Breakpoints.Line(addr)
	if !line.HasAny() {
		return fmt.Sprintf("no breakpoint at 0x%03X", addr), nil
	}

	removedUnconditional := false
	if line.Unconditional {
		ans, err := c.promptYesNo(fmt.Sprintf("0x%03X has an unconditional breakpoint; delete it?", addr))
		if err != nil {
			return "", err
		}
		if ans {
			c.Breakpoints.ClearUnconditional(addr)
			removedUnconditional = true
		}
	}

	conds := line.Conditions.All()
	removedConditional := 0
	if len(conds) > 0 {
		ans, err := c.promptYesNo(fmt.Sprintf("0x%03X has %d conditional breakpoint(s); delete one?", addr, len(conds)))
		if err != nil {
			return "", err
		}
		if ans {
			cond, err := c.promptPickCondition(conds)
			if err != nil {
				return "", err
			}
			if cond != nil && c.Breakpoints.RemoveConditional(addr, *cond) {
				removedConditional = 1
			}
		}
	}

	return fmt.Sprintf("removed %d unconditional and %d conditional breakpoint(s) at 0x%03X",
		boolToInt(removedUnconditional), removedConditional, addr), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (c *Controller) promptYesNo(question string) (bool, error) {
	ans, err := c.UI.Prompt(question+" [y/n]", console.FormatString)
	if err != nil {
		return false, err
	}
	ans = strings.ToLower(strings.TrimSpace(ans))
	return ans == "y" || ans == "yes", nil
}

func (c *Controller) promptPickCondition(conds []Condition) (*Condition, error) {
	var b strings.Builder
	for i, cond := range conds {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, cond)
	}
	c.UI.WriteDbg(b.String())
	ans, err := c.UI.Prompt("which condition (number)?", console.FormatInt)
	if err != nil {
		return nil, err
	}
	idx, err := strconv.Atoi(strings.TrimSpace(ans))
	if err != nil || idx < 1 || idx > len(conds) {
		return nil, fmt.Errorf("invalid selection %q", ans)
	}
	return &conds[idx-1], nil
}

func (c *Controller) listBreakpoints() string {
	addrs := c.Breakpoints.Addresses()
	if len(addrs) == 0 {
		return "no breakpoints set"
	}
	var b strings.Builder
	for _, addr := range addrs {
		line := c.Breakpoints.Line(addr)
		fmt.Fprintf(&b, "0x%03X:", addr)
		if line.Unconditional {
			b.WriteString(" unconditional")
		}
		for _, cond := range line.Conditions.All() {
			fmt.Fprintf(&b, " if(%s)", cond)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// cmdWatch handles `watch EXPR`, `watch del EXPR` and `watch` (list).
func (c *Controller) cmdWatch(args []string) (string, error) {
	if len(args) == 0 {
		return c.listWatches(), nil
	}
	if args[0] == "del" || args[0] == "delete" {
		expr := strings.Join(args[1:], " ")
		cond, err := BuildCondition(expr)
		if err != nil {
			return "", err
		}
		if c.Watches.Remove(*cond) {
			return fmt.Sprintf("removed watch: %s", cond), nil
		}
		return fmt.Sprintf("no matching watch: %s", cond), nil
	}
	expr := strings.Join(args, " ")
	cond, err := BuildCondition(expr)
	if err != nil {
		return "", err
	}
	c.Watches.Add(*cond)
	return fmt.Sprintf("watch added: %s", cond), nil
}

func (c *Controller) listWatches() string {
	all := c.Watches.All()
	if len(all) == 0 {
		return "no watches set"
	}
	var b strings.Builder
	for _, cond := range all {
		fmt.Fprintf(&b, "%s\n", cond)
	}
	return strings.TrimRight(b.String(), "\n")
}

// cmdView handles `view <source|labels|registers|bps[ addr ]|bt|mem|watches>`.
func (c *Controller) cmdView(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("view requires a subcommand: source, labels, registers, bps, bt, mem, watches")
	}
	var text string
	switch args[0] {
	case "source":
		text = c.viewSource()
	case "labels":
		text = c.viewLabels()
	case "registers", "regs":
		text = c.viewRegisters()
	case "bps":
		if len(args) > 1 {
			addr, err := parseAddrArg(args[1])
			if err != nil {
				return "", err
			}
			text = c.listBreakpointsAt(addr)
		} else {
			text = c.listBreakpoints()
		}
	case "bt":
		text = c.viewBacktrace()
	case "mem":
		return c.cmdViewMemory(args[1:])
	case "watches":
		text = c.listWatches()
	default:
		return "", fmt.Errorf("unknown view subcommand %q", args[0])
	}
	return c.paginate(text), nil
}

func (c *Controller) viewSource() string {
	var b strings.Builder
	for _, line := range c.Program.Source.Lines {
		marker := "  "
		if line.Addr == c.VM.CPU.PC && !line.IsLabelOnly {
			marker = "->"
		}
		fmt.Fprintf(&b, "%s 0x%03X: %s\n", marker, line.Addr, line.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *Controller) viewLabels() string {
	names := c.Program.Symbols.Names()
	if len(names) == 0 {
		return "no labels defined"
	}
	var b strings.Builder
	for _, name := range names {
		addr, _ := c.Program.Symbols.Find(name)
		fmt.Fprintf(&b, "%-31s 0x%03X\n", name, addr)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *Controller) viewRegisters() string {
	var b strings.Builder
	for i := 0; i < vm.NumRegisters; i++ {
		fmt.Fprintf(&b, "%%%-4s 0x%08X (%d)\n", vm.RegisterName(i), c.VM.CPU.Regs[i], int32(c.VM.CPU.Regs[i]))
	}
	fmt.Fprintf(&b, "PC   0x%03X\n", c.VM.CPU.PC)
	fmt.Fprintf(&b, "OF=%v SF=%v ZF=%v", c.VM.CPU.Flags.OF, c.VM.CPU.Flags.SF, c.VM.CPU.Flags.ZF)
	return b.String()
}

func (c *Controller) listBreakpointsAt(addr uint16) string {
	line := c.Breakpoints.Line(addr)
	if !line.HasAny() {
		return fmt.Sprintf("no breakpoint at 0x%03X", addr)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "0x%03X:", addr)
	if line.Unconditional {
		b.WriteString(" unconditional")
	}
	for _, cond := range line.Conditions.All() {
		fmt.Fprintf(&b, " if(%s)", cond)
	}
	return b.String()
}

func (c *Controller) viewBacktrace() string {
	frames := c.VM.Frames.Frames()
	if len(frames) == 0 {
		return "no active calls"
	}
	var b strings.Builder
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		fmt.Fprintf(&b, "#%d called from 0x%03X -> 0x%03X (esp=0x%03X)\n", len(frames)-1-i, f.CallSite, f.Target, f.ESPOnCall)
	}
	return strings.TrimRight(b.String(), "\n")
}

// cmdViewMemory implements the supplemented "view mem" behaviour from
// the original debugger: with no arguments it asks whether to dump all
// 4096 bytes or a range, then prints 10 bytes per row. With explicit
// START and END arguments it skips the prompt.
func (c *Controller) cmdViewMemory(args []string) (string, error) {
	var start, end uint32
	if len(args) >= 2 {
		s, err := parseAddrArg(args[0])
		if err != nil {
			return "", err
		}
		e, err := parseAddrArg(args[1])
		if err != nil {
			return "", err
		}
		start, end = uint32(s), uint32(e)
	} else {
		ans, err := c.UI.Prompt("dump (a)ll memory or a (r)ange?", console.FormatString)
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(ans)), "r") {
			startText, err := c.UI.Prompt("start address", console.FormatInt)
			if err != nil {
				return "", err
			}
			endText, err := c.UI.Prompt("end address", console.FormatInt)
			if err != nil {
				return "", err
			}
			s, ok := parser.ParseIntWithMode(startText)
			if !ok {
				return "", fmt.Errorf("invalid start address %q", startText)
			}
			e, ok := parser.ParseIntWithMode(endText)
			if !ok {
				return "", fmt.Errorf("invalid end address %q", endText)
			}
			start, end = uint32(s), uint32(e)
		} else {
			start, end = 0, vm.MemSize
		}
	}
	if end > vm.MemSize {
		end = vm.MemSize
	}
	if start >= end {
		return "", fmt.Errorf("empty memory range [0x%03X, 0x%03X)", start, end)
	}

	var b strings.Builder
	for addr := start; addr < end; addr += 10 {
		fmt.Fprintf(&b, "0x%03X:", addr)
		for col := uint32(0); col < 10 && addr+col < end; col++ {
			val, err := c.VM.Memory.ReadByte(addr + col)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, " %02X", val)
		}
		b.WriteString("\n")
	}
	return c.paginate(strings.TrimRight(b.String(), "\n")), nil
}

// paginate splits long text into pages sized to the console's current
// debugger-pane height, prompting between pages rather than dumping
// everything at once, per spec.md §4.7/§4.9.
func (c *Controller) paginate(text string) string {
	_, dbgLines := c.UI.Dimensions()
	if dbgLines <= 1 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= dbgLines {
		return text
	}

	pageSize := dbgLines - 1
	for start := 0; start < len(lines); start += pageSize {
		end := start + pageSize
		if end > len(lines) {
			end = len(lines)
		}
		c.UI.WriteDbg(strings.Join(lines[start:end], "\n") + "\n")
		if end < len(lines) {
			if _, err := c.UI.Prompt("-- more --", console.FormatString); err != nil {
				break
			}
		}
	}
	return ""
}

func (c *Controller) cmdRestore(args []string) (string, error) {
	path := "snapshot.y86"
	if len(args) > 0 {
		path = args[0]
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("restore: %w", err)
	}
	defer f.Close()

	width, dbgLines := c.UI.Dimensions()
	snap, err := LoadSnapshot(f, currentSourceTexts(c.Program.Source), width, dbgLines)
	if err != nil {
		return "", err
	}

	c.VM.CPU.Regs = snap.CPU.Regs
	c.VM.CPU.PC = snap.CPU.PC
	c.VM.CPU.Flags = snap.CPU.Flags
	if err := c.VM.Memory.SetBytes(snap.Memory[:]); err != nil {
		return "", err
	}
	c.Watches.Clear()
	for _, w := range snap.Watches {
		c.Watches.Add(w)
	}
	c.Breakpoints.Clear()
	for _, line := range snap.SourceLines {
		if line.Unconditional {
			c.Breakpoints.SetUnconditional(line.Addr)
		}
		for _, cond := range line.Conditions {
			c.Breakpoints.AddConditional(line.Addr, cond)
		}
	}

	return fmt.Sprintf("restored snapshot from %s", path), nil
}

// cmdPause implements `pause FILE` (spec.md §4.7): write a snapshot to
// FILE, then terminate the session exactly as `exit` does.
func (c *Controller) cmdPause(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("pause requires a FILE argument")
	}
	path := args[0]
	if err := c.SaveToFile(path); err != nil {
		return "", err
	}
	c.quit = true
	return fmt.Sprintf("wrote snapshot to %s; exiting", path), nil
}

// SaveToFile snapshots the current session to path; the write side of
// the restore codec, driven by cmdPause.
func (c *Controller) SaveToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	snap := &Snapshot{
		CPU:            *c.VM.CPU,
		SourceFilename: c.Filename,
		Watches:        c.Watches.All(),
	}
	copy(snap.Memory[:], c.VM.Memory.Bytes())

	for _, line := range c.Program.Source.Lines {
		lb := c.Breakpoints.Line(line.Addr)
		snap.SourceLines = append(snap.SourceLines, SnapshotSourceLine{
			Text:          line.Text,
			Addr:          line.Addr,
			Unconditional: lb.Unconditional,
			Conditions:    lb.Conditions.All(),
		})
	}

	width, dbgLines := c.UI.Dimensions()
	snap.Session = SessionState{LineWidth: width, DbgLineCount: dbgLines}

	return SaveSnapshot(f, snap)
}

func (c *Controller) cmdMakeyis(args []string) (string, error) {
	var b strings.Builder
	for _, line := range c.Program.Source.Lines {
		var code []byte
		if !line.IsLabelOnly {
			normalized := parser.NormalizeLine(line.Text, c.Filename, 0)
			if normalized.Kind == parser.LineInstruction {
				if enc, err := encoder.EncodeInstruction(normalized, c.Program.Symbols); err == nil {
					code = enc
				}
			}
		}
		b.WriteString(encoder.FormatListing(line.Addr, code, line.Text))
		b.WriteString("\n")
	}
	out := strings.TrimRight(b.String(), "\n")
	if len(args) > 0 {
		if err := os.WriteFile(args[0], []byte(out+"\n"), 0o644); err != nil {
			return "", err
		}
		return fmt.Sprintf("wrote listing to %s", args[0]), nil
	}
	return out, nil
}

var helpText = map[string]string{
	"run":     "run (or r): execute until a breakpoint, a watch holds, or halt.",
	"step":    "step [N] (or s [N]): execute N instructions (default 1), stopping early at a breakpoint or watch.",
	"bp":      "bp ADDR_OR_LABEL | bp ADDR_OR_LABEL if EXPR | bp ADDR_OR_LABEL del: set, set conditionally, or remove a breakpoint at an address or a label's address.",
	"watch":   "watch EXPR | watch del EXPR: add or remove a global watch condition.",
	"view":    "view source|labels|registers|bps [ADDR]|bt|mem [START END]|watches: display debugger state.",
	"pause":   "pause FILE: write a snapshot to FILE, then exit.",
	"restore": "restore [FILE]: load a previously saved snapshot.",
	"makeyis": "makeyis [FILE]: print (or write) the assembled listing.",
	"help":    "help [COMMAND]: show this summary, or detail for one command.",
	"exit":    "exit (or quit, q): leave the debugger.",
}

func (c *Controller) cmdHelp(args []string) string {
	if len(args) > 0 {
		if text, ok := helpText[args[0]]; ok {
			return text
		}
		return fmt.Sprintf("no help for %q", args[0])
	}
	var b strings.Builder
	for _, name := range []string{"run", "step", "bp", "watch", "view", "pause", "restore", "makeyis", "help", "exit"} {
		fmt.Fprintf(&b, "%s\n", helpText[name])
	}
	return strings.TrimRight(b.String(), "\n")
}

func parseAddrArg(s string) (uint16, error) {
	v, ok := parser.ParseIntWithMode(s)
	if !ok || v < 0 || v >= vm.MemSize {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint16(v), nil
}

// resolveAddrOrLabel implements `bp`'s ADDR_OR_LABEL argument
// (spec.md §4.7): a numeric literal is used as-is, and anything else
// (including the `@label` form the debugger's own help examples use)
// is looked up in the program's label table.
func (c *Controller) resolveAddrOrLabel(s string) (uint16, error) {
	if addr, err := parseAddrArg(s); err == nil {
		return addr, nil
	}
	name := strings.TrimPrefix(s, "@")
	if addr, ok := c.Program.Symbols.Find(name); ok {
		return addr, nil
	}
	return 0, fmt.Errorf("%q is neither a valid address nor a known label", s)
}

func currentSourceTexts(m *parser.SourceModel) []string {
	return SourceLineTexts(m)
}
