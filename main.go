package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/y86sim/y86sim/assembler"
	"github.com/y86sim/y86sim/config"
	"github.com/y86sim/y86sim/console"
	"github.com/y86sim/y86sim/debugger"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		headless    = flag.Bool("headless", false, "Run the debugger without a terminal UI, reading commands from stdin")
		configPath  = flag.String("config", "", "Path to a config.toml (default: platform config directory)")
	)
	flag.Usage = func() { printHelp() }
	flag.Parse()

	if *showVersion {
		fmt.Printf("y86sim %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 1 {
		printHelp()
		os.Exit(1)
	}
	sourcePath := args[0]

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "y86sim: %v\n", err)
		os.Exit(1)
	}

	src, err := os.ReadFile(sourcePath) // #nosec G304 -- user-supplied source file, the whole point of the CLI
	if err != nil {
		fmt.Fprintf(os.Stderr, "y86sim: %v\n", err)
		os.Exit(1)
	}

	prog, err := assembler.Assemble(string(src), sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "y86sim: assembly failed: %v\n", err)
		os.Exit(1)
	}

	var ui console.UI
	if *headless {
		ui = console.NewHeadless(os.Stdin, 80, cfg.Display.DbgPaneLines)
	} else {
		ui = console.NewTUI()
	}

	ctrl := debugger.NewController(prog, sourcePath, ui)
	runLoop(ctrl, ui, *headless)
}

// runLoop drives the REPL: read one command line, dispatch it, write
// the result to the debugger pane, repeat until `exit` or the console
// closes. In TUI mode the tview event loop runs on its own goroutine so
// ReadCommand can block the main goroutine here.
func runLoop(ctrl *debugger.Controller, ui console.UI, headless bool) {
	if tui, ok := ui.(*console.TUI); ok {
		go func() {
			if err := tui.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "y86sim: console error: %v\n", err)
				os.Exit(1)
			}
		}()
	}

	ui.WriteDbg(fmt.Sprintf("y86sim %s — type \"help\" for commands\n", Version))

	for !ctrl.Quit() {
		line, err := ui.ReadCommand()
		if err != nil {
			break
		}
		cmd, args := splitCommand(line)
		if cmd == "" {
			continue
		}
		out, err := ctrl.Dispatch(cmd, args)
		if err != nil {
			ui.WriteDbg(fmt.Sprintf("error: %v\n", err))
			continue
		}
		if out != "" {
			ui.WriteDbg(out + "\n")
		}
	}

	ui.WaitKeyThenExit()
	if headless {
		if h, ok := ui.(*console.Headless); ok {
			fmt.Print(h.Dbg.String())
		}
	}
}

func splitCommand(line string) (cmd string, args []string) {
	fields := fieldsOf(line)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

func fieldsOf(line string) []string {
	var fields []string
	start := -1
	for i, r := range line {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				fields = append(fields, line[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, line[start:])
	}
	return fields
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func printHelp() {
	fmt.Println(`y86sim - interactive Y86 assembler, simulator and debugger

Usage:
  y86sim [flags] <source-file>

Flags:
  -version       Show version information
  -help          Show this help message
  -headless      Run without a terminal UI, reading commands from stdin
  -config PATH   Use a specific config.toml instead of the platform default

Once running, type "help" at the debugger prompt for the command list
(run, step, bp, watch, view, pause, restore, makeyis, exit).`)
}
