package main

import (
	"io"
)

// commands maps every kvtool subcommand by name; help lists them in the
// sequence given by order.
func commands() map[string]*Command {
	return map[string]*Command{
		"create": createCmd(),
		"repl":   replCmd(),
		"get":    getCmd(),
		"set":    setCmd(),
		"del":    delCmd(),
		"size":   sizeCmd(),
	}
}

// order is the display order for the top-level help listing.
var order = []string{"create", "repl", "get", "set", "del", "size"}

// Run dispatches args[0] to the matching subcommand and returns a process
// exit code, grounded on the teacher's internal/cli.Run: build the
// command table once, print global help when nothing (or an unknown
// name) is given, otherwise hand off to Command.Run.
func Run(args []string, out, errOut io.Writer) int {
	o := newIO(out, errOut)
	cmds := commands()

	if len(args) == 0 {
		printUsage(o, cmds)
		return 1
	}

	name := args[0]
	if name == "help" || name == "--help" || name == "-h" {
		printUsage(o, cmds)
		return 0
	}

	cmd, ok := cmds[name]
	if !ok {
		o.ErrPrintln("unknown command:", name)
		printUsage(o, cmds)
		return 1
	}

	return cmd.Run(o, args[1:])
}

func printUsage(o *IO, cmds map[string]*Command) {
	o.Println("kvtool — a single-file key/value table engine")
	o.Println()
	o.Println("Usage:")
	for _, name := range order {
		o.Println(cmds[name].HelpLine())
	}
}
